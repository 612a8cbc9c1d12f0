package decode

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	intPattern   = regexp.MustCompile(`^-?[0-9]+$`)
	floatPattern = regexp.MustCompile(`^[0-9]+\.[0-9]+$`)
)

// Field is one decoded key and its value.
type Field struct {
	Key   string
	Value Value
}

// CoerceToken decodes raw under key. It returns two fields for an "a:b"
// range and exactly one field otherwise.
func CoerceToken(key, raw string) []Field {
	if start, end, ok := parseRange(raw); ok {
		return []Field{
			{Key: key + "_start", Value: IntValue(start)},
			{Key: key + "_end", Value: IntValue(end)},
		}
	}
	return []Field{{Key: key, Value: coerceScalar(raw)}}
}

func coerceScalar(raw string) Value {
	if intPattern.MatchString(raw) {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return IntValue(n)
		}
		// Out of int64 range: keep the text.
		return StringValue(raw)
	}
	if floatPattern.MatchString(raw) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return FloatValue(f)
		}
	}
	return StringValue(raw)
}

func parseRange(raw string) (int64, int64, bool) {
	left, right, found := strings.Cut(raw, ":")
	if !found || strings.Contains(right, ":") {
		return 0, 0, false
	}
	if !intPattern.MatchString(left) || !intPattern.MatchString(right) {
		return 0, 0, false
	}
	start, err := strconv.ParseInt(left, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	end, err := strconv.ParseInt(right, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}
