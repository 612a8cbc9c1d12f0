package decode

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	bareHexPattern       = regexp.MustCompile(`^[A-F]+[0-9]*`)
	numericPrefixPattern = regexp.MustCompile(`^(?:[-+]?[0-9]*\.[0-9]+|[-+]?[0-9]+)`)
	comparatorPattern    = regexp.MustCompile(`^[<>=]+([0-9]+)`)
)

// ParseInt coerces loosely formatted operator input to an integer:
// "0x1f" and bare upper-case hex such as "FF" are read base 16, a leading
// number is truncated ("12.7dB" is 12), and comparator prefixes are skipped
// (">=40" is 40). It reports false when nothing numeric is found.
func ParseInt(s string) (int64, bool) {
	v, ok := CoerceInt(s)
	if !ok {
		return 0, false
	}
	n, _ := v.Int()
	return n, true
}

// CoerceInt is ParseInt returning a Value, KindHex when the input was read
// as hexadecimal and KindInt otherwise.
func CoerceInt(s string) (Value, bool) {
	if s == "" {
		return Value{}, false
	}
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		n, err := strconv.ParseInt(rest, 16, 64)
		if err != nil {
			return Value{}, false
		}
		return HexValue(n, s), true
	}
	if bareHexPattern.MatchString(s) {
		n, err := strconv.ParseInt(s, 16, 64)
		if err != nil {
			return Value{}, false
		}
		return HexValue(n, s), true
	}
	if m := numericPrefixPattern.FindString(s); m != "" {
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return Value{}, false
		}
		return IntValue(int64(f)), true
	}
	if m := comparatorPattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return Value{}, false
		}
		return IntValue(n), true
	}
	return Value{}, false
}
