package decode

import (
	"bytes"
	"encoding/json"
	"regexp"
)

// tokenPattern matches key=value. A value runs until whitespace, '=' or ','
// so comma-joined tokens still split.
var tokenPattern = regexp.MustCompile(`(\w+)=([^\s=,]*)`)

// Record is an ordered set of decoded fields. A key that is set twice keeps
// its first position and its last value.
type Record struct {
	fields []Field
	index  map[string]int
}

// NewRecord builds a Record from fields in order.
func NewRecord(fields ...Field) Record {
	var r Record
	for _, f := range fields {
		r.set(f)
	}
	return r
}

// DecodeLine decodes every key=value token of line in scan order.
// Text that is not a token is ignored.
func DecodeLine(line string) Record {
	var r Record
	for _, m := range tokenPattern.FindAllStringSubmatch(line, -1) {
		for _, f := range CoerceToken(m[1], m[2]) {
			r.set(f)
		}
	}
	return r
}

func (r *Record) set(f Field) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[f.Key]; ok {
		r.fields[i].Value = f.Value
		return
	}
	r.index[f.Key] = len(r.fields)
	r.fields = append(r.fields, f)
}

// Get returns the value stored under key.
func (r Record) Get(key string) (Value, bool) {
	i, ok := r.index[key]
	if !ok {
		return Value{}, false
	}
	return r.fields[i].Value, true
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.fields) }

// Keys returns the field names in order.
func (r Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Key
	}
	return keys
}

// Fields returns a copy of the fields in order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Map flattens the record into a plain map of int64, float64 and string.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.fields))
	for _, f := range r.fields {
		m[f.Key] = f.Value.Interface()
	}
	return m
}

// Equal reports whether both records hold the same fields in the same order.
func (r Record) Equal(o Record) bool {
	if len(r.fields) != len(o.fields) {
		return false
	}
	for i := range r.fields {
		if r.fields[i].Key != o.fields[i].Key || !r.fields[i].Value.Equal(o.fields[i].Value) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the record as a JSON object in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
