// Package envelope pulls the JSON body out of the text printed by the Amari
// websocket client and classifies it.
//
// The client echoes banners and warnings around a single JSON object. Parse
// slices from the first '{' to the last '}' and decodes that region. The
// slice is purely positional: a brace inside the surrounding text moves the
// boundaries and the region no longer decodes. Callers rely on that failure
// mode, so it is kept as is.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorKey is the top-level field that marks a domain failure.
const ErrorKey = "error"

// ErrMalformed is returned when no decodable JSON object is found.
var ErrMalformed = errors.New("envelope: malformed")

// Status classifies a parsed envelope.
type Status int

const (
	// StatusSucceeded means the payload decoded and carries no error field.
	StatusSucceeded Status = iota
	// StatusDomainError means the payload decoded but the tool reported an error.
	StatusDomainError
	// StatusMalformed means no JSON payload could be decoded.
	StatusMalformed
)

// String returns a human-readable status.
func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusDomainError:
		return "domain_error"
	case StatusMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Envelope is the decoded payload plus its classification.
type Envelope struct {
	Status  Status
	Payload map[string]any
}

// Succeeded reports whether the payload decoded without an error field.
func (e Envelope) Succeeded() bool {
	return e.Status == StatusSucceeded
}

// DomainError returns the error field rendered as text, or "" if absent.
func (e Envelope) DomainError() string {
	v, ok := e.Payload[ErrorKey]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// Lookup walks nested objects along path and returns the value found.
func (e Envelope) Lookup(path ...string) (any, bool) {
	var cur any = e.Payload
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Parse locates and decodes the JSON object embedded in raw.
//
// A decoded object without an "error" field is StatusSucceeded; with one it
// is StatusDomainError. Both return a nil error. When nothing decodes, the
// envelope is StatusMalformed, its payload is {"error": <description>} and
// the returned error wraps ErrMalformed.
func Parse(raw string) (Envelope, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return malformed(errors.New("no JSON object found"))
	}

	body := []byte(raw[start : end+1])
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return malformed(err)
	}
	if rest := bytes.TrimSpace(body[dec.InputOffset():]); len(rest) > 0 {
		return malformed(fmt.Errorf("extra data at offset %d", dec.InputOffset()))
	}

	if _, ok := payload[ErrorKey]; ok {
		return Envelope{Status: StatusDomainError, Payload: payload}, nil
	}
	return Envelope{Status: StatusSucceeded, Payload: payload}, nil
}

func malformed(cause error) (Envelope, error) {
	desc := fmt.Sprintf("Error parsing JSON: %v", cause)
	return Envelope{
		Status:  StatusMalformed,
		Payload: map[string]any{ErrorKey: desc},
	}, fmt.Errorf("%w: %v", ErrMalformed, cause)
}
