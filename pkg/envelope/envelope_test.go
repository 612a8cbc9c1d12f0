package envelope

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const pdschBody = `{"response":{"logs":[{"channel":"PDSCH","timestamp":"10","data":["rb=5 mcs=20"]}]}}`

func TestParse_Succeeded(t *testing.T) {
	env, err := Parse("noise\n" + pdschBody + "\ntrailing")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !env.Succeeded() {
		t.Fatalf("Status = %v, want succeeded", env.Status)
	}
	logs, ok := env.Lookup("response", "logs")
	if !ok {
		t.Fatal("response.logs missing")
	}
	if n := len(logs.([]any)); n != 1 {
		t.Errorf("len(logs) = %d, want 1", n)
	}
}

func TestParse_DomainError(t *testing.T) {
	env, err := Parse(`Connecting...\n{"message":"config_get","error":"Unknown cell"}`)
	if err != nil {
		t.Fatalf("domain errors are not parse errors: %v", err)
	}
	if env.Succeeded() {
		t.Fatal("envelope with an error field must not succeed")
	}
	if env.Status != StatusDomainError {
		t.Errorf("Status = %v, want domain_error", env.Status)
	}
	if got := env.DomainError(); got != "Unknown cell" {
		t.Errorf("DomainError() = %q", got)
	}
}

func TestParse_DomainErrorNonString(t *testing.T) {
	env, err := Parse(`{"error":{"code":3}}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := env.DomainError(); got != `{"code":3}` {
		t.Errorf("DomainError() = %q", got)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no braces", "not json at all"},
		{"empty", ""},
		{"reversed braces", "} nothing {"},
		{"invalid body", "{not: json}"},
		{"two objects", `{"a":1} {"b":2}`},
		{"extra closing brace", `{"a":1}}`},
		{"brace in banner", "warn: {unterminated\n" + pdschBody},
		{"brace in trailer", pdschBody + "\nbye }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Parse(tt.raw)
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("err = %v, want ErrMalformed", err)
			}
			if env.Succeeded() || env.Status != StatusMalformed {
				t.Errorf("Status = %v, want malformed", env.Status)
			}
			desc, ok := env.Payload[ErrorKey].(string)
			if !ok || !strings.HasPrefix(desc, "Error parsing JSON") {
				t.Errorf("error field = %v, want descriptive message", env.Payload[ErrorKey])
			}
		})
	}
}

func TestParse_IdempotentUnderBraceFreeNoise(t *testing.T) {
	bodies := []string{
		pdschBody,
		`{"message":"stats","cpu":{"global":12.5},"cells":{"1":{"dl_bitrate":1000}}}`,
		`{"error":"busy"}`,
		`{}`,
	}
	wrappers := []struct{ banner, trailer string }{
		{"", ""},
		{"Connected to ws://127.0.0.1:9001\n", "\nClosed"},
		{"[warn] deprecated option\r\n\n", "   \n"},
	}
	for _, body := range bodies {
		clean, cleanErr := Parse(body)
		for _, w := range wrappers {
			noisy, noisyErr := Parse(w.banner + body + w.trailer)
			if (cleanErr == nil) != (noisyErr == nil) {
				t.Fatalf("error mismatch: clean=%v noisy=%v", cleanErr, noisyErr)
			}
			if diff := cmp.Diff(clean, noisy); diff != "" {
				t.Errorf("Parse differs with banner %q (-clean +noisy):\n%s", w.banner, diff)
			}
		}
	}
}

func TestParse_KeepsNumberLiterals(t *testing.T) {
	env, err := Parse(`{"samples":12345678901234567890,"gain":-3}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	n, ok := env.Payload["samples"].(json.Number)
	if !ok || n.String() != "12345678901234567890" {
		t.Errorf("samples = %#v, want exact json.Number", env.Payload["samples"])
	}
}

func TestLookup(t *testing.T) {
	env, _ := Parse(`{"a":{"b":{"c":1}},"x":[1]}`)
	if _, ok := env.Lookup("a", "b", "c"); !ok {
		t.Error("Lookup(a,b,c) should succeed")
	}
	if _, ok := env.Lookup("a", "missing"); ok {
		t.Error("Lookup(a,missing) should fail")
	}
	if _, ok := env.Lookup("x", "y"); ok {
		t.Error("Lookup through an array should fail")
	}
}
