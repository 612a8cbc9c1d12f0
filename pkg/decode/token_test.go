package decode

import (
	"math"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCoerceToken_IntegersRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, 7, 42, 1000000, -3, math.MaxInt64, math.MinInt64} {
		got := CoerceToken("x", strconv.FormatInt(n, 10))
		want := []Field{{Key: "x", Value: IntValue(n)}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("CoerceToken(x, %d) mismatch (-want +got):\n%s", n, diff)
		}
	}
}

func TestCoerceToken_RangeExpands(t *testing.T) {
	tests := []struct {
		raw        string
		start, end int64
	}{
		{"0:0", 0, 0},
		{"5:24", 5, 24},
		{"-1:3", -1, 3},
		{"100:7", 100, 7},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := CoerceToken("x", tt.raw)
			want := []Field{
				{Key: "x_start", Value: IntValue(tt.start)},
				{Key: "x_end", Value: IntValue(tt.end)},
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
			for _, f := range got {
				if f.Key == "x" {
					t.Errorf("range must not produce a bare %q field", f.Key)
				}
			}
		})
	}
}

func TestCoerceToken_Precedence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Value
	}{
		{"float", "2.5", FloatValue(2.5)},
		{"float leading zero", "0.75", FloatValue(0.75)},
		{"negative float stays string", "-2.5", StringValue("-2.5")},
		{"hex stays string", "0x1F", StringValue("0x1F")},
		{"empty is empty string", "", StringValue("")},
		{"word", "foo", StringValue("foo")},
		{"case kept", "QPSK", StringValue("QPSK")},
		{"two colons", "1:2:3", StringValue("1:2:3")},
		{"non-integer range", "a:b", StringValue("a:b")},
		{"half range", "5:", StringValue("5:")},
		{"trailing dot", "5.", StringValue("5.")},
		{"overflow", "99999999999999999999", StringValue("99999999999999999999")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceToken("k", tt.raw)
			if len(got) != 1 {
				t.Fatalf("got %d fields, want 1", len(got))
			}
			if got[0].Key != "k" {
				t.Errorf("key = %q, want k", got[0].Key)
			}
			if !got[0].Value.Equal(tt.want) {
				t.Errorf("value = %v (%s), want %v (%s)", got[0].Value, got[0].Value.Kind(), tt.want, tt.want.Kind())
			}
		})
	}
}
