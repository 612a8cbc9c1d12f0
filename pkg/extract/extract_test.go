package extract

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mobilenet/amaribridge/pkg/decode"
	"github.com/mobilenet/amaribridge/pkg/envelope"
)

func mustParse(t *testing.T, raw string) envelope.Envelope {
	t.Helper()
	env, err := envelope.Parse(raw)
	if err != nil {
		t.Fatalf("envelope.Parse: %v", err)
	}
	return env
}

func rec(fields ...decode.Field) decode.Record {
	return decode.NewRecord(fields...)
}

func intField(k string, n int64) decode.Field {
	return decode.Field{Key: k, Value: decode.IntValue(n)}
}

const mixedLogs = `{"response":{"logs":[
	{"channel":"PDSCH","timestamp":"1","data":["rb=5 mcs=20"]},
	{"channel":"PDSCH","timestamp":"2","data":["si_rb=4 mcs=2"]},
	{"channel":"PUSCH","timestamp":"3","data":["rb=9 mcs=10"]},
	{"channel":"PDSCH","timestamp":"4","data":["rb=7 mcs=27","si=1"]},
	{"channel":"pdsch","timestamp":"5","data":["rb=1"]}
]}}`

func TestExtract_Scenario(t *testing.T) {
	env := mustParse(t, "noise\n"+`{"response":{"logs":[{"channel":"PDSCH","timestamp":"10","data":["rb=5 mcs=20"]}]}}`+"\ntrailing")

	got, err := Extract(env, ChannelPDSCH, false)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := Result{"10": rec(intField("rb", 5), intField("mcs", 20))}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_SIEntryDropped(t *testing.T) {
	env := mustParse(t, `{"response":{"logs":[{"channel":"PDSCH","timestamp":"10","data":["si_rb=5"]}]}}`)

	got, err := Extract(env, ChannelPDSCH, true)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty result", got)
	}

	kept, err := Extract(env, ChannelPDSCH, false)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if diff := cmp.Diff(Result{"10": rec(intField("si_rb", 5))}, kept); diff != "" {
		t.Errorf("without discardSI (-want +got):\n%s", diff)
	}
}

func TestExtract_ChannelAndSIFilter(t *testing.T) {
	env := mustParse(t, mixedLogs)

	got, err := Extract(env, ChannelPDSCH, true)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := Result{
		"1": rec(intField("rb", 5), intField("mcs", 20)),
		// Only the first data line is inspected; the later "si=1" line is ignored.
		"4": rec(intField("rb", 7), intField("mcs", 27)),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractChannels_MergesChannels(t *testing.T) {
	env := mustParse(t, mixedLogs)

	got, err := ExtractChannels(env, []string{ChannelPDSCH, ChannelPUSCH}, true)
	if err != nil {
		t.Fatalf("ExtractChannels: %v", err)
	}
	want := Result{
		"1": rec(intField("rb", 5), intField("mcs", 20)),
		"3": rec(intField("rb", 9), intField("mcs", 10)),
		"4": rec(intField("rb", 7), intField("mcs", 27)),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_DuplicateTimestampLastWins(t *testing.T) {
	env := mustParse(t, `{"response":{"logs":[
		{"channel":"PDSCH","timestamp":"7","data":["rb=1"]},
		{"channel":"PDSCH","timestamp":"7","data":["rb=2"]}
	]}}`)

	got, err := Extract(env, ChannelPDSCH, false)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if diff := cmp.Diff(Result{"7": rec(intField("rb", 2))}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_MissingLogsIsEmpty(t *testing.T) {
	for _, raw := range []string{
		`{}`,
		`{"response":{}}`,
		`{"response":"ok"}`,
		`{"response":{"logs":{}}}`,
		`{"response":{"logs":[1,"x",{"timestamp":"1","data":["rb=1"]},{"channel":"PDSCH","timestamp":"2","data":[]}]}}`,
	} {
		got, err := Extract(mustParse(t, raw), ChannelPDSCH, false)
		if err != nil {
			t.Errorf("Extract(%s): %v", raw, err)
			continue
		}
		if got == nil || len(got) != 0 {
			t.Errorf("Extract(%s) = %#v, want empty non-nil result", raw, got)
		}
	}
}

func TestExtract_RejectsFailedEnvelope(t *testing.T) {
	malformed, _ := envelope.Parse("not json at all")
	domain := mustParse(t, `{"error":"log_get not allowed"}`)

	for _, env := range []envelope.Envelope{malformed, domain} {
		got, err := Extract(env, ChannelPDSCH, false)
		if !errors.Is(err, ErrEnvelopeNotSucceeded) {
			t.Errorf("Extract(%v) err = %v, want ErrEnvelopeNotSucceeded", env.Status, err)
		}
		if got != nil {
			t.Errorf("Extract(%v) = %v, want nil result", env.Status, got)
		}
	}
}

func TestLogEntries_NumericTimestamp(t *testing.T) {
	env := mustParse(t, `{"response":{"logs":[{"channel":"PDSCH","timestamp":1712345678.125,"data":["rb=5",3]}]}}`)

	got := LogEntries(env)
	want := []LogEntry{{Channel: "PDSCH", Timestamp: "1712345678.125", Data: []string{"rb=5", "3"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestResult_JSON(t *testing.T) {
	env := mustParse(t, `{"response":{"logs":[{"channel":"PDSCH","timestamp":"10","data":["rb=5 mcs=20 prb=0:24"]}]}}`)
	got, err := Extract(env, ChannelPDSCH, false)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	b, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"10":{"rb":5,"mcs":20,"prb_start":0,"prb_end":24}}`
	if string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}
}
