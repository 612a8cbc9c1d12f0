// Package extract turns the response of a "log_get" call into decoded
// per-timestamp records for one or more physical channels.
package extract

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/mobilenet/amaribridge/pkg/decode"
	"github.com/mobilenet/amaribridge/pkg/envelope"
)

// SIMarker is the substring that identifies system-information log lines.
const SIMarker = "si"

// Common channel names.
const (
	ChannelPDSCH = "PDSCH"
	ChannelPUSCH = "PUSCH"
)

// ErrEnvelopeNotSucceeded is returned when extraction is attempted on an
// envelope that did not succeed. Callers must check Envelope.Succeeded first.
var ErrEnvelopeNotSucceeded = errors.New("extract: envelope did not succeed")

// LogEntry is one element of response.logs as produced by the Amari logger.
type LogEntry struct {
	Channel   string   `json:"channel"`
	Timestamp string   `json:"timestamp"`
	Data      []string `json:"data"`
}

// Result maps a log timestamp to the record decoded from its first data line.
type Result map[string]decode.Record

// Extract decodes the entries of env on channel. With discardSI, entries
// whose first data line contains "si" are dropped entirely.
func Extract(env envelope.Envelope, channel string, discardSI bool) (Result, error) {
	return ExtractChannels(env, []string{channel}, discardSI)
}

// ExtractChannels is Extract for a set of channels. Matches from every
// channel are merged into one Result; the channel of an entry is not kept.
func ExtractChannels(env envelope.Envelope, channels []string, discardSI bool) (Result, error) {
	if !env.Succeeded() {
		return nil, ErrEnvelopeNotSucceeded
	}

	want := make(map[string]struct{}, len(channels))
	for _, c := range channels {
		want[c] = struct{}{}
	}

	result := make(Result)
	for _, entry := range LogEntries(env) {
		if _, ok := want[entry.Channel]; !ok {
			continue
		}
		if len(entry.Data) == 0 {
			continue
		}
		first := entry.Data[0]
		if discardSI && strings.Contains(first, SIMarker) {
			continue
		}
		// Duplicate timestamps: last write wins.
		result[entry.Timestamp] = decode.DecodeLine(first)
	}
	return result, nil
}

// LogEntries returns the typed view of response.logs. A missing or
// non-array logs field yields nil. Elements that are not objects with a
// string channel are skipped.
func LogEntries(env envelope.Envelope) []LogEntry {
	raw, ok := env.Lookup("response", "logs")
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}

	entries := make([]LogEntry, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		channel, ok := obj["channel"].(string)
		if !ok {
			continue
		}
		entry := LogEntry{
			Channel:   channel,
			Timestamp: scalarText(obj["timestamp"]),
		}
		if data, ok := obj["data"].([]any); ok {
			entry.Data = make([]string, len(data))
			for i, d := range data {
				entry.Data[i] = scalarText(d)
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// scalarText renders a JSON scalar that may arrive as a string or a number.
func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
