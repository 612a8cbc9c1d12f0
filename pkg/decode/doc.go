// Package decode turns the key=value text lines printed by the Amari logger
// into typed records.
//
// A single token is coerced by [CoerceToken] in fixed precedence: an
// "a:b" integer range expands into "<key>_start" and "<key>_end", then plain
// integers, then unsigned decimals, and everything else stays a string.
// [DecodeLine] scans a whole line left to right and collects the coerced
// fields into an ordered [Record].
//
// [ParseInt] is the looser, hex-aware integer coercion used for operator
// input. The line decoder never uses it.
package decode
