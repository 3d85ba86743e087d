package report

import "unicode/utf8"

// DefaultCharLimit is the report ceiling used when none is configured.
// Roughly 200k characters keeps a report inside a 200k-token window with
// room left for the prompts and the stage-one answer.
const DefaultCharLimit = 200_000

// TruncationMarker is appended to every report cut down by Budget.
const TruncationMarker = "\n\n--- REPORT TRUNCATED DUE TO TOKEN LIMIT ---"

// Budget bounds report to limit characters (Unicode code points). A
// report at or under the limit is returned unchanged. A longer one is
// cut to exactly limit characters, never splitting an encoded rune, and
// TruncationMarker is appended.
func Budget(report string, limit int) string {
	if limit < 0 {
		limit = 0
	}
	if !Truncated(report, limit) {
		return report
	}

	cut := 0
	for i := 0; i < limit; i++ {
		_, size := utf8.DecodeRuneInString(report[cut:])
		cut += size
	}
	return report[:cut] + TruncationMarker
}

// Truncated reports whether Budget would cut report at limit.
func Truncated(report string, limit int) bool {
	if limit < 0 {
		limit = 0
	}
	// Byte length is an upper bound on rune count; skip the scan when it fits.
	if len(report) <= limit {
		return false
	}
	return utf8.RuneCountInString(report) > limit
}
