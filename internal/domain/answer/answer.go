// Package answer implements the finalization policy applied to an
// answer buffer before submission, and the merge rule for
// transcription fragments.
package answer

import "strings"

// Placeholder is substituted for empty or null answers before
// submission. A non-answer is still a scoreable outcome, never an
// error.
const Placeholder = "No answer provided"

// nullPhrases are recognized null answers, compared case- and
// whitespace-insensitively.
var nullPhrases = map[string]struct{}{
	"nil":        {},
	"don't know": {},
	"dont know":  {},
}

// Finalize returns the text that will be submitted for the given
// buffer contents. Empty buffers and recognized null phrases collapse
// to Placeholder; everything else is submitted verbatim (trimmed).
func Finalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Placeholder
	}
	if _, ok := nullPhrases[normalize(trimmed)]; ok {
		return Placeholder
	}
	return trimmed
}

// MergeFragment appends a transcription fragment to the buffer with a
// single space separator. Fragments are append-only; overlapping or
// interim fragments are not deduplicated.
func MergeFragment(buffer, fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return buffer
	}
	if buffer == "" {
		return fragment
	}
	return buffer + " " + fragment
}

// normalize lowercases and collapses runs of whitespace to single
// spaces so "DON'T  KNOW" matches "don't know".
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
