package agent

import "unicode/utf8"

// truncationMarker is appended to every truncated tool result so the model
// knows the data is incomplete. Kept as plain prose: truncated JSON payloads
// are not valid JSON anyway, and the model handles the prose hint better
// than a silently cut document.
const truncationMarker = "\n... [truncated: result exceeded the size limit, narrow the query for full data]"

// truncate cuts s down to at most budget bytes and appends
// [truncationMarker]. A string of exactly budget bytes is returned
// unmodified. The cut lands on a UTF-8 rune boundary so the kept prefix is
// always valid text.
func truncate(s string, budget int) (string, bool) {
	if len(s) <= budget {
		return s, false
	}

	cut := budget
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationMarker, true
}
