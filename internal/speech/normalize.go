// Package speech turns model output into text a voice assistant can read
// aloud: markdown stripped, whitespace collapsed, length bounded.
package speech

import (
	"regexp"
	"strings"
)

// MaxSpokenLength caps the spoken answer. Past this the assistant drones.
const MaxSpokenLength = 700

// How far back from the cap a sentence end may be and still win over a word
// boundary when truncating.
const sentenceLookback = 200

var (
	// Well-formed markdown links: keep the display text, drop the target.
	reLink       = regexp.MustCompile(`\[([^\[\]]*)\]\([^()]*\)`)
	reEmphasis   = regexp.MustCompile(`[*_]`)
	reBackticks  = regexp.MustCompile("`+")
	reHeaders    = regexp.MustCompile(`#+`)
	reBrackets   = regexp.MustCompile(`[\[\]()]`)
	reListDash   = regexp.MustCompile(`(?m)^\s*-\s*`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// Clean converts formatted model output into bounded plain prose. It is
// total: any input yields a valid (possibly empty) result, and cleaning is
// idempotent. The caller substitutes a fallback phrase when the result is
// empty.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	// Links first: once brackets are stripped as bare punctuation the
	// target can no longer be told apart from the display text.
	text = reLink.ReplaceAllString(text, "$1")

	text = reEmphasis.ReplaceAllString(text, "")
	text = reBackticks.ReplaceAllString(text, "")
	text = reHeaders.ReplaceAllString(text, "")
	text = reBrackets.ReplaceAllString(text, "")

	// Bullet lists read as a run-on sentence; the dashes add nothing.
	text = reListDash.ReplaceAllString(text, "")

	text = reWhitespace.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	return truncate(text, MaxSpokenLength)
}

// truncate enforces the length cap without ever cutting mid-word. A sentence
// end near the cap is preferred so the answer stops at a natural pause; no
// ellipsis is appended because it reads awkwardly aloud.
func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	cut := string(runes[:max])

	if i := strings.LastIndexAny(cut, ".!?"); i >= max-sentenceLookback {
		return strings.TrimSpace(cut[:i+1])
	}
	if i := strings.LastIndex(cut, " "); i >= 0 {
		return strings.TrimSpace(cut[:i])
	}
	return cut
}
