// Package extract pulls a runnable pattern snippet out of free-form model
// output. The strict policy only trusts fenced code blocks; the loose policy
// additionally accepts an un-fenced reply that looks like pattern code.
package extract

import (
	"regexp"
	"strings"
)

// fenceRE matches the first fenced code block. A language tag only counts as
// a tag when it sits alone on the opening line; otherwise the whole interior
// is treated as code.
var fenceRE = regexp.MustCompile("(?s)```(?:[a-zA-Z0-9+_.-]+[ \t]*\r?\n|[ \t]*\r?\n?)(.*?)```")

// Snippet returns the trimmed interior of the first fenced code block in
// text, or "" when no complete block exists. An unterminated fence does not
// match. Callers must treat "" as "no code available".
func Snippet(text string) string {
	m := fenceRE.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// looseMarkers are the tell-tale substrings the loose policy uses to decide
// that an un-fenced reply is itself code.
var looseMarkers = []string{"s(", "note(", "await initHydra"}

// SnippetLoose behaves like Snippet but, when no fenced block matches, falls
// back to returning the whole trimmed reply if it contains a pattern-code
// marker. This revives an older heuristic and is opt-in only.
func SnippetLoose(text string) string {
	if code := Snippet(text); code != "" {
		return code
	}
	trimmed := strings.TrimSpace(text)
	for _, marker := range looseMarkers {
		if strings.Contains(trimmed, marker) {
			return trimmed
		}
	}
	return ""
}
