package format

import (
	"regexp"
	"strings"
)

var incompleteMarkers = []*regexp.Regexp{
	regexp.MustCompile(`[^.!?]\s*$`), // no terminal punctuation
	regexp.MustCompile(`\([^)]*$`),
	regexp.MustCompile(`\[[^\]]*$`),
}

// IsTruncated guesses whether a response was cut off by looking at its last
// 50 characters. Fences and bold markers count as open when the tail holds
// an odd number of them.
func IsTruncated(text string) bool {
	r := []rune(text)
	if len(r) > 50 {
		r = r[len(r)-50:]
	}
	tail := strings.TrimSpace(string(r))
	if tail == "" {
		return false
	}
	fences := strings.Count(tail, "```")
	if fences%2 == 1 {
		return true
	}
	bold := strings.Count(strings.ReplaceAll(tail, "```", ""), "**")
	if bold%2 == 1 {
		return true
	}
	for _, m := range incompleteMarkers {
		if m.MatchString(tail) {
			return true
		}
	}
	return false
}
