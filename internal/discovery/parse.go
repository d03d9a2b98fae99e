package discovery

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxLLMPlaces caps the names taken from one model answer.
const MaxLLMPlaces = 8

var (
	placeLineRe = regexp.MustCompile(`^[\d\-*•]+[.):\s]+(.+?)$`)
	cutRe       = regexp.MustCompile(`[-–—:]`)
)

// ParsePlaceNames extracts place names from list lines such as "1. Name",
// "- Name" or "* **Name** - blurb".
func ParsePlaceNames(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		m := placeLineRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil || strings.TrimSpace(m[1]) == "" {
			continue
		}
		name := strings.ReplaceAll(strings.TrimSpace(m[1]), "**", "")
		name = strings.TrimPrefix(name, `"`)
		name = strings.TrimPrefix(name, "'")
		name = strings.TrimSuffix(name, `"`)
		name = strings.TrimSuffix(name, "'")
		if loc := cutRe.FindStringIndex(name); loc != nil {
			name = name[:loc[0]]
		}
		name = strings.TrimSpace(name)
		if n := utf8.RuneCountInString(name); n > 2 && n < 100 {
			names = append(names, name)
		}
		if len(names) == MaxLLMPlaces {
			break
		}
	}
	return names
}
