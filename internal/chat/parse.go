package chat

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"discovery/internal/models"
)

const (
	MaxAttractions = 5
	MaxLandmarks   = 10
)

// Attraction is one recommendation parsed out of a model answer.
type Attraction struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Image       *models.Image `json:"image,omitempty"`
}

var attractionPattern = regexp.MustCompile(`\d+\.\s*\*\*([^*]+)\*\*[\s:-]+([^\n]+)`)

// ParseAttractions extracts "N. **Name** - description" items. Names of two
// characters or fewer and descriptions of ten or fewer are skipped.
func ParseAttractions(text string) []Attraction {
	var out []Attraction
	for _, m := range attractionPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		desc := strings.TrimSpace(m[2])
		if utf8.RuneCountInString(name) <= 2 || utf8.RuneCountInString(desc) <= 10 {
			continue
		}
		out = append(out, Attraction{Name: name, Description: desc})
		if len(out) == MaxAttractions {
			break
		}
	}
	return out
}

// landmarkPatterns are tried in order; the first one with any match wins.
var landmarkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+\.\s*\*\*([^*]+)\*\*`),
	regexp.MustCompile(`\d+\.\s*([^:\n-]+)[:\-]`),
	regexp.MustCompile(`[-•]\s*\*\*([^*]+)\*\*`),
	regexp.MustCompile(`[-•]\s*([^:\n-]+)[:\-]`),
}

// ParseLandmarks extracts landmark names from numbered or bulleted lists.
func ParseLandmarks(text string) []string {
	for _, re := range landmarkPatterns {
		matches := re.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		var out []string
		for _, m := range matches {
			name := strings.TrimSpace(m[1])
			if n := utf8.RuneCountInString(name); n > 3 && n < 100 {
				out = append(out, name)
			}
		}
		if len(out) > MaxLandmarks {
			out = out[:MaxLandmarks]
		}
		return out
	}
	return nil
}
