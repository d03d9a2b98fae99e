package format

import (
	"regexp"
	"strings"
)

type blockKind int

const (
	blockText blockKind = iota
	blockBlank
	blockHeader
	blockOrdered
	blockUnordered
	blockQuote
	blockCode
)

type block struct {
	kind  blockKind
	level int    // header level
	text  string // line content, or code body
	lang  string // code fence language
}

var (
	headerRe    = regexp.MustCompile(`^(#{1,3}) (.+)$`)
	orderedRe   = regexp.MustCompile(`^\d+\.\s+(.+)$`)
	unorderedRe = regexp.MustCompile(`^[-*•]\s+(.+)$`)
	quoteRe     = regexp.MustCompile(`^&gt;\s*(.+)$`)
	langRe      = regexp.MustCompile(`^\w+$`)
)

const fence = "```"

// tokenize splits already escaped text into line-level blocks. A fenced code
// block spans lines; an unclosed fence is kept as plain text so streamed
// partial output renders sensibly until the closing fence arrives.
func tokenize(s string) []block {
	lines := strings.Split(s, "\n")
	blocks := make([]block, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, fence) {
			if b, next, ok := readFence(lines, i); ok {
				blocks = append(blocks, b)
				i = next
				continue
			}
		}

		switch {
		case trimmed == "":
			blocks = append(blocks, block{kind: blockBlank})
		case headerRe.MatchString(line):
			m := headerRe.FindStringSubmatch(line)
			blocks = append(blocks, block{kind: blockHeader, level: len(m[1]), text: m[2]})
		case orderedRe.MatchString(line):
			blocks = append(blocks, block{kind: blockOrdered, text: orderedRe.FindStringSubmatch(line)[1]})
		case unorderedRe.MatchString(line):
			blocks = append(blocks, block{kind: blockUnordered, text: unorderedRe.FindStringSubmatch(line)[1]})
		case quoteRe.MatchString(line):
			blocks = append(blocks, block{kind: blockQuote, text: quoteRe.FindStringSubmatch(line)[1]})
		default:
			blocks = append(blocks, block{kind: blockText, text: line})
		}
	}
	return blocks
}

// readFence reads a code block opening at lines[start]. It returns the block
// and the index of the closing line.
func readFence(lines []string, start int) (block, int, bool) {
	rest := strings.TrimSpace(lines[start])[len(fence):]
	if idx := strings.Index(rest, fence); idx >= 0 {
		return block{kind: blockCode, text: strings.TrimSpace(rest[:idx])}, start, true
	}

	var b block
	b.kind = blockCode
	var body []string
	if langRe.MatchString(rest) {
		b.lang = rest
	} else if rest != "" {
		body = append(body, rest)
	}

	for j := start + 1; j < len(lines); j++ {
		if idx := strings.Index(lines[j], fence); idx >= 0 {
			body = append(body, lines[j][:idx])
			b.text = strings.TrimSpace(strings.Join(body, "\n"))
			return b, j, true
		}
		body = append(body, lines[j])
	}
	return block{}, start, false
}
