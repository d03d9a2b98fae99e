// Package format turns chat text into the HTML fragment shown in a message
// bubble. It understands a small markdown subset: fenced and inline code,
// headers, bold, italic, lists and blockquotes.
package format

import (
	"fmt"
	"regexp"
	"strings"
)

// TruncationNotice is appended to output that looks cut off.
const TruncationNotice = `<div class="continuation-indicator">📝 Response may be truncated. You can ask me to continue...</div>`

var (
	inlineCodeRe = regexp.MustCompile("`([^`\n]+)`")
	boldRe       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	starItalicRe = regexp.MustCompile(`\*([^*\n]+?)\*`)
	underItalRe  = regexp.MustCompile(`\b_([^_\n]+?)_\b`)
)

// Message renders text as HTML. It is safe to call on partial text while a
// response is still streaming.
func Message(text string) string {
	if text == "" {
		return ""
	}
	out := render(tokenize(Escape(text)))
	if IsTruncated(text) {
		out += TruncationNotice
	}
	return out
}

func render(blocks []block) string {
	var b strings.Builder
	pending := 0     // newlines since the last emitted segment
	prevBlock := false

	emit := func(html string, isBlock bool) {
		if pending > 0 && !isBlock && !prevBlock {
			b.WriteString(strings.Repeat("<br>", pending))
		}
		pending = 0
		b.WriteString(html)
		prevBlock = isBlock
	}

	for i := 0; i < len(blocks); i++ {
		if i > 0 {
			pending++
		}
		blk := blocks[i]
		switch blk.kind {
		case blockBlank:
			continue
		case blockCode:
			lang := ""
			if blk.lang != "" {
				lang = fmt.Sprintf(` class="language-%s"`, blk.lang)
			}
			emit(fmt.Sprintf("<pre><code%s>%s</code></pre>", lang, blk.text), true)
		case blockHeader:
			emit(fmt.Sprintf("<h%d>%s</h%d>", blk.level, inline(blk.text), blk.level), true)
		case blockQuote:
			emit("<blockquote>"+inline(blk.text)+"</blockquote>", true)
		case blockOrdered, blockUnordered:
			tag, class := "ol", "ordered-item"
			if blk.kind == blockUnordered {
				tag, class = "ul", "unordered-item"
			}
			var items strings.Builder
			j := i
			for ; j < len(blocks) && blocks[j].kind == blk.kind; j++ {
				fmt.Fprintf(&items, `<li class="%s">%s</li>`, class, inline(blocks[j].text))
			}
			i = j - 1
			emit(fmt.Sprintf("<%s>%s</%s>", tag, items.String(), tag), true)
		default:
			emit(inline(blk.text), false)
		}
	}
	if pending > 0 && !prevBlock {
		b.WriteString(strings.Repeat("<br>", pending))
	}
	return b.String()
}

// inline applies code, bold and italic spans. Text inside inline code is left
// untouched.
func inline(s string) string {
	locs := inlineCodeRe.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return emphasis(s)
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(emphasis(s[last:loc[0]]))
		b.WriteString("<code>" + s[loc[2]:loc[3]] + "</code>")
		last = loc[1]
	}
	b.WriteString(emphasis(s[last:]))
	return b.String()
}

func emphasis(s string) string {
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = starItalicRe.ReplaceAllString(s, "<em>$1</em>")
	return underItalRe.ReplaceAllString(s, "<em>$1</em>")
}
