package lexicon

import (
	"strings"

	"golang.org/x/net/html"
)

const formOfClass = "form-of-definition"

// StripMarkup returns the visible text of an HTML fragment with runs of
// whitespace collapsed.
func StripMarkup(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if tt == html.StartTagToken && isHiddenTag(name) {
				skip++
			}
			if isBreakingTag(name) {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isHiddenTag(name) && skip > 0 {
				skip--
			}
			if isBreakingTag(name) {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isHiddenTag(name []byte) bool {
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

func isBreakingTag(name []byte) bool {
	switch string(name) {
	case "br", "p", "div", "li", "ol", "ul", "dd", "dt", "tr", "td":
		return true
	}
	return false
}

// isFormOfMarkup reports whether the fragment contains an element marked as
// an inflection cross-reference.
func isFormOfMarkup(fragment string) bool {
	return hasClass(fragment, formOfClass)
}

func hasClass(fragment, class string) bool {
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			_, hasAttr := z.TagName()
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) != "class" {
					continue
				}
				for _, c := range strings.Fields(string(val)) {
					if c == class {
						return true
					}
				}
			}
		}
	}
}
