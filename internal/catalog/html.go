package catalog

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// StripHTML reduces a WooCommerce rich-text field to plain text with
// collapsed whitespace. Entities are decoded. Script and style bodies
// are dropped.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	var buf bytes.Buffer
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return strings.Join(strings.Fields(s), " ")
			}
			return strings.Join(strings.Fields(buf.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "br", "p", "li", "div":
				buf.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				if skip > 0 {
					skip--
				}
			case "p", "li", "div":
				buf.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			buf.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				buf.Write(z.Text())
			}
		}
	}
}
