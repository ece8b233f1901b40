package source

import (
	"html"
	"regexp"
	"strings"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// extractText converts an HTML or HTML-encoded description to plain text:
// entities are unescaped, tags stripped and whitespace collapsed.
func extractText(content string) string {
	if !strings.ContainsAny(content, "<&") {
		return strings.TrimSpace(content)
	}
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, " ")
	return strings.Join(strings.Fields(plain), " ")
}
