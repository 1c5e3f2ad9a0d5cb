// Package escape sanitizes untrusted strings for interpolation into
// generated markup. Every user-supplied name passes through here before it
// reaches an HTML report.
package escape

import "strings"

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&#34;",
	"'", "&#39;",
)

// HTML replaces the five HTML-special characters with their entity
// equivalents. Empty input yields an empty string.
func HTML(s string) string {
	if s == "" {
		return ""
	}
	return htmlReplacer.Replace(s)
}

// Attr escapes a value for embedding inside a single-quoted script-attribute
// string literal: HTML escaping first, then the quote entity is
// backslash-escaped so the decoded attribute still reads as an escaped quote
// inside the script string.
func Attr(s string) string {
	return strings.ReplaceAll(HTML(s), "&#39;", `\&#39;`)
}
