// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize cleans page content written in the rich-text editor.
// Pages store sanitized HTML; the reader serves it without further escaping.
package htmlsanitize

import (
	"html"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once

	strict     *bluemonday.Policy
	strictOnce sync.Once

	spaceRun = regexp.MustCompile(`\s+`)
)

// getPolicy returns the shared content policy, creating it on first use.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()

		// Tables from the editor's table extension.
		policy.AllowElements("table", "thead", "tbody", "tfoot", "tr", "th", "td")
		policy.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
		policy.AllowAttrs("style").OnElements("table", "th", "td")

		policy.AllowElements("u", "s", "sub", "sup", "mark", "figure", "figcaption")

		// Heading anchors for in-page links.
		policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")

		// Syntax highlighting classes such as "language-go".
		policy.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-zA-Z0-9_\- ]+$`)).
			OnElements("code", "pre", "div", "span", "table", "th", "td", "tr", "p")

		policy.AllowDataAttributes()
	})
	return policy
}

func getStrict() *bluemonday.Policy {
	strictOnce.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

// Sanitize removes dangerous elements and attributes while keeping formatting,
// links, images, code blocks, and tables.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return getPolicy().Sanitize(s)
}

// IsPlainText reports whether content has no HTML tags.
func IsPlainText(content string) bool {
	if content == "" {
		return true
	}
	return !strings.Contains(content, "<") || !strings.Contains(content, ">")
}

// PlainTextToHTML escapes text, converts newlines to <br> and wraps it in <p>.
func PlainTextToHTML(text string) string {
	if text == "" {
		return ""
	}
	escaped := html.EscapeString(text)
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return "<p>" + escaped + "</p>"
}

// Content prepares page content for storage. Plain text from API clients is
// wrapped as HTML; anything else is sanitized.
func Content(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	if IsPlainText(content) {
		return PlainTextToHTML(content)
	}
	return Sanitize(content)
}

// Excerpt strips all markup and returns at most max runes of collapsed text,
// ending in "…" when truncated.
func Excerpt(content string, max int) string {
	text := html.UnescapeString(getStrict().Sanitize(content))
	text = strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:max])) + "…"
}
