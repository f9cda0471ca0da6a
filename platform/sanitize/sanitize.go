// Package sanitize cleans operator-entered free text before it is stored.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	htmlTag    = regexp.MustCompile(`<[^>]*>`)
	spaceRun   = regexp.MustCompile(`[ \t]+`)
	entityRepl = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&", "&quot;", "\"", "&#39;", "'")
)

// StripHTML drops markup, decodes the common entities and strips again so
// encoded tags do not survive.
func StripHTML(s string) string {
	out := htmlTag.ReplaceAllString(s, "")
	out = entityRepl.Replace(out)
	out = htmlTag.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// Text is used for single-line fields such as names and neighborhoods.
func Text(s string) string {
	return spaceRun.ReplaceAllString(StripHTML(s), " ")
}

// Message is used for message templates. Line breaks are preserved because
// they are part of what the lead receives.
func Message(s string) string {
	lines := strings.Split(StripHTML(s), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(spaceRun.ReplaceAllString(line, " "), " ")
	}
	return strings.Join(lines, "\n")
}

func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := Text(*s)
	return &out
}
