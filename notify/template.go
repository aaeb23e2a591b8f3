package notify

import "strings"

// Template placeholders replaced at notification time. Replacement is
// literal, covers every occurrence, and anything else in braces passes
// through unchanged.
const (
	PlaceholderTitle = "{title}"
	PlaceholderURL   = "{url}"
)

// ExpandTemplate substitutes the title and url placeholders in tmpl.
func ExpandTemplate(tmpl, title, url string) string {
	r := strings.NewReplacer(
		PlaceholderTitle, title,
		PlaceholderURL, url,
	)
	return r.Replace(tmpl)
}
