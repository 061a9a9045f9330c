package catalog

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy strips every tag. bluemonday policies are safe for concurrent use.
var strictPolicy = bluemonday.StrictPolicy()

// plainText reduces an HTML fragment from the catalog to readable text.
func plainText(fragment string) string {
	if fragment == "" {
		return ""
	}
	// Keep paragraph and line breaks as spaces so words don't run together.
	r := strings.NewReplacer("<br>", " ", "<br/>", " ", "<br />", " ", "</p>", " ")
	text := strictPolicy.Sanitize(r.Replace(fragment))
	// StrictPolicy escapes entities; the result is rendered through html/template.
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}
