// Package sanitize strips active content from HTML fragments that are
// rendered verbatim by storefront clients, such as product descriptions.
package sanitize

import "github.com/microcosm-cc/bluemonday"

// policy allows the formatting markup of user-generated content (paragraphs,
// emphasis, lists, links and images) and drops everything else, including
// scripts, event handler attributes and non-http URL schemes.
var policy = bluemonday.UGCPolicy()

// HTML returns s with every element and attribute outside the allow-list
// removed. Text content of removed elements is kept, except for script and
// style blocks.
func HTML(s string) string {
	return policy.Sanitize(s)
}
