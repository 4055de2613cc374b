// Package xhtml builds well-formed XML and XHTML documents on etree trees.
package xhtml

import (
	"strings"
)

// escaper replaces in a single pass, so '&' produced by one replacement is
// never escaped again.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
)

// Escape makes s safe for XML text content and attribute values. It applies
// the same five replacements etree uses when serializing text, for markup
// that is assembled as a string before it is parsed.
func Escape(s string) string {
	if s == "" {
		return ""
	}
	return escaper.Replace(s)
}
