package content

import (
	"bytes"
	"errors"
	"html/template"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	policy = bluemonday.UGCPolicy()
	md     = goldmark.New()

	displayNameRegex = regexp.MustCompile(`^[\p{L}\p{N} ._-]+$`)
)

// Render converts message text from markdown to HTML safe to place in the
// thread view. Anything the sanitizer rejects (scripts, event handlers) is
// stripped; on a markdown failure the raw text is escaped instead.
func Render(input string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(input), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(input))
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes()))
}

// Sanitize removes unsafe HTML from the input string using a strict policy.
// It is used for sanitizing user inputs like display names and messages.
func Sanitize(input string) string {
	return policy.Sanitize(input)
}

// Escape escapes special characters like "<" to become "&lt;".
// It matches the behavior of html/template and is safe for use in HTML attributes.
func Escape(input string) string {
	return template.HTMLEscapeString(input)
}

// ValidateDisplayName checks that a display name is not empty and contains
// only letters, digits, spaces, dot, dash and underscore.
func ValidateDisplayName(name string) error {
	if name == "" {
		return errors.New("display name cannot be empty")
	}
	if !displayNameRegex.MatchString(name) {
		return errors.New("display name contains invalid characters (allowed: letters, digits, space, dot, dash, underscore)")
	}
	return nil
}
