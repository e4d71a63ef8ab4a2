package compiler

import (
	"fmt"
	"strings"
)

// Validate checks the shape of a thread before any record is built.
func Validate(t *Thread) error {
	if t.Repo == "" {
		return &CompileError{Field: "repo", Message: "repo is required"}
	}
	if strings.ContainsAny(t.Repo, "/ \t\n") {
		return &CompileError{Field: "repo", Message: fmt.Sprintf("%q may not contain '/' or whitespace", t.Repo)}
	}
	if t.Collection != "" {
		if err := validateNSID(t.Collection); err != nil {
			return &CompileError{Field: "collection", Message: err.Error()}
		}
	}
	return nil
}

// ValidateCollection checks that s is a well-formed record type name.
func ValidateCollection(s string) error {
	return validateNSID(s)
}

// validateNSID checks a reverse-DNS record type name such as
// app.bsky.feed.post: at least three dot-separated segments of ASCII letters,
// digits and hyphens. The final segment starts with a letter.
func validateNSID(s string) error {
	segments := strings.Split(s, ".")
	if len(segments) < 3 {
		return fmt.Errorf("%q must have at least three segments", s)
	}
	for _, seg := range segments {
		if seg == "" {
			return fmt.Errorf("%q has an empty segment", s)
		}
		for _, r := range seg {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			default:
				return fmt.Errorf("%q has invalid character %q", s, r)
			}
		}
	}
	last := segments[len(segments)-1]
	if c := last[0]; !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
		return fmt.Errorf("%q: name must start with a letter", s)
	}
	return nil
}
