package alpmtypes

import "fmt"

// InvalidValueError reports that a primitive rejected its input text.
type InvalidValueError struct {
	Kind   string // e.g. "Name", "Epoch", "Checksum"
	Value  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.Value, e.Reason)
}

// ParseError reports that input text could not be recognized at all, with a
// line/column hint and the offending substring.
type ParseError struct {
	Format string // e.g. "PackageInfo", "VersionRequirement"
	Line   int
	Column int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: parse error at line %d col %d (%q): %s", e.Format, e.Line, e.Column, e.Text, e.Reason)
	}
	return fmt.Sprintf("%s: parse error (%q): %s", e.Format, e.Text, e.Reason)
}
