package metafmt

import "fmt"

// FormatError reports that input text could not be recognized by the
// key=value or section grammar.
type FormatError struct {
	Reason string
	Line   int
	Text   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: %s (%q)", e.Line, e.Reason, e.Text)
}

// SchemaError reports a duplicate section, a missing required section, an
// empty section the schema marks non-empty, or a section not valid for the
// detected schema version.
type SchemaError struct {
	Schema string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: field %q: %s", e.Schema, e.Field, e.Reason)
}
