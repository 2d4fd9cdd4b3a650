package metafmt

import (
	"fmt"
	"strings"
)

// Section is one %NAME% block with its following value lines.
type Section struct {
	Name  string
	Lines []string
}

// SectionDocument is a parsed sequence of sections, in document order.
type SectionDocument struct {
	Sections []Section
	byName   map[string][]Section
}

// ParseSectionDocument parses text as a sequence of "%NAME%\nvalue...\n\n"
// blocks. A section's values run until a blank line or the next "%NAME%"
// header.
func ParseSectionDocument(text string) (*SectionDocument, error) {
	doc := &SectionDocument{byName: make(map[string][]Section)}
	lines := strings.Split(text, "\n")
	i := 0
	for i < len(lines) {
		line := strings.TrimRight(lines[i], "\r")
		if line == "" {
			i++
			continue
		}
		if !strings.HasPrefix(line, "%") || !strings.HasSuffix(line, "%") {
			return nil, &FormatError{Reason: "expected %SECTION% header", Line: i + 1, Text: line}
		}
		name := strings.Trim(line, "%")
		i++
		var values []string
		for i < len(lines) {
			l := strings.TrimRight(lines[i], "\r")
			if l == "" {
				i++
				break
			}
			values = append(values, l)
			i++
		}
		sec := Section{Name: name, Lines: values}
		doc.Sections = append(doc.Sections, sec)
		doc.byName[name] = append(doc.byName[name], sec)
	}
	return doc, nil
}

// Get returns every occurrence of a named section, in document order.
func (d *SectionDocument) Get(name string) []Section { return d.byName[name] }

// Single returns the single occurrence of name, erroring if it is empty or
// duplicated, or absent when required is true (an absent optional section
// yields "") — used for single-valued sections.
func (d *SectionDocument) Single(schema, name string, required bool) (string, error) {
	secs := d.byName[name]
	if len(secs) == 0 {
		if required {
			return "", &SchemaError{Schema: schema, Field: name, Reason: "missing required section"}
		}
		return "", nil
	}
	if len(secs) > 1 {
		return "", &SchemaError{Schema: schema, Field: name, Reason: "duplicate section"}
	}
	if len(secs[0].Lines) != 1 {
		return "", &SchemaError{Schema: schema, Field: name, Reason: "single-valued section must have exactly one line"}
	}
	return secs[0].Lines[0], nil
}

// Multi returns the concatenated lines of every occurrence of name, in
// document order (a multi-valued section may legally repeat).
func (d *SectionDocument) Multi(name string) []string {
	var out []string
	for _, s := range d.byName[name] {
		out = append(out, s.Lines...)
	}
	return out
}

// UnknownSections returns section names present in the document that are
// not in known.
func (d *SectionDocument) UnknownSections(known map[string]bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range d.Sections {
		if known[s.Name] || seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		out = append(out, s.Name)
	}
	return out
}

// FormatSections renders sections back into canonical "%NAME%\nvalue\n\n"
// form, in the order given, skipping empty optional sections (callers must
// omit empty sections before calling when the schema requires it).
func FormatSections(sections []Section) string {
	var b strings.Builder
	for _, s := range sections {
		if len(s.Lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%%%s%%\n", s.Name)
		for _, l := range s.Lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return b.String()
}
