// Package metafmt implements the two text-format surface syntaxes shared by
// ALPM metadata files: a line-oriented "key = value" grammar, and a
// section-headered "%KEY%" grammar, plus the versioned schemas (PackageInfo,
// BuildInfo, RepoDesc, Files/RepoFiles, DbEntryDesc) built on top of them.
package metafmt

import (
	"fmt"
	"sort"
	"strings"
)

// KVPair is one parsed "key = value" line, with its source line number
// preserved for diagnostics.
type KVPair struct {
	Key   string
	Value string
	Line  int
}

// KVDocument is a parsed key=value document: an ordered multimap from key to
// every value seen, in document order.
type KVDocument struct {
	Pairs  []KVPair
	values map[string][]string
}

// ParseKeyValueDocument parses text as a sequence of "key = value" lines.
// Blank lines and '#'-prefixed comments are ignored.
func ParseKeyValueDocument(text string) (*KVDocument, error) {
	doc := &KVDocument{values: make(map[string][]string)}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimRight(line, "\r")
		if trimmed == "" || strings.HasPrefix(strings.TrimSpace(trimmed), "#") {
			continue
		}
		idx := strings.Index(trimmed, " = ")
		if idx < 0 {
			return nil, &FormatError{Reason: "expected \"key = value\"", Line: lineNo, Text: trimmed}
		}
		key := trimmed[:idx]
		value := trimmed[idx+3:]
		doc.Pairs = append(doc.Pairs, KVPair{Key: key, Value: value, Line: lineNo})
		doc.values[key] = append(doc.values[key], value)
	}
	return doc, nil
}

// Values returns every value recorded for key, in document order.
func (d *KVDocument) Values(key string) []string { return d.values[key] }

// Value returns the last recorded value for key ("last value wins"
// semantics for single-valued schema fields), and whether it was present.
func (d *KVDocument) Value(key string) (string, bool) {
	vs := d.values[key]
	if len(vs) == 0 {
		return "", false
	}
	return vs[len(vs)-1], true
}

// UnknownKeys returns every key present in the document that is not in
// known, in first-seen order (deny-unknown-keys enforcement helper).
func (d *KVDocument) UnknownKeys(known map[string]bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range d.Pairs {
		if known[p.Key] || seen[p.Key] {
			continue
		}
		seen[p.Key] = true
		out = append(out, p.Key)
	}
	return out
}

// FormatKeyValue renders pairs back into canonical "key = value\n" form.
func FormatKeyValue(pairs []KVPair) string {
	var b strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&b, "%s = %s\n", p.Key, p.Value)
	}
	return b.String()
}

// SortedKeys returns the keys of m sorted for deterministic emission.
func SortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
