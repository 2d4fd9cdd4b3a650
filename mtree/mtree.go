// Package mtree implements the filesystem-manifest engine: parsing the
// declarative "/set", "/unset", and path-line statement stream into typed
// records, and validating a real on-disk tree against those records.
package mtree

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PathType is the kind of filesystem entry a record describes.
type PathType string

const (
	PathTypeDir  PathType = "dir"
	PathTypeFile PathType = "file"
	PathTypeLink PathType = "link"
)

// PathDefaults is the mutable state carried across "/set"/"/unset"
// statements and inherited (then overridden) by each path-line.
type PathDefaults struct {
	UID  *int
	GID  *int
	Mode *string
	Type *PathType
}

func (d PathDefaults) clone() PathDefaults {
	out := d
	if d.UID != nil {
		u := *d.UID
		out.UID = &u
	}
	if d.GID != nil {
		g := *d.GID
		out.GID = &g
	}
	if d.Mode != nil {
		m := *d.Mode
		out.Mode = &m
	}
	if d.Type != nil {
		t := *d.Type
		out.Type = &t
	}
	return out
}

// Record is one interpreted path entry: a directory, file, or symlink with
// its metadata.
type Record struct {
	Path       string
	Type       PathType
	UID        int
	GID        int
	Mode       string
	MTime      int64
	Size       int64
	SHA256     string
	MD5        string
	LinkTarget string
	Line       int
}

// Mtree is the fully interpreted, sorted manifest.
type Mtree struct {
	Records []Record
}

// InterpreterError reports a syntactically valid but semantically
// incomplete statement (e.g. a path-line missing a required field for its
// type).
type InterpreterError struct {
	Line   int
	Text   string
	Reason string
}

func (e *InterpreterError) Error() string {
	return fmt.Sprintf("mtree line %d: %s (%q)", e.Line, e.Reason, e.Text)
}

// ParseError reports a statement that does not match the mtree grammar at
// all.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("mtree line %d: %s (%q)", e.Line, e.Reason, e.Text)
}

type statementKind int

const (
	stmtSet statementKind = iota
	stmtUnset
	stmtPath
)

type statement struct {
	kind   statementKind
	path   string // for stmtPath: the raw "./..." token
	kvs    map[string]string
	line   int
	raw    string
}

// Parse tokenizes mtree text into the interpreted, sorted Mtree. A leading
// "#mtree" header line, blank lines, and full-line comments are skipped.
func Parse(text string) (*Mtree, error) {
	stmts, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	return interpret(stmts)
}

func tokenize(text string) ([]statement, error) {
	var stmts []statement
	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(strings.TrimRight(line, "\r"))
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#mtree") {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Fields(trimmed)
		switch fields[0] {
		case "/set":
			kvs, err := parseKVFields(fields[1:], lineNo, trimmed)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, statement{kind: stmtSet, kvs: kvs, line: lineNo, raw: trimmed})
		case "/unset":
			kvs := make(map[string]string)
			for _, f := range fields[1:] {
				kvs[f] = ""
			}
			stmts = append(stmts, statement{kind: stmtUnset, kvs: kvs, line: lineNo, raw: trimmed})
		default:
			if !strings.HasPrefix(fields[0], "./") {
				return nil, &ParseError{Line: lineNo, Text: trimmed, Reason: "expected /set, /unset, or a './' path"}
			}
			kvs, err := parseKVFields(fields[1:], lineNo, trimmed)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, statement{kind: stmtPath, path: fields[0], kvs: kvs, line: lineNo, raw: trimmed})
		}
	}
	return stmts, nil
}

func parseKVFields(fields []string, line int, raw string) (map[string]string, error) {
	kvs := make(map[string]string)
	for _, f := range fields {
		idx := strings.IndexByte(f, '=')
		if idx < 0 {
			return nil, &ParseError{Line: line, Text: raw, Reason: "expected key=value token " + f}
		}
		kvs[f[:idx]] = f[idx+1:]
	}
	return kvs, nil
}

var allowedSetKeys = map[string]bool{"uid": true, "gid": true, "mode": true, "type": true}
var allowedPathKeys = map[string]bool{
	"uid": true, "gid": true, "mode": true, "type": true, "size": true,
	"time": true, "link": true, "sha256": true, "md5": true,
}

func interpret(stmts []statement) (*Mtree, error) {
	defaults := PathDefaults{}
	var records []Record

	for _, s := range stmts {
		switch s.kind {
		case stmtSet:
			for k := range s.kvs {
				if !allowedSetKeys[k] {
					return nil, &InterpreterError{Line: s.line, Text: s.raw, Reason: "unknown /set key " + k}
				}
			}
			if err := applySet(&defaults, s.kvs); err != nil {
				return nil, &InterpreterError{Line: s.line, Text: s.raw, Reason: err.Error()}
			}
		case stmtUnset:
			for k := range s.kvs {
				if !allowedSetKeys[k] {
					return nil, &InterpreterError{Line: s.line, Text: s.raw, Reason: "unknown /unset key " + k}
				}
				applyUnset(&defaults, k)
			}
		case stmtPath:
			for k := range s.kvs {
				if !allowedPathKeys[k] {
					return nil, &InterpreterError{Line: s.line, Text: s.raw, Reason: "unknown path key " + k}
				}
			}
			rec, err := buildRecord(s, defaults)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	for i := 1; i < len(records); i++ {
		if records[i].Path == records[i-1].Path {
			return nil, &InterpreterError{Line: records[i].Line, Text: records[i].Path, Reason: "duplicate path in manifest"}
		}
	}
	return &Mtree{Records: records}, nil
}

func applySet(d *PathDefaults, kvs map[string]string) error {
	if v, ok := kvs["uid"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid uid %q", v)
		}
		d.UID = &n
	}
	if v, ok := kvs["gid"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid gid %q", v)
		}
		d.GID = &n
	}
	if v, ok := kvs["mode"]; ok {
		m := v
		d.Mode = &m
	}
	if v, ok := kvs["type"]; ok {
		t := PathType(v)
		d.Type = &t
	}
	return nil
}

func applyUnset(d *PathDefaults, key string) {
	switch key {
	case "uid":
		d.UID = nil
	case "gid":
		d.GID = nil
	case "mode":
		d.Mode = nil
	case "type":
		d.Type = nil
	}
}

func buildRecord(s statement, defaults PathDefaults) (Record, error) {
	eff := defaults.clone()
	if v, ok := s.kvs["uid"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Record{}, &InterpreterError{Line: s.line, Text: s.raw, Reason: "invalid uid " + v}
		}
		eff.UID = &n
	}
	if v, ok := s.kvs["gid"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Record{}, &InterpreterError{Line: s.line, Text: s.raw, Reason: "invalid gid " + v}
		}
		eff.GID = &n
	}
	if v, ok := s.kvs["mode"]; ok {
		m := v
		eff.Mode = &m
	}
	if v, ok := s.kvs["type"]; ok {
		t := PathType(v)
		eff.Type = &t
	}

	rec := Record{Path: strings.TrimPrefix(s.path, "./"), Line: s.line}
	if eff.Type == nil {
		return Record{}, &InterpreterError{Line: s.line, Text: s.raw, Reason: "missing required field type"}
	}
	rec.Type = *eff.Type
	if eff.UID == nil {
		return Record{}, &InterpreterError{Line: s.line, Text: s.raw, Reason: "missing required field uid"}
	}
	rec.UID = *eff.UID
	if eff.GID == nil {
		return Record{}, &InterpreterError{Line: s.line, Text: s.raw, Reason: "missing required field gid"}
	}
	rec.GID = *eff.GID
	if eff.Mode == nil {
		return Record{}, &InterpreterError{Line: s.line, Text: s.raw, Reason: "missing required field mode"}
	}
	rec.Mode = *eff.Mode

	timeStr, hasTime := s.kvs["time"]
	if !hasTime {
		return Record{}, &InterpreterError{Line: s.line, Text: s.raw, Reason: "missing required field time"}
	}
	mtime, err := parseMtime(timeStr)
	if err != nil {
		return Record{}, &InterpreterError{Line: s.line, Text: s.raw, Reason: "invalid time " + timeStr}
	}
	rec.MTime = mtime

	switch rec.Type {
	case PathTypeFile:
		sizeStr, ok := s.kvs["size"]
		if !ok {
			return Record{}, &InterpreterError{Line: s.line, Text: s.raw, Reason: "missing required field size"}
		}
		size, err := strconv.ParseInt(sizeStr, 10, 64)
		if err != nil {
			return Record{}, &InterpreterError{Line: s.line, Text: s.raw, Reason: "invalid size " + sizeStr}
		}
		rec.Size = size
		sha, ok := s.kvs["sha256"]
		if !ok {
			return Record{}, &InterpreterError{Line: s.line, Text: s.raw, Reason: "missing required field sha256"}
		}
		rec.SHA256 = sha
		rec.MD5 = s.kvs["md5"]
	case PathTypeLink:
		link, ok := s.kvs["link"]
		if !ok {
			return Record{}, &InterpreterError{Line: s.line, Text: s.raw, Reason: "missing required field link"}
		}
		rec.LinkTarget = link
	case PathTypeDir:
		// no further required fields
	default:
		return Record{}, &InterpreterError{Line: s.line, Text: s.raw, Reason: "unknown type " + string(rec.Type)}
	}
	return rec, nil
}

// parseMtime accepts either a bare integer or "seconds.nanoseconds" (the
// form mtree(8) emits).
func parseMtime(s string) (int64, error) {
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		s = s[:idx]
	}
	return strconv.ParseInt(s, 10, 64)
}

// Display renders the Mtree back into canonical sorted "./path key=value..."
// form.
func (m *Mtree) Display() string {
	var b strings.Builder
	b.WriteString("#mtree\n")
	for _, r := range m.Records {
		fmt.Fprintf(&b, "./%s type=%s uid=%d gid=%d mode=%s time=%d", r.Path, r.Type, r.UID, r.GID, r.Mode, r.MTime)
		switch r.Type {
		case PathTypeFile:
			fmt.Fprintf(&b, " size=%d sha256=%s", r.Size, r.SHA256)
			if r.MD5 != "" {
				fmt.Fprintf(&b, " md5=%s", r.MD5)
			}
		case PathTypeLink:
			fmt.Fprintf(&b, " link=%s", r.LinkTarget)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
