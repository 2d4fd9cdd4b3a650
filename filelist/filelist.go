// Package filelist implements the %FILES%/%BACKUP% file-listing engine: a
// relative-path set with parent-presence and uniqueness invariants, plus an
// optional backup-file digest list.
package filelist

import (
	"fmt"
	"sort"
	"strings"
)

// BackupEntry is one %BACKUP% line: a path (which must also appear in the
// file list) and its reference MD5 digest.
type BackupEntry struct {
	Path   string
	MD5Sum string
}

// Style selects the trailing-newline convention used on emission: the two
// variants differ only in whether a trailing blank line follows the files
// section.
type Style int

const (
	StyleRepo Style = iota // no trailing blank line
	StyleDB                // trailing blank line after %FILES%
)

// FileList is a validated, sorted set of relative package-tree paths plus
// optional backup-file entries.
type FileList struct {
	Paths   []string
	Backups []BackupEntry
}

// InvariantError reports a violation of the file-listing invariants
// (absolute path, missing parent, duplicate path, backup not in files).
type InvariantError struct {
	Reason string
	Path   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Path)
}

// New validates paths and backups and returns a FileList with paths sorted
// in canonical emission order. A backup digest of "(null)" is a historical
// compatibility case: the entry is silently dropped rather than rejected.
func New(paths []string, backups []BackupEntry) (*FileList, error) {
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if strings.HasPrefix(p, "/") {
			return nil, &InvariantError{Reason: "absolute path not permitted", Path: p}
		}
		if seen[p] {
			return nil, &InvariantError{Reason: "duplicate path", Path: p}
		}
		seen[p] = true
	}
	for _, p := range paths {
		if isTopLevel(p) {
			continue
		}
		parent := parentOf(p)
		if !seen[parent] {
			return nil, &InvariantError{Reason: "parent not present in file list", Path: p}
		}
	}

	var kept []BackupEntry
	backupSeen := make(map[string]bool)
	for _, b := range backups {
		if b.MD5Sum == "(null)" {
			continue
		}
		if backupSeen[b.Path] {
			return nil, &InvariantError{Reason: "duplicate backup path", Path: b.Path}
		}
		if !seen[b.Path] {
			return nil, &InvariantError{Reason: "backup path not present in file list", Path: b.Path}
		}
		backupSeen[b.Path] = true
		kept = append(kept, b)
	}

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	sort.Slice(kept, func(i, j int) bool { return kept[i].Path < kept[j].Path })

	return &FileList{Paths: sorted, Backups: kept}, nil
}

func isTopLevel(p string) bool {
	return parentOf(p) == ""
}

func parentOf(p string) string {
	trimmed := strings.TrimSuffix(p, "/")
	idx := strings.LastIndexByte(trimmed, '/')
	if idx < 0 {
		return ""
	}
	return trimmed[:idx+1]
}

// Parse reads a %FILES% section body (one path per line) and an optional
// %BACKUP% section body (tab-separated "path\tmd5" lines) into a FileList.
func Parse(fileLines, backupLines []string) (*FileList, error) {
	var backups []BackupEntry
	for _, line := range backupLines {
		idx := strings.IndexByte(line, '\t')
		if idx < 0 {
			return nil, &InvariantError{Reason: "malformed backup line (expected tab separator)", Path: line}
		}
		backups = append(backups, BackupEntry{Path: line[:idx], MD5Sum: line[idx+1:]})
	}
	return New(fileLines, backups)
}

// Display renders %FILES% (and, if any backups survive, %BACKUP%) in the
// requested style.
func (fl *FileList) Display(style Style) string {
	var b strings.Builder
	b.WriteString("%FILES%\n")
	for _, p := range fl.Paths {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	if style == StyleDB {
		b.WriteByte('\n')
	}
	if len(fl.Backups) > 0 {
		b.WriteString("%BACKUP%\n")
		for _, bk := range fl.Backups {
			fmt.Fprintf(&b, "%s\t%s\n", bk.Path, bk.MD5Sum)
		}
		if style == StyleDB {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
