// Package pkgdb implements the database directory manager (C7): a
// file-locked, on-disk collection of versioned package entries with
// duplicate-name detection and atomic update-via-delete-then-write
// semantics.
//
// Grounded on the teacher's deb.Repository / NewRepositoryFromDir /
// WriteToDir directory-scan-then-write pattern, generalized from a single
// flat Packages-file repository into ALPM's per-entry-subdirectory layout.
package pkgdb

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const schemaFileName = "ALPM_DB_VERSION"

// Entry is one on-disk database entry: a subdirectory's raw file contents.
// Desc is mandatory; Files and Mtree are optional (nil when absent).
type Entry struct {
	Name  EntryName
	Desc  string
	Files *string
	Mtree *string
}

// ParseErrorEntry records a failure to parse one entry subdirectory during
// check(); parse errors here are collected, never fatal.
type ParseErrorEntry struct {
	Directory string
	Err       error
}

// DuplicateNameError reports more than one entry sharing the same parsed
// Name, listing the colliding full entry names in sorted order.
type DuplicateNameError struct {
	Name    string
	Entries []string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate entries for package %q: %v", e.Name, e.Entries)
}

// CheckReport is the result of Database.Check: a diagnostic sweep over
// every entry subdirectory that never aborts on an individual failure.
type CheckReport struct {
	Checked     int
	ParseErrors []ParseErrorEntry
	Duplicates  []*DuplicateNameError
}

// OK reports whether the scan found zero problems.
func (r *CheckReport) OK() bool { return len(r.ParseErrors) == 0 && len(r.Duplicates) == 0 }

// Database is an open, file-locked directory of package entries.
type Database struct {
	dir  string
	lock *fileLock
}

// Create makes dir (if missing), acquires the lock, and writes the schema
// version file. It fails if the lock is already held.
func Create(dir string, schemaVersion int) (*Database, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	lock, err := acquireLock(dir)
	if err != nil {
		return nil, err
	}
	schemaPath := filepath.Join(dir, schemaFileName)
	if err := os.WriteFile(schemaPath, []byte(fmt.Sprintf("%d\n", schemaVersion)), 0644); err != nil {
		lock.release()
		return nil, fmt.Errorf("writing schema file: %w", err)
	}
	return &Database{dir: dir, lock: lock}, nil
}

// Open requires dir to exist and be a directory, acquires the lock, reads
// the schema, runs Check, and fails if any duplicate-name error is found.
func Open(dir string) (*Database, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening database %s: not a directory", dir)
	}
	lock, err := acquireLock(dir)
	if err != nil {
		return nil, err
	}
	if _, err := os.ReadFile(filepath.Join(dir, schemaFileName)); err != nil {
		lock.release()
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	db := &Database{dir: dir, lock: lock}
	report, err := db.Check()
	if err != nil {
		lock.release()
		return nil, err
	}
	if len(report.Duplicates) > 0 {
		lock.release()
		return nil, report.Duplicates[0]
	}
	return db, nil
}

// Close releases the lock. Failure to remove the lock file is swallowed.
func (d *Database) Close() {
	d.lock.release()
}

// Dir returns the database's base directory.
func (d *Database) Dir() string { return d.dir }

func (d *Database) subdirs() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", d.dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.Name() == schemaFileName {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			continue // symlinked directories are ignored
		}
		if !e.IsDir() {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

func (d *Database) readEntry(subdir string) (*Entry, error) {
	name, err := ParseEntryName(subdir)
	if err != nil {
		return nil, err
	}
	descPath := filepath.Join(d.dir, subdir, "desc")
	desc, err := os.ReadFile(descPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", descPath, err)
	}
	e := &Entry{Name: name, Desc: string(desc)}
	if b, err := os.ReadFile(filepath.Join(d.dir, subdir, "files")); err == nil {
		s := string(b)
		e.Files = &s
	}
	if b, err := os.ReadFile(filepath.Join(d.dir, subdir, "mtree")); err == nil {
		s := string(b)
		e.Mtree = &s
	}
	return e, nil
}

// Entries enumerates every entry subdirectory, sorted by directory name.
func (d *Database) Entries() ([]*Entry, error) {
	subdirs, err := d.subdirs()
	if err != nil {
		return nil, err
	}
	var out []*Entry
	for _, s := range subdirs {
		e, err := d.readEntry(s)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Entry looks up a single entry by its full "name-pkgver-pkgrel" key.
func (d *Database) Entry(fullName string) (*Entry, bool, error) {
	subdirs, err := d.subdirs()
	if err != nil {
		return nil, false, err
	}
	for _, s := range subdirs {
		if s == fullName {
			e, err := d.readEntry(s)
			return e, true, err
		}
	}
	return nil, false, nil
}

// EntryByName returns the newest-version entry whose parsed Name equals
// name, or found=false if none exists.
func (d *Database) EntryByName(name string) (entry *Entry, found bool, err error) {
	entries, err := d.Entries()
	if err != nil {
		return nil, false, err
	}
	var best *Entry
	for _, e := range entries {
		if e.Name.Name.String() != name {
			continue
		}
		if best == nil || e.Name.Version.Compare(best.Name.Version) > 0 {
			best = e
		}
	}
	return best, best != nil, nil
}

// CreateEntry fails if any entry with the same full name already exists,
// otherwise writes it atomically (write-to-temp, rename).
func (d *Database) CreateEntry(e *Entry) error {
	full := e.Name.String()
	subdirs, err := d.subdirs()
	if err != nil {
		return err
	}
	for _, s := range subdirs {
		if s == full {
			return fmt.Errorf("entry %q already exists", full)
		}
	}
	return writeEntryDir(filepath.Join(d.dir, full), e)
}

func writeEntryDir(path string, e *Entry) error {
	tmp := path + ".tmp"
	if err := os.RemoveAll(tmp); err != nil {
		return err
	}
	if err := os.MkdirAll(tmp, 0755); err != nil {
		return fmt.Errorf("creating entry directory %s: %w", tmp, err)
	}
	if err := os.WriteFile(filepath.Join(tmp, "desc"), []byte(e.Desc), 0644); err != nil {
		return fmt.Errorf("writing desc: %w", err)
	}
	if e.Files != nil {
		if err := os.WriteFile(filepath.Join(tmp, "files"), []byte(*e.Files), 0644); err != nil {
			return fmt.Errorf("writing files: %w", err)
		}
	}
	if e.Mtree != nil {
		if err := os.WriteFile(filepath.Join(tmp, "mtree"), []byte(*e.Mtree), 0644); err != nil {
			return fmt.Errorf("writing mtree: %w", err)
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalizing entry directory %s: %w", path, err)
	}
	return nil
}

// UpdateEntry removes every existing entry sharing e's Name, then creates e.
func (d *Database) UpdateEntry(e *Entry) error {
	if err := d.DeleteEntry(e.Name.Name.String()); err != nil {
		return err
	}
	return d.CreateEntry(e)
}

// DeleteEntry removes every entry whose Name equals name.
func (d *Database) DeleteEntry(name string) error {
	subdirs, err := d.subdirs()
	if err != nil {
		return err
	}
	for _, s := range subdirs {
		parsed, err := ParseEntryName(s)
		if err != nil {
			continue
		}
		if parsed.Name.String() == name {
			if err := os.RemoveAll(filepath.Join(d.dir, s)); err != nil {
				return fmt.Errorf("removing entry %s: %w", s, err)
			}
		}
	}
	return nil
}

// Check scans every subdirectory, groups by Name, and reports a
// DuplicateNameError for any Name with more than one entry. Individual
// entry_from_directory parse errors are collected, never fatal.
func (d *Database) Check() (*CheckReport, error) {
	subdirs, err := d.subdirs()
	if err != nil {
		return nil, err
	}
	report := &CheckReport{}
	byName := make(map[string][]string)
	for _, s := range subdirs {
		report.Checked++
		parsed, err := ParseEntryName(s)
		if err != nil {
			report.ParseErrors = append(report.ParseErrors, ParseErrorEntry{Directory: s, Err: err})
			continue
		}
		if _, err := d.readEntry(s); err != nil {
			report.ParseErrors = append(report.ParseErrors, ParseErrorEntry{Directory: s, Err: err})
			continue
		}
		key := parsed.Name.String()
		byName[key] = append(byName[key], s)
	}
	var names []string
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if len(byName[n]) > 1 {
			full := append([]string(nil), byName[n]...)
			sort.Strings(full)
			report.Duplicates = append(report.Duplicates, &DuplicateNameError{Name: n, Entries: full})
		}
	}
	return report, nil
}
