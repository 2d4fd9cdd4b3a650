package pkgdb

import (
	"path/filepath"
	"testing"
)

func mustEntryName(t *testing.T, full string) EntryName {
	t.Helper()
	n, err := ParseEntryName(full)
	if err != nil {
		t.Fatalf("ParseEntryName(%q): %v", full, err)
	}
	return n
}

func TestCreateOpenLifecycle(t *testing.T) {
	base := t.TempDir()
	dbDir := filepath.Join(base, "core")

	db, err := Create(dbDir, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	entry := &Entry{
		Name: mustEntryName(t, "foo-1.0.0-1"),
		Desc: "%NAME%\nfoo\n\n%VERSION%\n1.0.0-1\n",
	}
	if err := db.CreateEntry(entry); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	db.Close()

	db2, err := Open(dbDir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db2.Close()

	entries, err := db2.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Name.Name.String() != "foo" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	got, found, err := db2.EntryByName("foo")
	if err != nil || !found {
		t.Fatalf("EntryByName: found=%v err=%v", found, err)
	}
	if got.Name.String() != "foo-1.0.0-1" {
		t.Fatalf("unexpected entry: %+v", got)
	}
}

func TestDatabaseReopenWithDuplicatesFails(t *testing.T) {
	base := t.TempDir()
	dbDir := filepath.Join(base, "core")

	db, err := Create(dbDir, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, full := range []string{"foo-1.0.0-1", "foo-2.0.0-1"} {
		entry := &Entry{Name: mustEntryName(t, full), Desc: "%NAME%\nfoo\n\n"}
		if err := db.CreateEntry(entry); err != nil {
			t.Fatalf("CreateEntry(%s): %v", full, err)
		}
	}
	db.Close()

	_, err = Open(dbDir)
	if err == nil {
		t.Fatal("expected Open to fail with a DuplicateName error")
	}
	dup, ok := err.(*DuplicateNameError)
	if !ok {
		t.Fatalf("expected *DuplicateNameError, got %T: %v", err, err)
	}
	if dup.Name != "foo" {
		t.Fatalf("unexpected duplicate name: %q", dup.Name)
	}
	want := []string{"foo-1.0.0-1", "foo-2.0.0-1"}
	if len(dup.Entries) != 2 || dup.Entries[0] != want[0] || dup.Entries[1] != want[1] {
		t.Fatalf("expected sorted entries %v, got %v", want, dup.Entries)
	}
}

func TestUpdateAndDeleteEntry(t *testing.T) {
	base := t.TempDir()
	dbDir := filepath.Join(base, "core")
	db, err := Create(dbDir, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer db.Close()

	v1 := &Entry{Name: mustEntryName(t, "foo-1.0.0-1"), Desc: "one\n"}
	if err := db.CreateEntry(v1); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	v2 := &Entry{Name: mustEntryName(t, "foo-2.0.0-1"), Desc: "two\n"}
	if err := db.UpdateEntry(v2); err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}

	entries, err := db.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Name.String() != "foo-2.0.0-1" {
		t.Fatalf("expected single updated entry, got %+v", entries)
	}

	if err := db.DeleteEntry("foo"); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	entries, err = db.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries after delete, got %+v", entries)
	}
}

func TestCheckReportsCleanDatabase(t *testing.T) {
	base := t.TempDir()
	dbDir := filepath.Join(base, "core")
	db, err := Create(dbDir, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer db.Close()

	if err := db.CreateEntry(&Entry{Name: mustEntryName(t, "bar-1-1"), Desc: "x\n"}); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	report, err := db.Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !report.OK() {
		t.Fatalf("expected clean report, got %+v", report)
	}
	if report.Checked != 1 {
		t.Fatalf("expected 1 checked entry, got %d", report.Checked)
	}
}

func TestCreateEntryRejectsDuplicateFullName(t *testing.T) {
	base := t.TempDir()
	dbDir := filepath.Join(base, "core")
	db, err := Create(dbDir, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer db.Close()

	e := &Entry{Name: mustEntryName(t, "foo-1.0.0-1"), Desc: "x\n"}
	if err := db.CreateEntry(e); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if err := db.CreateEntry(e); err == nil {
		t.Fatal("expected duplicate full-name create to fail")
	}
}

func TestEntryByNameFiltersByName(t *testing.T) {
	base := t.TempDir()
	dbDir := filepath.Join(base, "core")
	db, err := Create(dbDir, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer db.Close()

	// write two distinct-name entries to confirm EntryByName filters, not
	// just returns the first result
	if err := db.CreateEntry(&Entry{Name: mustEntryName(t, "foo-1.0.0-1"), Desc: "a\n"}); err != nil {
		t.Fatal(err)
	}
	if err := db.CreateEntry(&Entry{Name: mustEntryName(t, "bar-9.0.0-1"), Desc: "b\n"}); err != nil {
		t.Fatal(err)
	}

	got, found, err := db.EntryByName("foo")
	if err != nil || !found {
		t.Fatalf("EntryByName: found=%v err=%v", found, err)
	}
	if got.Name.Name.String() != "foo" {
		t.Fatalf("unexpected match: %+v", got)
	}
}
