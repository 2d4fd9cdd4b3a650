package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.json")
	content := `{
		"jobs": [
			{
				"dir": "/var/lib/pacman/local",
				"schema_version": 9,
				"entry_desc_files": ["foo.desc", "bar.desc"],
				"remove_entries": ["baz"]
			}
		]
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(b.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(b.Jobs))
	}
	job := b.Jobs[0]
	if job.Dir != "/var/lib/pacman/local" || job.SchemaVersion != 9 {
		t.Errorf("unexpected job fields: %+v", job)
	}
	if len(job.EntryDescFiles) != 2 || job.EntryDescFiles[0] != "foo.desc" {
		t.Errorf("unexpected entry_desc_files: %v", job.EntryDescFiles)
	}
	if len(job.RemoveEntries) != 1 || job.RemoveEntries[0] != "baz" {
		t.Errorf("unexpected remove_entries: %v", job.RemoveEntries)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.yaml")
	content := "jobs:\n" +
		"  - dir: /var/lib/pacman/local\n" +
		"    schema_version: 9\n" +
		"    entry_desc_files:\n" +
		"      - foo.desc\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(b.Jobs) != 1 || b.Jobs[0].Dir != "/var/lib/pacman/local" {
		t.Fatalf("unexpected result: %+v", b)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.json")
	content := `{"jobs": [{"dir": "x", "bogus_field": true}]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown field, got nil")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error for a missing file, got nil")
	}
}
