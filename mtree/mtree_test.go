package mtree

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseSetUnsetDefaults(t *testing.T) {
	text := "#mtree\n" +
		"/set uid=0 gid=0 mode=0755 type=dir\n" +
		"./usr type=dir time=1700000000\n" +
		"/set type=file mode=0644\n" +
		"./usr/bin/foo time=1700000000 size=4 sha256=aabbccdd\n"
	m, err := Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(m.Records))
	}
	// sorted by path
	if m.Records[0].Path != "usr" || m.Records[1].Path != "usr/bin/foo" {
		t.Fatalf("unexpected order: %+v", m.Records)
	}
	if m.Records[1].Mode != "0644" || m.Records[1].UID != 0 {
		t.Fatalf("defaults not inherited: %+v", m.Records[1])
	}
}

func TestInterpretMissingRequiredField(t *testing.T) {
	text := "/set uid=0 gid=0 mode=0644 type=file\n./foo time=1700000000\n"
	_, err := Parse(text)
	if err == nil {
		t.Fatal("expected missing-field interpreter error (size/sha256)")
	}
}

func TestValidatePathsSymlinkMismatch(t *testing.T) {
	dir := t.TempDir()
	linkPath := filepath.Join(dir, "link")
	if err := os.Symlink("/tmp/other/path", linkPath); err != nil {
		t.Fatal(err)
	}

	text := "/set uid=0 gid=0 mode=0777 type=link\n" +
		"./link time=1700000000 link=/tmp/something/very/unlikely/to/ever/exist/hopefully.txt\n"
	m, err := Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	report := m.ValidatePaths(dir, []string{"link"})
	if report.OK() {
		t.Fatal("expected symlink target mismatch")
	}
	found := false
	for _, e := range report.Errors {
		if e.Path == "link" && containsAll(e.Reason, "symlink target mismatch", "/tmp/other/path", "hopefully.txt") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a symlink target mismatch naming both targets, got %v", report.Errors)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !contains(s, sub) {
			return false
		}
	}
	return true
}

func contains(s, sub string) bool {
	return len(sub) == 0 || indexOf(s, sub) >= 0
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestValidatePathsFileDigestAndSize(t *testing.T) {
	dir := t.TempDir()
	content := []byte("hello world")
	if err := os.WriteFile(filepath.Join(dir, "data"), content, 0644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "data"), mtime, mtime); err != nil {
		t.Fatal(err)
	}
	sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sum[:])

	// Build manifest text referencing the real mtime to assert success.
	good := "/set uid=0 gid=0 mode=0644 type=file\n./data time=" +
		itoa(mtime.Unix()) + " size=11 sha256=" + digest + "\n"
	m, err := Parse(good)
	if err != nil {
		t.Fatal(err)
	}
	report := m.ValidatePaths(dir, []string{"data"})
	if !report.OK() {
		t.Fatalf("expected clean validation, got %v", report.Errors)
	}

	bad := "/set uid=0 gid=0 mode=0644 type=file\n./data time=" +
		itoa(mtime.Unix()) + " size=999 sha256=deadbeef\n"
	m2, err := Parse(bad)
	if err != nil {
		t.Fatal(err)
	}
	report2 := m2.ValidatePaths(dir, []string{"data"})
	if report2.OK() || len(report2.Errors) < 2 {
		t.Fatalf("expected both size and digest mismatches, got %v", report2.Errors)
	}
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
