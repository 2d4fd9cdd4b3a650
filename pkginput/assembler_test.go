package pkginput

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFileWithMtime(t *testing.T, path string, content []byte, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func digestOf(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func TestAssembleValidPackageDirectory(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Now().Add(-time.Hour).Truncate(time.Second)

	pkginfo := "pkgname = foo\npkgbase = foo\npkgver = 1.0-1\narch = x86_64\npackager = Jane <jane@example.org>\nbuilddate = 1700000000\n"
	buildinfo := "format = 2\npkgname = foo\npkgbase = foo\npkgver = 1.0-1\npkgarch = x86_64\npackager = Jane <jane@example.org>\nbuilddate = 1700000000\n"

	writeFileWithMtime(t, filepath.Join(dir, ".PKGINFO"), []byte(pkginfo), mtime)
	writeFileWithMtime(t, filepath.Join(dir, ".BUILDINFO"), []byte(buildinfo), mtime)

	mtreeText := "/set uid=0 gid=0 mode=0644 type=file\n" +
		"./.BUILDINFO time=" + unixStr(mtime) + " size=" + lenStr(buildinfo) + " sha256=" + digestOf([]byte(buildinfo)) + "\n" +
		"./.PKGINFO time=" + unixStr(mtime) + " size=" + lenStr(pkginfo) + " sha256=" + digestOf([]byte(pkginfo)) + "\n"
	if err := os.WriteFile(filepath.Join(dir, ".MTREE"), []byte(mtreeText), 0644); err != nil {
		t.Fatal(err)
	}

	input, err := Assemble(dir)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if input.PackageInfo.PkgName.String() != "foo" {
		t.Fatalf("pkgname = %q", input.PackageInfo.PkgName)
	}

	ok, err := input.IsOriginal()
	if err != nil || !ok {
		t.Fatalf("expected IsOriginal true, got %v %v", ok, err)
	}

	// mutate .MTREE out of band and confirm drift detection
	if err := os.WriteFile(filepath.Join(dir, ".MTREE"), append([]byte(mtreeText), '\n'), 0644); err != nil {
		t.Fatal(err)
	}
	ok, _ = input.IsOriginal()
	if ok {
		t.Fatal("expected IsOriginal to detect drift after mutation")
	}
}

func TestAssembleRejectsFingerprintMismatch(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Now().Add(-time.Hour).Truncate(time.Second)
	pkginfo := "pkgname = foo\npkgver = 1.0-1\narch = x86_64\n"
	buildinfo := "format = 2\npkgname = foo\npkgver = 1.0-1\npkgarch = x86_64\n"
	writeFileWithMtime(t, filepath.Join(dir, ".PKGINFO"), []byte(pkginfo), mtime)
	writeFileWithMtime(t, filepath.Join(dir, ".BUILDINFO"), []byte(buildinfo), mtime)

	mtreeText := "/set uid=0 gid=0 mode=0644 type=file\n" +
		"./.PKGINFO time=" + unixStr(mtime) + " size=" + lenStr(pkginfo) + " sha256=deadbeef\n" +
		"./.BUILDINFO time=" + unixStr(mtime) + " size=" + lenStr(buildinfo) + " sha256=" + digestOf([]byte(buildinfo)) + "\n"
	if err := os.WriteFile(filepath.Join(dir, ".MTREE"), []byte(mtreeText), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Assemble(dir); err == nil {
		t.Fatal("expected fingerprint mismatch error")
	}
}

func unixStr(tm time.Time) string {
	return itoa(tm.Unix())
}

func lenStr(s string) string {
	return itoa(int64(len(s)))
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
