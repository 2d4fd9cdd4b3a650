package metafmt

import "testing"

func TestPackageInfoRoundTrip(t *testing.T) {
	text := "pkgname = foo\n" +
		"pkgbase = foo\n" +
		"pkgver = 1.0-1\n" +
		"pkgdesc = a test package\n" +
		"url = https://example.org\n" +
		"builddate = 1700000000\n" +
		"packager = Jane Doe <jane@example.org>\n" +
		"size = 1024\n" +
		"arch = x86_64\n" +
		"license = MIT\n" +
		"depend = bar>=1.0\n"

	pi, err := ParsePackageInfo(text, PackageInfoV1)
	if err != nil {
		t.Fatal(err)
	}
	if pi.PkgName.String() != "foo" {
		t.Fatalf("pkgname = %q", pi.PkgName)
	}
	if pi.Version.String() != "1.0-1" {
		t.Fatalf("pkgver = %q", pi.Version)
	}
	if len(pi.Depends) != 1 || pi.Depends[0] != "bar>=1.0" {
		t.Fatalf("depends = %v", pi.Depends)
	}

	out := pi.Display()
	pi2, err := ParsePackageInfo(out, PackageInfoV1)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if pi2.PkgName != pi.PkgName || pi2.Version.String() != pi.Version.String() {
		t.Fatalf("round-trip mismatch: %+v vs %+v", pi, pi2)
	}
}

func TestPackageInfoUnknownKeyRejected(t *testing.T) {
	_, err := ParsePackageInfo("pkgname = foo\nbogus = 1\n", PackageInfoV1)
	if err == nil {
		t.Fatal("expected schema error for unknown key")
	}
}

func TestPackageInfoV1RejectsXData(t *testing.T) {
	_, err := ParsePackageInfo("pkgname = foo\nxdata = pkgtype=pkg\n", PackageInfoV1)
	if err == nil {
		t.Fatal("expected xdata to be rejected under v1")
	}
}

func TestRepoDescV2RejectsMD5(t *testing.T) {
	text := "%FILENAME%\nfoo-1.0-1-x86_64.pkg.tar.zst\n\n%NAME%\nfoo\n\n%VERSION%\n1.0-1\n\n%MD5SUM%\ndeadbeef\n\n"
	_, err := ParseRepoDesc(text, RepoDescV2)
	if err == nil {
		t.Fatal("expected RepoDesc v2 to reject MD5SUM")
	}
}

func TestRepoDescRoundTrip(t *testing.T) {
	text := "%FILENAME%\nfoo-1.0-1-x86_64.pkg.tar.zst\n\n%NAME%\nfoo\n\n%VERSION%\n1.0-1\n\n%ARCH%\nx86_64\n\n"
	rd, err := ParseRepoDesc(text, RepoDescV2)
	if err != nil {
		t.Fatal(err)
	}
	out := rd.Display()
	rd2, err := ParseRepoDesc(out, RepoDescV2)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if rd2.Name != rd.Name || rd2.Filename != rd.Filename {
		t.Fatalf("round-trip mismatch: %+v vs %+v", rd, rd2)
	}
}
