package srcinfo

import (
	"strings"
	"testing"

	"github.com/archlinux/alpm-go/alpmtypes"
)

func mustArch(t *testing.T, s string) alpmtypes.Architecture {
	t.Helper()
	a, err := alpmtypes.ParseArchitecture(s)
	if err != nil {
		t.Fatalf("ParseArchitecture(%q): %v", s, err)
	}
	return a
}

func lintKinds(lints []Lint) []LintKind {
	var out []LintKind
	for _, l := range lints {
		out = append(out, l.Kind)
	}
	return out
}

func containsKind(kinds []LintKind, k LintKind) bool {
	for _, kk := range kinds {
		if kk == k {
			return true
		}
	}
	return false
}

func TestParseBasicSingleton(t *testing.T) {
	text := strings.Join([]string{
		"pkgbase = foo",
		"\tpkgdesc = the foo package",
		"\tpkgver = 1.2.3",
		"\tpkgrel = 1",
		"\turl = https://example.com",
		"\tarch = x86_64",
		"\tlicense = MIT",
		"\tdepends = glibc",
		"pkgname = foo",
	}, "\n")

	si, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(si.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", si.Errors)
	}
	if si.Base.Name.String() != "foo" {
		t.Fatalf("base name = %q", si.Base.Name)
	}
	if si.Base.Version.String() != "1.2.3-1" {
		t.Fatalf("base version = %q", si.Base.Version)
	}
	if len(si.Packages) != 1 {
		t.Fatalf("expected 1 package, got %d", len(si.Packages))
	}

	merged := si.PackagesForArchitecture(mustArch(t, "x86_64"))
	if len(merged) != 1 {
		t.Fatalf("expected 1 merged package for x86_64, got %d", len(merged))
	}
	m := merged[0]
	if m.Description != "the foo package" {
		t.Fatalf("description = %q", m.Description)
	}
	if len(m.Dependencies) != 1 || m.Dependencies[0].Name.String() != "glibc" {
		t.Fatalf("dependencies = %+v", m.Dependencies)
	}
}

func TestParseMissingMandatoryKeysIsUnrecoverableNotFatal(t *testing.T) {
	text := "pkgbase = foo\n\tpkgdesc = no version here\npkgname = foo\n"
	si, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse should never return a top-level error, got %v", err)
	}
	if len(si.Errors) != 2 {
		t.Fatalf("expected 2 unrecoverable errors (pkgver, pkgrel), got %d: %v", len(si.Errors), si.Errors)
	}
	if len(si.Packages) != 1 {
		t.Fatalf("parsing should continue past the missing keys, got %d packages", len(si.Packages))
	}
}

func TestParseDuplicateArchitectureLint(t *testing.T) {
	text := strings.Join([]string{
		"pkgbase = foo",
		"\tpkgver = 1",
		"\tpkgrel = 1",
		"\tarch = x86_64",
		"\tarch = x86_64",
		"pkgname = foo",
	}, "\n")
	si, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !containsKind(lintKinds(si.Lints), LintDuplicateArchitecture) {
		t.Fatalf("expected a duplicate-architecture lint, got %+v", si.Lints)
	}
}

func TestParseNonSPDXLicenseLint(t *testing.T) {
	text := strings.Join([]string{
		"pkgbase = foo",
		"\tpkgver = 1",
		"\tpkgrel = 1",
		"\tlicense = custom:whatever",
		"pkgname = foo",
	}, "\n")
	si, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !containsKind(lintKinds(si.Lints), LintNonSPDXLicense) {
		t.Fatalf("expected a non-spdx-license lint, got %+v", si.Lints)
	}
}

func TestParseValueAfterClearLint(t *testing.T) {
	text := strings.Join([]string{
		"pkgbase = foo",
		"\tpkgver = 1",
		"\tpkgrel = 1",
		"\tarch = x86_64",
		"\tdepends = base-dep",
		"pkgname = foo",
		"\tdepends =",
		"\tdepends = extra-dep",
	}, "\n")
	si, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !containsKind(lintKinds(si.Lints), LintValueAfterClear) {
		t.Fatalf("expected a value-after-clear lint, got %+v", si.Lints)
	}

	merged := si.PackagesForArchitecture(mustArch(t, "x86_64"))
	if len(merged) != 1 {
		t.Fatalf("expected 1 merged package, got %d", len(merged))
	}
	var names []string
	for _, d := range merged[0].Dependencies {
		names = append(names, d.Name.String())
	}
	if len(names) != 1 || names[0] != "extra-dep" {
		t.Fatalf("expected only extra-dep to survive the clear, got %v", names)
	}
}

func TestParseUnknownArchitectureSuffixLint(t *testing.T) {
	text := strings.Join([]string{
		"pkgbase = foo",
		"\tpkgver = 1",
		"\tpkgrel = 1",
		"\tarch = x86_64",
		"pkgname = foo",
		"\tdepends_aarch64 = somedep",
	}, "\n")
	si, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !containsKind(lintKinds(si.Lints), LintUnknownArchitectureSuffix) {
		t.Fatalf("expected an unknown-architecture-suffix lint, got %+v", si.Lints)
	}
}

func TestParsePackageOverridesBaseFields(t *testing.T) {
	text := strings.Join([]string{
		"pkgbase = foo",
		"\tpkgdesc = base description",
		"\tpkgver = 1",
		"\tpkgrel = 1",
		"\tarch = x86_64",
		"pkgname = foo-base",
		"pkgname = foo-override",
		"\tpkgdesc = overridden description",
	}, "\n")
	si, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	merged := si.PackagesForArchitecture(mustArch(t, "x86_64"))
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged packages, got %d", len(merged))
	}
	byName := map[string]MergedPackage{}
	for _, m := range merged {
		byName[m.Name.String()] = m
	}
	if byName["foo-base"].Description != "base description" {
		t.Fatalf("foo-base description = %q", byName["foo-base"].Description)
	}
	if byName["foo-override"].Description != "overridden description" {
		t.Fatalf("foo-override description = %q", byName["foo-override"].Description)
	}
}

func TestParseArchSpecificDependenciesMergeWithBase(t *testing.T) {
	text := strings.Join([]string{
		"pkgbase = foo",
		"\tpkgver = 1",
		"\tpkgrel = 1",
		"\tarch = x86_64",
		"\tarch = aarch64",
		"\tdepends = common-dep",
		"\tdepends_x86_64 = x86-only-dep",
		"pkgname = foo",
	}, "\n")
	si, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	x86 := si.PackagesForArchitecture(mustArch(t, "x86_64"))
	if len(x86) != 1 {
		t.Fatalf("expected 1 package for x86_64, got %d", len(x86))
	}
	var x86Names []string
	for _, d := range x86[0].Dependencies {
		x86Names = append(x86Names, d.Name.String())
	}
	if len(x86Names) != 2 {
		t.Fatalf("expected common-dep + x86-only-dep on x86_64, got %v", x86Names)
	}

	arm := si.PackagesForArchitecture(mustArch(t, "aarch64"))
	if len(arm) != 1 {
		t.Fatalf("expected 1 package for aarch64, got %d", len(arm))
	}
	var armNames []string
	for _, d := range arm[0].Dependencies {
		armNames = append(armNames, d.Name.String())
	}
	if len(armNames) != 1 || armNames[0] != "common-dep" {
		t.Fatalf("expected only common-dep on aarch64, got %v", armNames)
	}
}

func TestParseAnyArchitectureCompatibleWithEveryRequest(t *testing.T) {
	text := strings.Join([]string{
		"pkgbase = foo",
		"\tpkgver = 1",
		"\tpkgrel = 1",
		"\tarch = any",
		"pkgname = foo",
	}, "\n")
	si, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, want := range []string{"x86_64", "aarch64", "i686"} {
		merged := si.PackagesForArchitecture(mustArch(t, want))
		if len(merged) != 1 {
			t.Fatalf("expected the any-architecture package to satisfy %s, got %d matches", want, len(merged))
		}
	}
}

func TestParseProvidesSonameV1AndV2(t *testing.T) {
	text := strings.Join([]string{
		"pkgbase = foo",
		"\tpkgver = 1",
		"\tpkgrel = 1",
		"\tprovides = libfoo.so.1",
		"\tprovides = libfoo:libfoo=1.2.3-1",
		"pkgname = foo",
	}, "\n")
	si, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(si.Base.Provides) != 2 {
		t.Fatalf("expected 2 provides entries, got %d", len(si.Base.Provides))
	}
}
