// Package pkginput implements the package input assembler (C6): it binds an
// input directory's metadata, mtree manifest, and optional install
// scriptlet into a verified PackageInput, cross-checking content-fingerprint
// digests and cross-file field consistency.
//
// The digest-drift detection on re-read is grounded on the teacher's
// deb.Package.Digest/SetOriginalState/IsOriginal mechanism: both track a
// content fingerprint computed at construction time and compare it against
// a freshly recomputed one to detect out-of-band mutation.
package pkginput

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/archlinux/alpm-go/metafmt"
	"github.com/archlinux/alpm-go/mtree"
)

const (
	mtreeFileName     = ".MTREE"
	buildInfoFileName = ".BUILDINFO"
	pkgInfoFileName   = ".PKGINFO"
	installFileName   = ".INSTALL"
)

// FingerprintError reports that a metadata file's content does not match
// the digest recorded for it in the mtree manifest.
type FingerprintError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *FingerprintError) Error() string {
	return fmt.Sprintf("content fingerprint mismatch for %s: mtree records %s, file hashes to %s", e.Path, e.Expected, e.Actual)
}

// CrossCheckError reports a mismatch between overlapping fields of
// .BUILDINFO and .PKGINFO.
type CrossCheckError struct {
	Mismatches []FieldMismatch
}

// FieldMismatch is one offending (key, value-in-a, value-in-b) triple.
type FieldMismatch struct {
	Field        string
	PackageInfo  string
	BuildInfo    string
}

func (e *CrossCheckError) Error() string {
	var parts []string
	for _, m := range e.Mismatches {
		parts = append(parts, fmt.Sprintf("%s: pkginfo=%q buildinfo=%q", m.Field, m.PackageInfo, m.BuildInfo))
	}
	return "metadata cross-check failed: " + strings.Join(parts, "; ")
}

// PackageInput is the assembled, validated view of an input directory.
type PackageInput struct {
	dir         string
	PackageInfo *metafmt.PackageInfo
	BuildInfo   *metafmt.BuildInfo
	Mtree       *mtree.Mtree
	HasInstall  bool
	RelativePaths []string

	mtreeDigest string
}

// Assemble validates directory dir per spec §4.6: it requires readable
// .MTREE, .BUILDINFO, .PKGINFO; permits an optional .INSTALL; verifies every
// present metadata file's content-fingerprint against the mtree; cross-
// checks overlapping BuildInfo/PackageInfo fields; and validates the full
// directory tree against the mtree.
func Assemble(dir string) (*PackageInput, error) {
	mtreeBytes, err := os.ReadFile(filepath.Join(dir, mtreeFileName))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", mtreeFileName, err)
	}
	buildInfoBytes, err := os.ReadFile(filepath.Join(dir, buildInfoFileName))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", buildInfoFileName, err)
	}
	pkgInfoBytes, err := os.ReadFile(filepath.Join(dir, pkgInfoFileName))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", pkgInfoFileName, err)
	}
	hasInstall := false
	if _, err := os.Stat(filepath.Join(dir, installFileName)); err == nil {
		hasInstall = true
	}

	m, err := mtree.Parse(string(mtreeBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", mtreeFileName, err)
	}

	digestByPath := make(map[string]string, len(m.Records))
	for _, r := range m.Records {
		if r.Type == mtree.PathTypeFile {
			digestByPath[r.Path] = r.SHA256
		}
	}

	if err := checkFingerprint(buildInfoFileName, buildInfoBytes, digestByPath); err != nil {
		return nil, err
	}
	if err := checkFingerprint(pkgInfoFileName, pkgInfoBytes, digestByPath); err != nil {
		return nil, err
	}
	if hasInstall {
		installBytes, err := os.ReadFile(filepath.Join(dir, installFileName))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", installFileName, err)
		}
		if err := checkFingerprint(installFileName, installBytes, digestByPath); err != nil {
			return nil, err
		}
	}

	buildInfo, err := metafmt.ParseBuildInfo(string(buildInfoBytes), metafmt.BuildInfoV2)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", buildInfoFileName, err)
	}
	pkgInfo, err := metafmt.ParsePackageInfo(string(pkgInfoBytes), metafmt.PackageInfoV2)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pkgInfoFileName, err)
	}

	if err := crossCheck(pkgInfo, buildInfo); err != nil {
		return nil, err
	}

	relPaths, err := listRelativePaths(dir)
	if err != nil {
		return nil, err
	}

	report := m.ValidatePaths(dir, relPaths)
	if !report.OK() {
		return nil, fmt.Errorf("mtree validation failed: %w", report)
	}

	digest, err := sha256Bytes(mtreeBytes)
	if err != nil {
		return nil, err
	}

	return &PackageInput{
		dir:           dir,
		PackageInfo:   pkgInfo,
		BuildInfo:     buildInfo,
		Mtree:         m,
		HasInstall:    hasInstall,
		RelativePaths: relPaths,
		mtreeDigest:   digest,
	}, nil
}

func checkFingerprint(name string, content []byte, digestByPath map[string]string) error {
	expected, ok := digestByPath[name]
	if !ok {
		return nil // not recorded in the mtree; no fingerprint to check
	}
	actual, err := sha256Bytes(content)
	if err != nil {
		return err
	}
	if actual != expected {
		return &FingerprintError{Path: name, Expected: expected, Actual: actual}
	}
	return nil
}

func sha256Bytes(b []byte) (string, error) {
	h := sha256.New()
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// crossCheck compares the overlapping fields of pkgInfo and buildInfo,
// collecting every mismatch into a single CrossCheckError.
func crossCheck(pi *metafmt.PackageInfo, bi *metafmt.BuildInfo) error {
	var mismatches []FieldMismatch
	add := func(field, a, b string) {
		if a != b {
			mismatches = append(mismatches, FieldMismatch{Field: field, PackageInfo: a, BuildInfo: b})
		}
	}
	add("pkgname", pi.PkgName.String(), bi.PkgName.String())
	add("pkgbase", pi.PkgBase, bi.PkgBase)
	add("pkgver", pi.Version.String(), bi.Version.String())
	add("arch", pi.Architecture.String(), bi.Architecture.String())
	add("packager", pi.Packager, bi.Packager)
	add("builddate", strconv.FormatInt(pi.BuildDate, 10), strconv.FormatInt(bi.BuildDate, 10))
	if len(mismatches) > 0 {
		return &CrossCheckError{Mismatches: mismatches}
	}
	return nil
}

func listRelativePaths(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == mtreeFileName {
			return nil
		}
		if d.IsDir() {
			out = append(out, rel+"/")
			return nil
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// RereadMtree re-reads and re-hashes .MTREE from disk, returning an error if
// its content has changed since Assemble was called (detecting a
// concurrent edit). It does not re-take any lock: the assembler performs no
// locking at all, matching the "package input mtree() accessor ... does
// not re-take any lock" resource-model rule.
func (p *PackageInput) RereadMtree() (*mtree.Mtree, error) {
	content, err := os.ReadFile(filepath.Join(p.dir, mtreeFileName))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", mtreeFileName, err)
	}
	digest, err := sha256Bytes(content)
	if err != nil {
		return nil, err
	}
	if digest != p.mtreeDigest {
		return nil, fmt.Errorf("%s changed since assembly: recorded digest %s, now %s", mtreeFileName, p.mtreeDigest, digest)
	}
	return mtree.Parse(string(content))
}

// IsOriginal reports whether .MTREE still hashes to the digest recorded at
// assembly time, mirroring deb.Package.IsOriginal's original-state check.
func (p *PackageInput) IsOriginal() (bool, error) {
	content, err := os.ReadFile(filepath.Join(p.dir, mtreeFileName))
	if err != nil {
		return false, err
	}
	digest, err := sha256Bytes(content)
	if err != nil {
		return false, err
	}
	return digest == p.mtreeDigest, nil
}
