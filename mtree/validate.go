package mtree

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sys/unix"
)

// PathMismatchError is one specific disagreement between a manifest record
// and the on-disk state discovered during validation.
type PathMismatchError struct {
	Path   string
	Reason string
}

func (e *PathMismatchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// ValidationReport collects every mismatch found by ValidatePaths; it never
// short-circuits after the first.
type ValidationReport struct {
	Errors []*PathMismatchError
}

func (r *ValidationReport) add(path, reason string) {
	r.Errors = append(r.Errors, &PathMismatchError{Path: path, Reason: reason})
}

// OK reports whether validation found zero mismatches.
func (r *ValidationReport) OK() bool { return len(r.Errors) == 0 }

func (r *ValidationReport) Error() string {
	lines := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "; ")
}

// ValidatePaths checks baseDir against every record in m, and additionally
// requires that relativePaths (the full set of paths present under
// baseDir, normally "every file except .MTREE") equals the manifest's path
// set exactly. Every mismatch is collected; nothing short-circuits.
func (m *Mtree) ValidatePaths(baseDir string, relativePaths []string) *ValidationReport {
	report := &ValidationReport{}

	manifestSet := make(map[string]bool, len(m.Records))
	for _, r := range m.Records {
		manifestSet[r.Path] = true
	}
	inputSet := make(map[string]bool, len(relativePaths))
	for _, p := range relativePaths {
		inputSet[p] = true
	}

	var extra, missing []string
	for p := range inputSet {
		if !manifestSet[p] {
			extra = append(extra, p)
		}
	}
	for p := range manifestSet {
		if !inputSet[p] {
			missing = append(missing, p)
		}
	}
	sort.Strings(extra)
	sort.Strings(missing)
	for _, p := range extra {
		report.add(p, "present on disk but not recorded in manifest")
	}
	for _, p := range missing {
		report.add(p, "recorded in manifest but missing on disk")
	}

	for _, rec := range m.Records {
		validateOne(baseDir, rec, report)
	}
	return report
}

func validateOne(baseDir string, rec Record, report *ValidationReport) {
	full := filepath.Join(baseDir, rec.Path)
	info, err := os.Lstat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return // already reported via the missing-set comparison
		}
		report.add(rec.Path, "stat failed: "+err.Error())
		return
	}

	actualType := classifyType(info)
	if actualType != rec.Type {
		report.add(rec.Path, fmt.Sprintf("type mismatch: expected %s, found %s", rec.Type, actualType))
		return
	}

	sys, ok := info.Sys().(*unix.Stat_t)
	if ok {
		if int(sys.Uid) != rec.UID {
			report.add(rec.Path, fmt.Sprintf("uid mismatch: expected %d, found %d", rec.UID, sys.Uid))
		}
		if int(sys.Gid) != rec.GID {
			report.add(rec.Path, fmt.Sprintf("gid mismatch: expected %d, found %d", rec.GID, sys.Gid))
		}
	}
	if info.ModTime().Unix() != rec.MTime {
		report.add(rec.Path, fmt.Sprintf("mtime mismatch: expected %d, found %d", rec.MTime, info.ModTime().Unix()))
	}

	// The on-disk mode's octal representation must end with the recorded
	// mode, to accommodate leading type bits in raw stat output.
	onDiskOctal := fmt.Sprintf("%o", rawMode(info))
	if !strings.HasSuffix(onDiskOctal, rec.Mode) {
		report.add(rec.Path, fmt.Sprintf("mode mismatch: expected %s, found %s", rec.Mode, onDiskOctal))
	}

	switch rec.Type {
	case PathTypeFile:
		if info.Size() != rec.Size {
			report.add(rec.Path, fmt.Sprintf("size mismatch: expected %d, found %d", rec.Size, info.Size()))
		}
		digest, err := sha256File(full)
		if err != nil {
			report.add(rec.Path, "failed to read file for digest: "+err.Error())
		} else if digest != rec.SHA256 {
			report.add(rec.Path, fmt.Sprintf("sha256 mismatch: expected %s, found %s", rec.SHA256, digest))
		}
	case PathTypeLink:
		target, err := os.Readlink(full)
		if err != nil {
			report.add(rec.Path, "readlink failed: "+err.Error())
		} else if target != rec.LinkTarget {
			report.add(rec.Path, fmt.Sprintf("symlink target mismatch: expected %s, found %s", rec.LinkTarget, target))
		}
	}
}

func rawMode(info os.FileInfo) uint32 {
	if sys, ok := info.Sys().(*unix.Stat_t); ok {
		return sys.Mode
	}
	return uint32(info.Mode().Perm())
}

func classifyType(info os.FileInfo) PathType {
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return PathTypeLink
	case info.IsDir():
		return PathTypeDir
	default:
		return PathTypeFile
	}
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
