package alpmtypes

import (
	"strconv"
	"strings"
)

// PackageVersion is a pkgver: non-empty, first character alphanumeric, the
// rest drawn from [A-Za-z0-9._+]. Ordering follows the segment-iterator
// algorithm in segment.go.
type PackageVersion struct {
	raw string
}

// ParsePackageVersion validates and wraps text as a PackageVersion.
func ParsePackageVersion(text string) (PackageVersion, error) {
	if text == "" {
		return PackageVersion{}, &InvalidValueError{Kind: "PackageVersion", Value: text, Reason: "empty"}
	}
	runes := []rune(text)
	if !isASCIIAlnum(runes[0]) {
		return PackageVersion{}, &InvalidValueError{Kind: "PackageVersion", Value: text, Reason: "first character must be alphanumeric"}
	}
	for _, r := range runes[1:] {
		if !isASCIIAlnum(r) && !strings.ContainsRune("._+", r) {
			return PackageVersion{}, &InvalidValueError{Kind: "PackageVersion", Value: text, Reason: "characters must be in [A-Za-z0-9._+]"}
		}
	}
	return PackageVersion{raw: text}, nil
}

func (v PackageVersion) String() string { return v.raw }

// Compare implements the pkgver ordering described in segment.go.
func (v PackageVersion) Compare(other PackageVersion) int {
	return comparePkgverStrings(v.raw, other.raw)
}

func (v PackageVersion) Equal(other PackageVersion) bool { return v.raw == other.raw }

// PackageRelease is a pkgrel: either \d+ or \d+.\d+, compared
// lexicographically on its textual digit form.
type PackageRelease struct {
	raw string
}

// ParsePackageRelease validates and wraps text as a PackageRelease.
func ParsePackageRelease(text string) (PackageRelease, error) {
	if text == "" {
		return PackageRelease{}, &InvalidValueError{Kind: "PackageRelease", Value: text, Reason: "empty"}
	}
	parts := strings.SplitN(text, ".", 2)
	if len(parts) > 2 {
		return PackageRelease{}, &InvalidValueError{Kind: "PackageRelease", Value: text, Reason: "must be \\d+ or \\d+.\\d+"}
	}
	for _, p := range parts {
		if p == "" || !isAllDigits(p) {
			return PackageRelease{}, &InvalidValueError{Kind: "PackageRelease", Value: text, Reason: "must be \\d+ or \\d+.\\d+"}
		}
	}
	return PackageRelease{raw: text}, nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !isASCIIDigit(r) {
			return false
		}
	}
	return true
}

func (r PackageRelease) String() string { return r.raw }

// Compare orders PackageRelease lexicographically on its textual form, as
// specified: "\d+" releases compare as strings, and a two-component release
// compares its major part first.
func (r PackageRelease) Compare(other PackageRelease) int {
	return strings.Compare(r.raw, other.raw)
}

func (r PackageRelease) Equal(other PackageRelease) bool { return r.raw == other.raw }

// Epoch is a non-zero unsigned integer, optional on a Version.
type Epoch struct {
	value uint64
	set   bool
}

// ParseEpoch validates and wraps text as an Epoch. Epoch 0 is rejected: the
// primitive is meant to be used only when nonzero (absent otherwise).
func ParseEpoch(text string) (Epoch, error) {
	if text == "" || !isAllDigits(text) {
		return Epoch{}, &InvalidValueError{Kind: "Epoch", Value: text, Reason: "must be a non-negative integer"}
	}
	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return Epoch{}, &InvalidValueError{Kind: "Epoch", Value: text, Reason: "out of range"}
	}
	if n == 0 {
		return Epoch{}, &InvalidValueError{Kind: "Epoch", Value: text, Reason: "epoch must be non-zero"}
	}
	return Epoch{value: n, set: true}, nil
}

func (e Epoch) String() string {
	if !e.set {
		return ""
	}
	return strconv.FormatUint(e.value, 10)
}

func (e Epoch) IsSet() bool { return e.set }

// Compare orders Epoch with absent < present, then numerically.
func (e Epoch) Compare(other Epoch) int {
	if e.set != other.set {
		if !e.set {
			return -1
		}
		return 1
	}
	if !e.set {
		return 0
	}
	switch {
	case e.value < other.value:
		return -1
	case e.value > other.value:
		return 1
	default:
		return 0
	}
}

// Version is the full (epoch?, pkgver, pkgrel?) triple.
type Version struct {
	Epoch   Epoch
	Pkgver  PackageVersion
	Pkgrel  PackageRelease
	hasRel  bool
}

// NewVersion constructs a Version from already-validated components.
// pkgrel is optional; pass nil to build a version with no release.
func NewVersion(epoch Epoch, pkgver PackageVersion, pkgrel *PackageRelease) Version {
	v := Version{Epoch: epoch, Pkgver: pkgver}
	if pkgrel != nil {
		v.Pkgrel = *pkgrel
		v.hasRel = true
	}
	return v
}

// ParseVersion parses the canonical "[epoch:]pkgver[-pkgrel]" form.
func ParseVersion(text string) (Version, error) {
	var v Version
	rest := text
	if idx := strings.IndexByte(rest, ':'); idx >= 0 {
		epoch, err := ParseEpoch(rest[:idx])
		if err != nil {
			return Version{}, err
		}
		v.Epoch = epoch
		rest = rest[idx+1:]
	}
	if idx := strings.LastIndexByte(rest, '-'); idx >= 0 {
		pkgrel, err := ParsePackageRelease(rest[idx+1:])
		if err == nil {
			v.Pkgrel = pkgrel
			v.hasRel = true
			rest = rest[:idx]
		}
	}
	pkgver, err := ParsePackageVersion(rest)
	if err != nil {
		return Version{}, err
	}
	v.Pkgver = pkgver
	return v, nil
}

// HasRelease reports whether a pkgrel component was present.
func (v Version) HasRelease() bool { return v.hasRel }

// String returns the canonical "[epoch:]pkgver[-pkgrel]" form.
func (v Version) String() string {
	var b strings.Builder
	if v.Epoch.IsSet() {
		b.WriteString(v.Epoch.String())
		b.WriteByte(':')
	}
	b.WriteString(v.Pkgver.String())
	if v.hasRel {
		b.WriteByte('-')
		b.WriteString(v.Pkgrel.String())
	}
	return b.String()
}

// Compare orders Version by epoch, then pkgver, then pkgrel (missing pkgrel
// sorts as if equal when absent on both sides; when present on only one
// side, the versions differ at the pkgver level or the side bearing a
// pkgrel is considered more specific and wins ties).
func (v Version) Compare(other Version) int {
	if c := v.Epoch.Compare(other.Epoch); c != 0 {
		return c
	}
	if c := v.Pkgver.Compare(other.Pkgver); c != 0 {
		return c
	}
	switch {
	case v.hasRel && other.hasRel:
		return v.Pkgrel.Compare(other.Pkgrel)
	case v.hasRel:
		return 1
	case other.hasRel:
		return -1
	default:
		return 0
	}
}

func (v Version) Equal(other Version) bool { return v.Compare(other) == 0 }
