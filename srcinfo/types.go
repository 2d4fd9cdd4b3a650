// Package srcinfo implements the source-info engine (C3): it turns SRCINFO
// text into a normalized base plus a set of per-package overrides, then
// projects that pair into the fully resolved MergedPackage view makepkg and
// the package manager actually need per architecture.
package srcinfo

import "github.com/archlinux/alpm-go/alpmtypes"

// OverrideKind tags which of the three override states a Package field is
// in relative to its PackageBase.
type OverrideKind int

const (
	// OverrideNo means "inherit the base's value unchanged".
	OverrideNo OverrideKind = iota
	// OverrideClear means "this field is explicitly empty, ignore the base".
	OverrideClear
	// OverrideYes means "this field is explicitly replaced by Value".
	OverrideYes
)

// Override is a three-state delta against a PackageBase field: inherit,
// clear, or replace. The zero value is OverrideNo (inherit), matching the
// common case where most Package fields are never mentioned.
type Override[T any] struct {
	Kind  OverrideKind
	Value T
}

// Resolve projects the override against base: No yields base unchanged,
// Clear yields the zero value of T, Yes yields the override's Value.
func (o Override[T]) Resolve(base T) T {
	switch o.Kind {
	case OverrideClear:
		var zero T
		return zero
	case OverrideYes:
		return o.Value
	default:
		return base
	}
}

func clearOverride[T any]() Override[T] {
	var zero T
	return Override[T]{Kind: OverrideClear, Value: zero}
}

func yesOverride[T any](v T) Override[T] {
	return Override[T]{Kind: OverrideYes, Value: v}
}

// PackageBaseArch holds the architecture-keyed additions layered onto a
// PackageBase's arch-independent fields (e.g. `depends_x86_64`).
type PackageBaseArch struct {
	Dependencies      []alpmtypes.PackageRelation
	MakeDependencies  []alpmtypes.PackageRelation
	CheckDependencies []alpmtypes.PackageRelation
	Provides          []alpmtypes.RelationOrSoname
	Conflicts         []alpmtypes.PackageRelation
	Replaces          []alpmtypes.PackageRelation
}

// PackageBase is the normalized `pkgbase` block: the shared defaults every
// pkgname package in the document overlays.
type PackageBase struct {
	Name    alpmtypes.Name
	Version alpmtypes.Version

	Description string
	URL         string
	Install     string
	Changelog   string
	Licenses    []string
	Groups      []string
	Options     []alpmtypes.BuildOption
	Backups     []string

	Architectures []alpmtypes.Architecture

	Dependencies      []alpmtypes.PackageRelation
	MakeDependencies  []alpmtypes.PackageRelation
	CheckDependencies []alpmtypes.PackageRelation
	Provides          []alpmtypes.RelationOrSoname
	Conflicts         []alpmtypes.PackageRelation
	Replaces          []alpmtypes.PackageRelation

	ArchitectureProperties map[alpmtypes.Architecture]*PackageBaseArch
}

// PackageArchitectureOverride holds the architecture-keyed additions a
// Package layers on top of its own arch-independent overrides.
type PackageArchitectureOverride struct {
	Dependencies []alpmtypes.PackageRelation
	Provides     []alpmtypes.RelationOrSoname
	Conflicts    []alpmtypes.PackageRelation
	Replaces     []alpmtypes.PackageRelation
}

// Package is one `pkgname` block: a set of overrides against PackageBase.
// Every field except Name is an Override, defaulting to OverrideNo
// (inherit) when the block never mentions the key.
type Package struct {
	Name alpmtypes.Name

	Description Override[string]
	URL         Override[string]
	Install     Override[string]
	Changelog   Override[string]
	Licenses    Override[[]string]
	Groups      Override[[]string]
	Options     Override[[]alpmtypes.BuildOption]
	Backups     Override[[]string]

	Architectures Override[[]alpmtypes.Architecture]

	Dependencies      Override[[]alpmtypes.PackageRelation]
	MakeDependencies  Override[[]alpmtypes.PackageRelation]
	CheckDependencies Override[[]alpmtypes.PackageRelation]
	Provides          Override[[]alpmtypes.RelationOrSoname]
	Conflicts         Override[[]alpmtypes.PackageRelation]
	Replaces          Override[[]alpmtypes.PackageRelation]

	ArchitectureProperties map[alpmtypes.Architecture]*PackageArchitectureOverride
}

// MergedPackage is the fully resolved, per-architecture view of a single
// pkgname package: base fields with that package's overrides and
// architecture overlay already applied.
type MergedPackage struct {
	Name         alpmtypes.Name
	Base         alpmtypes.Name
	Version      alpmtypes.Version
	Architecture alpmtypes.Architecture

	Description string
	URL         string
	Install     string
	Changelog   string
	Licenses    []string
	Groups      []string
	Options     []alpmtypes.BuildOption
	Backups     []string

	Dependencies      []alpmtypes.PackageRelation
	MakeDependencies  []alpmtypes.PackageRelation
	CheckDependencies []alpmtypes.PackageRelation
	Provides          []alpmtypes.RelationOrSoname
	Conflicts         []alpmtypes.PackageRelation
	Replaces          []alpmtypes.PackageRelation
}

// LintKind enumerates the parser's lint diagnostics. None of these abort
// parsing. LintDuplicateArchitecture is emitted while scanning arch
// declarations (P1), the others while applying values (P3).
// LintUnsafeChecksum is declared but Parse never emits it: checksum keys
// are not read.
type LintKind int

const (
	LintDuplicateArchitecture LintKind = iota
	LintValueAfterClear
	LintNonSPDXLicense
	LintUnsafeChecksum
	LintUnknownArchitectureSuffix
)

func (k LintKind) String() string {
	switch k {
	case LintDuplicateArchitecture:
		return "duplicate-architecture"
	case LintValueAfterClear:
		return "value-after-clear"
	case LintNonSPDXLicense:
		return "non-spdx-license"
	case LintUnsafeChecksum:
		return "unsafe-checksum"
	case LintUnknownArchitectureSuffix:
		return "unknown-architecture-suffix"
	default:
		return "unknown"
	}
}

// Lint is a non-fatal diagnostic tied to a source line. Detail is
// free-form: the offending architecture name, license string, checksum
// algorithm, and so on, depending on Kind.
type Lint struct {
	Kind   LintKind
	Line   int
	Detail string
}

// UnrecoverableError is a structural error: a missing mandatory pkgbase key
// (pkgver or pkgrel), a missing pkgbase block, an invalid pkgbase or
// pkgname name, or a clear marker in the pkgbase block. It is collected,
// not returned immediately: parsing continues so that every diagnostic
// surfaces in one pass.
type UnrecoverableError struct {
	Line    int
	Message string
}

func (e *UnrecoverableError) Error() string { return e.Message }

// SourceInfo is the parsed document: one base, one or more packages, and
// every lint/error collected along the way.
type SourceInfo struct {
	Base     *PackageBase
	Packages []*Package
	Lints    []Lint
	Errors   []*UnrecoverableError
}
