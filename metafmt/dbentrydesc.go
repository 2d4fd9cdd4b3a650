package metafmt

import (
	"strconv"

	"github.com/archlinux/alpm-go/alpmtypes"
)

// InstallReason distinguishes explicitly requested installs from packages
// pulled in purely to satisfy a dependency.
type InstallReason int

const (
	InstallReasonExplicit InstallReason = 0
	InstallReasonDepend   InstallReason = 1
)

// DbEntryDesc is the parsed "desc" file of a local (installed-package)
// database entry: it lacks the repository-only fields (FILENAME, CSIZE,
// PGPSIG) and adds local bookkeeping (install date, reason, validation
// method).
type DbEntryDesc struct {
	Name          alpmtypes.Name
	Base          string
	Version       alpmtypes.Version
	Description   string
	URL           string
	Architecture  alpmtypes.Architecture
	BuildDate     int64
	InstallDate   int64
	Packager      string
	InstalledSize int64
	Reason        InstallReason
	License       []string
	Validation    []string
	Replaces      []string
	Conflicts     []string
	Provides      []string
	Depends       []string
	OptDepends    []string
}

var dbEntryDescSections = []string{
	"NAME", "BASE", "VERSION", "DESC", "URL", "ARCH", "BUILDDATE",
	"INSTALLDATE", "PACKAGER", "SIZE", "REASON", "LICENSE", "VALIDATION",
	"REPLACES", "CONFLICTS", "PROVIDES", "DEPENDS", "OPTDEPENDS",
}

// ParseDbEntryDesc parses a local database "desc" file.
func ParseDbEntryDesc(text string) (*DbEntryDesc, error) {
	doc, err := ParseSectionDocument(text)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool)
	for _, s := range dbEntryDescSections {
		known[s] = true
	}
	if unknown := doc.UnknownSections(known); len(unknown) > 0 {
		return nil, &SchemaError{Schema: "DbEntryDesc", Field: unknown[0], Reason: "not valid for this schema version"}
	}

	e := &DbEntryDesc{}
	single := func(name string, required bool) (string, error) { return doc.Single("DbEntryDesc", name, required) }

	v, err := single("NAME", true)
	if err != nil {
		return nil, err
	}
	if e.Name, err = alpmtypes.ParseName(v); err != nil {
		return nil, err
	}
	e.Base, _ = single("BASE", false)

	v, err = single("VERSION", true)
	if err != nil {
		return nil, err
	}
	if e.Version, err = alpmtypes.ParseVersion(v); err != nil {
		return nil, err
	}
	e.Description, _ = single("DESC", false)
	e.URL, _ = single("URL", false)
	if v, _ = single("ARCH", false); v != "" {
		if e.Architecture, err = alpmtypes.ParseArchitecture(v); err != nil {
			return nil, err
		}
	}
	if v, _ = single("BUILDDATE", false); v != "" {
		if e.BuildDate, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, &SchemaError{Schema: "DbEntryDesc", Field: "BUILDDATE", Reason: "not an integer"}
		}
	}
	if v, _ = single("INSTALLDATE", false); v != "" {
		if e.InstallDate, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, &SchemaError{Schema: "DbEntryDesc", Field: "INSTALLDATE", Reason: "not an integer"}
		}
	}
	e.Packager, _ = single("PACKAGER", false)
	if v, _ = single("SIZE", false); v != "" {
		if e.InstalledSize, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, &SchemaError{Schema: "DbEntryDesc", Field: "SIZE", Reason: "not an integer"}
		}
	}
	if v, _ = single("REASON", false); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &SchemaError{Schema: "DbEntryDesc", Field: "REASON", Reason: "not an integer"}
		}
		e.Reason = InstallReason(n)
	}
	e.License = doc.Multi("LICENSE")
	e.Validation = doc.Multi("VALIDATION")
	e.Replaces = doc.Multi("REPLACES")
	e.Conflicts = doc.Multi("CONFLICTS")
	e.Provides = doc.Multi("PROVIDES")
	e.Depends = doc.Multi("DEPENDS")
	e.OptDepends = doc.Multi("OPTDEPENDS")
	return e, nil
}

// Display renders the canonical "desc" text for e.
func (e *DbEntryDesc) Display() string {
	section := func(name string, lines ...string) Section {
		var nonEmpty []string
		for _, l := range lines {
			if l != "" {
				nonEmpty = append(nonEmpty, l)
			}
		}
		return Section{Name: name, Lines: nonEmpty}
	}
	sections := []Section{
		section("NAME", e.Name.String()),
		section("BASE", e.Base),
		section("VERSION", e.Version.String()),
		section("DESC", e.Description),
		section("URL", e.URL),
		section("ARCH", e.Architecture.String()),
		section("BUILDDATE", nonZero(e.BuildDate)),
		section("INSTALLDATE", nonZero(e.InstallDate)),
		section("PACKAGER", e.Packager),
		section("SIZE", nonZero(e.InstalledSize)),
		section("REASON", strconv.Itoa(int(e.Reason))),
		section("LICENSE", e.License...),
		section("VALIDATION", e.Validation...),
		section("REPLACES", e.Replaces...),
		section("CONFLICTS", e.Conflicts...),
		section("PROVIDES", e.Provides...),
		section("DEPENDS", e.Depends...),
		section("OPTDEPENDS", e.OptDepends...),
	}
	return FormatSections(sections)
}
