package metafmt

import (
	"strconv"

	"github.com/archlinux/alpm-go/alpmtypes"
)

// RepoDescSchema distinguishes the repo-db "desc" entry schema versions.
type RepoDescSchema int

const (
	RepoDescV1 RepoDescSchema = 1
	RepoDescV2 RepoDescSchema = 2
)

// RepoDesc is the parsed "desc" file of a repository database entry: the
// section-format counterpart of PackageInfo, describing a package as it
// exists within a repository (filename, compressed/installed sizes,
// checksums, signature) rather than as it exists on disk.
type RepoDesc struct {
	Schema       RepoDescSchema
	Name         alpmtypes.Name
	Base         string
	Version      alpmtypes.Version
	Description  string
	CompressedSize int64
	InstalledSize  int64
	MD5Sum       string // v1 only
	SHA256Sum    string
	PGPSig       string // optional on both, required-shape differs
	URL          string
	License      []string
	Architecture alpmtypes.Architecture
	BuildDate    int64
	Packager     string
	Replaces     []string
	Conflicts    []string
	Provides     []string
	Depends      []string
	OptDepends   []string
	MakeDepends  []string
	CheckDepends []string
	Filename     string
}

func repoDescSectionOrder(schema RepoDescSchema) []string {
	order := []string{
		"FILENAME", "NAME", "BASE", "VERSION", "DESC", "CSIZE", "ISIZE",
	}
	if schema == RepoDescV1 {
		order = append(order, "MD5SUM")
	}
	order = append(order,
		"SHA256SUM", "PGPSIG", "URL", "LICENSE", "ARCH", "BUILDDATE",
		"PACKAGER", "REPLACES", "CONFLICTS", "PROVIDES", "DEPENDS",
		"OPTDEPENDS", "MAKEDEPENDS", "CHECKDEPENDS",
	)
	return order
}

// ParseRepoDesc parses a repo-db "desc" file. %MD5SUM% present under v2 is a
// schema error: v2 dropped the md5 digest entirely.
func ParseRepoDesc(text string, schema RepoDescSchema) (*RepoDesc, error) {
	doc, err := ParseSectionDocument(text)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool)
	for _, s := range repoDescSectionOrder(schema) {
		known[s] = true
	}
	if unknown := doc.UnknownSections(known); len(unknown) > 0 {
		return nil, &SchemaError{Schema: "RepoDesc", Field: unknown[0], Reason: "not valid for this schema version"}
	}
	if schema == RepoDescV2 {
		if len(doc.Get("MD5SUM")) > 0 {
			return nil, &SchemaError{Schema: "RepoDesc", Field: "MD5SUM", Reason: "absent from RepoDesc v2"}
		}
	}

	rd := &RepoDesc{Schema: schema}
	single := func(name string, required bool) (string, error) { return doc.Single("RepoDesc", name, required) }

	v, err := single("FILENAME", true)
	if err != nil {
		return nil, err
	}
	rd.Filename = v

	v, err = single("NAME", true)
	if err != nil {
		return nil, err
	}
	if rd.Name, err = alpmtypes.ParseName(v); err != nil {
		return nil, err
	}

	rd.Base, _ = single("BASE", false)

	v, err = single("VERSION", true)
	if err != nil {
		return nil, err
	}
	if rd.Version, err = alpmtypes.ParseVersion(v); err != nil {
		return nil, err
	}

	rd.Description, _ = single("DESC", false)

	if v, _ = single("CSIZE", false); v != "" {
		if rd.CompressedSize, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, &SchemaError{Schema: "RepoDesc", Field: "CSIZE", Reason: "not an integer"}
		}
	}
	if v, _ = single("ISIZE", false); v != "" {
		if rd.InstalledSize, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, &SchemaError{Schema: "RepoDesc", Field: "ISIZE", Reason: "not an integer"}
		}
	}
	if schema == RepoDescV1 {
		rd.MD5Sum, _ = single("MD5SUM", false)
	}
	rd.SHA256Sum, _ = single("SHA256SUM", false)
	rd.PGPSig, _ = single("PGPSIG", false)
	rd.URL, _ = single("URL", false)
	rd.License = doc.Multi("LICENSE")

	v, _ = single("ARCH", false)
	if v != "" {
		if rd.Architecture, err = alpmtypes.ParseArchitecture(v); err != nil {
			return nil, err
		}
	}
	if v, _ = single("BUILDDATE", false); v != "" {
		if rd.BuildDate, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, &SchemaError{Schema: "RepoDesc", Field: "BUILDDATE", Reason: "not an integer"}
		}
	}
	rd.Packager, _ = single("PACKAGER", false)
	rd.Replaces = doc.Multi("REPLACES")
	rd.Conflicts = doc.Multi("CONFLICTS")
	rd.Provides = doc.Multi("PROVIDES")
	rd.Depends = doc.Multi("DEPENDS")
	rd.OptDepends = doc.Multi("OPTDEPENDS")
	rd.MakeDepends = doc.Multi("MAKEDEPENDS")
	rd.CheckDepends = doc.Multi("CHECKDEPENDS")
	return rd, nil
}

// Display renders the canonical "desc" text for rd.
func (rd *RepoDesc) Display() string {
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
		section("FILENAME", rd.Filename),
		section("NAME", rd.Name.String()),
		section("BASE", rd.Base),
		section("VERSION", rd.Version.String()),
		section("DESC", rd.Description),
		section("CSIZE", nonZero(rd.CompressedSize)),
		section("ISIZE", nonZero(rd.InstalledSize)),
	}
	if rd.Schema == RepoDescV1 {
		sections = append(sections, section("MD5SUM", rd.MD5Sum))
	}
	sections = append(sections,
		section("SHA256SUM", rd.SHA256Sum),
		section("PGPSIG", rd.PGPSig),
		section("URL", rd.URL),
		section("LICENSE", rd.License...),
		section("ARCH", rd.Architecture.String()),
		section("BUILDDATE", nonZero(rd.BuildDate)),
		section("PACKAGER", rd.Packager),
		section("REPLACES", rd.Replaces...),
		section("CONFLICTS", rd.Conflicts...),
		section("PROVIDES", rd.Provides...),
		section("DEPENDS", rd.Depends...),
		section("OPTDEPENDS", rd.OptDepends...),
		section("MAKEDEPENDS", rd.MakeDepends...),
		section("CHECKDEPENDS", rd.CheckDepends...),
	)
	return FormatSections(sections)
}

func nonZero(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

// ToV2 converts a RepoDescV1 to v2: the md5 digest is dropped and the PGP
// signature field, already optional, carries over verbatim. All other
// fields map straight across.
func (rd *RepoDesc) ToV2() *RepoDesc {
	out := *rd
	out.Schema = RepoDescV2
	out.MD5Sum = ""
	return &out
}
