package metafmt

import (
	"sort"
	"strconv"

	"github.com/archlinux/alpm-go/alpmtypes"
)

// PackageInfoSchema distinguishes the two on-disk PKGINFO schema versions.
type PackageInfoSchema int

const (
	PackageInfoV1 PackageInfoSchema = 1
	PackageInfoV2 PackageInfoSchema = 2
)

// PackageInfo is the parsed .PKGINFO content of a built package.
type PackageInfo struct {
	Schema       PackageInfoSchema
	PkgName      alpmtypes.Name
	PkgBase      string
	Version      alpmtypes.Version
	Description  string
	URL          string
	BuildDate    int64
	Packager     string
	Size         int64
	Architecture alpmtypes.Architecture
	License      []string
	Group        []string
	Replaces     []string
	Conflicts    []string
	Provides     []string
	Depends      []string
	OptDepends   []string
	MakeDepends  []string
	CheckDepends []string
	Backup       []string
	// XData is PackageInfo v2's extra key=value metadata payload
	// ("pkgtype=pkg", "schema=...") absent from v1.
	XData []string
}

var pkginfoKnownKeys = map[string]bool{
	"pkgname": true, "pkgbase": true, "pkgver": true, "pkgdesc": true,
	"url": true, "builddate": true, "packager": true, "size": true,
	"arch": true, "license": true, "group": true, "replaces": true,
	"conflict": true, "provides": true, "depend": true, "optdepend": true,
	"makedepend": true, "checkdepend": true, "backup": true, "xdata": true,
}

// ParsePackageInfo parses PKGINFO text. schema selects which keys are
// legal: v1 rejects "xdata".
func ParsePackageInfo(text string, schema PackageInfoSchema) (*PackageInfo, error) {
	doc, err := ParseKeyValueDocument(text)
	if err != nil {
		return nil, err
	}
	if schema == PackageInfoV1 {
		if len(doc.Values("xdata")) > 0 {
			return nil, &SchemaError{Schema: "PackageInfo", Field: "xdata", Reason: "not valid in schema v1"}
		}
	}
	for _, k := range doc.UnknownKeys(pkginfoKnownKeys) {
		return nil, &SchemaError{Schema: "PackageInfo", Field: k, Reason: "unknown key"}
	}

	pi := &PackageInfo{Schema: schema}
	if v, ok := doc.Value("pkgname"); ok {
		name, err := alpmtypes.ParseName(v)
		if err != nil {
			return nil, err
		}
		pi.PkgName = name
	}
	pi.PkgBase, _ = doc.Value("pkgbase")
	if v, ok := doc.Value("pkgver"); ok {
		ver, err := alpmtypes.ParseVersion(v)
		if err != nil {
			return nil, err
		}
		pi.Version = ver
	}
	pi.Description, _ = doc.Value("pkgdesc")
	pi.URL, _ = doc.Value("url")
	if v, ok := doc.Value("builddate"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, &SchemaError{Schema: "PackageInfo", Field: "builddate", Reason: "not an integer"}
		}
		pi.BuildDate = n
	}
	pi.Packager, _ = doc.Value("packager")
	if v, ok := doc.Value("size"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, &SchemaError{Schema: "PackageInfo", Field: "size", Reason: "not an integer"}
		}
		pi.Size = n
	}
	if v, ok := doc.Value("arch"); ok {
		arch, err := alpmtypes.ParseArchitecture(v)
		if err != nil {
			return nil, err
		}
		pi.Architecture = arch
	}
	pi.License = doc.Values("license")
	pi.Group = doc.Values("group")
	pi.Replaces = doc.Values("replaces")
	pi.Conflicts = doc.Values("conflict")
	pi.Provides = doc.Values("provides")
	pi.Depends = doc.Values("depend")
	pi.OptDepends = doc.Values("optdepend")
	pi.MakeDepends = doc.Values("makedepend")
	pi.CheckDepends = doc.Values("checkdepend")
	pi.Backup = doc.Values("backup")
	pi.XData = doc.Values("xdata")
	return pi, nil
}

// Display renders the canonical PKGINFO text for pi.
func (pi *PackageInfo) Display() string {
	var pairs []KVPair
	add := func(k, v string) {
		if v != "" {
			pairs = append(pairs, KVPair{Key: k, Value: v})
		}
	}
	addAll := func(k string, vs []string) {
		for _, v := range vs {
			pairs = append(pairs, KVPair{Key: k, Value: v})
		}
	}
	add("pkgname", pi.PkgName.String())
	add("pkgbase", pi.PkgBase)
	add("pkgver", pi.Version.String())
	add("pkgdesc", pi.Description)
	add("url", pi.URL)
	if pi.BuildDate != 0 {
		add("builddate", strconv.FormatInt(pi.BuildDate, 10))
	}
	add("packager", pi.Packager)
	if pi.Size != 0 {
		add("size", strconv.FormatInt(pi.Size, 10))
	}
	add("arch", pi.Architecture.String())
	addAll("license", pi.License)
	addAll("group", pi.Group)
	addAll("replaces", pi.Replaces)
	addAll("conflict", pi.Conflicts)
	addAll("provides", pi.Provides)
	addAll("depend", pi.Depends)
	addAll("optdepend", pi.OptDepends)
	addAll("makedepend", pi.MakeDepends)
	addAll("checkdepend", pi.CheckDepends)
	addAll("backup", pi.Backup)
	if pi.Schema == PackageInfoV2 {
		addAll("xdata", pi.XData)
	}
	return FormatKeyValue(pairs)
}

// BuildInfoSchema distinguishes the two on-disk BUILDINFO schema versions.
type BuildInfoSchema int

const (
	BuildInfoV1 BuildInfoSchema = 1
	BuildInfoV2 BuildInfoSchema = 2
)

// BuildInfo is the parsed .BUILDINFO content recording how a package was
// built: the builder's environment and the exact installed package set used.
type BuildInfo struct {
	Schema          BuildInfoSchema
	Format          int
	PkgName         alpmtypes.Name
	PkgBase         string
	Version         alpmtypes.Version
	Architecture    alpmtypes.Architecture
	BuildDate       int64
	BuildDir        string
	BuildEnv        []string
	Options         []alpmtypes.BuildOption
	Installed       []alpmtypes.InstalledPackage
	Packager        string
	// BuildTool/BuildToolVersion are v2-only fields (the toolchain that
	// produced the package); absent (zero value) under v1.
	BuildTool        string
	BuildToolVersion string
}

var buildinfoKnownKeys = map[string]bool{
	"format": true, "pkgname": true, "pkgbase": true, "pkgver": true,
	"pkgarch": true, "pkgbuild_sha256sum": true, "packager": true,
	"builddate": true, "builddir": true, "buildenv": true, "options": true,
	"installed": true, "buildtool": true, "buildtoolver": true,
}

// ParseBuildInfo parses BUILDINFO text.
func ParseBuildInfo(text string, schema BuildInfoSchema) (*BuildInfo, error) {
	doc, err := ParseKeyValueDocument(text)
	if err != nil {
		return nil, err
	}
	for _, k := range doc.UnknownKeys(buildinfoKnownKeys) {
		return nil, &SchemaError{Schema: "BuildInfo", Field: k, Reason: "unknown key"}
	}
	bi := &BuildInfo{Schema: schema}
	if v, ok := doc.Value("format"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &SchemaError{Schema: "BuildInfo", Field: "format", Reason: "not an integer"}
		}
		bi.Format = n
	}
	if v, ok := doc.Value("pkgname"); ok {
		name, err := alpmtypes.ParseName(v)
		if err != nil {
			return nil, err
		}
		bi.PkgName = name
	}
	bi.PkgBase, _ = doc.Value("pkgbase")
	if v, ok := doc.Value("pkgver"); ok {
		ver, err := alpmtypes.ParseVersion(v)
		if err != nil {
			return nil, err
		}
		bi.Version = ver
	}
	if v, ok := doc.Value("pkgarch"); ok {
		arch, err := alpmtypes.ParseArchitecture(v)
		if err != nil {
			return nil, err
		}
		bi.Architecture = arch
	}
	bi.Packager, _ = doc.Value("packager")
	if v, ok := doc.Value("builddate"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, &SchemaError{Schema: "BuildInfo", Field: "builddate", Reason: "not an integer"}
		}
		bi.BuildDate = n
	}
	bi.BuildDir, _ = doc.Value("builddir")
	bi.BuildEnv = doc.Values("buildenv")
	for _, o := range doc.Values("options") {
		opt, err := alpmtypes.ParseBuildOption(o)
		if err != nil {
			return nil, err
		}
		bi.Options = append(bi.Options, opt)
	}
	for _, line := range doc.Values("installed") {
		pkg, err := parseInstalledPackageField(line)
		if err != nil {
			return nil, err
		}
		bi.Installed = append(bi.Installed, pkg)
	}
	if schema == BuildInfoV2 {
		bi.BuildTool, _ = doc.Value("buildtool")
		bi.BuildToolVersion, _ = doc.Value("buildtoolver")
	}
	return bi, nil
}

// parseInstalledPackageField parses one "name-version-release-arch" entry
// of BUILDINFO's "installed" list.
func parseInstalledPackageField(text string) (alpmtypes.InstalledPackage, error) {
	// the architecture is the last hyphen-delimited component; version and
	// release precede it, name is everything before that.
	idx := lastIndexByte(text, '-')
	if idx < 0 {
		return alpmtypes.InstalledPackage{}, &SchemaError{Schema: "BuildInfo", Field: "installed", Reason: "malformed entry " + text}
	}
	archText := text[idx+1:]
	rest := text[:idx]
	arch, err := alpmtypes.ParseArchitecture(archText)
	if err != nil {
		return alpmtypes.InstalledPackage{}, err
	}
	relIdx := lastIndexByte(rest, '-')
	if relIdx < 0 {
		return alpmtypes.InstalledPackage{}, &SchemaError{Schema: "BuildInfo", Field: "installed", Reason: "malformed entry " + text}
	}
	verIdx := lastIndexByte(rest[:relIdx], '-')
	if verIdx < 0 {
		return alpmtypes.InstalledPackage{}, &SchemaError{Schema: "BuildInfo", Field: "installed", Reason: "malformed entry " + text}
	}
	name, err := alpmtypes.ParseName(rest[:verIdx])
	if err != nil {
		return alpmtypes.InstalledPackage{}, err
	}
	version, err := alpmtypes.ParseVersion(rest[verIdx+1:])
	if err != nil {
		return alpmtypes.InstalledPackage{}, err
	}
	return alpmtypes.InstalledPackage{Name: name, Version: version, Architecture: arch}, nil
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// Display renders the canonical BUILDINFO text for bi.
func (bi *BuildInfo) Display() string {
	var pairs []KVPair
	add := func(k, v string) {
		if v != "" {
			pairs = append(pairs, KVPair{Key: k, Value: v})
		}
	}
	if bi.Format != 0 {
		add("format", strconv.Itoa(bi.Format))
	}
	add("pkgname", bi.PkgName.String())
	add("pkgbase", bi.PkgBase)
	add("pkgver", bi.Version.String())
	add("pkgarch", bi.Architecture.String())
	add("packager", bi.Packager)
	if bi.BuildDate != 0 {
		add("builddate", strconv.FormatInt(bi.BuildDate, 10))
	}
	add("builddir", bi.BuildDir)
	for _, e := range bi.BuildEnv {
		pairs = append(pairs, KVPair{Key: "buildenv", Value: e})
	}
	opts := make([]string, len(bi.Options))
	for i, o := range bi.Options {
		opts[i] = o.String()
	}
	sort.Strings(opts)
	for _, o := range opts {
		pairs = append(pairs, KVPair{Key: "options", Value: o})
	}
	for _, p := range bi.Installed {
		pairs = append(pairs, KVPair{Key: "installed", Value: p.Name.String() + "-" + p.Version.String() + "-" + p.Architecture.String()})
	}
	if bi.Schema == BuildInfoV2 {
		add("buildtool", bi.BuildTool)
		add("buildtoolver", bi.BuildToolVersion)
	}
	return FormatKeyValue(pairs)
}
