package srcinfo

import (
	"strings"

	"github.com/archlinux/alpm-go/alpmtypes"
)

// archableKeys lists the base keys that may carry an "_ARCH" suffix.
var archableKeys = map[string]bool{
	"depends": true, "makedepends": true, "checkdepends": true,
	"provides": true, "conflicts": true, "replaces": true,
}

// clearableInPackageKeys lists the keys that may legally appear with an
// empty value (a clear marker) inside a pkgname block.
var clearableInPackageKeys = map[string]bool{
	"pkgdesc": true, "url": true, "changelog": true, "install": true,
	"license": true, "groups": true, "options": true, "backup": true,
	"depends": true, "makedepends": true, "checkdepends": true,
	"provides": true, "conflicts": true, "replaces": true,
}

type rawLine struct {
	number    int
	key       string
	arch      alpmtypes.Architecture
	hasArch   bool
	archValid bool // the suffix parsed as a recognized Architecture
	value     string
	isClear   bool
}

// splitKeyArch separates a possible "_ARCH" suffix from key, only for keys
// listed in archableKeys.
func splitKeyArch(key string) (base string, arch alpmtypes.Architecture, hasSuffix, archValid bool) {
	idx := strings.IndexByte(key, '_')
	if idx < 0 {
		return key, "", false, false
	}
	candidateBase, suffix := key[:idx], key[idx+1:]
	if !archableKeys[candidateBase] {
		return key, "", false, false
	}
	a, err := alpmtypes.ParseArchitecture(suffix)
	if err != nil {
		return key, "", true, false
	}
	return candidateBase, a, true, true
}

func parseLine(number int, text string) (rawLine, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return rawLine{}, false
	}
	idx := strings.Index(trimmed, "=")
	if idx < 0 {
		return rawLine{}, false
	}
	rawKey := strings.TrimSpace(trimmed[:idx])
	rawValue := strings.TrimSpace(trimmed[idx+1:])
	base, arch, hasSuffix, archValid := splitKeyArch(rawKey)
	return rawLine{
		number:    number,
		key:       base,
		arch:      arch,
		hasArch:   hasSuffix,
		archValid: archValid,
		value:     rawValue,
		isClear:   rawValue == "",
	}, true
}

// Parse parses SRCINFO text into a SourceInfo. Missing mandatory pkgbase
// keys (pkgver, pkgrel) are recorded as UnrecoverableErrors but never abort
// the pass; every lint and error reachable from the input is collected.
func Parse(text string) (*SourceInfo, error) {
	lines := strings.Split(text, "\n")

	// locate block boundaries: one pkgbase block, then each pkgname block.
	type block struct {
		name      string // the pkgbase/pkgname value
		isBase    bool
		lineStart int // 1-indexed line of the pkgbase/pkgname header itself
		lines     []rawLine
	}

	var blocks []block
	var cur *block
	baseSeen := false

	for i, text := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		idx := strings.Index(trimmed, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(trimmed[:idx])
		value := strings.TrimSpace(trimmed[idx+1:])
		if key == "pkgbase" {
			if baseSeen {
				continue // a second pkgbase line is ignored; one block only
			}
			baseSeen = true
			blocks = append(blocks, block{name: value, isBase: true, lineStart: lineNo})
			cur = &blocks[len(blocks)-1]
			continue
		}
		if key == "pkgname" {
			blocks = append(blocks, block{name: value, lineStart: lineNo})
			cur = &blocks[len(blocks)-1]
			continue
		}
		if cur == nil {
			continue // content before pkgbase is ignored
		}
		if rl, ok := parseLine(lineNo, text); ok {
			cur.lines = append(cur.lines, rl)
		}
	}

	si := &SourceInfo{}
	for bi := range blocks {
		b := &blocks[bi]
		if b.isBase {
			si.Base = parseBase(b.name, b.lines, &si.Errors, &si.Lints)
		}
	}
	if si.Base == nil {
		si.Base = &PackageBase{ArchitectureProperties: map[alpmtypes.Architecture]*PackageBaseArch{}}
		si.Errors = append(si.Errors, &UnrecoverableError{Line: 1, Message: "missing pkgbase block"})
	}
	for bi := range blocks {
		b := &blocks[bi]
		if b.isBase {
			continue
		}
		name, err := alpmtypes.ParseName(b.name)
		if err != nil {
			si.Errors = append(si.Errors, &UnrecoverableError{Line: b.lineStart, Message: "invalid pkgname: " + err.Error()})
			continue
		}
		pkg := parsePackage(name, b.lines, si.Base.Architectures, &si.Lints)
		si.Packages = append(si.Packages, pkg)
	}
	return si, nil
}

// parseBase runs the three-pass algorithm over a pkgbase block's lines.
func parseBase(name string, lines []rawLine, errs *[]*UnrecoverableError, lints *[]Lint) *PackageBase {
	b := &PackageBase{ArchitectureProperties: map[alpmtypes.Architecture]*PackageBaseArch{}}
	if n, err := alpmtypes.ParseName(name); err == nil {
		b.Name = n
	} else {
		*errs = append(*errs, &UnrecoverableError{Message: "invalid pkgbase name: " + err.Error()})
	}

	// P1: scan architecture declarations.
	declared := map[alpmtypes.Architecture]bool{}
	for _, l := range lines {
		if l.key == "arch" && !l.hasArch {
			a, err := alpmtypes.ParseArchitecture(l.value)
			if err != nil {
				continue
			}
			if declared[a] {
				*lints = append(*lints, Lint{Kind: LintDuplicateArchitecture, Line: l.number, Detail: string(a)})
			}
			declared[a] = true
			b.Architectures = append(b.Architectures, a)
		}
	}

	// P2: clears are not legal at the base level (only inside pkgname
	// blocks), so there is nothing to collect here; P3 rejects any clear
	// marker it finds directly.

	var pkgverText, pkgrelText, epochText string
	var haveVersion, haveRelease bool

	// P3: apply.
	for _, l := range lines {
		if l.hasArch && l.archValid && !declared[l.arch] {
			*lints = append(*lints, Lint{Kind: LintUnknownArchitectureSuffix, Line: l.number, Detail: string(l.arch)})
		}
		if l.isClear {
			*errs = append(*errs, &UnrecoverableError{Line: l.number, Message: "clear marker not legal in pkgbase block: " + l.key})
			continue
		}
		switch l.key {
		case "pkgver":
			pkgverText = l.value
			haveVersion = true
		case "pkgrel":
			pkgrelText = l.value
			haveRelease = true
		case "epoch":
			epochText = l.value
		case "pkgdesc":
			b.Description = l.value
		case "url":
			b.URL = l.value
		case "install":
			b.Install = l.value
		case "changelog":
			b.Changelog = l.value
		case "license":
			if !isSPDXLike(l.value) {
				*lints = append(*lints, Lint{Kind: LintNonSPDXLicense, Line: l.number, Detail: l.value})
			}
			b.Licenses = append(b.Licenses, l.value)
		case "groups":
			b.Groups = append(b.Groups, l.value)
		case "options":
			if opt, err := alpmtypes.ParseBuildOption(l.value); err == nil {
				b.Options = append(b.Options, opt)
			}
		case "backup":
			b.Backups = append(b.Backups, l.value)
		case "depends", "makedepends", "checkdepends", "provides", "conflicts", "replaces":
			appendBaseRelation(b, l, declared, lints)
		case "arch":
			// already handled in P1.
		}
	}

	if !haveVersion {
		*errs = append(*errs, &UnrecoverableError{Message: "missing mandatory key: pkgver"})
	}
	if !haveRelease {
		*errs = append(*errs, &UnrecoverableError{Message: "missing mandatory key: pkgrel"})
	}

	var epoch alpmtypes.Epoch
	if epochText != "" {
		if e, err := alpmtypes.ParseEpoch(epochText); err == nil {
			epoch = e
		}
	}
	var pkgver alpmtypes.PackageVersion
	if haveVersion {
		if v, err := alpmtypes.ParsePackageVersion(pkgverText); err == nil {
			pkgver = v
		}
	}
	if haveRelease {
		if r, err := alpmtypes.ParsePackageRelease(pkgrelText); err == nil {
			b.Version = alpmtypes.NewVersion(epoch, pkgver, &r)
		} else {
			b.Version = alpmtypes.NewVersion(epoch, pkgver, nil)
		}
	} else {
		b.Version = alpmtypes.NewVersion(epoch, pkgver, nil)
	}
	return b
}

func appendBaseRelation(b *PackageBase, l rawLine, declared map[alpmtypes.Architecture]bool, lints *[]Lint) {
	rel, sos, ok := parseRelationField(l.key, l.value)
	if !ok {
		return
	}
	if l.hasArch {
		props := b.ArchitectureProperties[l.arch]
		if props == nil {
			props = &PackageBaseArch{}
			b.ArchitectureProperties[l.arch] = props
		}
		appendRelationToBaseArch(props, l.key, rel, sos)
		return
	}
	switch l.key {
	case "depends":
		b.Dependencies = append(b.Dependencies, rel)
	case "makedepends":
		b.MakeDependencies = append(b.MakeDependencies, rel)
	case "checkdepends":
		b.CheckDependencies = append(b.CheckDependencies, rel)
	case "provides":
		b.Provides = append(b.Provides, sos)
	case "conflicts":
		b.Conflicts = append(b.Conflicts, rel)
	case "replaces":
		b.Replaces = append(b.Replaces, rel)
	}
}

func appendRelationToBaseArch(props *PackageBaseArch, key string, rel alpmtypes.PackageRelation, sos alpmtypes.RelationOrSoname) {
	switch key {
	case "depends":
		props.Dependencies = append(props.Dependencies, rel)
	case "makedepends":
		props.MakeDependencies = append(props.MakeDependencies, rel)
	case "checkdepends":
		props.CheckDependencies = append(props.CheckDependencies, rel)
	case "provides":
		props.Provides = append(props.Provides, sos)
	case "conflicts":
		props.Conflicts = append(props.Conflicts, rel)
	case "replaces":
		props.Replaces = append(props.Replaces, rel)
	}
}

// parseRelationField parses a depends/provides/conflicts/replaces value.
// "provides" may be a soname (v1 "lib*.so..." or v2 "prefix:name=ver")
// rather than a plain PackageRelation; sos is only meaningful when ok and
// key == "provides".
func parseRelationField(key, value string) (alpmtypes.PackageRelation, alpmtypes.RelationOrSoname, bool) {
	if key == "provides" {
		if sos, err := parseProvidesValue(value); err == nil {
			return alpmtypes.PackageRelation{}, sos, true
		}
	}
	rel, err := alpmtypes.ParsePackageRelation(value)
	if err != nil {
		return alpmtypes.PackageRelation{}, alpmtypes.RelationOrSoname{}, false
	}
	return rel, alpmtypes.RelationOrSoname{Kind: alpmtypes.RelationKindPackage, Package: rel}, true
}

func parseProvidesValue(value string) (alpmtypes.RelationOrSoname, error) {
	if strings.Contains(value, ":") && !strings.Contains(value, ".so") {
		parts := strings.SplitN(value, ":", 2)
		prefix := parts[0]
		rest := parts[1]
		nameText, version, _ := strings.Cut(rest, "=")
		name, err := alpmtypes.ParseName(nameText)
		if err != nil {
			return alpmtypes.RelationOrSoname{}, err
		}
		return alpmtypes.RelationOrSoname{Kind: alpmtypes.RelationKindSonameV2, SonameV2: alpmtypes.SonameV2{Prefix: prefix, Name: name, Version: version}}, nil
	}
	if strings.Contains(value, ".so") {
		return parseSonameV1(value)
	}
	rel, err := alpmtypes.ParsePackageRelation(value)
	if err != nil {
		return alpmtypes.RelationOrSoname{}, err
	}
	return alpmtypes.RelationOrSoname{Kind: alpmtypes.RelationKindPackage, Package: rel}, nil
}

func parseSonameV1(value string) (alpmtypes.RelationOrSoname, error) {
	name := value
	format := alpmtypes.ElfFormatNone
	if idx := strings.LastIndexByte(name, '-'); idx >= 0 && (strings.HasSuffix(name, "-64") || strings.HasSuffix(name, "-32")) {
		if strings.HasSuffix(name, "-64") {
			format = alpmtypes.ElfFormat64
		} else {
			format = alpmtypes.ElfFormat32
		}
		name = name[:idx]
	}
	version := ""
	if idx := strings.Index(name, ".so."); idx >= 0 {
		version = name[idx+len(".so."):]
		name = name[:idx+len(".so")]
	}
	return alpmtypes.RelationOrSoname{Kind: alpmtypes.RelationKindSonameV1, SonameV1: alpmtypes.SonameV1{Name: name, Version: version, Format: format}}, nil
}

func isSPDXLike(license string) bool {
	// a pragmatic allowlist of common SPDX identifiers used across the
	// ecosystem; anything else is flagged, not rejected.
	known := map[string]bool{
		"MIT": true, "Apache-2.0": true, "GPL-2.0-only": true, "GPL-2.0-or-later": true,
		"GPL-3.0-only": true, "GPL-3.0-or-later": true, "LGPL-2.1-only": true,
		"LGPL-2.1-or-later": true, "LGPL-3.0-only": true, "LGPL-3.0-or-later": true,
		"BSD-2-Clause": true, "BSD-3-Clause": true, "ISC": true, "MPL-2.0": true,
		"Unlicense": true, "Zlib": true, "CC0-1.0": true,
	}
	return known[license]
}

// parsePackage runs the three-pass algorithm over a pkgname block's lines.
func parsePackage(name alpmtypes.Name, lines []rawLine, baseArches []alpmtypes.Architecture, lints *[]Lint) *Package {
	p := &Package{Name: name, ArchitectureProperties: map[alpmtypes.Architecture]*PackageArchitectureOverride{}}

	// P1: architecture declarations scoped to this package, if any.
	var overrideArches []alpmtypes.Architecture
	declaredHere := map[alpmtypes.Architecture]bool{}
	for _, l := range lines {
		if l.key == "arch" && !l.hasArch && !l.isClear {
			a, err := alpmtypes.ParseArchitecture(l.value)
			if err != nil {
				continue
			}
			if declaredHere[a] {
				*lints = append(*lints, Lint{Kind: LintDuplicateArchitecture, Line: l.number, Detail: string(a)})
			}
			declaredHere[a] = true
			overrideArches = append(overrideArches, a)
		}
	}
	lintArches := baseArches
	if len(overrideArches) > 0 {
		p.Architectures = yesOverride(overrideArches)
		lintArches = overrideArches
	}
	lintSet := map[alpmtypes.Architecture]bool{}
	for _, a := range lintArches {
		lintSet[a] = true
	}

	// P2: clearable keys.
	cleared := map[string]bool{}
	clearedLine := map[string]int{}
	for _, l := range lines {
		if !l.isClear {
			continue
		}
		if l.key == "arch" {
			continue
		}
		if !clearableInPackageKeys[l.key] {
			continue
		}
		applyClear(p, l)
		cleared[clearKey(l.key, l.hasArch, l.arch)] = true
		clearedLine[clearKey(l.key, l.hasArch, l.arch)] = l.number
	}

	// P3: apply remaining values, emitting lints.
	for _, l := range lines {
		if l.key == "arch" || l.isClear {
			continue
		}
		if l.hasArch && l.archValid && !lintSet[l.arch] && !lintSet[alpmtypes.ArchAny] {
			*lints = append(*lints, Lint{Kind: LintUnknownArchitectureSuffix, Line: l.number, Detail: string(l.arch)})
		}
		ck := clearKey(l.key, l.hasArch, l.arch)
		if cleared[ck] {
			*lints = append(*lints, Lint{Kind: LintValueAfterClear, Line: l.number, Detail: l.key})
		}
		applyValue(p, l, lints)
	}

	return p
}

func clearKey(key string, hasArch bool, arch alpmtypes.Architecture) string {
	if hasArch {
		return key + "_" + string(arch)
	}
	return key
}

func applyClear(p *Package, l rawLine) {
	switch l.key {
	case "pkgdesc":
		p.Description = clearOverride[string]()
	case "url":
		p.URL = clearOverride[string]()
	case "changelog":
		p.Changelog = clearOverride[string]()
	case "install":
		p.Install = clearOverride[string]()
	case "license":
		p.Licenses = clearOverride[[]string]()
	case "groups":
		p.Groups = clearOverride[[]string]()
	case "options":
		p.Options = clearOverride[[]alpmtypes.BuildOption]()
	case "backup":
		p.Backups = clearOverride[[]string]()
	case "depends", "makedepends", "checkdepends", "provides", "conflicts", "replaces":
		clearArchOrPlain(p, l)
	}
}

func clearArchOrPlain(p *Package, l rawLine) {
	if l.hasArch {
		props := p.ArchitectureProperties[l.arch]
		if props == nil {
			props = &PackageArchitectureOverride{}
			p.ArchitectureProperties[l.arch] = props
		}
		switch l.key {
		case "depends":
			props.Dependencies = []alpmtypes.PackageRelation{}
		case "provides":
			props.Provides = []alpmtypes.RelationOrSoname{}
		case "conflicts":
			props.Conflicts = []alpmtypes.PackageRelation{}
		case "replaces":
			props.Replaces = []alpmtypes.PackageRelation{}
		}
		return
	}
	switch l.key {
	case "depends":
		p.Dependencies = clearOverride[[]alpmtypes.PackageRelation]()
	case "makedepends":
		p.MakeDependencies = clearOverride[[]alpmtypes.PackageRelation]()
	case "checkdepends":
		p.CheckDependencies = clearOverride[[]alpmtypes.PackageRelation]()
	case "provides":
		p.Provides = clearOverride[[]alpmtypes.RelationOrSoname]()
	case "conflicts":
		p.Conflicts = clearOverride[[]alpmtypes.PackageRelation]()
	case "replaces":
		p.Replaces = clearOverride[[]alpmtypes.PackageRelation]()
	}
}

func applyValue(p *Package, l rawLine, lints *[]Lint) {
	switch l.key {
	case "pkgdesc":
		p.Description = yesOverride(l.value)
	case "url":
		p.URL = yesOverride(l.value)
	case "changelog":
		p.Changelog = yesOverride(l.value)
	case "install":
		p.Install = yesOverride(l.value)
	case "license":
		if !isSPDXLike(l.value) {
			*lints = append(*lints, Lint{Kind: LintNonSPDXLicense, Line: l.number, Detail: l.value})
		}
		p.Licenses = yesOverride(append(append([]string(nil), p.Licenses.Value...), l.value))
	case "groups":
		p.Groups = yesOverride(append(append([]string(nil), p.Groups.Value...), l.value))
	case "options":
		if opt, err := alpmtypes.ParseBuildOption(l.value); err == nil {
			p.Options = yesOverride(append(append([]alpmtypes.BuildOption(nil), p.Options.Value...), opt))
		}
	case "backup":
		p.Backups = yesOverride(append(append([]string(nil), p.Backups.Value...), l.value))
	case "depends", "makedepends", "checkdepends", "provides", "conflicts", "replaces":
		appendPackageRelation(p, l, lints)
	}
}

func appendPackageRelation(p *Package, l rawLine, lints *[]Lint) {
	rel, sos, ok := parseRelationField(l.key, l.value)
	if !ok {
		return
	}
	if l.hasArch {
		props := p.ArchitectureProperties[l.arch]
		if props == nil {
			props = &PackageArchitectureOverride{}
			p.ArchitectureProperties[l.arch] = props
		}
		switch l.key {
		case "depends":
			props.Dependencies = append(props.Dependencies, rel)
		case "provides":
			props.Provides = append(props.Provides, sos)
		case "conflicts":
			props.Conflicts = append(props.Conflicts, rel)
		case "replaces":
			props.Replaces = append(props.Replaces, rel)
		}
		return
	}
	switch l.key {
	case "depends":
		p.Dependencies = yesOverride(append(append([]alpmtypes.PackageRelation(nil), p.Dependencies.Value...), rel))
	case "makedepends":
		p.MakeDependencies = yesOverride(append(append([]alpmtypes.PackageRelation(nil), p.MakeDependencies.Value...), rel))
	case "checkdepends":
		p.CheckDependencies = yesOverride(append(append([]alpmtypes.PackageRelation(nil), p.CheckDependencies.Value...), rel))
	case "provides":
		p.Provides = yesOverride(append(append([]alpmtypes.RelationOrSoname(nil), p.Provides.Value...), sos))
	case "conflicts":
		p.Conflicts = yesOverride(append(append([]alpmtypes.PackageRelation(nil), p.Conflicts.Value...), rel))
	case "replaces":
		p.Replaces = yesOverride(append(append([]alpmtypes.PackageRelation(nil), p.Replaces.Value...), rel))
	}
}
