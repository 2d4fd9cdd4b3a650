package srcinfo

import "github.com/archlinux/alpm-go/alpmtypes"

// PackagesForArchitecture projects every package in the document that is
// compatible with arch into its fully resolved MergedPackage view: base
// fields with that package's overrides and architecture overlay applied.
func (s *SourceInfo) PackagesForArchitecture(arch alpmtypes.Architecture) []MergedPackage {
	var out []MergedPackage
	for _, pkg := range s.Packages {
		if !compatibleArchitecture(s.Base, pkg, arch) {
			continue
		}
		out = append(out, mergePackage(s.Base, pkg, arch))
	}
	return out
}

func compatibleArchitecture(base *PackageBase, pkg *Package, arch alpmtypes.Architecture) bool {
	arches := base.Architectures
	if pkg.Architectures.Kind == OverrideYes {
		arches = pkg.Architectures.Value
	}
	for _, a := range arches {
		if a.CompatibleWith(arch) || arch.CompatibleWith(a) {
			return true
		}
	}
	return false
}

func mergePackage(base *PackageBase, pkg *Package, arch alpmtypes.Architecture) MergedPackage {
	baseArch := base.ArchitectureProperties[arch]
	pkgArch := pkg.ArchitectureProperties[arch]

	m := MergedPackage{
		Name:         pkg.Name,
		Base:         base.Name,
		Version:      base.Version,
		Architecture: arch,
		Description:  pkg.Description.Resolve(base.Description),
		URL:          pkg.URL.Resolve(base.URL),
		Install:      pkg.Install.Resolve(base.Install),
		Changelog:    pkg.Changelog.Resolve(base.Changelog),
		Licenses:     pkg.Licenses.Resolve(base.Licenses),
		Groups:       pkg.Groups.Resolve(base.Groups),
		Options:      pkg.Options.Resolve(base.Options),
		Backups:      pkg.Backups.Resolve(base.Backups),
	}

	m.Dependencies = resolveRelations(pkg.Dependencies, base.Dependencies, relSlice(baseArch, func(a *PackageBaseArch) []alpmtypes.PackageRelation { return a.Dependencies }), relSlice2(pkgArch, func(a *PackageArchitectureOverride) []alpmtypes.PackageRelation { return a.Dependencies }))
	m.MakeDependencies = resolveRelations(pkg.MakeDependencies, base.MakeDependencies, relSlice(baseArch, func(a *PackageBaseArch) []alpmtypes.PackageRelation { return a.MakeDependencies }), nil)
	m.CheckDependencies = resolveRelations(pkg.CheckDependencies, base.CheckDependencies, relSlice(baseArch, func(a *PackageBaseArch) []alpmtypes.PackageRelation { return a.CheckDependencies }), nil)
	m.Conflicts = resolveRelations(pkg.Conflicts, base.Conflicts, relSlice(baseArch, func(a *PackageBaseArch) []alpmtypes.PackageRelation { return a.Conflicts }), relSlice2(pkgArch, func(a *PackageArchitectureOverride) []alpmtypes.PackageRelation { return a.Conflicts }))
	m.Replaces = resolveRelations(pkg.Replaces, base.Replaces, relSlice(baseArch, func(a *PackageBaseArch) []alpmtypes.PackageRelation { return a.Replaces }), relSlice2(pkgArch, func(a *PackageArchitectureOverride) []alpmtypes.PackageRelation { return a.Replaces }))

	baseProvides := base.Provides
	if baseArch != nil {
		baseProvides = append(append([]alpmtypes.RelationOrSoname(nil), baseProvides...), baseArch.Provides...)
	}
	effectiveProvides := pkg.Provides.Resolve(baseProvides)
	if pkgArch != nil {
		effectiveProvides = append(append([]alpmtypes.RelationOrSoname(nil), effectiveProvides...), pkgArch.Provides...)
	}
	m.Provides = effectiveProvides

	return m
}

func relSlice(a *PackageBaseArch, get func(*PackageBaseArch) []alpmtypes.PackageRelation) []alpmtypes.PackageRelation {
	if a == nil {
		return nil
	}
	return get(a)
}

func relSlice2(a *PackageArchitectureOverride, get func(*PackageArchitectureOverride) []alpmtypes.PackageRelation) []alpmtypes.PackageRelation {
	if a == nil {
		return nil
	}
	return get(a)
}

// resolveRelations layers arch-independent base values, then the base's
// arch overlay, then the package's own override (resolved against that
// combined base), then the package's arch overlay on top.
func resolveRelations(pkgOverride Override[[]alpmtypes.PackageRelation], baseVal, baseArchVal, pkgArchVal []alpmtypes.PackageRelation) []alpmtypes.PackageRelation {
	combinedBase := append(append([]alpmtypes.PackageRelation(nil), baseVal...), baseArchVal...)
	effective := pkgOverride.Resolve(combinedBase)
	if len(pkgArchVal) > 0 {
		effective = append(append([]alpmtypes.PackageRelation(nil), effective...), pkgArchVal...)
	}
	return effective
}
