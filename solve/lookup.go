package solve

import "github.com/archlinux/alpm-go/alpmtypes"

// candidatePool indexes every package the solver may choose from (installed,
// every repository, and the cache) so resolution never needs a linear scan.
type candidatePool struct {
	byName map[string][]ranked
}

// ranked is one candidate together with the ordering key used by
// rankedLess: version descending (newest first), then installed ahead of
// non-installed, then repo priority ascending, then repo name. Repository
// priority does not outrank version: a newer version from a
// higher-priority-number repository ranks ahead of an older one from a
// lower-priority-number repository.
type ranked struct {
	pkg       Package
	installed bool
	repoPrio  int32
	repoName  string
	cache     bool
}

func buildPool(in Input) *candidatePool {
	p := &candidatePool{byName: make(map[string][]ranked)}
	for _, pkg := range in.Installed {
		p.add(ranked{pkg: pkg, installed: true})
	}
	for _, repo := range in.Repositories {
		for _, pkg := range repo.Packages {
			p.add(ranked{pkg: pkg, repoPrio: repo.Priority, repoName: repo.Name})
		}
	}
	for _, pkg := range in.Cache {
		p.add(ranked{pkg: pkg, cache: true})
	}
	return p
}

func (p *candidatePool) add(r ranked) {
	key := r.pkg.Name.String()
	p.byName[key] = append(p.byName[key], r)
}

// candidatesFor returns every ranked candidate for name, sorted
// best-first by rankedLess: version descending, then installed before
// repository and cache candidates of the same version, then repository
// priority ascending, then repository name.
func (p *candidatePool) candidatesFor(name string) []ranked {
	list := append([]ranked(nil), p.byName[name]...)
	sortRanked(list)
	return list
}

func sortRanked(list []ranked) {
	// insertion sort: candidate lists per package are small, and this keeps
	// the comparator simple to read and audit for determinism.
	for i := 1; i < len(list); i++ {
		j := i
		for j > 0 && rankedLess(list[j], list[j-1]) {
			list[j], list[j-1] = list[j-1], list[j]
			j--
		}
	}
}

// rankedLess orders candidates newest-version-first (the natural upgrade
// preference), then prefers staying on the already-installed package when
// versions tie (no needless reinstall), then repository priority ascending,
// then repository name — the explicit repository tie-break rule.
func rankedLess(a, b ranked) bool {
	if cmp := a.pkg.Version.Compare(b.pkg.Version); cmp != 0 {
		return cmp > 0
	}
	if a.installed != b.installed {
		return a.installed
	}
	if a.repoPrio != b.repoPrio {
		return a.repoPrio < b.repoPrio
	}
	return a.repoName < b.repoName
}

// buildLookup indexes only the provides relations of a chosen set: a
// virtual-name lookup to fall back to once a direct name match has been
// ruled out (see satisfiesRelation).
func buildLookup(chosen map[string]Package) *alpmtypes.RelationLookup {
	l := alpmtypes.NewRelationLookup()
	for key, pkg := range chosen {
		for _, r := range pkg.Provides {
			l.InsertRelationOrSoname(r, key)
		}
	}
	return l
}

// satisfiesRelation checks req against a chosen set: a direct name match
// is checked against the candidate's exact Version; only once no real
// package of that name is chosen does a virtual provides match apply.
func satisfiesRelation(chosen map[string]Package, lookup *alpmtypes.RelationLookup, req alpmtypes.PackageRelation) (bool, string) {
	if pkg, ok := chosen[req.Name.String()]; ok {
		if req.Constraint == nil || req.Constraint.SatisfiedBy(pkg.Version) {
			return true, pkg.String()
		}
		return false, ""
	}
	return lookup.SatisfiesPackageRelation(req)
}
