package solve

import (
	"sort"

	"github.com/archlinux/alpm-go/alpmtypes"
)

// resolver carries the working state of one solve: the candidate pool, the
// set of names currently chosen, and a visiting set guarding against
// infinite recursion on dependency cycles.
type resolver struct {
	pool     *candidatePool
	chosen   map[string]Package
	visiting map[string]bool
}

func newResolver(in Input) *resolver {
	return &resolver{
		pool:     buildPool(in),
		chosen:   make(map[string]Package),
		visiting: make(map[string]bool),
	}
}

// resolveRoot picks the best feasible candidate for a root name (an
// installed package's own name, or a pinned request). With preferInstalled
// set (the non-enforce_full default), the currently installed version is
// tried first, so the resulting plan only upgrades what dependency
// resolution actually required; otherwise candidates are tried
// newest-version-first, falling back to older ones when conflicts make a
// candidate infeasible.
func (r *resolver) resolveRoot(name string, req *alpmtypes.VersionRequirement, preferInstalled bool) bool {
	if _, ok := r.chosen[name]; ok {
		return true
	}
	candidates := r.pool.candidatesFor(name)
	if preferInstalled {
		candidates = stableInstalledFirst(candidates)
	}
	for _, c := range candidates {
		if req != nil && !req.SatisfiedBy(c.pkg.Version) {
			continue
		}
		if r.tryChoose(name, c.pkg) {
			return true
		}
	}
	return false
}

// stableInstalledFirst moves the installed candidate (if any) to the front
// without disturbing the relative order of the rest.
func stableInstalledFirst(candidates []ranked) []ranked {
	out := make([]ranked, 0, len(candidates))
	var installed *ranked
	for i := range candidates {
		if candidates[i].installed && installed == nil {
			installed = &candidates[i]
			continue
		}
		out = append(out, candidates[i])
	}
	if installed == nil {
		return candidates
	}
	return append([]ranked{*installed}, out...)
}

// tryChoose tentatively assigns pkg to name, verifies it conflicts with
// nothing already chosen, recursively resolves its dependencies, and rolls
// back the whole tentative assignment set on any failure.
func (r *resolver) tryChoose(name string, pkg Package) bool {
	if r.conflictsWithChosen(pkg) {
		return false
	}
	r.chosen[name] = pkg
	r.visiting[name] = true
	ok := r.resolveDepends(pkg)
	delete(r.visiting, name)
	if !ok {
		delete(r.chosen, name)
		return false
	}
	// re-check conflicts now that dependencies may have introduced new
	// packages into the chosen set.
	if r.anyConflict() {
		delete(r.chosen, name)
		return false
	}
	return true
}

func (r *resolver) resolveDepends(pkg Package) bool {
	for _, dep := range pkg.Depends {
		if !r.satisfyDependency(dep) {
			return false
		}
	}
	return true
}

// satisfyDependency checks whether dep is already met by the chosen set
// (directly or virtually); if not, it tries to introduce a new candidate
// in the pool's ranking order: newest version first, with an installed
// package preferred only over candidates of the same version.
func (r *resolver) satisfyDependency(dep alpmtypes.PackageRelation) bool {
	lookup := buildLookup(r.chosen)
	if ok, _ := satisfiesRelation(r.chosen, lookup, dep); ok {
		return true
	}
	key := dep.Name.String()
	if r.visiting[key] {
		return true // cycle: trust the in-progress decision
	}
	for _, c := range r.pool.candidatesFor(key) {
		if dep.Constraint != nil && !dep.Constraint.SatisfiedBy(c.pkg.Version) {
			continue
		}
		if r.tryChoose(key, c.pkg) {
			return true
		}
	}
	// the dependency might be met by a provider of a different real name
	// not yet considered a root; a full provider search over the entire
	// pool is the fallback.
	return r.satisfyByAnyProvider(dep)
}

func (r *resolver) satisfyByAnyProvider(dep alpmtypes.PackageRelation) bool {
	var names []string
	for n := range r.pool.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if _, already := r.chosen[n]; already {
			continue
		}
		for _, c := range r.pool.candidatesFor(n) {
			if !providesRelation(c.pkg, dep) {
				continue
			}
			if r.tryChoose(n, c.pkg) {
				return true
			}
			break
		}
	}
	return false
}

func providesRelation(pkg Package, dep alpmtypes.PackageRelation) bool {
	for _, p := range pkg.Provides {
		if p.Kind != alpmtypes.RelationKindPackage {
			continue
		}
		if !p.Package.Name.Equal(dep.Name) {
			continue
		}
		if dep.Constraint == nil || p.Package.Constraint == nil {
			return true
		}
		if dep.Constraint.Intersects(*p.Package.Constraint) {
			return true
		}
	}
	return false
}

// conflictsWithChosen reports whether pkg conflicts with any package
// already in the chosen set, excluding the self-conflict case where a
// package both provides and conflicts with the same name.
func (r *resolver) conflictsWithChosen(pkg Package) bool {
	for _, other := range r.chosen {
		if conflicts(pkg, other) || conflicts(other, pkg) {
			return true
		}
	}
	return false
}

// anyConflict performs a full pairwise sweep over the chosen set; used
// after dependency resolution may have grown it.
func (r *resolver) anyConflict() bool {
	var names []string
	for n := range r.chosen {
		names = append(names, n)
	}
	sort.Strings(names)
	for i, a := range names {
		for _, b := range names[i+1:] {
			if conflicts(r.chosen[a], r.chosen[b]) || conflicts(r.chosen[b], r.chosen[a]) {
				return true
			}
		}
	}
	return false
}

// conflicts reports whether pkg's Conflicts list rules out other. A
// package conflicting with a name it provides itself (the rustup/cargo
// shape) is not an error here: other is always a distinct chosen package,
// never pkg, so that shape never reaches this comparison.
func conflicts(pkg, other Package) bool {
	if pkg.Name.Equal(other.Name) && pkg.Version.Equal(other.Version) {
		return false
	}
	for _, c := range pkg.Conflicts {
		if c.Satisfies(other.Name, &other.Version) {
			return true
		}
		for _, p := range other.Provides {
			if p.Kind != alpmtypes.RelationKindPackage {
				continue
			}
			if c.Name.Equal(p.Package.Name) {
				return true
			}
		}
	}
	return false
}
