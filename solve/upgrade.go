package solve

import (
	"sort"

	"github.com/archlinux/alpm-go/alpmtypes"
)

// PinnedRequest names an explicit upgrade/install target, with an optional
// version constraint. A nil Requirement accepts the best available
// candidate.
type PinnedRequest struct {
	Name        alpmtypes.Name
	Requirement *alpmtypes.VersionRequirement
}

// Upgrade computes a plan that resolves every installed package, plus any
// pinned request, to a feasible candidate across the repositories.
//
// When enforceFull is true, installed packages are resolved
// newest-version-first, so each one for which a newer, non-conflicting
// candidate exists appears in the plan as an upgrade. When it is false,
// the installed version of each installed package is tried first and is
// kept whenever it remains feasible. Pinned requests are always resolved
// newest-version-first.
func Upgrade(in Input, pinned []PinnedRequest, enforceFull bool) (*Plan, error) {
	r := newResolver(in)

	var rootNames []string
	seen := make(map[string]bool)
	for _, pkg := range in.Installed {
		key := pkg.Name.String()
		if !seen[key] {
			seen[key] = true
			rootNames = append(rootNames, key)
		}
	}
	sort.Strings(rootNames)

	preferInstalled := !enforceFull
	for _, name := range rootNames {
		if !r.resolveRoot(name, nil, preferInstalled) {
			return nil, &Unsatisfiable{Reason: "no feasible candidate for installed package", Culprit: []string{name}}
		}
	}

	for _, p := range pinned {
		key := p.Name.String()
		// a pinned request is always an explicit ask for the best candidate,
		// never the stay-put default, even under a partial plan.
		if !r.resolveRoot(key, p.Requirement, false) {
			return nil, &Unsatisfiable{Reason: "no feasible candidate for pinned request", Culprit: []string{key}}
		}
	}

	return buildUpgradePlan(in, r.chosen), nil
}

func buildUpgradePlan(in Input, chosen map[string]Package) *Plan {
	installedByName := make(map[string]Package, len(in.Installed))
	for _, pkg := range in.Installed {
		installedByName[pkg.Name.String()] = pkg
	}

	var names []string
	for n := range chosen {
		names = append(names, n)
	}
	sort.Strings(names)

	plan := &Plan{}
	var removes, installsAndUpgrades []Action
	for _, n := range names {
		to := chosen[n]
		from, wasInstalled := installedByName[n]
		switch {
		case !wasInstalled:
			installsAndUpgrades = append(installsAndUpgrades, Action{Kind: ActionInstall, To: &to})
		case !from.Version.Equal(to.Version):
			f := from
			installsAndUpgrades = append(installsAndUpgrades, Action{Kind: ActionUpgrade, From: &f, To: &to})
		}
	}
	for n, from := range installedByName {
		if _, ok := chosen[n]; !ok {
			f := from
			removes = append(removes, Action{Kind: ActionRemove, From: &f})
		}
	}
	sort.Slice(removes, func(i, j int) bool { return removes[i].From.Name.String() < removes[j].From.Name.String() })
	plan.Actions = append(plan.Actions, removes...)
	plan.Actions = append(plan.Actions, installsAndUpgrades...)
	return plan
}

// Downgrade computes a plan that, for each named package in targetSet,
// selects the highest cached version strictly lower than the installed
// version. That candidate is checked only for conflicts against the rest
// of the system (with earlier downgrades applied); dependency relations
// are not checked, and when the candidate conflicts, no lower cached
// version is tried: the result is Unsatisfiable.
func Downgrade(in Input, targetSet []alpmtypes.Name) (*Plan, error) {
	installedByName := make(map[string]Package, len(in.Installed))
	for _, pkg := range in.Installed {
		installedByName[pkg.Name.String()] = pkg
	}

	chosen := make(map[string]Package, len(in.Installed))
	for k, v := range installedByName {
		chosen[k] = v
	}

	plan := &Plan{}
	targets := append([]alpmtypes.Name(nil), targetSet...)
	sort.Slice(targets, func(i, j int) bool { return targets[i].String() < targets[j].String() })

	for _, name := range targets {
		key := name.String()
		current, ok := installedByName[key]
		if !ok {
			return nil, &Unsatisfiable{Reason: "package not installed", Culprit: []string{key}}
		}
		best, found := bestCachedDowngrade(in.Cache, current)
		if !found {
			return nil, &Unsatisfiable{Reason: "no cached version lower than installed", Culprit: []string{key}}
		}
		trial := make(map[string]Package, len(chosen))
		for k, v := range chosen {
			trial[k] = v
		}
		trial[key] = best
		if conflictsInSet(trial) {
			return nil, &Unsatisfiable{Reason: "cached downgrade candidate conflicts with system", Culprit: []string{key}}
		}
		chosen = trial
		f := current
		t := best
		plan.Actions = append(plan.Actions, Action{Kind: ActionDowngrade, From: &f, To: &t})
	}
	return plan, nil
}

func bestCachedDowngrade(cache []Package, installed Package) (Package, bool) {
	var best *Package
	for i := range cache {
		c := cache[i]
		if !c.Name.Equal(installed.Name) {
			continue
		}
		if c.Version.Compare(installed.Version) >= 0 {
			continue
		}
		if best == nil || c.Version.Compare(best.Version) > 0 {
			best = &cache[i]
		}
	}
	if best == nil {
		return Package{}, false
	}
	return *best, true
}

func conflictsInSet(chosen map[string]Package) bool {
	var names []string
	for n := range chosen {
		names = append(names, n)
	}
	sort.Strings(names)
	for i, a := range names {
		for _, b := range names[i+1:] {
			if conflicts(chosen[a], chosen[b]) || conflicts(chosen[b], chosen[a]) {
				return true
			}
		}
	}
	return false
}
