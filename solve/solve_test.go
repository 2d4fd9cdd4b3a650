package solve

import (
	"testing"

	"github.com/archlinux/alpm-go/alpmtypes"
)

func mustName(t *testing.T, s string) alpmtypes.Name {
	t.Helper()
	n, err := alpmtypes.ParseName(s)
	if err != nil {
		t.Fatalf("ParseName(%q): %v", s, err)
	}
	return n
}

func mustVersion(t *testing.T, s string) alpmtypes.Version {
	t.Helper()
	v, err := alpmtypes.ParseVersion(s)
	if err != nil {
		t.Fatalf("ParseVersion(%q): %v", s, err)
	}
	return v
}

func mustRelation(t *testing.T, s string) alpmtypes.PackageRelation {
	t.Helper()
	r, err := alpmtypes.ParsePackageRelation(s)
	if err != nil {
		t.Fatalf("ParsePackageRelation(%q): %v", s, err)
	}
	return r
}

func provides(t *testing.T, names ...string) []alpmtypes.RelationOrSoname {
	t.Helper()
	var out []alpmtypes.RelationOrSoname
	for _, n := range names {
		out = append(out, alpmtypes.RelationOrSoname{Kind: alpmtypes.RelationKindPackage, Package: mustRelation(t, n)})
	}
	return out
}

// TestUpgradeProviderStickiness is the rustup/cargo provider-conflict
// scenario: an installed rustup that provides and conflicts with cargo
// must be upgraded to its own newer version, and the unrelated standalone
// cargo package must never be pulled in, since nothing depends on it.
func TestUpgradeProviderStickiness(t *testing.T) {
	rustup1 := Package{
		Name:      mustName(t, "rustup"),
		Version:   mustVersion(t, "1-1"),
		Provides:  provides(t, "cargo"),
		Conflicts: []alpmtypes.PackageRelation{mustRelation(t, "cargo")},
	}
	rustup2 := Package{
		Name:      mustName(t, "rustup"),
		Version:   mustVersion(t, "2-1"),
		Provides:  provides(t, "cargo"),
		Conflicts: []alpmtypes.PackageRelation{mustRelation(t, "cargo")},
	}
	cargo2 := Package{
		Name:      mustName(t, "cargo"),
		Version:   mustVersion(t, "2-1"),
		Conflicts: []alpmtypes.PackageRelation{mustRelation(t, "rustup")},
	}

	in := Input{
		Installed: []Package{rustup1},
		Repositories: []Repository{
			{Name: "core", Priority: 0, Packages: []Package{rustup2, cargo2}},
		},
	}

	plan, err := Upgrade(in, nil, true)
	if err != nil {
		t.Fatalf("Upgrade: %v", err)
	}

	var sawCargoInstall, sawRustupUpgrade bool
	for _, a := range plan.Actions {
		if a.Kind == ActionInstall && a.To.Name.String() == "cargo" {
			sawCargoInstall = true
		}
		if a.Kind == ActionUpgrade && a.To.Name.String() == "rustup" {
			if a.To.Version.String() != "2-1" {
				t.Fatalf("expected rustup upgraded to 2-1, got %s", a.To.Version)
			}
			sawRustupUpgrade = true
		}
	}
	if sawCargoInstall {
		t.Fatal("expected cargo 2-1 not to be installed")
	}
	if !sawRustupUpgrade {
		t.Fatalf("expected rustup to be upgraded, got plan %+v", plan.Actions)
	}
}

func TestUpgradeIsDeterministic(t *testing.T) {
	foo1 := Package{Name: mustName(t, "foo"), Version: mustVersion(t, "1-1")}
	foo2 := Package{Name: mustName(t, "foo"), Version: mustVersion(t, "2-1")}
	in := Input{
		Installed:    []Package{foo1},
		Repositories: []Repository{{Name: "core", Priority: 0, Packages: []Package{foo2}}},
	}

	plan1, err := Upgrade(in, nil, true)
	if err != nil {
		t.Fatalf("Upgrade: %v", err)
	}
	plan2, err := Upgrade(in, nil, true)
	if err != nil {
		t.Fatalf("Upgrade: %v", err)
	}
	if len(plan1.Actions) != len(plan2.Actions) || len(plan1.Actions) != 1 {
		t.Fatalf("expected one deterministic action twice, got %+v / %+v", plan1.Actions, plan2.Actions)
	}
	if plan1.Actions[0].To.Version.String() != plan2.Actions[0].To.Version.String() {
		t.Fatalf("nondeterministic plan: %+v vs %+v", plan1.Actions, plan2.Actions)
	}
}

func TestUpgradeNonEnforceFullKeepsInstalledWhenUnneeded(t *testing.T) {
	foo1 := Package{Name: mustName(t, "foo"), Version: mustVersion(t, "1-1")}
	foo2 := Package{Name: mustName(t, "foo"), Version: mustVersion(t, "2-1")}
	in := Input{
		Installed:    []Package{foo1},
		Repositories: []Repository{{Name: "core", Priority: 0, Packages: []Package{foo2}}},
	}

	plan, err := Upgrade(in, nil, false)
	if err != nil {
		t.Fatalf("Upgrade: %v", err)
	}
	if len(plan.Actions) != 0 {
		t.Fatalf("expected no-op plan when not enforcing full upgrade, got %+v", plan.Actions)
	}
}

func TestDependencyClosurePullsTransitiveRequirement(t *testing.T) {
	app := Package{
		Name:    mustName(t, "app"),
		Version: mustVersion(t, "1-1"),
		Depends: []alpmtypes.PackageRelation{mustRelation(t, "libfoo")},
	}
	libfoo := Package{Name: mustName(t, "libfoo"), Version: mustVersion(t, "1-1")}

	in := Input{
		Installed:    []Package{app},
		Repositories: []Repository{{Name: "core", Priority: 0, Packages: []Package{libfoo}}},
	}

	plan, err := Upgrade(in, nil, true)
	if err != nil {
		t.Fatalf("Upgrade: %v", err)
	}
	var sawInstall bool
	for _, a := range plan.Actions {
		if a.Kind == ActionInstall && a.To.Name.String() == "libfoo" {
			sawInstall = true
		}
	}
	if !sawInstall {
		t.Fatalf("expected libfoo to be pulled in, got %+v", plan.Actions)
	}
}

func TestDowngradeSelectsHighestLowerCachedVersion(t *testing.T) {
	current := Package{Name: mustName(t, "foo"), Version: mustVersion(t, "3-1")}
	cacheOld := Package{Name: mustName(t, "foo"), Version: mustVersion(t, "1-1")}
	cacheMid := Package{Name: mustName(t, "foo"), Version: mustVersion(t, "2-1")}

	in := Input{
		Installed: []Package{current},
		Cache:     []Package{cacheOld, cacheMid},
	}

	plan, err := Downgrade(in, []alpmtypes.Name{mustName(t, "foo")})
	if err != nil {
		t.Fatalf("Downgrade: %v", err)
	}
	if len(plan.Actions) != 1 || plan.Actions[0].Kind != ActionDowngrade {
		t.Fatalf("expected one downgrade action, got %+v", plan.Actions)
	}
	if plan.Actions[0].To.Version.String() != "2-1" {
		t.Fatalf("expected downgrade to 2-1, got %s", plan.Actions[0].To.Version)
	}
}

func TestDowngradeUnsatisfiableWithNoLowerCache(t *testing.T) {
	current := Package{Name: mustName(t, "foo"), Version: mustVersion(t, "1-1")}
	in := Input{Installed: []Package{current}}

	_, err := Downgrade(in, []alpmtypes.Name{mustName(t, "foo")})
	if err == nil {
		t.Fatal("expected Unsatisfiable error")
	}
	if _, ok := err.(*Unsatisfiable); !ok {
		t.Fatalf("expected *Unsatisfiable, got %T", err)
	}
}
