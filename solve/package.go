// Package solve implements the dependency solver (C8): it turns an
// installed system, a set of ordered repositories, and a downgrade cache
// into upgrade and downgrade plans over provides/conflicts/version
// constraints.
package solve

import "github.com/archlinux/alpm-go/alpmtypes"

// Package is the solver's view of one candidate: enough of a PKGINFO/
// RepoDesc to evaluate dependency and conflict relations against.
type Package struct {
	Name      alpmtypes.Name
	Version   alpmtypes.Version
	Provides  []alpmtypes.RelationOrSoname
	Depends   []alpmtypes.PackageRelation
	Conflicts []alpmtypes.PackageRelation
}

func (p Package) String() string {
	return p.Name.String() + "-" + p.Version.String()
}

// Repository is one ordered source of candidate packages. Candidates are
// ranked by Version (newer first); between equal versions, lower Priority
// is preferred, then Name. Priority does not outrank Version.
type Repository struct {
	Name     string
	Priority int32
	Packages []Package
}

// Input bundles everything the solver needs: the installed set, the
// ordered repositories, and the downgrade cache.
type Input struct {
	Installed    []Package
	Repositories []Repository
	Cache        []Package
}

// Unsatisfiable reports that no plan could be found, carrying the names
// whose constraints could not simultaneously be met.
type Unsatisfiable struct {
	Reason  string
	Culprit []string
}

func (e *Unsatisfiable) Error() string {
	if len(e.Culprit) == 0 {
		return "unsatisfiable: " + e.Reason
	}
	return "unsatisfiable: " + e.Reason + " (" + joinNames(e.Culprit) + ")"
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

// ActionKind distinguishes the four possible plan steps.
type ActionKind int

const (
	ActionInstall ActionKind = iota
	ActionRemove
	ActionUpgrade
	ActionDowngrade
)

func (k ActionKind) String() string {
	switch k {
	case ActionInstall:
		return "install"
	case ActionRemove:
		return "remove"
	case ActionUpgrade:
		return "upgrade"
	case ActionDowngrade:
		return "downgrade"
	default:
		return "unknown"
	}
}

// Action is one step of a Plan: From is nil for Install, To is nil for
// Remove, both are set for Upgrade/Downgrade.
type Action struct {
	Kind ActionKind
	From *Package
	To   *Package
}

// Plan is an ordered, apply-in-order-safe list of Actions. Removes of a
// name being replaced by a same-namespace conflicting provider are
// ordered before the corresponding install, per the no-transient-
// conflict rule.
type Plan struct {
	Actions []Action
}
