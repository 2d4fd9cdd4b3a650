package alpmtypes

import "strings"

// VersionComparison is a comparator operator. The two-letter operators are
// declared first so that a parser consuming them greedily matches "<=" and
// ">=" before falling back to the single-letter forms.
type VersionComparison int

const (
	CompLessOrEqual VersionComparison = iota
	CompGreaterOrEqual
	CompEqual
	CompLess
	CompGreater
)

func (c VersionComparison) String() string {
	switch c {
	case CompLessOrEqual:
		return "<="
	case CompGreaterOrEqual:
		return ">="
	case CompEqual:
		return "="
	case CompLess:
		return "<"
	case CompGreater:
		return ">"
	default:
		return "?"
	}
}

// IsCompatibleWith reports whether cmp(actual, target) is compatible with
// the comparator, i.e. whether c describes the relation actual must have to
// target.
func (c VersionComparison) IsCompatibleWith(cmp int) bool {
	switch c {
	case CompLess:
		return cmp < 0
	case CompLessOrEqual:
		return cmp <= 0
	case CompEqual:
		return cmp == 0
	case CompGreaterOrEqual:
		return cmp >= 0
	case CompGreater:
		return cmp > 0
	}
	return false
}

// parseVersionComparison parses the operator prefix of text, returning the
// comparator and the remaining text. Two-letter operators are tried first.
func parseVersionComparison(text string) (VersionComparison, string, bool) {
	twoLetter := []struct {
		prefix string
		comp   VersionComparison
	}{
		{"<=", CompLessOrEqual},
		{">=", CompGreaterOrEqual},
	}
	for _, tl := range twoLetter {
		if strings.HasPrefix(text, tl.prefix) {
			return tl.comp, text[len(tl.prefix):], true
		}
	}
	oneLetter := []struct {
		prefix string
		comp   VersionComparison
	}{
		{"=", CompEqual},
		{"<", CompLess},
		{">", CompGreater},
	}
	for _, ol := range oneLetter {
		if strings.HasPrefix(text, ol.prefix) {
			return ol.comp, text[len(ol.prefix):], true
		}
	}
	return 0, text, false
}

// VersionRequirement pairs a comparator with a target Version.
type VersionRequirement struct {
	Comparison VersionComparison
	Target     Version
}

// ParseVersionRequirement parses "<op><version>", e.g. ">=1.5-3".
func ParseVersionRequirement(text string) (VersionRequirement, error) {
	comp, rest, ok := parseVersionComparison(text)
	if !ok {
		return VersionRequirement{}, &ParseError{Format: "VersionRequirement", Text: text, Reason: "missing comparator"}
	}
	target, err := ParseVersion(rest)
	if err != nil {
		return VersionRequirement{}, err
	}
	return VersionRequirement{Comparison: comp, Target: target}, nil
}

func (r VersionRequirement) String() string {
	return r.Comparison.String() + r.Target.String()
}

// SatisfiedBy reports whether actual satisfies the requirement.
func (r VersionRequirement) SatisfiedBy(actual Version) bool {
	return r.Comparison.IsCompatibleWith(actual.Compare(r.Target))
}

// Intersects reports whether r and other, taken as a conjunction over the
// same name, admit at least one Version. Since pkgver/pkgrel space is
// unbounded and non-enumerable, intersection is decided structurally: the
// two requirements intersect unless they impose strictly opposite bounds
// that can never overlap. An exact (=) requirement intersects iff the other
// requirement accepts its target.
func (r VersionRequirement) Intersects(other VersionRequirement) bool {
	if r.Comparison == CompEqual {
		return other.SatisfiedBy(r.Target)
	}
	if other.Comparison == CompEqual {
		return r.SatisfiedBy(other.Target)
	}
	cmp := r.Target.Compare(other.Target)
	switch {
	case cmp == 0:
		// Same target version: an upper and a lower bound meet only when
		// both include the shared point.
		if isUpperBound(r.Comparison) == isUpperBound(other.Comparison) {
			return true
		}
		return r.Comparison != CompLess && r.Comparison != CompGreater &&
			other.Comparison != CompLess && other.Comparison != CompGreater
	case cmp < 0:
		// r.Target < other.Target
		return !(isUpperBound(r.Comparison) && isLowerBound(other.Comparison))
	default:
		return !(isLowerBound(r.Comparison) && isUpperBound(other.Comparison))
	}
}

func isUpperBound(c VersionComparison) bool { return c == CompLess || c == CompLessOrEqual }
func isLowerBound(c VersionComparison) bool { return c == CompGreater || c == CompGreaterOrEqual }
