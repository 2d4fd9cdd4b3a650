package alpmtypes

// RelationLookup indexes a set of relations (package relations and sonames)
// by their natural key, so that satisfaction queries don't need a linear
// scan over every provider. It mirrors the three parallel sub-tables
// described in the design: package relations keyed by Name, SonameV1 keyed
// by its shared-object name, SonameV2 keyed by (prefix, name).
type RelationLookup struct {
	packageRelations map[string][]packageRelationEntry
	sonameV1s        map[string][]sonameV1Entry
	sonameV2s        map[string][]sonameV2Entry
}

type packageRelationEntry struct {
	constraint *VersionRequirement
	origin     string
}

type sonameV1Entry struct {
	soname SonameV1
	origin string
}

type sonameV2Entry struct {
	soname SonameV2
	origin string
}

// NewRelationLookup returns an empty lookup table.
func NewRelationLookup() *RelationLookup {
	return &RelationLookup{
		packageRelations: make(map[string][]packageRelationEntry),
		sonameV1s:        make(map[string][]sonameV1Entry),
		sonameV2s:        make(map[string][]sonameV2Entry),
	}
}

// InsertPackageRelation records that origin (e.g. a package's full name)
// provides rel.
func (l *RelationLookup) InsertPackageRelation(rel PackageRelation, origin string) {
	key := rel.Name.String()
	l.packageRelations[key] = append(l.packageRelations[key], packageRelationEntry{constraint: rel.Constraint, origin: origin})
}

// InsertSonameV1 records that origin provides soname s.
func (l *RelationLookup) InsertSonameV1(s SonameV1, origin string) {
	l.sonameV1s[s.Name] = append(l.sonameV1s[s.Name], sonameV1Entry{soname: s, origin: origin})
}

// InsertSonameV2 records that origin provides soname s.
func (l *RelationLookup) InsertSonameV2(s SonameV2, origin string) {
	key := s.Prefix + ":" + s.Name.String()
	l.sonameV2s[key] = append(l.sonameV2s[key], sonameV2Entry{soname: s, origin: origin})
}

// InsertRelationOrSoname dispatches to the matching sub-table.
func (l *RelationLookup) InsertRelationOrSoname(r RelationOrSoname, origin string) {
	switch r.Kind {
	case RelationKindSonameV1:
		l.InsertSonameV1(r.SonameV1, origin)
	case RelationKindSonameV2:
		l.InsertSonameV2(r.SonameV2, origin)
	default:
		l.InsertPackageRelation(r.Package, origin)
	}
}

// SatisfiesPackageRelation reports whether any indexed entry for req.Name
// satisfies req. Missing a version requirement on either side (the query's
// or an indexed entry's) means "any version satisfies", matching the
// original lookup's virtual-component semantics: a plain "provides foo"
// satisfies a request for "foo>=1.0", and a request for plain "foo"
// is satisfied by any versioned provider of foo.
func (l *RelationLookup) SatisfiesPackageRelation(req PackageRelation) (bool, string) {
	entries := l.packageRelations[req.Name.String()]
	for _, e := range entries {
		if req.Constraint == nil || e.constraint == nil {
			return true, e.origin
		}
		if req.Constraint.Intersects(*e.constraint) {
			return true, e.origin
		}
	}
	return false, ""
}

// SatisfiesNameAndVersion reports whether any indexed package-relation
// entry for name is compatible with the given concrete version (used when
// checking a candidate package, which has an exact version, against a
// dependency's constraint table).
func (l *RelationLookup) SatisfiesNameAndVersion(name Name, version Version) (bool, string) {
	entries := l.packageRelations[name.String()]
	for _, e := range entries {
		if e.constraint == nil || e.constraint.SatisfiedBy(version) {
			return true, e.origin
		}
	}
	return false, ""
}

// SatisfiesSonameV1 reports whether any indexed SonameV1 entry structurally
// matches s.
func (l *RelationLookup) SatisfiesSonameV1(s SonameV1) (bool, string) {
	for _, e := range l.sonameV1s[s.Name] {
		if e.soname.Equal(s) {
			return true, e.origin
		}
	}
	return false, ""
}

// SatisfiesSonameV2 reports whether any indexed SonameV2 entry structurally
// matches s.
func (l *RelationLookup) SatisfiesSonameV2(s SonameV2) (bool, string) {
	key := s.Prefix + ":" + s.Name.String()
	for _, e := range l.sonameV2s[key] {
		if e.soname.Equal(s) {
			return true, e.origin
		}
	}
	return false, ""
}
