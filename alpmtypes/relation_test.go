package alpmtypes

import "testing"

func TestParsePackageRelation(t *testing.T) {
	r, err := ParsePackageRelation("cargo>=1.0-1")
	if err != nil {
		t.Fatal(err)
	}
	if r.Name.String() != "cargo" {
		t.Fatalf("name = %q", r.Name)
	}
	if r.Constraint == nil || r.Constraint.Comparison != CompGreaterOrEqual {
		t.Fatalf("constraint = %+v", r.Constraint)
	}

	bare, err := ParsePackageRelation("cargo")
	if err != nil {
		t.Fatal(err)
	}
	if bare.Constraint != nil {
		t.Fatalf("expected no constraint, got %v", bare.Constraint)
	}
}

func TestRelationLookupVirtualProvides(t *testing.T) {
	l := NewRelationLookup()
	rel, _ := ParsePackageRelation("cargo")
	l.InsertPackageRelation(rel, "rustup")

	query, _ := ParsePackageRelation("cargo>=1.0")
	ok, origin := l.SatisfiesPackageRelation(query)
	if !ok || origin != "rustup" {
		t.Fatalf("expected rustup to satisfy virtual cargo, got ok=%v origin=%q", ok, origin)
	}
}

func TestChecksumRoundTrip(t *testing.T) {
	hex := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	c, err := ParseChecksum(DigestSHA256, hex)
	if err != nil {
		t.Fatal(err)
	}
	if c.String() != hex {
		t.Fatalf("String() = %q, want %q", c.String(), hex)
	}

	skip, err := ParseSkippableChecksum(DigestMD5, "SKIP")
	if err != nil {
		t.Fatal(err)
	}
	if !skip.Skip || skip.String() != "SKIP" {
		t.Fatalf("expected SKIP sentinel, got %+v", skip)
	}
}

func TestSonameV1Equal(t *testing.T) {
	a := SonameV1{Name: "libfoo.so", Format: ElfFormat64}
	b := SonameV1{Name: "libfoo.so", Format: ElfFormat64}
	c := SonameV1{Name: "libfoo.so", Format: ElfFormat32}
	if !a.Equal(b) {
		t.Fatal("expected equal")
	}
	if a.Equal(c) {
		t.Fatal("expected not equal")
	}
}
