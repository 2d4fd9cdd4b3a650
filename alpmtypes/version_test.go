package alpmtypes

import "testing"

func TestSegmentize(t *testing.T) {
	cases := []struct {
		in   string
		want []versionSegment
	}{
		{"1...a", []versionSegment{{"1", 0}, {"a", 3}}},
		{"1.1asdf123.0", []versionSegment{{"1", 0}, {"1", 1}, {"asdf", 0}, {"123", 0}, {"0", 1}}},
		{"1...", []versionSegment{{"1", 0}, {"", 3}}},
		{"20220202", []versionSegment{{"20220202", 0}}},
		{"some_string", []versionSegment{{"some", 0}, {"string", 1}}},
		{"alpha7654numeric321", []versionSegment{{"alpha", 0}, {"7654", 0}, {"numeric", 0}, {"321", 0}}},
	}
	for _, c := range cases {
		got := segmentize(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("segmentize(%q) = %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("segmentize(%q)[%d] = %v, want %v", c.in, i, got[i], c.want[i])
			}
		}
	}
}

func TestSegmentizeNonASCII(t *testing.T) {
	// non-alphanumeric runes (even multi-byte) are treated as delimiters.
	got := segmentize("1.\U0001F5FBlol.0")
	want := []versionSegment{{"1", 0}, {"lol", 2}, {"0", 1}}
	if len(got) != len(want) {
		t.Fatalf("segmentize = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("segmentize[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func mustVersion(t *testing.T, s string) Version {
	t.Helper()
	v, err := ParseVersion(s)
	if err != nil {
		t.Fatalf("ParseVersion(%q): %v", s, err)
	}
	return v
}

func TestVersionComparisonTable(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1:1.0-1", "1:1.0-2", -1},
		{"1.0", "1.0alpha", 1},
		{"1.0.", "1.0", 1},
		{"1.0.alpha", "1.0.", -1},
		{"01", "1", 0},
		{"1.1a1", "1.111", -1},
	}
	for _, c := range cases {
		a, b := mustVersion(t, c.a), mustVersion(t, c.b)
		got := a.Compare(b)
		got = sign(got)
		if got != c.want {
			t.Errorf("cmp(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
		// antisymmetry
		if sign(b.Compare(a)) != -got {
			t.Errorf("cmp(%q, %q) not antisymmetric", c.a, c.b)
		}
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func TestVersionRequirementSatisfaction(t *testing.T) {
	req, err := ParseVersionRequirement(">=1.5-3")
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		version string
		want    bool
	}{
		{"1.5", false},
		{"1.5-3", true},
		{"2:1.0", true},
	}
	for _, c := range cases {
		v := mustVersion(t, c.version)
		if got := req.SatisfiedBy(v); got != c.want {
			t.Errorf("%q.SatisfiedBy(%q) = %v, want %v", req, c.version, got, c.want)
		}
	}
}

func TestVersionTotalOrder(t *testing.T) {
	versions := []string{"1.0-1", "1.0-2", "1.1-1", "2:0.1-1"}
	for i := 0; i < len(versions); i++ {
		for j := 0; j < len(versions); j++ {
			a, b := mustVersion(t, versions[i]), mustVersion(t, versions[j])
			cmp := a.Compare(b)
			switch {
			case i < j && cmp >= 0:
				t.Errorf("expected %s < %s", versions[i], versions[j])
			case i > j && cmp <= 0:
				t.Errorf("expected %s > %s", versions[i], versions[j])
			case i == j && cmp != 0:
				t.Errorf("expected %s == %s", versions[i], versions[j])
			}
		}
	}
}
