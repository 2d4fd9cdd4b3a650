package alpmtypes

import "strings"

// versionSegment is one unit produced by the pkgver segment iterator: a
// (possibly empty) alphanumeric run, paired with the count of non-
// alphanumeric delimiter characters that immediately preceded it.
type versionSegment struct {
	value string
	delim int
}

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }
func isASCIIAlpha(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isASCIIAlnum(r rune) bool { return isASCIIDigit(r) || isASCIIAlpha(r) }

func isNumericSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isASCIIDigit(r) {
			return false
		}
	}
	return true
}

func isAlphaSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isASCIIAlpha(r) {
			return false
		}
	}
	return true
}

// segmentize implements the pkgver segment iterator described in §4.1 of
// the design: consecutive non-alphanumeric characters merge into a
// delimiter run whose count prefixes the next alphanumeric run; an
// alphanumeric run is further split at each alpha<->digit boundary; a
// trailing delimiter run with no following alphanumeric content yields a
// final empty segment carrying its delimiter count.
//
// Examples: "1...a" -> [("1",0),("a",3)];
// "1.1asdf123.0" -> [("1",0),("1",1),("asdf",0),("123",0),("0",1)];
// "1..." -> [("1",0),("",3)].
func segmentize(s string) []versionSegment {
	runes := []rune(s)
	var segs []versionSegment
	i := 0
	n := len(runes)
	for i < n {
		delim := 0
		for i < n && !isASCIIAlnum(runes[i]) {
			delim++
			i++
		}
		if i >= n {
			segs = append(segs, versionSegment{value: "", delim: delim})
			return segs
		}
		start := i
		isDigit := isASCIIDigit(runes[i])
		i++
		for i < n && isASCIIAlnum(runes[i]) && isASCIIDigit(runes[i]) == isDigit {
			i++
		}
		segs = append(segs, versionSegment{value: string(runes[start:i]), delim: delim})
		for i < n && isASCIIAlnum(runes[i]) {
			start = i
			isDigit = isASCIIDigit(runes[i])
			i++
			for i < n && isASCIIAlnum(runes[i]) && isASCIIDigit(runes[i]) == isDigit {
				i++
			}
			segs = append(segs, versionSegment{value: string(runes[start:i]), delim: 0})
		}
	}
	return segs
}

// compareNumericStrings compares two all-digit strings as unsigned integers,
// ignoring leading zeros, without risking overflow for arbitrarily long
// digit runs.
func compareNumericStrings(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// comparePkgverStrings implements the full pkgver comparison algorithm over
// raw strings (used both by PackageVersion.Compare and by tests exercising
// the segment iterator directly).
func comparePkgverStrings(a, b string) int {
	segsA := segmentize(a)
	segsB := segmentize(b)
	i := 0
	for {
		aHas := i < len(segsA)
		bHas := i < len(segsB)
		if !aHas && !bHas {
			return 0
		}
		if !aHas || !bHas {
			var remainder []versionSegment
			aIsLonger := aHas
			if aIsLonger {
				remainder = segsA[i:]
			} else {
				remainder = segsB[i:]
			}
			if len(remainder) >= 2 {
				if aIsLonger {
					return 1
				}
				return -1
			}
			extra := remainder[0]
			if extra.delim == 0 && isAlphaSegment(extra.value) {
				// the lone extra segment is purely alphabetic with no
				// leading delimiter: it loses (pre-release rule).
				if aIsLonger {
					return -1
				}
				return 1
			}
			if aIsLonger {
				return 1
			}
			return -1
		}

		sa, sb := segsA[i], segsB[i]
		if sa.value == "" && sb.value == "" {
			return 0
		}
		if sa.value == "" || sb.value == "" {
			// An empty segment normally loses to whichever side still has
			// content. The sole exception: if the non-empty side's segment
			// is the last one left in its own iterator and is purely
			// alphabetic, it's a pre-release suffix and loses instead, e.g.
			// "1.0.alpha" < "1.0.".
			if sa.value == "" {
				bLast := i+1 >= len(segsB)
				if bLast && isAlphaSegment(sb.value) {
					return 1
				}
				return -1
			}
			aLast := i+1 >= len(segsA)
			if aLast && isAlphaSegment(sa.value) {
				return -1
			}
			return 1
		}
		if sa.delim != sb.delim {
			if sa.delim > sb.delim {
				return 1
			}
			return -1
		}
		aNum := isNumericSegment(sa.value)
		bNum := isNumericSegment(sb.value)
		if aNum != bNum {
			if aNum {
				return 1
			}
			return -1
		}
		if aNum {
			if c := compareNumericStrings(sa.value, sb.value); c != 0 {
				return c
			}
			aPure := i+1 >= len(segsA) || segsA[i+1].delim > 0
			bPure := i+1 >= len(segsB) || segsB[i+1].delim > 0
			if aPure != bPure {
				if aPure {
					return 1
				}
				return -1
			}
		} else {
			if c := strings.Compare(sa.value, sb.value); c != 0 {
				return c
			}
		}
		i++
	}
}
