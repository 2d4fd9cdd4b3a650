package alpmtypes

import "strings"

// DigestKind names a supported checksum algorithm and its fixed hex width.
type DigestKind struct {
	Name      string
	HexWidth  int
}

var (
	DigestMD5    = DigestKind{Name: "md5", HexWidth: 32}
	DigestSHA1   = DigestKind{Name: "sha1", HexWidth: 40}
	DigestSHA256 = DigestKind{Name: "sha256", HexWidth: 64}
)

// Checksum is a fixed-width hex digest for a particular DigestKind.
type Checksum struct {
	Kind DigestKind
	Hex  string
}

// ParseChecksum validates text as a hex digest for kind.
func ParseChecksum(kind DigestKind, text string) (Checksum, error) {
	if len(text) != kind.HexWidth {
		return Checksum{}, &InvalidValueError{Kind: "Checksum", Value: text, Reason: "wrong width for " + kind.Name}
	}
	lower := strings.ToLower(text)
	for _, r := range lower {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			return Checksum{}, &InvalidValueError{Kind: "Checksum", Value: text, Reason: "not valid hex"}
		}
	}
	return Checksum{Kind: kind, Hex: lower}, nil
}

func (c Checksum) String() string { return c.Hex }

func (c Checksum) Equal(other Checksum) bool {
	return c.Kind.Name == other.Kind.Name && c.Hex == other.Hex
}

// SkippableChecksum is either a Checksum or the sentinel "SKIP", used by
// source-info checksum fields where verification may be deliberately
// disabled for a given source entry.
type SkippableChecksum struct {
	Skip     bool
	Checksum Checksum
}

const skipSentinel = "SKIP"

// ParseSkippableChecksum parses either the literal "SKIP" or a hex digest
// for kind.
func ParseSkippableChecksum(kind DigestKind, text string) (SkippableChecksum, error) {
	if text == skipSentinel {
		return SkippableChecksum{Skip: true}, nil
	}
	c, err := ParseChecksum(kind, text)
	if err != nil {
		return SkippableChecksum{}, err
	}
	return SkippableChecksum{Checksum: c}, nil
}

func (s SkippableChecksum) String() string {
	if s.Skip {
		return skipSentinel
	}
	return s.Checksum.String()
}
