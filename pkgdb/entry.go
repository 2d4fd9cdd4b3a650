package pkgdb

import (
	"fmt"
	"strings"

	"github.com/archlinux/alpm-go/alpmtypes"
)

// EntryName is the parsed form of a database entry subdirectory's name:
// "<name>-<pkgver>-<pkgrel>".
type EntryName struct {
	Name    alpmtypes.Name
	Version alpmtypes.Version
}

// String renders the canonical "name-pkgver-pkgrel" subdirectory name.
func (n EntryName) String() string {
	return n.Name.String() + "-" + n.Version.String()
}

// ParseEntryName validates text as a "name-pkgver-pkgrel" subdirectory name.
func ParseEntryName(text string) (EntryName, error) {
	relIdx := strings.LastIndexByte(text, '-')
	if relIdx < 0 {
		return EntryName{}, fmt.Errorf("malformed entry name %q: expected name-pkgver-pkgrel", text)
	}
	pkgrel, err := alpmtypes.ParsePackageRelease(text[relIdx+1:])
	if err != nil {
		return EntryName{}, fmt.Errorf("malformed entry name %q: %w", text, err)
	}
	rest := text[:relIdx]
	verIdx := strings.LastIndexByte(rest, '-')
	if verIdx < 0 {
		return EntryName{}, fmt.Errorf("malformed entry name %q: expected name-pkgver-pkgrel", text)
	}
	pkgver, err := alpmtypes.ParsePackageVersion(rest[verIdx+1:])
	if err != nil {
		return EntryName{}, fmt.Errorf("malformed entry name %q: %w", text, err)
	}
	name, err := alpmtypes.ParseName(rest[:verIdx])
	if err != nil {
		return EntryName{}, fmt.Errorf("malformed entry name %q: %w", text, err)
	}
	return EntryName{Name: name, Version: alpmtypes.NewVersion(alpmtypes.Epoch{}, pkgver, &pkgrel)}, nil
}
