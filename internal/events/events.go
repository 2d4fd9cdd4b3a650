// Package events provides the structured-callback logging pattern used by
// the alpm-pm command: it emits these events through an optional Listener
// instead of writing directly to a logger. The library packages themselves
// take no Listener and emit no events.
package events

import (
	"encoding/json"
	"fmt"
)

// Listener is a callback that receives events as they happen. A nil
// Listener is always safe to call via Emit.
type Listener func(fmt.Stringer)

// Emit calls l if non-nil, so callers never need a nil check at the call
// site.
func Emit(l Listener, e fmt.Stringer) {
	if l != nil {
		l(e)
	}
}

func jsonString(v interface{}) string {
	b, _ := json.Marshal(map[string]interface{}{
		fmt.Sprintf("%T", v): v,
	})
	return string(b)
}

// SourceInfoParsed is emitted once Parse has produced a SourceInfo, whether
// or not it carries lints or unrecoverable errors.
type SourceInfoParsed struct {
	PackageBase string `json:"package_base,omitempty"`
	Packages    int    `json:"packages,omitempty"`
	Lints       int    `json:"lints,omitempty"`
	Errors      int    `json:"errors,omitempty"`
}

func (e SourceInfoParsed) String() string { return jsonString(e) }

// MtreeValidated is emitted after a directory has been checked against a
// manifest.
type MtreeValidated struct {
	Path   string `json:"path,omitempty"`
	Issues int    `json:"issues,omitempty"`
}

func (e MtreeValidated) String() string { return jsonString(e) }

// DatabaseOpened is emitted when a database directory is opened, carrying
// the result of its integrity check.
type DatabaseOpened struct {
	Dir      string `json:"dir,omitempty"`
	Entries  int    `json:"entries,omitempty"`
	Problems int    `json:"problems,omitempty"`
}

func (e DatabaseOpened) String() string { return jsonString(e) }

// DatabaseEntryWritten is emitted after CreateEntry/UpdateEntry commits an
// entry subdirectory.
type DatabaseEntryWritten struct {
	Name    string `json:"name,omitempty"`
	Updated bool   `json:"updated,omitempty"`
}

func (e DatabaseEntryWritten) String() string { return jsonString(e) }

// DatabaseEntryDeleted is emitted after DeleteEntry removes an entry
// subdirectory.
type DatabaseEntryDeleted struct {
	Name string `json:"name,omitempty"`
}

func (e DatabaseEntryDeleted) String() string { return jsonString(e) }

// SolverPlanned is emitted once Upgrade/Downgrade has produced a Plan.
type SolverPlanned struct {
	Kind    string `json:"kind,omitempty"`
	Actions int    `json:"actions,omitempty"`
}

func (e SolverPlanned) String() string { return jsonString(e) }

// PackageAssembled is emitted once the input assembler has produced a
// validated record from an extracted package directory.
type PackageAssembled struct {
	Dir     string `json:"dir,omitempty"`
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

func (e PackageAssembled) String() string { return jsonString(e) }
