package pkgdb

import (
	"fmt"
	"os"
	"path/filepath"
)

const lockFileName = "db.lck"

// LockError reports that the database lock could not be acquired or
// managed. It is always a distinguishable, fatal error: the design
// deliberately never blocks/retries to acquire, it fails fast.
type LockError struct {
	Path string
	Err  error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("database lock %s: %v", e.Path, e.Err)
}

func (e *LockError) Unwrap() error { return e.Err }

// fileLock is an exclusive-create lock file living in the parent of the
// database directory, matching the design note preferring a portable
// single-file lock over advisory file-range locks.
type fileLock struct {
	path string
}

// acquire creates the lock file with O_EXCL semantics: it never blocks or
// retries, and a pre-existing lock file is a fatal LockError.
func acquireLock(dbDir string) (*fileLock, error) {
	lockPath := filepath.Join(filepath.Dir(dbDir), lockFileName)
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, &LockError{Path: lockPath, Err: err}
	}
	f.Close()
	return &fileLock{path: lockPath}, nil
}

// release deletes the lock file. A failure here is swallowed (never
// returned) to avoid masking the primary operation's result, matching the
// resource-model rule that lock-file removal failures are never surfaced.
func (l *fileLock) release() {
	_ = os.Remove(l.path)
}

// exists reports whether the lock file is currently present.
func (l *fileLock) exists() bool {
	_, err := os.Stat(l.path)
	return err == nil
}
