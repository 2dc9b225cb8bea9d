package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrEditorClosed = errors.New("feature editor is not open")
	ErrEditorOpen   = errors.New("feature editor already open")
)

// Committer replaces the tenant's server-side feature map wholesale.
type Committer interface {
	ReplaceFeatures(ctx context.Context, features map[string]bool) error
}

// Editor holds the transient snapshot of the tenant feature set while a
// privileged user edits it. Toggles touch only the snapshot; Commit sends
// the whole snapshot as a full replace. A failed commit keeps the snapshot
// and the editor open so the user can retry without re-entering toggles.
type Editor struct {
	committer Committer
	reload    func()

	mu       sync.Mutex
	open     bool
	snapshot map[string]bool
	lastErr  string
}

// NewEditor wires the editor to the committing service and the reload hook
// invoked after a successful commit.
func NewEditor(c Committer, reload func()) *Editor {
	return &Editor{committer: c, reload: reload}
}

// Open copies the current feature set into the editing snapshot.
func (e *Editor) Open(current map[string]bool) (map[string]bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.open {
		return nil, ErrEditorOpen
	}
	e.open = true
	e.lastErr = ""
	e.snapshot = make(map[string]bool, len(current))
	for k, v := range current {
		e.snapshot[k] = v
	}
	return e.snapshotLocked(), nil
}

// Toggle flips one flag in the local snapshot only.
func (e *Editor) Toggle(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open {
		return ErrEditorClosed
	}
	e.snapshot[name] = !e.snapshot[name]
	return nil
}

// Snapshot returns a copy of the pending edit state.
func (e *Editor) Snapshot() (map[string]bool, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open {
		return nil, false
	}
	return e.snapshotLocked(), true
}

// LastError reports the failure message from the most recent commit
// attempt, if any.
func (e *Editor) LastError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Cancel discards the snapshot.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = false
	e.snapshot = nil
	e.lastErr = ""
}

// Commit replaces the server-side feature map with the snapshot. On
// success the editor closes and the configuration is fully reloaded so the
// dashboard reflects server truth; on failure the snapshot survives.
func (e *Editor) Commit(ctx context.Context) error {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return ErrEditorClosed
	}
	pending := e.snapshotLocked()
	e.mu.Unlock()

	if err := e.committer.ReplaceFeatures(ctx, pending); err != nil {
		e.mu.Lock()
		e.lastErr = err.Error()
		e.mu.Unlock()
		return fmt.Errorf("commit features: %w", err)
	}

	e.mu.Lock()
	e.open = false
	e.snapshot = nil
	e.lastErr = ""
	e.mu.Unlock()

	// Reload only after the write response is observed successful so a
	// stale read cannot win.
	if e.reload != nil {
		e.reload()
	}
	return nil
}

func (e *Editor) snapshotLocked() map[string]bool {
	out := make(map[string]bool, len(e.snapshot))
	for k, v := range e.snapshot {
		out[k] = v
	}
	return out
}
