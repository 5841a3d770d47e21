// Package vaultwatch optionally monitors the proofs/ and manifests/
// subtrees of a vault for externally-written artifacts, so a long-running
// collaborator (e.g. a status daemon) can react to new proofs or
// manifests without polling. The authority core itself has no
// background timers or threads (spec.md §5); this package is strictly
// an external, optional watcher bolted onto the vault from outside the
// single-writer core.
package vaultwatch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventKind distinguishes which vault subtree produced an event.
type EventKind int

const (
	ManifestWritten EventKind = iota
	ProofWritten
)

func (k EventKind) String() string {
	switch k {
	case ManifestWritten:
		return "manifest_written"
	case ProofWritten:
		return "proof_written"
	default:
		return "unknown"
	}
}

// Event reports a settled (debounced) write under a watched subtree.
type Event struct {
	Kind      EventKind
	Path      string
	Timestamp time.Time
}

// Watcher monitors the proofs/ and/or manifests/ directories of a vault
// root for new or modified *.json files, emitting one Event per file
// once writes to it have been quiet for the debounce interval. Vault
// writes are atomic (tmp-then-rename, see internal/vault), so a
// renamed-into-place file is always complete by the time fsnotify
// reports it; the debounce window exists only to coalesce editors or
// tools that touch a path more than once in quick succession.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	roots     map[string]EventKind
	debounce  time.Duration

	stateMu sync.Mutex
	state   map[string]time.Time // path -> last observed event time

	events chan Event
	errors chan error
	done   chan struct{}
	wg     sync.WaitGroup
}

// New builds a Watcher over manifestsDir and proofsDir (either may be
// empty to skip watching that subtree) with the given debounce window.
func New(manifestsDir, proofsDir string, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	roots := make(map[string]EventKind)
	if manifestsDir != "" {
		roots[manifestsDir] = ManifestWritten
	}
	if proofsDir != "" {
		roots[proofsDir] = ProofWritten
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		roots:     roots,
		debounce:  debounce,
		state:     make(map[string]time.Time),
		events:    make(chan Event, 64),
		errors:    make(chan error, 8),
		done:      make(chan struct{}),
	}, nil
}

// Events returns the channel of settled vault writes.
func (w *Watcher) Events() <-chan Event { return w.events }

// Errors returns the channel of watch errors.
func (w *Watcher) Errors() <-chan error { return w.errors }

// Start begins watching every configured root and its immediate
// fingerprint-prefixed subdirectories (proofs/<fp>/, manifests/<fp>/),
// since fsnotify does not recurse.
func (w *Watcher) Start() error {
	for root := range w.roots {
		if err := w.addTree(root); err != nil {
			return err
		}
	}
	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	return nil
}

func (w *Watcher) addTree(root string) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}
	if err := w.fsWatcher.Add(root); err != nil {
		return err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := w.fsWatcher.Add(filepath.Join(root, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stop shuts down the watcher and closes its channels.
func (w *Watcher) Stop() error {
	close(w.done)
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return w.fsWatcher.Close()
}

func (w *Watcher) kindFor(path string) (EventKind, bool) {
	for root, kind := range w.roots {
		if rel, err := filepath.Rel(root, path); err == nil && rel != "." && !filepath.IsAbs(rel) {
			return kind, true
		}
	}
	return 0, false
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Ext(ev.Name) != ".json" {
				continue
			}
			info, err := os.Stat(ev.Name)
			if err != nil || info.IsDir() {
				continue
			}
			w.stateMu.Lock()
			w.state[ev.Name] = time.Now()
			w.stateMu.Unlock()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case now := <-ticker.C:
			w.flushSettled(now)
		}
	}
}

func (w *Watcher) flushSettled(now time.Time) {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	threshold := now.Add(-w.debounce)
	for path, lastSeen := range w.state {
		if lastSeen.After(threshold) {
			continue
		}
		kind, ok := w.kindFor(path)
		if !ok {
			delete(w.state, path)
			continue
		}
		select {
		case w.events <- Event{Kind: kind, Path: path, Timestamp: now}:
			delete(w.state, path)
		default:
		}
	}
}
