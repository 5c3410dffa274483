// Package assets loads the optional text-art used by the console renderer.
package assets

import (
	"context"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Names lists every asset the cabinet knows about.
var Names = []string{"cabinet", "seven", "bar", "bell", "cherry"}

// Ext is appended to an asset name to form its file name.
const Ext = ".txt"

// Set holds loaded art by asset name.
type Set struct {
	mu     sync.RWMutex
	art    map[string]string
	failed int
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{art: make(map[string]string)}
}

// Get returns the art for name.
func (s *Set) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.art[name]
	return a, ok
}

// Loaded returns how many assets loaded successfully.
func (s *Set) Loaded() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.art)
}

// Failed returns how many assets could not be loaded.
func (s *Set) Failed() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failed
}

func (s *Set) put(name, art string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.art[name] = art
}

func (s *Set) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
}

// Loader reads assets from a file system.
type Loader struct {
	fsys fs.FS
}

// NewLoader reads assets from dir.
func NewLoader(dir string) *Loader {
	return &Loader{fsys: os.DirFS(dir)}
}

// NewLoaderFS reads assets from fsys.
func NewLoaderFS(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// Load reads every asset into set and then calls ready exactly once. A
// missing or unreadable asset counts as done: the game never waits on art.
func (l *Loader) Load(ctx context.Context, set *Set, ready func()) {
	defer ready()

	for _, name := range Names {
		if ctx.Err() != nil {
			log.Debug().Msg("Asset loading cancelled")
			return
		}

		data, err := fs.ReadFile(l.fsys, name+Ext)
		if err != nil {
			log.Warn().Err(err).Str("asset", name).Msg("Failed to load asset")
			set.fail()
			continue
		}
		set.put(name, strings.TrimRight(string(data), "\n"))
	}

	log.Info().
		Int("loaded", set.Loaded()).
		Int("failed", set.Failed()).
		Msg("Assets ready")
}
