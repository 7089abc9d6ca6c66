package skill

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// scanConcurrency bounds the parallel metadata loads during a scan.
const scanConcurrency = 8

// Registry owns the skill catalog. Metadata for every discovered skill is
// loaded eagerly by Scan; full definitions are loaded lazily by LoadFull and
// cached for the registry's lifetime. Both maps are safe for concurrent use,
// and concurrent first-time LoadFull calls for the same name collapse into a
// single descriptor read.
type Registry struct {
	root string

	mu          sync.RWMutex
	metadata    map[string]Metadata
	definitions map[string]*Definition
	loaded      bool

	flight singleflight.Group
}

// NewRegistry creates a registry rooted at dir. No I/O happens until Scan.
func NewRegistry(dir string) *Registry {
	return &Registry{
		root:        dir,
		metadata:    make(map[string]Metadata),
		definitions: make(map[string]*Definition),
	}
}

// Root returns the skills root directory.
func (r *Registry) Root() string { return r.root }

// Scan enumerates every immediate subdirectory of the root that contains a
// descriptor file and loads its metadata in parallel. A malformed descriptor
// is logged and skipped; only a missing root directory is fatal. Scanning
// again refreshes metadata but leaves the definition cache untouched.
func (r *Registry) Scan(ctx context.Context) (map[string]Metadata, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, r.root)
		}
		return nil, fmt.Errorf("read skills dir %s: %w", r.root, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(r.root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, DescriptorFile)); err != nil {
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			meta, err := readMetadata(dir)
			if err != nil {
				slog.Warn("failed to load skill metadata", "dir", dir, "error", err)
				return nil
			}
			r.mu.Lock()
			r.metadata[meta.Name] = meta
			r.mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.loaded = true
	snapshot := make(map[string]Metadata, len(r.metadata))
	for name, meta := range r.metadata {
		snapshot[name] = meta
	}
	r.mu.Unlock()

	slog.Debug("skill scan completed", "root", r.root, "skills", len(snapshot))
	return snapshot, nil
}

// LoadFull returns the complete definition for name, reading the descriptor
// on first access and serving the cached instance afterwards. Concurrent
// first-time calls for the same name perform exactly one descriptor read.
func (r *Registry) LoadFull(ctx context.Context, name string) (*Definition, error) {
	r.mu.RLock()
	if def, ok := r.definitions[name]; ok {
		r.mu.RUnlock()
		return def, nil
	}
	r.mu.RUnlock()

	v, err, _ := r.flight.Do(name, func() (any, error) {
		// Re-check under the flight: a previous caller may have populated
		// the cache between the read above and entering the group.
		r.mu.RLock()
		def, cached := r.definitions[name]
		meta, known := r.metadata[name]
		r.mu.RUnlock()
		if cached {
			return def, nil
		}
		if !known {
			return nil, &NotFoundError{Name: name, Known: r.SkillNames()}
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		def, err := readDefinition(filepath.Join(r.root, name), meta)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.definitions[name] = def
		r.mu.Unlock()
		return def, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Definition), nil
}

// Definition returns the cached definition for name, or nil if it has not
// been loaded. It never triggers I/O.
func (r *Registry) Definition(name string) *Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.definitions[name]
}

// Get returns the metadata for name.
func (r *Registry) Get(name string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.metadata[name]
	return meta, ok
}

// List returns all catalog entries, optionally restricted to skills whose
// tag set intersects tags. Results are sorted by name for stable output
// within a process run.
func (r *Registry) List(tags []string) []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Metadata, 0, len(r.metadata))
	for _, meta := range r.metadata {
		if meta.HasTag(tags) {
			result = append(result, meta)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// SkillNames returns all registered skill names, sorted.
func (r *Registry) SkillNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.metadata))
	for name := range r.metadata {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsLoaded reports whether a scan has completed.
func (r *Registry) IsLoaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// ClearCache drops all cached definitions and reports how many were held.
// The metadata catalog is kept; subsequent LoadFull calls re-read descriptors.
func (r *Registry) ClearCache() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := len(r.definitions)
	r.definitions = make(map[string]*Definition)
	return dropped
}
