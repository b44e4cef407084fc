package resolve

import (
	"math"
	"path/filepath"
	"sync"

	"circular/internal/engine/graph"
	"circular/internal/model"
)

// unboundedCapacity configures the shared LRUCache so eviction never
// triggers in practice. Exactly one FileRecord must exist per absolute
// path for the life of the process, which real eviction would violate;
// reusing graph.LRUCache with a capacity far beyond any real run keeps
// one cache implementation in the codebase instead of adding a second,
// bespoke unbounded map type.
const unboundedCapacity = math.MaxInt32

// FileCache is the process-wide, path-keyed file cache. It is shared
// across every Resolver and Grapher instance that is given it, so
// resolving the same absolute path from two different Resolve calls,
// or from a Resolver and the Grapher that owns it, always yields the
// same *model.FileRecord pointer.
type FileCache struct {
	entries *graph.LRUCache[string, *model.FileRecord]
	mu      sync.Mutex // guards check-then-create below
}

// NewFileCache constructs an empty, effectively unbounded file cache.
func NewFileCache() *FileCache {
	return &FileCache{entries: graph.NewLRUCache[string, *model.FileRecord](unboundedCapacity)}
}

// GetOrCreate returns the FileRecord for abs, creating and caching one
// if this is the first time abs has been seen. abs must already be a
// cleaned absolute path; callers are responsible for normalizing
// (filepath.Clean + filepath.Abs) before calling this, since the cache
// key is the literal string.
func (c *FileCache) GetOrCreate(abs string) *model.FileRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	if fr, ok := c.entries.Get(abs); ok {
		return fr
	}
	fr := &model.FileRecord{Path: abs}
	c.entries.Put(abs, fr)
	return fr
}

// Peek returns the cached FileRecord for abs without creating one.
func (c *FileCache) Peek(abs string) (*model.FileRecord, bool) {
	return c.entries.Peek(abs)
}

// Len reports how many distinct paths have been resolved so far.
func (c *FileCache) Len() int {
	return c.entries.Len()
}

func cleanAbs(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}
