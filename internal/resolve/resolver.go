// Package resolve implements the CommonJS-style module resolution
// algorithm: turning one (specifier, base directory) pair into a
// FileRecord or a typed miss, the way Node's require() resolution does.
// Relative specifiers join and probe extensions, absolute specifiers
// probe directly, bare specifiers walk node_modules upward from the
// base directory.
package resolve

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	cerrors "circular/internal/core/errors"
	"circular/internal/model"
	"circular/internal/shared/observability"

	"golang.org/x/sync/singleflight"
)

// Resolver resolves specifiers against a Resolver Configuration,
// sharing a process-wide FileCache so every absolute path it resolves
// has exactly one FileRecord for the life of the process.
type Resolver struct {
	cfg    Config
	cache  *FileCache
	sf     singleflight.Group
	logger *slog.Logger
}

// NewResolver builds a Resolver against cfg, backed by cache. Passing
// the same *FileCache to multiple Resolvers (or to a Grapher) is how
// the path-keyed file cache ends up shared across them.
func NewResolver(cfg Config, cache *FileCache) *Resolver {
	return &Resolver{cfg: cfg, cache: cache, logger: slog.Default()}
}

// WithLogger overrides the resolver's logger, returning the same
// Resolver for chaining.
func (r *Resolver) WithLogger(l *slog.Logger) *Resolver {
	if l != nil {
		r.logger = l
	}
	return r
}

// Resolve turns specifier, as written in a require() call inside the
// file at baseDir, into a FileRecord. Concurrent calls for the same
// (baseDir, specifier) pair are deduplicated via singleflight so only
// one of them actually walks the filesystem; the rest observe the same
// result.
func (r *Resolver) Resolve(ctx context.Context, specifier, baseDir string) (*model.FileRecord, error) {
	start := time.Now()
	key := baseDir + "\x00" + specifier
	v, err, _ := r.sf.Do(key, func() (any, error) {
		return r.resolveUncached(ctx, specifier, baseDir)
	})
	observability.CartographerResolveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return v.(*model.FileRecord), nil
}

func (r *Resolver) resolveUncached(ctx context.Context, specifier, baseDir string) (*model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if isRelativeSpecifier(specifier) || filepath.IsAbs(specifier) {
		return r.resolveRelativeOrAbsolute(specifier, baseDir)
	}
	return r.resolveBareModule(specifier, baseDir)
}

// isRelativeSpecifier reports whether specifier must be joined against
// baseDir rather than walked as a bare module name.
func isRelativeSpecifier(specifier string) bool {
	return specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

// resolveRelativeOrAbsolute implements the relative/absolute branch of
// the algorithm: join (preserving a trailing slash, which forces
// directory resolution and skips the file-resolution attempt entirely)
// and then try file resolution before directory resolution.
func (r *Resolver) resolveRelativeOrAbsolute(specifier, baseDir string) (*model.FileRecord, error) {
	var joined string
	if filepath.IsAbs(specifier) {
		joined = specifier
	} else {
		joined = filepath.Join(baseDir, specifier)
	}

	forcedDirectory := strings.HasSuffix(specifier, "/") && specifier != "/"

	if !forcedDirectory {
		if fr := r.loadAsFile(joined); fr != nil {
			return fr, nil
		}
	}
	if fr, err := r.loadAsDirectory(joined); err != nil {
		return nil, err
	} else if fr != nil {
		return fr, nil
	}

	return nil, withSpecifier(cerrors.New(cerrors.CodeUnresolved, fileNotFoundMsg(specifier)), specifier)
}

// resolveBareModule walks ancestor directories of baseDir, probing
// each configured Modules directory name for specifier, the way
// node_modules resolution walks upward toward the filesystem root.
func (r *Resolver) resolveBareModule(specifier, baseDir string) (*model.FileRecord, error) {
	dir := filepath.Clean(baseDir)
	for {
		for _, modulesDir := range r.cfg.Modules {
			candidate := filepath.Join(dir, modulesDir, specifier)
			if fr := r.loadAsFile(candidate); fr != nil {
				return fr, nil
			}
			if fr, err := r.loadAsDirectory(candidate); err != nil {
				return nil, err
			} else if fr != nil {
				return fr, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return nil, withSpecifier(cerrors.New(cerrors.CodeUnresolved, fileNotFoundMsg(specifier)), specifier)
}

// loadAsFile probes path with each configured extension in order and
// returns the FileRecord for the first candidate that exists as a
// regular file, or nil if none do.
func (r *Resolver) loadAsFile(path string) *model.FileRecord {
	for _, ext := range r.cfg.Extensions {
		candidate := path + ext
		if isRegularFile(candidate, r.logger) {
			return r.fileRecordFor(candidate)
		}
	}
	return nil
}

// loadAsDirectory implements directory resolution: probe each
// configured manifest filename in order, and for the first one found,
// take the first Mains entry that resolves to a truthy leaf (the rest
// of the Mains list is never consulted once one leaf is chosen). That
// single entry string is tried as a file, then as a directory with its
// own index fallback; if neither exists, resolution falls through to
// this directory's own Index filename, without probing any further
// Packages entries. A manifest that exists but fails to parse is a
// hard error, not a fallthrough to index.
func (r *Resolver) loadAsDirectory(dir string) (*model.FileRecord, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	for _, pkgName := range r.cfg.Packages {
		manifestPath := filepath.Join(dir, pkgName)
		if !isRegularFile(manifestPath, r.logger) {
			continue
		}

		m, err := readManifest(manifestPath)
		if err != nil {
			return nil, cerrors.AddContext(err, cerrors.CtxPath, manifestPath)
		}

		var entry string
		var haveEntry bool
		for _, mainSpec := range r.cfg.Mains {
			if rel, ok := m.lookup(mainSpec); ok {
				entry, haveEntry = rel, true
				break
			}
		}
		if haveEntry {
			entryPath := filepath.Join(dir, entry)
			if fr := r.loadAsFile(entryPath); fr != nil {
				return fr, nil
			}
			if fr, err := r.loadAsEntryIndex(entryPath); err != nil {
				return nil, err
			} else if fr != nil {
				return fr, nil
			}
		}
		// Manifest found but the chosen entry (if any) resolved to
		// nothing: fall through to this directory's index resolution
		// below, do not keep probing further Packages entries.
		break
	}

	if r.cfg.Index == "" {
		return nil, nil
	}
	indexPath := filepath.Join(dir, r.cfg.Index)
	return r.loadAsFile(indexPath), nil
}

// loadAsEntryIndex implements step 5's fallback: when a manifest's
// chosen main entry names a directory rather than a file, probe that
// directory's own Index filename before giving up on the manifest
// entirely.
func (r *Resolver) loadAsEntryIndex(entryPath string) (*model.FileRecord, error) {
	info, err := os.Stat(entryPath)
	if err != nil || !info.IsDir() {
		return nil, nil
	}
	if r.cfg.Index == "" {
		return nil, nil
	}
	indexPath := filepath.Join(entryPath, r.cfg.Index)
	return r.loadAsFile(indexPath), nil
}

func (r *Resolver) fileRecordFor(path string) *model.FileRecord {
	abs, err := cleanAbs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	return r.cache.GetOrCreate(abs)
}

func withSpecifier(err error, specifier string) error {
	return cerrors.AddContext(err, cerrors.CtxSpecifier, specifier)
}

// isRegularFile stats path and reports whether it exists as a regular
// file. Any stat error, not just "does not exist", is folded into "does
// not exist" at this boundary: a permission-denied directory encountered
// mid-walk is indistinguishable from a nonexistent one to the resolver.
// Logged at debug level so the seam is visible when investigating a
// surprising miss.
func isRegularFile(path string, logger *slog.Logger) bool {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) && logger != nil {
			logger.Debug("resolver: stat error folded into miss", "path", path, "error", err)
		}
		return false
	}
	return info.Mode().IsRegular()
}
