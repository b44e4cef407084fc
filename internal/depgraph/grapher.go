// Package depgraph implements the Dependency Grapher: given an entry
// File Record, it scans, resolves, and recursively walks its transitive
// imports, populating each File Record's dependency list exactly once.
package depgraph

import (
	"context"
	"errors"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	cerrors "circular/internal/core/errors"
	"circular/internal/model"
	"circular/internal/resolve"
	"circular/internal/scan"
	"circular/internal/shared/observability"
	"circular/internal/shared/util"
)

// readRate bounds how many files Analyze reads off disk per second
// across the whole recursive walk, independent of fanIn, which only
// bounds one file's sibling fan-out. A large file tree walked with a
// high fanIn would otherwise open thousands of file descriptors at
// once with no global backpressure.
const readRate = 200

// Grapher owns the per-directory resolution cache and shares a Resolver
// (and, through it, the process-wide file cache) with every recursive
// call it makes. A Grapher is safe for concurrent use.
type Grapher struct {
	resolver *resolve.Resolver
	reads    *util.Limiter

	mu    sync.Mutex
	dirs  map[string]map[string]cachedOutcome
	fanIn int
}

type cachedOutcome struct {
	file *model.FileRecord
	err  string
}

// New builds a Grapher backed by resolver. fanIn bounds how many
// sibling import descriptors of one file are resolved concurrently; 0
// or negative means unbounded (errgroup's default).
func New(resolver *resolve.Resolver, fanIn int) *Grapher {
	return &Grapher{
		resolver: resolver,
		reads:    util.NewLimiter(readRate, readRate),
		dirs:     make(map[string]map[string]cachedOutcome),
		fanIn:    fanIn,
	}
}

// Analyze populates file's dependency tree in place. It is idempotent:
// if file's dependency list has already been assigned (by this call or
// a previous one, including the in-progress sentinel a cyclic back-edge
// observes), it returns immediately without re-scanning.
func (g *Grapher) Analyze(ctx context.Context, file *model.FileRecord) error {
	if !file.TryBeginDependencies() {
		return nil
	}

	if err := g.reads.Wait(ctx, 1); err != nil {
		return err
	}
	contents, err := os.ReadFile(file.Path)
	if err != nil {
		return err
	}
	descriptors, err := scan.Scan(contents)
	if err != nil {
		return err
	}
	file.SetImports(contents, descriptors)

	records := make([]model.DependencyRecord, len(descriptors))
	grp, grpCtx := errgroup.WithContext(ctx)
	if g.fanIn > 0 {
		grp.SetLimit(g.fanIn)
	}

	for i, d := range descriptors {
		i, d := i, d
		grp.Go(func() error {
			rec, err := g.resolveOne(grpCtx, file, d)
			if err != nil {
				return err
			}
			records[i] = rec
			if rec.Target != nil {
				return g.Analyze(grpCtx, rec.Target)
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	observability.CartographerFilesTotal.Inc()
	file.SetDependencies(records)
	return nil
}

func (g *Grapher) resolveOne(ctx context.Context, file *model.FileRecord, d model.ImportDescriptor) (model.DependencyRecord, error) {
	if d.Dynamic {
		observability.CartographerUnresolvedTotal.Inc()
		return model.DependencyRecord{
			Specifier:  d.Specifier,
			Dynamic:    true,
			References: d.References,
			Error:      resolve.ErrUnresolvableDynamicImport,
		}, nil
	}

	dir := file.Dir()
	if cached, ok := g.peek(dir, d.Specifier); ok {
		if cached.err != "" {
			observability.CartographerUnresolvedTotal.Inc()
		}
		return model.DependencyRecord{
			Specifier:  d.Specifier,
			References: d.References,
			Target:     cached.file,
			Error:      cached.err,
		}, nil
	}

	target, err := g.resolver.Resolve(ctx, d.Specifier, dir)
	outcome := cachedOutcome{file: target}
	if err != nil {
		outcome.err = "unable to locate dependency: " + d.Specifier
		var de *cerrors.DomainError
		if errors.As(err, &de) && de.Code == cerrors.CodeMalformedManifest {
			outcome.err = de.Message
		}
		observability.CartographerUnresolvedTotal.Inc()
	}
	g.put(dir, d.Specifier, outcome)

	return model.DependencyRecord{
		Specifier:  d.Specifier,
		References: d.References,
		Target:     outcome.file,
		Error:      outcome.err,
	}, nil
}

func (g *Grapher) peek(dir, specifier string) (cachedOutcome, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	bySpec, ok := g.dirs[dir]
	if !ok {
		return cachedOutcome{}, false
	}
	outcome, ok := bySpec[specifier]
	return outcome, ok
}

func (g *Grapher) put(dir, specifier string, outcome cachedOutcome) {
	g.mu.Lock()
	defer g.mu.Unlock()
	bySpec, ok := g.dirs[dir]
	if !ok {
		bySpec = make(map[string]cachedOutcome)
		g.dirs[dir] = bySpec
	}
	bySpec[specifier] = outcome
}
