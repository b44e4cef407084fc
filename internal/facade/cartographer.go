// Package facade exposes Cartographer, the single entry point consumers
// use: resolve an entry specifier, walk its transitive dependencies,
// and return the populated root File Record.
package facade

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	cerrors "circular/internal/core/errors"
	"circular/internal/depgraph"
	"circular/internal/graphout"
	"circular/internal/model"
	"circular/internal/resolve"
	"circular/internal/runhistory"
	"circular/internal/shared/observability"
)

var tracer = otel.Tracer("cartographer")

// Cartographer owns one Resolver and one Grapher, built to share a file
// cache, and an optional history store for run snapshots.
type Cartographer struct {
	resolver *resolve.Resolver
	grapher  *depgraph.Grapher
	history  *runhistory.Store
	project  string
}

// Option configures a Cartographer at construction time.
type Option func(*Cartographer)

// WithHistory records one snapshot per Analyze call to store, under
// project key; a failed call is recorded with its error message.
func WithHistory(store *runhistory.Store, project string) Option {
	return func(c *Cartographer) {
		c.history = store
		c.project = project
	}
}

// New builds a Cartographer from a Resolver Configuration and a fan-in
// bound for the grapher's sibling resolution (see depgraph.New).
func New(cfg resolve.Config, fanIn int, opts ...Option) *Cartographer {
	cache := resolve.NewFileCache()
	resolver := resolve.NewResolver(cfg, cache)
	c := &Cartographer{
		resolver: resolver,
		grapher:  depgraph.New(resolver, fanIn),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze resolves specifier against the process working directory,
// walks its transitive dependency graph, and returns the root File
// Record with its dependency tree populated in place. Resolver misses
// surface as "file not found: <specifier>" per the facade's error
// contract; all other per-edge failures are recorded on the graph
// itself and do not fail this call.
func (c *Cartographer) Analyze(ctx context.Context, specifier string) (*model.FileRecord, error) {
	if specifier == "" {
		return nil, cerrors.New(cerrors.CodeValidationError, "specifier is required")
	}

	runID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "Cartographer.Analyze", trace.WithAttributes(
		attribute.String("specifier", specifier),
		attribute.String("run_id", runID),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	root, err := c.resolver.Resolve(ctx, specifier, cwd)
	if err != nil {
		if cerrors.IsCode(err, cerrors.CodeUnresolved) {
			err = cerrors.Wrap(err, cerrors.CodeNotFound, fmt.Sprintf("file not found: %s", specifier))
		}
		c.recordHistory(nil, time.Since(start), err)
		observability.CartographerAnalyzeDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, err
	}

	if err := c.grapher.Analyze(ctx, root); err != nil {
		c.recordHistory(root, time.Since(start), err)
		observability.CartographerAnalyzeDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, err
	}

	c.recordHistory(root, time.Since(start), nil)
	observability.CartographerAnalyzeDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	return root, nil
}

func (c *Cartographer) recordHistory(root *model.FileRecord, elapsed time.Duration, analyzeErr error) {
	if c.history == nil {
		return
	}
	snap := runhistory.Snapshot{
		Project:  c.project,
		Duration: elapsed,
	}
	if root != nil {
		snap.Entry = root.Path
		snap.FileCount, snap.DependencyCount, snap.DynamicCount, snap.UnresolvedCount = graphout.CountGraph(root)
	}
	if analyzeErr != nil {
		snap.Error = analyzeErr.Error()
	}
	_ = c.history.SaveSnapshot(snap)
}
