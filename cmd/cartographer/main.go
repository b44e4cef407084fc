// # cmd/cartographer/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gobwas/glob"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"circular/internal/depgraph"
	"circular/internal/facade"
	"circular/internal/graphout"
	"circular/internal/model"
	"circular/internal/resolve"
	"circular/internal/runhistory"
	"circular/internal/settings"
	"circular/internal/tui"
)

const version = "1.0.0"

var (
	configPath  = flag.String("config", "./cartographer.toml", "Path to config file")
	dotOut      = flag.String("dot", "", "Write a DOT rendering of the resolved graph to this path")
	mermaidOut  = flag.String("mermaid", "", "Write a Mermaid rendering of the resolved graph to this path")
	tsvOut      = flag.String("tsv", "", "Write a TSV rendering of the resolved graph to this path")
	interactive = flag.Bool("interactive", false, "Launch the interactive graph browser instead of printing a summary")
	verbose     = flag.Bool("verbose", false, "Enable debug logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true)
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "batch" {
		runBatch(os.Args[2:])
		return
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("cartographer v%s\n", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: cartographer [flags] <entry-specifier>")
		os.Exit(1)
	}
	entry := flag.Arg(0)

	cfg, err := settings.Load(*configPath)
	if err != nil {
		cfg = settings.Default()
		slog.Debug("using default settings", "config_path", *configPath, "error", err)
	}

	var opts []facade.Option
	if cfg.History.Enabled {
		store, err := runhistory.Open(cfg.History.Path)
		if err != nil {
			slog.Error("failed to open history store", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		opts = append(opts, facade.WithHistory(store, cfg.History.Project))
	}

	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				slog.Error("metrics server exited", "error", err)
			}
		}()
	}

	cg := facade.New(cfg.Resolver.ToResolveConfig(), cfg.FanIn, opts...)

	root, err := cg.Analyze(context.Background(), entry)
	if err != nil {
		slog.Error("analyze failed", "entry", entry, "error", err)
		os.Exit(1)
	}

	if *dotOut != "" {
		writeOut(*dotOut, graphout.WriteDOT(root))
	}
	if *mermaidOut != "" {
		writeOut(*mermaidOut, graphout.WriteMermaid(root))
	}
	if *tsvOut != "" {
		writeOut(*tsvOut, graphout.WriteTSV(root))
	}

	if *interactive {
		if err := tui.Run(root); err != nil {
			slog.Error("tui exited with error", "error", err)
			os.Exit(1)
		}
		return
	}

	printSummary(root)
}

func writeOut(path, content string) {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		slog.Error("failed to write output", "path", path, "error", err)
	}
}

func printSummary(root *model.FileRecord) {
	files, deps, dynamic, unresolved := graphout.CountGraph(root)
	if unresolved == 0 {
		fmt.Println(successStyle.Render(fmt.Sprintf("resolved cleanly: %d files, %d dependencies", files, deps)))
	} else {
		fmt.Println(warnStyle.Render(fmt.Sprintf("%d unresolved dependencies", unresolved)))
	}
	fmt.Printf("files=%d dependencies=%d dynamic=%d unresolved=%d\n", files, deps, dynamic, unresolved)
}

// runBatch implements the `cartographer batch --root <dir> [--exclude
// <glob>]...` subcommand: it scans and resolves every .js file under
// root (skipping any path matching an exclude glob) and reports
// project-wide unresolved specifier counts, without requiring a single
// entry point.
func runBatch(args []string) {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	root := fs.String("root", ".", "Project root to walk")
	var excludes []string
	fs.Func("exclude", "glob pattern to exclude (repeatable)", func(s string) error {
		excludes = append(excludes, s)
		return nil
	})
	_ = fs.Parse(args)

	globs := make([]glob.Glob, 0, len(excludes))
	for _, pattern := range excludes {
		g, err := glob.Compile(pattern)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid exclude pattern %q: %v\n", pattern, err)
			os.Exit(1)
		}
		globs = append(globs, g)
	}

	cfg := settings.Default()
	cache := resolve.NewFileCache()
	resolver := resolve.NewResolver(cfg.Resolver.ToResolveConfig(), cache)
	grapher := depgraph.New(resolver, cfg.FanIn)

	var files, totalUnresolved int
	ctx := context.Background()

	err := filepath.Walk(*root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".js") {
			return nil
		}
		for _, g := range globs {
			if g.Match(path) {
				return nil
			}
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return nil
		}
		fr, err := resolver.Resolve(ctx, abs, filepath.Dir(abs))
		if err != nil {
			// resolver.Resolve expects a specifier relative to a base
			// directory; an absolute path resolves directly.
			return nil
		}
		if err := grapher.Analyze(ctx, fr); err != nil {
			slog.Error("batch analyze failed", "path", path, "error", err)
			return nil
		}
		files++
		_, _, _, unresolved := graphout.CountGraph(fr)
		totalUnresolved += unresolved
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "walk failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("scanned %d files, %d excludes applied, %d unresolved specifiers\n", files, len(globs), totalUnresolved)
}
