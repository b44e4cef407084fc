// Package graphout renders the resolved dependency graph reachable from
// a root *model.FileRecord as DOT, Mermaid, or TSV text.
package graphout

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"circular/internal/model"
)

// edge is one flattened (from, to-or-error) pair, collected by walking
// the graph once with the same visited-set idiom the grapher and
// facade use for cycle safety.
type edge struct {
	from     string
	to       string
	dynamic  bool
	errMsg   string
	line     int
	column   int
}

func collectEdges(root *model.FileRecord) []edge {
	seen := map[string]bool{}
	var edges []edge
	var walk func(f *model.FileRecord)
	walk = func(f *model.FileRecord) {
		if f == nil || seen[f.Path] {
			return
		}
		seen[f.Path] = true
		records, _ := f.Dependencies()
		for _, d := range records {
			e := edge{from: f.Path, dynamic: d.Dynamic, errMsg: d.Error}
			if len(d.References) > 0 {
				r := d.References[0]
				e.line, e.column = r.Start, r.End
			}
			if d.Target != nil {
				e.to = d.Target.Path
			} else {
				e.to = d.Specifier
			}
			edges = append(edges, e)
			if d.Target != nil {
				walk(d.Target)
			}
		}
	}
	walk(root)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		return edges[i].to < edges[j].to
	})
	return edges
}

// WriteDOT renders the graph as a Graphviz digraph, unresolved edges
// drawn dashed and red.
func WriteDOT(root *model.FileRecord) string {
	var buf strings.Builder
	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n\n")

	for _, e := range collectEdges(root) {
		from := label(e.from)
		to := label(e.to)
		if e.errMsg != "" {
			buf.WriteString(fmt.Sprintf("  %q -> %q [style=dashed, color=red, label=%q];\n", from, to, e.errMsg))
			continue
		}
		buf.WriteString(fmt.Sprintf("  %q -> %q;\n", from, to))
	}
	buf.WriteString("}\n")
	return buf.String()
}

// WriteMermaid renders the graph as a Mermaid flowchart.
func WriteMermaid(root *model.FileRecord) string {
	var buf strings.Builder
	buf.WriteString("flowchart LR\n")
	for _, e := range collectEdges(root) {
		from := mermaidID(e.from)
		to := mermaidID(e.to)
		if e.errMsg != "" {
			buf.WriteString(fmt.Sprintf("  %s[\"%s\"] -.->|%s| %s[\"%s\"]\n", from, label(e.from), e.errMsg, to, label(e.to)))
			continue
		}
		buf.WriteString(fmt.Sprintf("  %s[\"%s\"] --> %s[\"%s\"]\n", from, label(e.from), to, label(e.to)))
	}
	return buf.String()
}

// WriteTSV renders the graph as a tab-separated From/To/Dynamic/Error
// table, one row per edge.
func WriteTSV(root *model.FileRecord) string {
	var buf strings.Builder
	buf.WriteString("From\tTo\tDynamic\tError\n")
	for _, e := range collectEdges(root) {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%t\t%s\n", e.from, e.to, e.dynamic, e.errMsg))
	}
	return buf.String()
}

// CountGraph walks the resolved graph reachable from root, once, using
// the same visited-set idiom as collectEdges, and reports aggregate
// counts a caller can use for a summary line or a history snapshot.
func CountGraph(root *model.FileRecord) (files, dependencies, dynamic, unresolved int) {
	seen := map[string]bool{}
	var walk func(f *model.FileRecord)
	walk = func(f *model.FileRecord) {
		if f == nil || seen[f.Path] {
			return
		}
		seen[f.Path] = true
		files++
		records, _ := f.Dependencies()
		for _, d := range records {
			dependencies++
			if d.Dynamic {
				dynamic++
			}
			if d.Target == nil {
				unresolved++
				continue
			}
			walk(d.Target)
		}
	}
	walk(root)
	return
}

func label(path string) string {
	return filepath.Base(path)
}

func mermaidID(path string) string {
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, path)
	return id
}
