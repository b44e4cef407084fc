package scan

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"circular/internal/model"
)

// Scan parses contents as a module-mode JavaScript source file and
// returns its import descriptors in order of first sighting. Multiple
// call sites with identical specifier text are folded into one
// descriptor with multiple References, per the folding rule.
//
// The walk recurses into every child of every node regardless of kind,
// never hand-enumerating a node schema, so require() calls nested
// inside switch cases, block statements, arrow function bodies, or any
// other construct are found the same way a top-level call is. Nested
// function expressions are walked too; no scope analysis is performed.
func Scan(contents []byte) ([]model.ImportDescriptor, error) {
	sp := jsPool.get()
	defer jsPool.put(sp)

	tree := sp.Parse(contents, nil)
	defer tree.Close()

	w := &walker{source: contents, order: make([]string, 0), byPath: make(map[string]int)}
	w.walk(tree.RootNode())

	out := make([]model.ImportDescriptor, len(w.order))
	for i, specifier := range w.order {
		out[i] = w.descriptors[specifier]
	}
	return out, nil
}

type walker struct {
	source      []byte
	order       []string
	byPath      map[string]int
	descriptors map[string]model.ImportDescriptor
}

func (w *walker) walk(node *sitter.Node) {
	if node == nil {
		return
	}
	if node.Kind() == "call_expression" {
		w.visitCall(node)
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		w.walk(node.Child(i))
	}
}

// visitCall records a require() call site if node qualifies: its callee
// is the bare identifier "require" and it has exactly one argument.
func (w *walker) visitCall(node *sitter.Node) {
	callee := node.ChildByFieldName("function")
	if callee == nil || callee.Kind() != "identifier" || w.text(callee) != "require" {
		return
	}
	args := node.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() != 1 {
		return
	}
	arg := args.NamedChild(0)

	var specifier string
	dynamic := false
	if arg.Kind() == "string" {
		specifier = stripQuotes(w.text(arg))
	} else {
		dynamic = true
		specifier = w.text(arg)
	}

	ref := model.Reference{
		Source: w.text(node),
		Start:  int(node.StartByte()),
		End:    int(node.EndByte()),
	}
	w.fold(specifier, dynamic, ref)
}

func (w *walker) fold(specifier string, dynamic bool, ref model.Reference) {
	if w.descriptors == nil {
		w.descriptors = make(map[string]model.ImportDescriptor)
	}
	if _, ok := w.byPath[specifier]; !ok {
		w.byPath[specifier] = len(w.order)
		w.order = append(w.order, specifier)
		w.descriptors[specifier] = model.ImportDescriptor{Specifier: specifier, Dynamic: dynamic}
	}
	d := w.descriptors[specifier]
	d.References = append(d.References, ref)
	w.descriptors[specifier] = d
}

func (w *walker) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(w.source[node.StartByte():node.EndByte()])
}

// stripQuotes removes the first and last code unit of a string literal's
// source text, the way the reference scanner obtains a literal's value
// without interpreting escape sequences.
func stripQuotes(lit string) string {
	if len(lit) < 2 {
		return lit
	}
	return lit[1 : len(lit)-1]
}
