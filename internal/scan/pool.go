// Package scan implements the Source Scanner: given a file's bytes, it
// parses them with tree-sitter's JavaScript grammar and extracts every
// require() call site into model.ImportDescriptor values.
package scan

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

// parserPool recycles tree-sitter parser instances across Scan calls,
// avoiding a NewParser/Close pair per file.
type parserPool struct {
	lang *sitter.Language
	pool sync.Pool
}

var jsPool = newParserPool()

func newParserPool() *parserPool {
	lang := sitter.NewLanguage(tree_sitter_javascript.Language())
	p := &parserPool{lang: lang}
	p.pool = sync.Pool{
		New: func() any {
			sp := sitter.NewParser()
			sp.SetLanguage(lang)
			return sp
		},
	}
	return p
}

func (p *parserPool) get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	sp.SetLanguage(p.lang)
	return sp
}

func (p *parserPool) put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	sp.Reset()
	p.pool.Put(sp)
}
