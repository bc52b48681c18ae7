// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"
	"sync"

	"github.com/luthersystems/cool/analysis"
	"github.com/luthersystems/cool/ast"
	"github.com/luthersystems/cool/coolutil"
	"github.com/luthersystems/cool/parser/rdparser"
	"github.com/luthersystems/cool/parser/token"
)

// Document represents an open text document tracked by the LSP server.
type Document struct {
	mu       sync.Mutex
	URI      string
	Version  int32
	Content  string
	unit     *ast.Program
	analysis *Analysis
	parseErr error
}

// Analysis is the semantic analysis of a document.
type Analysis struct {
	// Program is the document's classes assembled with the built-in
	// classes.
	Program *ast.Program
	// Hierarchy is nil when the class hierarchy could not be built.
	Hierarchy *analysis.Hierarchy
	// Errors holds the hierarchy error, or the first type error of each
	// class of the document that failed to check.
	Errors []error
}

// parse parses the document content and caches the AST.
// It uses a fault-tolerant approach: if the standard parser fails
// (e.g., on incomplete input), it falls back to parsing
// class-by-class, collecting what it can.
func (d *Document) parse() {
	scanner := token.NewScanner(uriToPath(d.URI), strings.NewReader(d.Content))
	p := rdparser.New(scanner)
	unit, err := p.ParseProgram()
	if err == nil {
		d.unit = unit
		d.parseErr = nil
		return
	}
	// Fault-tolerant fallback: re-parse, collecting classes one at a
	// time until we hit the error.
	d.parseErr = err
	scanner2 := token.NewScanner(uriToPath(d.URI), strings.NewReader(d.Content))
	p2 := rdparser.New(scanner2)
	partial := &ast.Program{}
	for {
		c, parseErr := p2.ParseClass()
		if parseErr != nil {
			break
		}
		partial.Classes = append(partial.Classes, c)
		if !p2.Accept(token.SEMI) {
			break
		}
	}
	d.unit = partial
}

// analyze builds the hierarchy of the cached AST and type checks each of
// its classes, annotating expressions with their static types.
func (d *Document) analyze() {
	d.analysis = &Analysis{}
	if d.unit == nil {
		return
	}
	prog := coolutil.Assemble(d.unit)
	d.analysis.Program = prog
	hier, err := analysis.BuildHierarchy(prog)
	if err != nil {
		d.analysis.Errors = append(d.analysis.Errors, err)
		return
	}
	d.analysis.Hierarchy = hier
	for _, c := range d.unit.Classes {
		if err := analysis.CheckClass(prog, hier, c.Name); err != nil {
			d.analysis.Errors = append(d.analysis.Errors, err)
		}
	}
}

// DocumentStore manages open documents with thread-safe access.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Open adds a document to the store and parses it.
func (s *DocumentStore) Open(uri string, version int32, content string) *Document {
	doc := &Document{
		URI:     uri,
		Version: version,
		Content: content,
	}
	doc.parse()
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

// Change updates a document's content (full sync) and re-parses it.
func (s *DocumentStore) Change(uri string, version int32, content string) *Document {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &Document{URI: uri}
		s.docs[uri] = doc
	}
	s.mu.Unlock()

	doc.mu.Lock()
	doc.Version = version
	doc.Content = content
	doc.parse()
	// Clear cached analysis; it will be rebuilt on next request.
	doc.analysis = nil
	doc.mu.Unlock()
	return doc
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// Get retrieves a document by URI. Returns nil if not found.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}

