// Copyright © 2024 The ELPS authors

// Package lsp implements a Language Server Protocol server for COOL.
// It provides diagnostics, hover, go-to-definition, references,
// completion, document symbols, folding and formatting support.
package lsp

import (
	"os"
	"sync"
	"time"

	"github.com/luthersystems/cool/lint"
	"github.com/tliron/glsp"
	glspserver "github.com/tliron/glsp/server"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const (
	serverName    = "cool-lsp"
	serverVersion = "0.1.0"
)

// Server is the COOL language server.  Documents are analyzed lazily and
// diagnostics are published after edits settle for the debounce delay.
type Server struct {
	handler  protocol.Handler
	glspSrv  *glspserver.Server
	docs     *DocumentStore
	rootURI  string
	rootPath string

	// linter runs on every published document.  It never includes the
	// typecheck analyzer because the document analysis reports type errors.
	linter *lint.Linter

	delay      time.Duration
	debounceMu sync.Mutex
	debounce   map[string]*time.Timer

	// notify is captured from the latest request so that debounced
	// diagnostics can be sent outside of a request.
	notifyMu sync.Mutex
	notify   glsp.NotifyFunc

	// exitFn handles the exit notification.  Tests replace os.Exit.
	exitFn func(int)
}

// Option configures the LSP server.
type Option func(*Server)

// WithAnalyzers replaces the lint checks run on every document.
func WithAnalyzers(analyzers ...*lint.Analyzer) Option {
	return func(s *Server) { s.linter = &lint.Linter{Analyzers: withoutTypecheck(analyzers)} }
}

// WithDebounce sets how long the server waits after the last change to a
// document before publishing its diagnostics.
func WithDebounce(d time.Duration) Option {
	return func(s *Server) { s.delay = d }
}

// New creates a new COOL LSP server.
func New(opts ...Option) *Server {
	s := &Server{
		docs:     NewDocumentStore(),
		linter:   &lint.Linter{Analyzers: withoutTypecheck(lint.DefaultAnalyzers())},
		delay:    debounceDelay,
		debounce: make(map[string]*time.Timer),
		exitFn:   os.Exit,
	}
	for _, o := range opts {
		o(s)
	}
	s.handler = s.routes()
	s.glspSrv = glspserver.NewServer(&s.handler, serverName, false)
	return s
}

func (s *Server) routes() protocol.Handler {
	return protocol.Handler{
		Initialize: s.initialize,
		Shutdown:   s.shutdown,
		Exit:       s.exit,
		SetTrace:   s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentHover:          s.textDocumentHover,
		TextDocumentDefinition:     s.textDocumentDefinition,
		TextDocumentCompletion:     s.textDocumentCompletion,
		TextDocumentReferences:     s.textDocumentReferences,
		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
		TextDocumentFormatting:     s.textDocumentFormatting,
		TextDocumentFoldingRange:   s.textDocumentFoldingRange,
	}
}

func withoutTypecheck(analyzers []*lint.Analyzer) []*lint.Analyzer {
	kept := make([]*lint.Analyzer, 0, len(analyzers))
	for _, a := range analyzers {
		if a != lint.AnalyzerTypeCheck {
			kept = append(kept, a)
		}
	}
	return kept
}

// RunStdio starts the server using stdio transport.
func (s *Server) RunStdio() error {
	return s.glspSrv.RunStdio()
}

// RunTCP starts the server listening on the given address.
func (s *Server) RunTCP(addr string) error {
	return s.glspSrv.RunTCP(addr)
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.captureNotify(ctx)
	switch {
	case params.RootURI != nil:
		s.rootURI = *params.RootURI
		s.rootPath = uriToPath(s.rootURI)
	case params.RootPath != nil:
		s.rootPath = *params.RootPath
		s.rootURI = pathToURI(s.rootPath)
	}
	version := serverVersion
	return protocol.InitializeResult{
		Capabilities: s.capabilities(),
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

// capabilities advertises full document sync and completion triggered by
// dispatch characters on top of the handlers that are set.
func (s *Server) capabilities() protocol.ServerCapabilities {
	caps := s.handler.CreateServerCapabilities()
	full := protocol.TextDocumentSyncKindFull
	caps.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &full,
		Save:      &protocol.SaveOptions{IncludeText: boolPtr(false)},
	}
	caps.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{".", "@"},
	}
	return caps
}

func (s *Server) shutdown(*glsp.Context) error {
	s.debounceMu.Lock()
	defer s.debounceMu.Unlock()
	for uri, t := range s.debounce {
		t.Stop()
		delete(s.debounce, uri)
	}
	return nil
}

func (s *Server) exit(_ *glsp.Context) error {
	s.exitFn(0)
	return nil
}

// setTrace accepts $/setTrace, which some clients send unconditionally.
func (s *Server) setTrace(_ *glsp.Context, _ *protocol.SetTraceParams) error {
	return nil
}

// ensureAnalysis ensures the document has a current analysis result.
func (s *Server) ensureAnalysis(doc *Document) {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	if doc.analysis != nil {
		return
	}
	doc.analyze()
}

func (s *Server) captureNotify(ctx *glsp.Context) {
	s.notifyMu.Lock()
	s.notify = ctx.Notify
	s.notifyMu.Unlock()
}

func (s *Server) sendNotification(method string, params any) {
	s.notifyMu.Lock()
	fn := s.notify
	s.notifyMu.Unlock()
	if fn != nil {
		fn(method, params)
	}
}

func boolPtr(b bool) *bool {
	return &b
}
