// Package lsp serves lantern diagnostics over the Language Server Protocol.
// Every open document is built through a shared driver; edits are debounced,
// a build that fails keeps the previous result published, and header
// changes on disk invalidate the preambles that entered them.
package lsp

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"lantern/internal/config"
	"lantern/internal/driver"
	"lantern/internal/version"
	"lantern/internal/vfs"
	"lantern/internal/watch"
)

const serverName = "lantern"

var log = commonlog.GetLogger("lantern.lsp")

// DefaultDebounce is the delay between an edit and the build it triggers.
const DefaultDebounce = 300 * time.Millisecond

// ServerOptions configures the server.
type ServerOptions struct {
	// Debounce delays builds after edits; zero builds synchronously.
	Debounce time.Duration
	// FS is the filesystem under open documents; the disk by default.
	FS vfs.FileSystem
	// Config replaces the project configuration found at initialize.
	Config *config.Config
	// Driver holds the driver options used for every build.
	Driver driver.Options
	// NoWatch disables header watching.
	NoWatch bool
}

// Server is a lantern language server.
type Server struct {
	handler protocol.Handler
	server  *server.Server

	opts    ServerOptions
	overlay *vfs.OverlayFS
	notify  glsp.NotifyFunc
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	drv     *driver.Driver
	watcher *watch.Watcher
	docs    map[protocol.DocumentUri]*document
}

// NewServer creates a server; Run serves it over stdio.
func NewServer(opts ServerOptions) *Server {
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}
	base := opts.FS
	if base == nil {
		base = vfs.NewOSFS()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts:    opts,
		overlay: vfs.NewOverlayFS(base),
		docs:    make(map[protocol.DocumentUri]*document),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.handler = protocol.Handler{
		Initialize:             s.initialize,
		Initialized:            s.initialized,
		Shutdown:               s.shutdownHandler,
		SetTrace:               s.setTrace,
		TextDocumentDidOpen:    s.didOpen,
		TextDocumentDidChange:  s.didChange,
		TextDocumentDidClose:   s.didClose,
		TextDocumentDidSave:    s.didSave,
		TextDocumentCodeAction: s.codeAction,
	}
	s.server = server.NewServer(&s.handler, serverName, false)
	return s
}

// Run serves requests on stdin/stdout until the client exits.
func (s *Server) Run() error {
	defer s.close()
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.notify = ctx.Notify
	root := rootFromParams(params)
	if err := s.configure(root); err != nil {
		return nil, err
	}

	capabilities := s.handler.CreateServerCapabilities()
	openClose := true
	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &syncKind,
		Save: &protocol.SaveOptions{
			IncludeText: &openClose,
		},
	}
	capabilities.CodeActionProvider = &protocol.CodeActionOptions{
		CodeActionKinds: []protocol.CodeActionKind{protocol.CodeActionKindQuickFix},
	}
	ver := version.Version
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &ver,
		},
	}, nil
}

// configure creates the driver for the workspace rooted at root.
func (s *Server) configure(root string) error {
	cfg := s.opts.Config
	if cfg == nil {
		loaded, err := config.Load(root)
		if err != nil {
			log.Errorf("failed to load configuration from %s: %s", root, err)
			loaded = config.Default(root)
		}
		cfg = loaded
	}
	drv, err := driver.New(cfg, s.overlay, s.opts.Driver)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.drv = drv
	s.mu.Unlock()
	log.Infof("workspace %s, configuration %s", cfg.Root, orNone(cfg.Path))
	return nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	if s.opts.NoWatch {
		return nil
	}
	w, err := watch.New(watch.DefaultDelay, s.filesChanged)
	if err != nil {
		log.Warningf("header watching disabled: %s", err)
		return nil
	}
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	go func() {
		if err := w.Run(s.ctx); err != nil && s.ctx.Err() == nil {
			log.Warningf("watcher stopped: %s", err)
		}
	}()
	return nil
}

func (s *Server) shutdownHandler(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	s.close()
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// close stops watching and releases every document.
func (s *Server) close() {
	s.cancel()
	s.mu.Lock()
	docs := s.docs
	s.docs = make(map[protocol.DocumentUri]*document)
	w := s.watcher
	s.watcher = nil
	drv := s.drv
	s.mu.Unlock()
	for _, doc := range docs {
		doc.release()
	}
	if w != nil {
		_ = w.Close()
	}
	if drv != nil {
		if err := drv.Close(); err != nil {
			log.Warningf("closing driver: %s", err)
		}
	}
}

func (s *Server) driver() *driver.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drv
}

func (s *Server) publish(params protocol.PublishDiagnosticsParams) {
	if s.notify == nil {
		return
	}
	s.notify(protocol.ServerTextDocumentPublishDiagnostics, params)
}

func rootFromParams(params *protocol.InitializeParams) string {
	if params != nil {
		if params.RootURI != nil {
			if p := uriToPath(*params.RootURI); p != "" {
				return p
			}
		}
		if params.RootPath != nil && *params.RootPath != "" {
			return filepath.Clean(*params.RootPath)
		}
		for _, f := range params.WorkspaceFolders {
			if p := uriToPath(f.URI); p != "" {
				return p
			}
		}
	}
	if wd, err := filepath.Abs("."); err == nil {
		return wd
	}
	return "."
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
