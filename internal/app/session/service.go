// Package session wires a slot document, a persistence backend and a target
// into a running livesync.Controller.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/alexisbeaulieu97/designctl/internal/config"
	"github.com/alexisbeaulieu97/designctl/internal/livesync"
	"github.com/alexisbeaulieu97/designctl/internal/ports"
	"github.com/alexisbeaulieu97/designctl/internal/slots"
	"github.com/alexisbeaulieu97/designctl/internal/storage"
	"github.com/alexisbeaulieu97/designctl/internal/storage/remote"
	"github.com/alexisbeaulieu97/designctl/internal/target"
)

// Overrides are runtime settings that take precedence over the document,
// typically bound from flags and DESIGNCTL_* environment variables.
type Overrides struct {
	Namespace   string
	Backend     string
	StorePath   string
	RemoteURL   string
	RemoteToken string
	CacheTTL    time.Duration
	Concurrency int
}

// Prepared is a loaded document together with its resolved registry.
type Prepared struct {
	Path     string
	Document *config.Document
	Registry *slots.Registry
}

// Session is a started controller and the resources it owns.
type Session struct {
	Prepared   *Prepared
	Adapter    ports.Adapter
	Controller *livesync.Controller

	closers []func()
}

// Close stops the controller and releases adapter resources.
func (s *Session) Close() {
	if s == nil {
		return
	}
	if s.Controller != nil {
		_ = s.Controller.Close()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// invalidator is implemented by adapters that cache reads.
type invalidator interface {
	Invalidate()
}

// Reload drops cached reads and hydrates the controller again, so values
// changed in the backend by another writer become visible. Callers wait on
// Controller.WaitReady for the run to finish.
func (s *Session) Reload(ctx context.Context) error {
	if s == nil || s.Controller == nil {
		return livesync.ErrClosed
	}
	if cached, ok := s.Adapter.(invalidator); ok {
		if err := s.Controller.Flush(ctx); err != nil {
			return fmt.Errorf("reload: %w", err)
		}
		cached.Invalidate()
	}
	return s.Controller.Reinitialize(ctx)
}

// Service coordinates document loading, slot resolution and controller
// construction for CLI commands and the editor.
type Service struct {
	loader   *config.Loader
	resolver *slots.Resolver
	logger   ports.Logger
	events   ports.EventPublisher
}

// NewService constructs a session service.
func NewService(logger ports.Logger, events ports.EventPublisher) *Service {
	return &Service{
		loader:   config.NewLoader(logger),
		resolver: slots.NewResolver(logger),
		logger:   logger,
		events:   events,
	}
}

// Prepare loads the document at path, applies overrides and resolves the
// registry.
func (s *Service) Prepare(ctx context.Context, path string, overrides Overrides) (*Prepared, error) {
	doc, err := s.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	applyOverrides(doc, overrides)
	if err := config.ValidateDocument(doc); err != nil {
		return nil, err
	}

	reg := s.resolver.Resolve(ctx, doc.Spec())
	return &Prepared{Path: path, Document: doc, Registry: reg}, nil
}

// OpenAdapter builds the persistence adapter selected by the document.
// The returned closer must be called when the adapter is no longer used.
func (s *Service) OpenAdapter(cfg config.StorageConfig, token string) (ports.Adapter, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case config.BackendMemory:
		return storage.NewMemoryStore(nil), noop, nil
	case config.BackendRemote:
		client, err := remote.NewClient(remote.ClientOptions{BaseURL: cfg.URL, Token: token})
		if err != nil {
			return nil, noop, err
		}
		cached := storage.NewCachedAdapter(client, cfg.CacheTTLDuration())
		return cached, cached.Close, nil
	case config.BackendFile, "":
		path := cfg.Path
		if path == "" {
			path = config.DefaultStorePath
		}
		resolved, err := config.ExpandHome(path)
		if err != nil {
			return nil, noop, fmt.Errorf("resolve store path: %w", err)
		}
		store, err := storage.NewFileStore(resolved)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// OpenRequest configures Open.
type OpenRequest struct {
	Prepared  *Prepared
	Target    target.Descriptor
	Hook      livesync.Hook
	Adapter   ports.Adapter
	Overrides Overrides
}

// Open builds the adapter (unless req.Adapter is set), creates the
// controller and starts it.
func (s *Service) Open(ctx context.Context, req OpenRequest) (*Session, error) {
	if req.Prepared == nil {
		return nil, fmt.Errorf("open session: nothing prepared")
	}

	sess := &Session{Prepared: req.Prepared}
	adapter := req.Adapter
	if adapter == nil {
		opened, closer, err := s.OpenAdapter(req.Prepared.Document.Storage, req.Overrides.RemoteToken)
		if err != nil {
			return nil, err
		}
		adapter = opened
		sess.closers = append(sess.closers, closer)
	}
	sess.Adapter = adapter

	concurrency := req.Prepared.Document.Hydration.Concurrency
	if req.Overrides.Concurrency > 0 {
		concurrency = req.Overrides.Concurrency
	}

	sess.Controller = livesync.New(req.Prepared.Registry, req.Target, adapter, livesync.Options{
		Logger:      s.logger,
		Publisher:   s.events,
		Hook:        req.Hook,
		Concurrency: concurrency,
	})
	if err := sess.Controller.Start(ctx); err != nil {
		sess.Close()
		return nil, err
	}

	if s.logger != nil {
		s.logger.Debug(ctx, "session opened",
			"path", req.Prepared.Path,
			"slots", req.Prepared.Registry.Len(),
			"backend", req.Prepared.Document.Storage.Backend,
		)
	}
	return sess, nil
}

// Hydrate opens a session and waits until it is Ready.
func (s *Service) Hydrate(ctx context.Context, req OpenRequest) (*Session, error) {
	sess, err := s.Open(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := sess.Controller.WaitReady(ctx); err != nil {
		sess.Close()
		return nil, fmt.Errorf("wait for hydration: %w", err)
	}
	return sess, nil
}

func applyOverrides(doc *config.Document, o Overrides) {
	if o.Namespace != "" {
		doc.Namespace = o.Namespace
	}
	if o.Backend != "" && o.Backend != doc.Storage.Backend {
		doc.Storage.Backend = o.Backend
		if o.Backend == config.BackendFile && doc.Storage.Path == "" {
			doc.Storage.Path = config.DefaultStorePath
		}
	}
	if o.StorePath != "" {
		doc.Storage.Path = o.StorePath
	}
	if o.RemoteURL != "" {
		doc.Storage.URL = o.RemoteURL
	}
	if o.CacheTTL > 0 {
		doc.Storage.CacheTTL = o.CacheTTL.String()
	}
	if o.Concurrency > 0 {
		doc.Hydration.Concurrency = o.Concurrency
	}
}
