// Package session wires a market state store to its gateway, refresh
// schedulers, on-demand fetcher, read surface and optional archive, and owns
// their lifecycle.
package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"tradesync/config"
	"tradesync/internal/clock"
	"tradesync/internal/market/archive"
	"tradesync/internal/market/broadcast"
	"tradesync/internal/market/facade"
	"tradesync/internal/market/ondemand"
	"tradesync/internal/market/scheduler"
	"tradesync/internal/market/state"
	"tradesync/internal/metrics"
	"tradesync/pkg/gateway"
	"tradesync/pkg/storage/postgres"

	"go.uber.org/zap"
)

const (
	pruneName     = "archive-prune"
	pruneInterval = 24 * time.Hour
)

type Session struct {
	cfg     *config.Config
	logger  *zap.Logger
	clock   clock.Clock
	metrics *metrics.Registry
	gw      gateway.Gateway

	store   *state.Store
	fetcher *ondemand.Fetcher
	facade  *facade.Facade
	hub     *broadcast.Hub

	quotes *scheduler.Scheduler
	status *scheduler.Scheduler
	prune  *scheduler.Scheduler

	archiver *archive.Archiver
	db       *postgres.PostgresClient

	mu        sync.Mutex
	started   bool
	closed    bool
	detach    []func()
	cancelHub context.CancelFunc
	hubDone   chan struct{}
}

type options struct {
	clock   clock.Clock
	gw      gateway.Gateway
	metrics *metrics.Registry
	sink    archive.Sink
}

type Option func(*options)

func WithClock(c clock.Clock) Option { return func(o *options) { o.clock = c } }

// WithGateway bypasses the gateway selected by config.
func WithGateway(gw gateway.Gateway) Option { return func(o *options) { o.gw = gw } }

func WithMetrics(m *metrics.Registry) Option { return func(o *options) { o.metrics = m } }

// WithArchiveSink replaces the Postgres archive with sink when archiving is enabled.
func WithArchiveSink(sink archive.Sink) Option { return func(o *options) { o.sink = sink } }

// New builds a session in its initial state. Nothing runs until Start.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Session, error) {
	o := options{clock: clock.Real{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.New()
	}
	if o.gw == nil {
		gw, err := NewGateway(cfg.Gateway)
		if err != nil {
			return nil, err
		}
		o.gw = gw
	}

	s := &Session{
		cfg:     cfg,
		logger:  logger,
		clock:   o.clock,
		metrics: o.metrics,
		gw:      o.gw,
		store:   state.NewStore(o.clock, state.Initial()),
	}

	s.fetcher = ondemand.NewFetcher(s.gw, s.store,
		ondemand.WithClock(s.clock),
		ondemand.WithLogger(logger.Named("ondemand")),
		ondemand.WithMetrics(s.metrics),
		ondemand.WithTimeout(cfg.Gateway.Timeout),
	)
	s.facade = facade.New(s.store, s.fetcher, s.gw,
		facade.WithClock(s.clock),
		facade.WithLogger(logger.Named("facade")),
	)
	s.hub = broadcast.NewHub(s.store,
		broadcast.WithLogger(logger.Named("broadcast")),
		broadcast.WithMetrics(s.metrics),
	)

	schedLogger := logger.Named("scheduler")
	s.quotes = scheduler.New(scheduler.QuotesName, cfg.Refresh.QuoteInterval,
		scheduler.QuoteJob(s.gw, s.store),
		scheduler.WithClock(s.clock),
		scheduler.WithLogger(schedLogger),
		scheduler.WithMetrics(s.metrics),
		scheduler.WithTimeout(cfg.Gateway.Timeout),
	)
	s.status = scheduler.New(scheduler.StatusName, cfg.Refresh.StatusInterval,
		scheduler.StatusJob(s.gw, s.store),
		scheduler.WithClock(s.clock),
		scheduler.WithLogger(schedLogger),
		scheduler.WithMetrics(s.metrics),
		scheduler.WithTimeout(cfg.Gateway.Timeout),
	)

	if cfg.Archive.Enabled {
		if err := s.openArchive(o.sink); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// NewGateway builds the gateway named by cfg.Mode.
func NewGateway(cfg config.GatewayConfig) (gateway.Gateway, error) {
	switch cfg.Mode {
	case "rest", "":
		return gateway.NewRESTClient(cfg.BaseURL, cfg.Timeout,
			gateway.WithRateLimit(cfg.RPS, cfg.Burst)), nil
	case "sim":
		return gateway.NewSimGateway(uint64(time.Now().UnixNano()), state.DefaultWatchlist), nil
	}
	return nil, fmt.Errorf("unknown gateway mode %q", cfg.Mode)
}

func (s *Session) openArchive(sink archive.Sink) error {
	if sink == nil {
		db, err := postgres.InitializeAndMigrate(s.cfg.Postgres, s.cfg.Log.Environment, s.cfg.Archive.CreateDB)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		s.db = db
		sink = db
	}

	archiveLogger := s.logger.Named("archive")
	s.archiver = archive.New(sink, archiveLogger)
	if s.cfg.Archive.Retention > 0 {
		s.prune = scheduler.New(pruneName, pruneInterval,
			archive.PruneJob(sink, s.clock, s.cfg.Archive.Retention, archiveLogger),
			scheduler.WithClock(s.clock),
			scheduler.WithLogger(archiveLogger),
			scheduler.WithTimeout(time.Minute),
		)
	}
	return nil
}

// Start runs the status scheduler, gates the quote scheduler on the
// autoRefresh preference and starts the read surface. It is a no-op after
// the first call.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true

	s.detach = append(s.detach, observe(s.store, s.metrics))
	if s.archiver != nil {
		s.detach = append(s.detach, s.archiver.Attach(s.store))
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelHub = cancel
	s.hubDone = make(chan struct{})
	go func() {
		defer close(s.hubDone)
		s.hub.Run(ctx)
	}()

	s.status.Start()
	s.detach = append(s.detach, scheduler.GateOnAutoRefresh(s.store, s.quotes, s.logger.Named("scheduler")))
	if s.prune != nil {
		s.prune.Start()
	}

	s.logger.Info("session started",
		zap.Int("watchlist", len(s.store.State().Watchlist)),
		zap.Duration("quote_interval", s.cfg.Refresh.QuoteInterval),
		zap.Duration("status_interval", s.cfg.Refresh.StatusInterval),
		zap.Bool("archive", s.archiver != nil),
	)
}

// Close takes every scheduler to Stopped, waits for outstanding refreshes,
// and releases the read surface and archive.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	detach := s.detach
	s.detach = nil
	cancelHub, hubDone := s.cancelHub, s.hubDone
	s.mu.Unlock()

	for _, d := range detach {
		d()
	}

	s.quotes.Close()
	s.status.Close()
	if s.prune != nil {
		s.prune.Close()
	}

	if cancelHub != nil {
		cancelHub()
		<-hubDone
	}

	if s.archiver != nil {
		s.archiver.Close()
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("close archive db: %w", err)
		}
	}

	s.logger.Info("session closed")
	return nil
}

func (s *Session) Store() *state.Store { return s.store }

func (s *Session) Facade() *facade.Facade { return s.facade }

func (s *Session) Metrics() *metrics.Registry { return s.metrics }

// Handler serves the session's HTTP read surface.
func (s *Session) Handler() http.Handler {
	return broadcast.NewRouter(s.hub, s.facade, s.metrics, s.logger.Named("http"))
}

// observe feeds transition counts and retention gauges.
func observe(store *state.Store, m *metrics.Registry) (cancel func()) {
	return store.Watch(func(prev, next state.State, a state.Action) {
		m.Transitions.WithLabelValues(string(a.Kind)).Inc()
		m.RetainedSignals.Set(float64(next.Signals.Len()))
		m.RetainedInsights.Set(float64(next.Insights.Len()))
	})
}
