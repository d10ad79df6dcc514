// Package scheduler runs periodic gateway refreshes that feed the state store.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"tradesync/internal/clock"
	"tradesync/internal/metrics"

	"go.uber.org/zap"
)

// Phase is the lifecycle position of a Scheduler.
type Phase int

const (
	Idle     Phase = iota // not started, or disabled
	Armed                 // ticker active, nothing outstanding
	Fetching              // ticker active, at least one job outstanding
	Stopped               // torn down; terminal
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Fetching:
		return "fetching"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Job performs one refresh. A returned error is logged and counted; the
// schedule is unaffected.
type Job func(ctx context.Context) error

// Scheduler runs a Job immediately on Start and then on a fixed interval.
// Ticks do not wait for the previous run to finish.
type Scheduler struct {
	name     string
	interval time.Duration
	job      Job

	clock   clock.Clock
	logger  *zap.Logger
	metrics *metrics.Registry
	timeout time.Duration

	mu       sync.Mutex
	phase    Phase
	gen      int
	cancel   context.CancelFunc
	ticker   clock.Ticker
	loopDone chan struct{}
	inflight int
	jobs     sync.WaitGroup

	runs atomic.Int64
}

type Option func(*Scheduler)

func WithClock(c clock.Clock) Option { return func(s *Scheduler) { s.clock = c } }
func WithLogger(l *zap.Logger) Option { return func(s *Scheduler) { s.logger = l } }
func WithMetrics(m *metrics.Registry) Option { return func(s *Scheduler) { s.metrics = m } }
func WithTimeout(d time.Duration) Option { return func(s *Scheduler) { s.timeout = d } }

// New creates an Idle scheduler. The per-run timeout defaults to the interval.
func New(name string, interval time.Duration, job Job, opts ...Option) *Scheduler {
	s := &Scheduler{
		name:     name,
		interval: interval,
		job:      job,
		clock:    clock.Real{},
		logger:   zap.NewNop(),
		timeout:  interval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Name() string { return s.name }

// Runs reports how many jobs have been launched.
func (s *Scheduler) Runs() int64 { return s.runs.Load() }

func (s *Scheduler) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == Armed && s.inflight > 0 {
		return Fetching
	}
	return s.phase
}

// Start arms the ticker and runs the job immediately. It is a no-op unless
// the scheduler is Idle.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.phase != Idle {
		s.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.ticker = s.clock.NewTicker(s.interval)
	s.loopDone = make(chan struct{})
	s.phase = Armed
	ticker, done := s.ticker, s.loopDone
	s.mu.Unlock()

	s.logger.Debug("scheduler armed", zap.String("scheduler", s.name), zap.Duration("interval", s.interval))

	s.launch(ctx, gen)
	go s.loop(ctx, gen, ticker, done)
}

// Stop cancels the ticker and any outstanding run, returning to Idle.
func (s *Scheduler) Stop() {
	s.disarm(Idle)
}

// Close stops the scheduler for good and waits for outstanding runs.
func (s *Scheduler) Close() {
	s.disarm(Stopped)
	s.jobs.Wait()
}

func (s *Scheduler) disarm(to Phase) {
	s.mu.Lock()
	if s.phase == Stopped {
		s.mu.Unlock()
		return
	}
	wasArmed := s.phase == Armed
	cancel, ticker, done := s.cancel, s.ticker, s.loopDone
	s.phase = to
	s.cancel, s.ticker, s.loopDone = nil, nil, nil
	s.mu.Unlock()

	if !wasArmed {
		return
	}
	ticker.Stop()
	cancel()
	<-done
	s.logger.Debug("scheduler disarmed", zap.String("scheduler", s.name), zap.Stringer("phase", to))
}

func (s *Scheduler) loop(ctx context.Context, gen int, ticker clock.Ticker, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			s.launch(ctx, gen)
		}
	}
}

func (s *Scheduler) launch(ctx context.Context, gen int) {
	s.mu.Lock()
	if s.phase != Armed || s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.inflight++
	s.jobs.Add(1)
	s.mu.Unlock()
	s.runs.Add(1)

	go func() {
		defer s.jobs.Done()
		defer func() {
			s.mu.Lock()
			s.inflight--
			s.mu.Unlock()
		}()

		jobCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		started := s.clock.Now()
		err := s.job(jobCtx)
		if s.metrics != nil {
			s.metrics.ObserveFetch(s.name, s.clock.Now().Sub(started), err)
		}
		if err != nil {
			s.logger.Warn("refresh failed", zap.String("scheduler", s.name), zap.Error(err))
			return
		}
		s.logger.Debug("refresh completed", zap.String("scheduler", s.name))
	}()
}
