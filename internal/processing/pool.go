// Package processing runs submitted transactions on a pool of background
// workers so event handlers never wait on the database.
package processing

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/config"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/logger"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/metrics"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/transactions"
	"golang.org/x/time/rate"
)

// ErrStopped is returned for submissions after Stop.
var ErrStopped = errors.New("processing pool stopped")

// Reasons a non-critical submission is dropped.
const (
	DropQueueFull   = "queue_full"
	DropRateLimited = "rate_limited"
	DropStopped     = "stopped"
)

// Executor runs a transaction to completion.
type Executor interface {
	ExecuteTransaction(ctx context.Context, t transactions.Transaction) (transactions.State, error)
}

// Pool executes transactions in submission order per worker. Critical
// submissions (session ends, registrations) wait for queue space;
// non-critical ones (samples, command counts) are dropped under load.
type Pool struct {
	exec    Executor
	queue   chan job
	limiter *rate.Limiter
	workers int
	log     zerolog.Logger

	// mu guards closing the queue against concurrent sends.
	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

type job struct {
	t        transactions.Transaction
	critical bool
}

// New returns a pool configured by cfg. Workers start with Start.
func New(exec Executor, cfg config.Processing) *Pool {
	limit := rate.Limit(cfg.Rate)
	if cfg.Rate <= 0 {
		limit = rate.Inf
	}

	return &Pool{
		exec:    exec,
		queue:   make(chan job, max(cfg.QueueSize, 1)),
		limiter: rate.NewLimiter(limit, max(cfg.Burst, 1)),
		workers: max(cfg.Workers, 1),
		log:     logger.Component("processing"),
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for range p.workers {
		p.wg.Add(1)
		go p.worker()
	}
	p.log.Debug().Int("workers", p.workers).Int("queue", cap(p.queue)).Msg("Processing started")
}

// SubmitCritical queues t, waiting for space in the queue until ctx is done.
func (p *Pool) SubmitCritical(ctx context.Context, t transactions.Transaction) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrStopped
	}

	select {
	case p.queue <- job{t: t, critical: true}:
		metrics.QueueDepth.Set(float64(len(p.queue)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitNonCritical queues t if the queue has room and the rate budget
// allows it. It reports whether t was accepted.
func (p *Pool) SubmitNonCritical(t transactions.Transaction) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		p.drop(t, DropStopped)
		return false
	}
	if !p.limiter.Allow() {
		p.drop(t, DropRateLimited)
		return false
	}

	select {
	case p.queue <- job{t: t}:
		metrics.QueueDepth.Set(float64(len(p.queue)))
		return true
	default:
		p.drop(t, DropQueueFull)
		return false
	}
}

func (p *Pool) drop(t transactions.Transaction, reason string) {
	metrics.RecordDropped(reason)
	p.log.Trace().Str("transaction", t.Name()).Str("reason", reason).Msg("Transaction dropped")
}

// Stop rejects new submissions and waits until queued transactions ran.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Debug().Msg("Processing stopped")
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for j := range p.queue {
		metrics.QueueDepth.Set(float64(len(p.queue)))
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	// queued work finishes even while shutting down
	_, err := p.exec.ExecuteTransaction(context.Background(), j.t)
	if err == nil {
		return
	}

	event := p.log.Warn()
	if j.critical {
		event = p.log.Error()
	}
	event.Err(err).Str("transaction", j.t.Name()).Msg("Transaction failed")
}
