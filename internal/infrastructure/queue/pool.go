package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	syncdomain "github.com/feedbridge/backend/internal/domain/sync"
	"github.com/feedbridge/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrPoolNotRunning = errors.New("worker pool is not running")
	ErrQueueClosed    = errors.New("work queue is closed")
)

// Executor runs one work unit. Execute errors trigger the pool's retry
// policy; Abandon is called once when a unit's attempts are exhausted.
type Executor interface {
	Execute(ctx context.Context, unit *syncdomain.WorkUnit) error
	Abandon(ctx context.Context, unit *syncdomain.WorkUnit, cause error)
}

// Config holds the worker pool's tunables
type Config struct {
	Workers int
	// MaxAttempts is the number of retries after the first delivery, so a
	// unit runs at most MaxAttempts+1 times
	MaxAttempts int
	BackoffBase time.Duration
}

// DefaultConfig returns the stock pool settings
func DefaultConfig() Config {
	return Config{
		Workers:     4,
		MaxAttempts: 3,
		BackoffBase: 5 * time.Second,
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Workers <= 0 || c.MaxAttempts <= 0 || c.BackoffBase <= 0 {
		return errors.New("invalid worker pool configuration")
	}
	return nil
}

// Pool consumes the priority queue with a fixed set of workers. Failed
// units are retried with exponential backoff; a unit may register
// continuation units that enqueue only after it completes successfully.
type Pool struct {
	config   Config
	queue    *Queue
	executor Executor
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	contMu        sync.Mutex
	continuations map[uuid.UUID][]*syncdomain.WorkUnit

	retryWG sync.WaitGroup
}

func NewPool(config Config, q *Queue, executor Executor, logger *zap.Logger) (*Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		config:        config,
		queue:         q,
		executor:      executor,
		logger:        logger,
		continuations: make(map[uuid.UUID][]*syncdomain.WorkUnit),
	}, nil
}

// Start launches the workers
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	p.running = true

	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.logger.Info("sync worker pool started",
		zap.Int("workers", p.config.Workers),
		zap.Int("max_attempts", p.config.MaxAttempts),
	)
	return nil
}

// Stop closes the queue and waits for in-flight units to finish
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	p.queue.Close()
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.retryWG.Wait()
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("sync worker pool stopped")
		return nil
	case <-ctx.Done():
		p.logger.Warn("sync worker pool stop timed out")
		return ctx.Err()
	}
}

// Enqueue submits a unit for execution
func (p *Pool) Enqueue(unit *syncdomain.WorkUnit) error {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	if !running {
		return ErrPoolNotRunning
	}
	if !p.queue.Push(unit) {
		return ErrQueueClosed
	}
	p.logger.Debug("work unit enqueued",
		zap.String("unit_id", unit.ID.String()),
		zap.String("kind", string(unit.Kind)),
		zap.Int("priority", int(unit.Priority)),
	)
	return nil
}

// EnqueueAfter registers child to run once parent completes successfully.
// If the parent fails terminally the child is dropped.
func (p *Pool) EnqueueAfter(parent, child *syncdomain.WorkUnit) {
	p.contMu.Lock()
	defer p.contMu.Unlock()
	p.continuations[parent.ID] = append(p.continuations[parent.ID], child)
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		unit, ok := p.queue.Pop()
		if !ok {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		p.process(ctx, unit, id)
	}
}

func (p *Pool) process(ctx context.Context, unit *syncdomain.WorkUnit, workerID int) {
	// batch id travels in the context so anything logging via logger.L
	// below the executor carries it
	ctx, _ = logger.WithBatchID(ctx, p.logger, unit.BatchID.String())
	err := p.executor.Execute(ctx, unit)
	if err == nil {
		p.releaseContinuations(unit)
		return
	}

	// MaxAttempts is the retry budget on top of the first delivery
	if unit.Attempt > p.config.MaxAttempts {
		p.logger.Error("work unit abandoned",
			zap.String("unit_id", unit.ID.String()),
			zap.String("tenant_id", unit.TenantID.String()),
			zap.Int("attempts", unit.Attempt),
			zap.Error(err),
		)
		p.dropContinuations(unit)
		p.executor.Abandon(ctx, unit, err)
		return
	}

	// 5s, 10s, 20s with the stock backoff base
	delay := p.config.BackoffBase * time.Duration(1<<(unit.Attempt-1))
	unit.Attempt++
	p.logger.Warn("work unit failed, scheduling retry",
		zap.String("unit_id", unit.ID.String()),
		zap.Int("worker_id", workerID),
		zap.Int("next_attempt", unit.Attempt),
		zap.Duration("delay", delay),
		zap.Error(err),
	)

	p.retryWG.Add(1)
	time.AfterFunc(delay, func() {
		defer p.retryWG.Done()
		if !p.queue.Push(unit) {
			p.logger.Warn("retry dropped, queue closed",
				zap.String("unit_id", unit.ID.String()),
			)
		}
	})
}

// releaseContinuations enqueues the units chained behind a completed unit
func (p *Pool) releaseContinuations(unit *syncdomain.WorkUnit) {
	p.contMu.Lock()
	children := p.continuations[unit.ID]
	delete(p.continuations, unit.ID)
	p.contMu.Unlock()

	for _, child := range children {
		if !p.queue.Push(child) {
			p.logger.Warn("continuation dropped, queue closed",
				zap.String("unit_id", child.ID.String()),
			)
		}
	}
}

func (p *Pool) dropContinuations(unit *syncdomain.WorkUnit) {
	p.contMu.Lock()
	children := p.continuations[unit.ID]
	delete(p.continuations, unit.ID)
	p.contMu.Unlock()

	for _, child := range children {
		p.logger.Warn("dropping continuation of failed unit",
			zap.String("parent_id", unit.ID.String()),
			zap.String("unit_id", child.ID.String()),
		)
	}
}
