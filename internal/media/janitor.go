package media

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Deleter removes objects from the blob store.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// JanitorConfig controls the concurrency characteristics of the janitor.
type JanitorConfig struct {
	QueueSize int
	Workers   int
	Timeout   time.Duration
}

// Janitor deletes orphaned blob objects in the background.
type Janitor struct {
	store   Deleter
	logger  *slog.Logger
	timeout time.Duration

	jobs   chan string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewJanitor starts a worker pool that deletes blob objects.
func NewJanitor(store Deleter, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	j := &Janitor{
		store:   store,
		logger:  logger,
		timeout: cfg.Timeout,
		jobs:    make(chan string, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	j.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go j.worker()
	}

	return j
}

// Enqueue schedules deletion of key.
func (j *Janitor) Enqueue(ctx context.Context, key string) error {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return ErrJanitorClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case j.jobs <- key:
		return nil
	}
}

// Shutdown stops accepting work and waits for queued deletions to finish.
// In-flight deletions are cancelled when ctx expires first.
func (j *Janitor) Shutdown(ctx context.Context) error {
	j.once.Do(func() {
		j.mu.Lock()
		j.closed = true
		close(j.jobs)
		j.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		j.cancel()
		return ctx.Err()
	case <-done:
		j.cancel()
		return nil
	}
}

func (j *Janitor) worker() {
	defer j.wg.Done()

	for key := range j.jobs {
		j.handle(key)
	}
}

func (j *Janitor) handle(key string) {
	if j.store == nil {
		j.logger.Error("janitor missing blob store", "key", key)
		return
	}

	ctx, cancel := context.WithTimeout(j.ctx, j.timeout)
	defer cancel()

	if err := j.store.Delete(ctx, key); err != nil {
		j.logger.Error("delete orphaned blob", "key", key, "error", err)
		return
	}
	j.logger.Debug("orphaned blob deleted", "key", key)
}
