package storage

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ReaperConfig controls the concurrency characteristics of the reaper.
type ReaperConfig struct {
	QueueSize int
	Workers   int
	Timeout   time.Duration
}

// BlobReaper deletes orphaned blobs on a bounded worker pool so request handlers never
// wait on blob-store round trips after a record is gone.
type BlobReaper struct {
	store   BlobStore
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan string
	wg     sync.WaitGroup
	once   sync.Once
}

// ErrReaperClosed is returned by Enqueue after Shutdown has been called.
var ErrReaperClosed = errors.New("blob reaper closed")

// NewReaper starts cfg.Workers goroutines deleting blobs from store.
func NewReaper(store BlobStore, cfg ReaperConfig, logger *slog.Logger) *BlobReaper {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &BlobReaper{
		store:   store,
		logger:  logger.With(slog.String("component", "blob_reaper")),
		timeout: cfg.Timeout,
		jobs:    make(chan string, cfg.QueueSize),
	}

	r.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go r.worker()
	}

	return r
}

// Enqueue schedules deletion of the supplied locations. Empty locations are ignored.
func (r *BlobReaper) Enqueue(ctx context.Context, locations ...string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrReaperClosed
	}

	for _, location := range locations {
		if strings.TrimSpace(location) == "" {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case r.jobs <- location:
		}
	}
	return nil
}

// Shutdown stops accepting work and waits for queued deletions to finish.
func (r *BlobReaper) Shutdown(ctx context.Context) error {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.jobs)
		r.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (r *BlobReaper) worker() {
	defer r.wg.Done()

	for location := range r.jobs {
		r.reap(location)
	}
}

func (r *BlobReaper) reap(location string) {
	if r.store == nil {
		r.logger.Error("blob reaper has no store", slog.String("location", location))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.store.Delete(ctx, location); err != nil {
		r.logger.Error("blob deletion failed", slog.String("location", location), slog.Any("error", err))
		return
	}
	r.logger.Debug("blob deleted", slog.String("location", location))
}
