// Package sync periodically exports ledger snapshots to external
// destinations.
package sync

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/ballot/internal/model"
)

// Destination is the interface for a sync target (S3, GCS, git).
type Destination interface {
	// Name identifies the destination in logs.
	Name() string
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// Source provides the state to export.
type Source interface {
	Snapshot() (*model.Ledger, error)
}

// Scheduler runs periodic syncs to one or more destinations.
type Scheduler struct {
	source       Source
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	mu         sync.Mutex
	lastDigest string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from source to the given
// destinations at the specified interval.
func NewScheduler(source Source, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		source:       source,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start begins periodic sync. It runs an initial sync immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current sync (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.SyncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SyncOnce(ctx)
		}
	}
}

// SyncOnce exports the current state to every destination. Unchanged state
// (same digest as the last successful sync) is skipped, as is an
// uninitialized ledger.
func (s *Scheduler) SyncOnce(ctx context.Context) {
	snap, err := s.source.Snapshot()
	if errors.Is(err, model.ErrNotInitialized) {
		s.logger.Debug("sync skipped: ledger not initialized")
		return
	}
	if err != nil {
		s.logger.Error("sync snapshot failed", "err", err)
		return
	}

	digest, err := Digest(snap)
	if err != nil {
		s.logger.Error("sync digest failed", "err", err)
		return
	}
	s.mu.Lock()
	unchanged := digest == s.lastDigest
	s.mu.Unlock()
	if unchanged {
		return
	}

	var buf bytes.Buffer
	if err := ExportJSONL(&buf, snap, time.Now()); err != nil {
		s.logger.Error("sync export failed", "err", err)
		return
	}
	data := buf.Bytes()

	failed := 0
	for _, dest := range s.destinations {
		if err := dest.Write(ctx, data); err != nil {
			failed++
			s.logger.Error("sync destination write failed", "destination", dest.Name(), "err", err)
		}
	}
	if failed == 0 {
		s.mu.Lock()
		s.lastDigest = digest
		s.mu.Unlock()
	}

	s.logger.Info("sync completed", "destinations", len(s.destinations), "failed", failed, "bytes", len(data), "digest", digest)
}
