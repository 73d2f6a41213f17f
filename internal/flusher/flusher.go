// Package flusher runs the periodic jobs that move buffered state into
// the durable store: the click flush and the expired-URL sweep.
package flusher

import (
	"context"
	"time"

	"shortener/internal/counter"
	"shortener/internal/repository"
	"shortener/pkg/logger"
)

// Scheduler periodically drains the click buffer and merges the counts
// into the aggregated stats table.
//
// Exactly one scheduler must be active per buffer instance; with
// multiple worker processes an external mechanism (a single designated
// flusher, or a distributed lock) has to guarantee that.
//
// Known limitation: if the process dies between a successful drain and
// the durable commit, that cycle's counts are lost. The loss is bounded
// to one flush interval's worth of clicks.
type Scheduler struct {
	buffer      counter.ClickBuffer
	repo        repository.URLRepository
	logger      *logger.Logger
	interval    time.Duration
	maxRetries  int
	baseBackoff time.Duration
}

// NewScheduler creates a flush scheduler. baseBackoff doubles on each
// retry of a failed batch.
func NewScheduler(
	buffer counter.ClickBuffer,
	repo repository.URLRepository,
	log *logger.Logger,
	interval time.Duration,
	maxRetries int,
	baseBackoff time.Duration,
) *Scheduler {
	return &Scheduler{
		buffer:      buffer,
		repo:        repo,
		logger:      log,
		interval:    interval,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
	}
}

// Run executes the flush loop until ctx is cancelled. A failed cycle
// never terminates the loop; subsequent cycles run on schedule.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Starting click flush scheduler", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final best-effort flush so a clean shutdown loses nothing
			s.flushOnce(context.Background())
			s.logger.Info("Click flush scheduler stopped")
			return
		case <-ticker.C:
			s.flushOnce(ctx)
		}
	}
}

// flushOnce drains the buffer and persists the batch, retrying the whole
// batch with exponential backoff on failure. Exhausting the retries
// drops this cycle's counts: that is logged as data loss, and the
// scheduler moves on.
func (s *Scheduler) flushOnce(ctx context.Context) {
	counts, err := s.buffer.DrainAll(ctx)
	if err != nil {
		s.logger.Error("Failed to drain click buffer", "error", err)
		return
	}

	if len(counts) == 0 {
		s.logger.Debug("No buffered clicks to flush")
		return
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	backoff := s.baseBackoff
	for attempt := 0; ; attempt++ {
		err = s.repo.UpsertClicks(ctx, counts, time.Now().UTC())
		if err == nil {
			s.logger.Info("Flushed buffered clicks",
				"urls", len(counts),
				"clicks", total,
				"attempts", attempt+1,
			)
			return
		}

		if attempt >= s.maxRetries {
			break
		}

		s.logger.Warn("Flush batch failed, retrying",
			"error", err,
			"attempt", attempt+1,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			s.logger.Error("Flush abandoned by shutdown, dropping cycle's counts",
				"urls", len(counts),
				"clicks", total,
			)
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	s.logger.Error("Flush retries exhausted, dropping cycle's counts",
		"error", err,
		"urls", len(counts),
		"clicks", total,
		"attempts", s.maxRetries+1,
	)
}

// RunExpirySweep periodically deactivates URLs past their expiry until
// ctx is cancelled. Purely janitorial: resolution already enforces
// expiry on every request, the sweep just keeps the table tidy.
func (s *Scheduler) RunExpirySweep(ctx context.Context, interval time.Duration) {
	s.logger.Info("Starting expiry sweep", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Expiry sweep stopped")
			return
		case <-ticker.C:
			n, err := s.repo.DeactivateExpired(ctx)
			if err != nil {
				s.logger.Error("Expiry sweep failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info("Deactivated expired URLs", "count", n)
			}
		}
	}
}
