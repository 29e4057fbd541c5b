// Package progress reports crawl completion counts.
package progress

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/toonstats/toonstats/internal/metrics"
)

// Outcome classifies how a chapter's unit of work finished.
type Outcome string

const (
	OutcomeEmitted Outcome = "emitted"
	OutcomeSkipped Outcome = "skipped"
	OutcomeDropped Outcome = "dropped"
)

// Tracker counts processed units against a known total. It is safe for
// concurrent use by all workers of a crawl.
type Tracker struct {
	runID     string
	total     int64
	processed atomic.Int64
	logger    *zap.Logger
}

// NewTracker builds a Tracker for one crawl run.
func NewTracker(runID string, total int, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{runID: runID, total: int64(total), logger: logger}
}

// Done records one finished unit and its outcome.
func (t *Tracker) Done(number int, outcome Outcome) {
	processed := t.processed.Add(1)
	metrics.ObserveChapter(string(outcome))
	t.logger.Debug("chapter processed",
		zap.String("run_id", t.runID),
		zap.Int("chapter", number),
		zap.String("outcome", string(outcome)),
		zap.Int64("processed", processed),
		zap.Int64("total", t.total),
	)
}

// Processed returns the number of finished units so far.
func (t *Tracker) Processed() int {
	return int(t.processed.Load())
}

// Total returns the number of requested units.
func (t *Tracker) Total() int {
	return int(t.total)
}
