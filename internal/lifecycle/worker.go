// Package lifecycle evolves the ticket collection over time without user
// action: resolved tickets past the retention threshold are pruned, and
// stale unresolved tickets are escalated to Critical.
package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/haloteknika/fiberdesk/internal/types"
)

// Updater runs a locked read-modify-write on a collection. Implemented by
// syncer.Engine, which serializes the pass against fetch cycles on the same
// collection.
type Updater interface {
	Update(ctx context.Context, collection string, fn func(current json.RawMessage) (json.RawMessage, bool, error)) error
}

// Notifier receives user-visible deletion notices. May be nil.
type Notifier func(deleted []types.Ticket)

// Worker applies the retention and escalation rules on a fixed period.
type Worker struct {
	updater   Updater
	interval  time.Duration
	threshold time.Duration
	notify    Notifier

	// now is swappable for tests.
	now func() time.Time

	firstPassDone bool
}

// NewWorker creates a lifecycle worker. threshold is the shared age cutoff
// for both retention and escalation.
func NewWorker(updater Updater, interval, threshold time.Duration, notify Notifier) *Worker {
	return &Worker{
		updater:   updater,
		interval:  interval,
		threshold: threshold,
		notify:    notify,
		now:       time.Now,
	}
}

// Run starts the worker loop: one pass immediately, then one per interval.
// Blocks until ctx is cancelled. The worker never fails outward; store
// errors are logged and the timer keeps running.
func (w *Worker) Run(ctx context.Context) {
	slog.Info("lifecycle worker started",
		"component", "lifecycle",
		"interval", w.interval.String(),
		"age_threshold", w.threshold.String(),
	)

	w.Pass(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("lifecycle worker stopped",
				"component", "lifecycle",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.Pass(ctx)
		}
	}
}

// Pass executes a single lifecycle pass. Deletion is computed first from the
// untouched collection, escalation on the post-deletion remainder; the two
// sets are disjoint because retention only touches Resolved tickets and
// escalation explicitly excludes them.
func (w *Worker) Pass(ctx context.Context) {
	start := w.now()
	suppressNotify := !w.firstPassDone
	w.firstPassDone = true

	var deleted, escalated []types.Ticket

	err := w.updater.Update(ctx, types.CollectionTickets, func(current json.RawMessage) (json.RawMessage, bool, error) {
		var tickets []types.Ticket
		if len(current) > 0 {
			if err := json.Unmarshal(current, &tickets); err != nil {
				return nil, false, fmt.Errorf("decode tickets: %w", err)
			}
		}

		next, del, esc := Apply(tickets, start, w.threshold)
		deleted, escalated = del, esc
		if len(del) == 0 && len(esc) == 0 {
			// No-op pass: no store write, no sync push.
			return nil, false, nil
		}

		encoded, err := json.Marshal(next)
		if err != nil {
			return nil, false, fmt.Errorf("encode tickets: %w", err)
		}
		return encoded, true, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("lifecycle pass failed",
			"component", "lifecycle",
			"action", "pass_failed",
			"error", err,
		)
		return
	}

	if len(deleted) == 0 && len(escalated) == 0 {
		return
	}

	slog.Info("lifecycle pass completed",
		"component", "lifecycle",
		"action", "pass_complete",
		"deleted", len(deleted),
		"escalated", len(escalated),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	// Deletions that predate this process are not news to the user.
	if len(deleted) > 0 && !suppressNotify && w.notify != nil {
		w.notify(deleted)
	}
}

// Apply computes one lifecycle pass over tickets as of now. It returns the
// surviving (possibly escalated) tickets in their original order, the
// deleted tickets, and the escalated tickets. Pure function; exported for
// direct use by tests and tooling.
func Apply(tickets []types.Ticket, now time.Time, threshold time.Duration) (next, deleted, escalated []types.Ticket) {
	// Rule A: retention. Resolved tickets at or past the threshold age are
	// dropped.
	remaining := make([]types.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Status == types.StatusResolved && t.Age(now) >= threshold {
			deleted = append(deleted, t)
			continue
		}
		remaining = append(remaining, t)
	}

	// Rule B: escalation, evaluated on the post-deletion remainder.
	for i, t := range remaining {
		if t.Status == types.StatusResolved || t.Status == types.StatusCritical {
			continue
		}
		if t.Age(now) >= threshold {
			remaining[i].Status = types.StatusCritical
			escalated = append(escalated, remaining[i])
		}
	}

	return remaining, deleted, escalated
}
