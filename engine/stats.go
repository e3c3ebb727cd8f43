/*
stats.go - Daily statistics aggregator and recent-activity feed

PURPOSE:
  Maintains the per-day counters (pending count, failed count, total
  disbursed amount, total requested count) and the capped, deduplicated
  recent-activity feed.

RECOMPUTE OVER DRIFT:
  Pending/failed counts are never incremented or decremented in place.
  After every mutating operation the lifecycle manager recomputes both
  from the authoritative record set and writes the result back. Missed or
  doubled increments were the documented source of drift in the system
  this replaces; the full recompute trades a little efficiency for
  correctness and is intentional.

ACTIVITY FEED:
  PushActivity prepends the new entry, keeps only the first occurrence of
  each distinct message, and truncates to the cap. Pushing the same
  message twice therefore leaves exactly one entry with that text.

SEE ALSO:
  - lifecycle.go: Calls SyncCounts after every mutation
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AGGREGATOR
// =============================================================================

// ActivityFeedCap bounds the recent-activity feed.
const ActivityFeedCap = 50

type Aggregator struct {
	Store Store
	Now   func() time.Time
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{Store: store, Now: time.Now}
}

// RecomputeCounts is a pure function over the current record set.
func RecomputeCounts(disbursements []Disbursement) (pending, failed int) {
	for _, d := range disbursements {
		switch d.Status {
		case StatusPending:
			pending++
		case StatusFailed:
			failed++
		}
	}
	return pending, failed
}

// SyncCounts recomputes pending/failed from the full record set and
// writes the result to the day's stats row.
func (a *Aggregator) SyncCounts(ctx context.Context, day Day) error {
	all, err := a.Store.ListDisbursements(ctx)
	if err != nil {
		return fmt.Errorf("sync counts: %w", err)
	}
	pending, failed := RecomputeCounts(all)
	if err := a.Store.SetDayCounts(ctx, day, pending, failed); err != nil {
		return fmt.Errorf("sync counts: %w", err)
	}
	return nil
}

// RecordApproval adds amount to the day's disbursed total. The lifecycle
// manager invokes this exactly once per approval; the state machine guard
// prevents re-invocation for the same disbursement.
func (a *Aggregator) RecordApproval(ctx context.Context, day Day, amount decimal.Decimal) error {
	if _, err := a.Store.AddDisbursedTotal(ctx, day, amount); err != nil {
		return fmt.Errorf("record approval: %w", err)
	}
	return nil
}

// NextRequestedCount increments and returns the all-time submitted count.
func (a *Aggregator) NextRequestedCount(ctx context.Context, day Day) (int64, error) {
	return a.Store.IncrementTotalRequested(ctx, day)
}

// PushActivity prepends a timestamped entry, dedupes by message text
// (first occurrence wins), and truncates to ActivityFeedCap.
func (a *Aggregator) PushActivity(ctx context.Context, message string) error {
	feed, err := a.Store.RecentActivity(ctx)
	if err != nil {
		return fmt.Errorf("push activity: %w", err)
	}

	merged := append([]Activity{{Message: message, At: a.Now()}}, feed...)

	seen := make(map[string]bool, len(merged))
	deduped := merged[:0]
	for _, entry := range merged {
		if seen[entry.Message] {
			continue
		}
		seen[entry.Message] = true
		deduped = append(deduped, entry)
	}

	if len(deduped) > ActivityFeedCap {
		deduped = deduped[:ActivityFeedCap]
	}

	if err := a.Store.SaveRecentActivity(ctx, deduped); err != nil {
		return fmt.Errorf("push activity: %w", err)
	}
	return nil
}

// Feed returns the recent-activity feed, newest first.
func (a *Aggregator) Feed(ctx context.Context) ([]Activity, error) {
	return a.Store.RecentActivity(ctx)
}

// Snapshot returns the day's stats, zero-valued if the day was never
// touched.
func (a *Aggregator) Snapshot(ctx context.Context, day Day) (*DailyStats, error) {
	stats, err := a.Store.GetDailyStats(ctx, day)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return &DailyStats{Day: day, TotalDisbursed: decimal.Zero}, nil
	}
	return stats, nil
}
