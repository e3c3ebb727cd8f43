package engine_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/disbursement-engine/engine"
	"github.com/warp/disbursement-engine/engine/store"
)

func newTestAggregator() *engine.Aggregator {
	agg := engine.NewAggregator(store.NewMemory())
	agg.Now = func() time.Time { return time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC) }
	return agg
}

// =============================================================================
// RECOMPUTE
// =============================================================================

func TestRecomputeCounts(t *testing.T) {
	records := []engine.Disbursement{
		{ID: "1", Status: engine.StatusPending},
		{ID: "2", Status: engine.StatusApproved},
		{ID: "3", Status: engine.StatusFailed},
		{ID: "4", Status: engine.StatusPending},
		{ID: "5", Status: engine.StatusFailed},
	}

	pending, failed := engine.RecomputeCounts(records)
	if pending != 2 {
		t.Errorf("expected 2 pending, got %d", pending)
	}
	if failed != 2 {
		t.Errorf("expected 2 failed, got %d", failed)
	}
}

func TestRecomputeCounts_Empty(t *testing.T) {
	pending, failed := engine.RecomputeCounts(nil)
	if pending != 0 || failed != 0 {
		t.Errorf("expected 0/0 for empty set, got %d/%d", pending, failed)
	}
}

// =============================================================================
// ACTIVITY FEED
// =============================================================================

func TestPushActivity_NewestFirst(t *testing.T) {
	ctx := context.Background()
	agg := newTestAggregator()

	for _, msg := range []string{"first", "second", "third"} {
		if err := agg.PushActivity(ctx, msg); err != nil {
			t.Fatalf("push %q: %v", msg, err)
		}
	}

	feed, err := agg.Feed(ctx)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	want := []string{"third", "second", "first"}
	if len(feed) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(feed))
	}
	for i, msg := range want {
		if feed[i].Message != msg {
			t.Errorf("feed[%d]: expected %q, got %q", i, msg, feed[i].Message)
		}
	}
}

func TestPushActivity_DeduplicatesByMessage(t *testing.T) {
	// GIVEN: A feed containing "₱500 disbursed to Acme Corp"
	// WHEN: Pushing the identical message again
	// THEN: Exactly one entry with that text remains

	ctx := context.Background()
	agg := newTestAggregator()

	msg := "₱500 disbursed to Acme Corp"
	if err := agg.PushActivity(ctx, msg); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := agg.PushActivity(ctx, "₱200 disbursed to Builders Inc"); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := agg.PushActivity(ctx, msg); err != nil {
		t.Fatalf("push duplicate: %v", err)
	}

	feed, err := agg.Feed(ctx)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}

	count := 0
	for _, entry := range feed {
		if entry.Message == msg {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly 1 entry with the message, got %d (feed: %+v)", count, feed)
	}
	if len(feed) != 2 {
		t.Errorf("expected 2 entries total, got %d", len(feed))
	}
	// The duplicate push moves the message to the front.
	if feed[0].Message != msg {
		t.Errorf("expected duplicate push at front, got %q", feed[0].Message)
	}
}

func TestPushActivity_CappedAtFifty(t *testing.T) {
	ctx := context.Background()
	agg := newTestAggregator()

	for i := 0; i < engine.ActivityFeedCap+10; i++ {
		if err := agg.PushActivity(ctx, fmt.Sprintf("event %d", i)); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}

	feed, err := agg.Feed(ctx)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(feed) != engine.ActivityFeedCap {
		t.Fatalf("expected cap of %d, got %d", engine.ActivityFeedCap, len(feed))
	}
	// Oldest entries fall off the end.
	if feed[0].Message != fmt.Sprintf("event %d", engine.ActivityFeedCap+9) {
		t.Errorf("newest entry wrong: %q", feed[0].Message)
	}
	if feed[len(feed)-1].Message != "event 10" {
		t.Errorf("oldest surviving entry wrong: %q", feed[len(feed)-1].Message)
	}
}

// =============================================================================
// SNAPSHOT
// =============================================================================

func TestSnapshot_UntouchedDayIsZeroValued(t *testing.T) {
	ctx := context.Background()
	agg := newTestAggregator()
	jun15 := day(2025, time.June, 15)

	stats, err := agg.Snapshot(ctx, jun15)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !stats.Day.Equal(jun15) {
		t.Errorf("day: %s", stats.Day)
	}
	if !stats.TotalDisbursed.IsZero() || stats.Pending != 0 || stats.Failed != 0 || stats.TotalRequested != 0 || stats.RefCounter != 0 {
		t.Errorf("expected zero-valued snapshot, got %+v", stats)
	}
}

func TestRecordApproval_AccumulatesTotal(t *testing.T) {
	ctx := context.Background()
	agg := newTestAggregator()
	jun15 := day(2025, time.June, 15)

	if err := agg.RecordApproval(ctx, jun15, decimal.NewFromInt(500)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := agg.RecordApproval(ctx, jun15, decimal.RequireFromString("249.75")); err != nil {
		t.Fatalf("record: %v", err)
	}

	stats, err := agg.Snapshot(ctx, jun15)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !stats.TotalDisbursed.Equal(decimal.RequireFromString("749.75")) {
		t.Errorf("expected 749.75, got %s", stats.TotalDisbursed)
	}
}
