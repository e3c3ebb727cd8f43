/*
refgen.go - Monotonic day-scoped reference generator

PURPOSE:
  Produces the unique reference code assigned to every disbursement at
  submission time: DISB-YYYYMMDD-NNNNN, where NNNNN is the day's counter
  zero-padded to 5 digits.

UNIQUENESS GUARANTEE:
  No two calls for the same day ever return the same code, even under
  concurrent invocation. This rests entirely on the store's
  IncrementRefCounter being a single atomic increment-and-read. A
  read-then-increment pair executed here would let two concurrent
  submissions read the same counter value - the known failure mode this
  design avoids.

SEE ALSO:
  - store.go: IncrementRefCounter contract
*/
package engine

import (
	"context"
	"fmt"
)

// =============================================================================
// REFERENCE GENERATOR
// =============================================================================

const DefaultReferencePrefix = "DISB"

type ReferenceGenerator struct {
	Store  StatsStore
	Prefix string // defaults to DISB
}

func NewReferenceGenerator(store StatsStore) *ReferenceGenerator {
	return &ReferenceGenerator{Store: store, Prefix: DefaultReferencePrefix}
}

// Next issues the next reference code for the given day. The counter row
// is created lazily with the first issuance.
func (g *ReferenceGenerator) Next(ctx context.Context, day Day) (string, error) {
	n, err := g.Store.IncrementRefCounter(ctx, day)
	if err != nil {
		return "", fmt.Errorf("issue reference: %w", err)
	}
	return g.format(day, n), nil
}

// Peek returns the code the NEXT submission would receive, without
// reserving it. Display only: two peeks can return the same value.
func (g *ReferenceGenerator) Peek(ctx context.Context, day Day) (string, error) {
	stats, err := g.Store.GetDailyStats(ctx, day)
	if err != nil {
		return "", fmt.Errorf("peek reference: %w", err)
	}
	var counter int64
	if stats != nil {
		counter = stats.RefCounter
	}
	return g.format(day, counter+1), nil
}

func (g *ReferenceGenerator) format(day Day, n int64) string {
	prefix := g.Prefix
	if prefix == "" {
		prefix = DefaultReferencePrefix
	}
	return fmt.Sprintf("%s-%s-%05d", prefix, day.Compact(), n)
}
