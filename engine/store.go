/*
store.go - Record store interfaces for the disbursement engine

PURPOSE:
  Defines the interface between the engine and the backing store.
  Different implementations can use SQLite or in-memory storage.

COLLECTIONS:
  Payees, Disbursements, ChartOfAccounts, DailyStats, plus the
  RecentActivity feed.

ATOMIC PRIMITIVES:
  Two operations are hazardous under concurrent callers and MUST be a
  single atomic operation inside the store, never a read-modify-write
  pair executed by the engine:

  1. IncrementRefCounter: two concurrent submissions must never receive
     the same reference number.
  2. PostBalances: the paired credit/debit update is applied together or
     not at all; a concurrent read never observes one leg without the
     other.

  The engine deliberately does NOT keep local counters in sync
  incrementally: after every mutation it recomputes pending/failed from
  the full record set and writes the result back (SetDayCounts). This
  trades efficiency for correctness.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - engine/store/memory.go: In-memory for testing/dev

SEE ALSO:
  - lifecycle.go: The orchestrator calling into these interfaces
*/
package engine

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE - Composed record store
// =============================================================================

// Store is the full backing store the engine operates on. Get* methods
// return (nil, nil) when the record is absent; Update*/Delete* return
// ErrNotFound; Insert* return ErrConflict on a duplicate key.
type Store interface {
	PayeeStore
	DisbursementStore
	AccountStore
	StatsStore
	ActivityStore
}

// PayeeStore owns payee records. Name is a case-sensitive unique key.
type PayeeStore interface {
	ListPayees(ctx context.Context) ([]Payee, error)
	GetPayee(ctx context.Context, id PayeeID) (*Payee, error)

	// FindPayeeByName is an exact, case-sensitive match.
	FindPayeeByName(ctx context.Context, name string) (*Payee, error)

	InsertPayee(ctx context.Context, p Payee) error
	UpdatePayee(ctx context.Context, p Payee) error
	DeletePayee(ctx context.Context, id PayeeID) error
}

type DisbursementStore interface {
	// ListDisbursements returns all records ordered by creation time.
	ListDisbursements(ctx context.Context) ([]Disbursement, error)
	GetDisbursement(ctx context.Context, id DisbursementID) (*Disbursement, error)
	InsertDisbursement(ctx context.Context, d Disbursement) error
	UpdateDisbursement(ctx context.Context, d Disbursement) error
	DeleteDisbursement(ctx context.Context, id DisbursementID) error
}

type AccountStore interface {
	// ListAccounts returns all accounts ordered by account code.
	ListAccounts(ctx context.Context) ([]Account, error)
	GetAccount(ctx context.Context, code string) (*Account, error)
	InsertAccount(ctx context.Context, a Account) error

	// UpdateAccount overwrites name and type only. Balance is NOT
	// user-editable; it changes only through PostBalances.
	UpdateAccount(ctx context.Context, code, name string, accountType AccountType) error
	DeleteAccount(ctx context.Context, code string) error

	// PostBalances applies the paired delta atomically: the credit
	// account's balance increases by amount, the debit account's balance
	// decreases by amount. If either code does not resolve, it returns an
	// UnknownAccountError and neither balance changes.
	PostBalances(ctx context.Context, creditCode, debitCode string, amount decimal.Decimal) error
}

// StatsStore holds per-day aggregate rows, created lazily on first touch.
type StatsStore interface {
	// GetDailyStats returns (nil, nil) if the day has never been touched.
	GetDailyStats(ctx context.Context, day Day) (*DailyStats, error)

	// IncrementRefCounter atomically increments the day's reference
	// counter and returns the NEW value, creating the row if absent.
	IncrementRefCounter(ctx context.Context, day Day) (int64, error)

	// IncrementTotalRequested atomically increments the all-time
	// submission count and returns the new value.
	IncrementTotalRequested(ctx context.Context, day Day) (int64, error)

	// AddDisbursedTotal adds amount to the day's disbursed total and
	// returns the new total.
	AddDisbursedTotal(ctx context.Context, day Day, amount decimal.Decimal) (decimal.Decimal, error)

	// SetDayCounts overwrites the recomputed pending/failed counts.
	SetDayCounts(ctx context.Context, day Day, pending, failed int) error
}

// ActivityStore holds the recent-activity feed, newest first. The feed is
// saved wholesale because deduplication and capping rewrite it.
type ActivityStore interface {
	RecentActivity(ctx context.Context) ([]Activity, error)
	SaveRecentActivity(ctx context.Context, feed []Activity) error
}
