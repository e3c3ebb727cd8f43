/*
Package engine provides the core disbursement workflow engine.

PURPOSE:
  This package contains the types and operations for the disbursement
  request lifecycle: payees request payments, an approver approves (posting
  a paired balance change against the chart of accounts) or fails the
  request, and per-day aggregate statistics stay consistent throughout.

KEY CONCEPTS IN THIS FILE (types.go):
  - Disbursement: A payment request tracked through Pending/Approved/Failed
  - Payee: The counterparty, identified by a unique name
  - Account: A chart-of-accounts entry with a running balance
  - DailyStats: Per-calendar-day counters and the reference sequence
  - Activity: A recent-activity feed entry

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Fixed schema: Every entity has explicit required/optional fields;
     unknown fields are rejected at the boundary, never defaulted
  3. Type Safety: Strong typing for IDs and enums
  4. Recompute over drift: Pending/failed counts are always recomputed
     from the record set, never incremented in place

USAGE:
  mgr := engine.NewManager(store)
  d, err := mgr.Submit(ctx, engine.Submission{
      PayeeName: "Acme Corp",
      Amount:    decimal.NewFromInt(1000),
      Method:    engine.MethodCash,
  })

SEE ALSO:
  - lifecycle.go: The state machine orchestrating the other components
  - store.go: Record store interfaces
  - errors.go: Error taxonomy
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PayeeID string
type DisbursementID string

// =============================================================================
// ENUMS - Payment method, lifecycle status, account type
// =============================================================================

type Method string

const (
	MethodCash          Method = "Cash"
	MethodBankTransfer  Method = "Bank Transfer"
	MethodOnlinePayment Method = "Online Payment"
	MethodCheck         Method = "Check"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodOnlinePayment, MethodCheck:
		return true
	}
	return false
}

// Status is the lifecycle state of a disbursement.
//
// Valid transitions:
//
//	Pending  -> Approved (terminal, ledger posted)
//	Pending  -> Failed
//	Pending  -> deleted  (cancellation before decision)
//	Failed   -> deleted  (cleanup)
//
// Approved records are immutable and never deletable.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusFailed   Status = "Failed"
)

type AccountType string

const (
	AccountAsset     AccountType = "Asset"
	AccountLiability AccountType = "Liability"
	AccountEquity    AccountType = "Equity"
	AccountRevenue   AccountType = "Revenue"
	AccountExpense   AccountType = "Expense"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountAsset, AccountLiability, AccountEquity, AccountRevenue, AccountExpense:
		return true
	}
	return false
}

// =============================================================================
// PAYEE - Registry record, unique by name (case-sensitive)
// =============================================================================

type Payee struct {
	ID            PayeeID
	Name          string // case-sensitive exact-match key
	Contact       string
	Method        Method // last payment method used
	TaxID         string
	Address       string
	ContactPerson string
	Account       string // bank/account reference
	CreatedAt     time.Time
}

// =============================================================================
// DISBURSEMENT - A payment request
// =============================================================================

// Disbursement holds the payee name as a denormalized string: deleting the
// payee does not cascade to historical records.
type Disbursement struct {
	ID            DisbursementID
	PayeeName     string
	Amount        decimal.Decimal
	Method        Method
	CreditAccount string // chart-of-accounts code; empty = posting skipped
	DebitAccount  string // manual entry; empty = posting skipped
	Contact       string
	Date          Day
	Reason        string
	Reference     string // unique day-scoped reference code
	Status        Status
	CreatedBy     string
	CreatedAt     time.Time
}

// =============================================================================
// ACCOUNT - Chart-of-accounts entry
// =============================================================================

// Account balances are mutated only by ledger postings triggered by an
// approval, never by direct edit.
type Account struct {
	Code    string
	Name    string
	Type    AccountType
	Balance decimal.Decimal
}

// =============================================================================
// DAILY STATS - Per-calendar-day aggregate row
// =============================================================================

// DailyStats is created lazily the first time a day is touched and never
// deleted. RefCounter strictly increases within the day and backs the
// reference generator. TotalRequested is the all-time submission count,
// attached to the current day for bootstrap purposes.
type DailyStats struct {
	Day            Day
	TotalDisbursed decimal.Decimal // only increases, once per approval
	Pending        int             // == count(status == Pending), recomputed
	Failed         int             // == count(status == Failed), recomputed
	TotalRequested int64
	RefCounter     int64
}

// =============================================================================
// ACTIVITY - Recent-activity feed entry
// =============================================================================

// Activity entries are kept newest first, deduplicated by message text,
// and capped (see stats.go).
type Activity struct {
	Message string
	At      time.Time
}
