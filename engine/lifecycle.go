/*
lifecycle.go - Disbursement lifecycle state machine

PURPOSE:
  Orchestrates creation, approval, failure, and deletion of disbursement
  requests, calling into the payee registry, reference generator,
  chart-of-accounts ledger, and stats aggregator, and guaranteeing their
  combined invariants.

STATE MACHINE:
  Pending  -> Approved   (ledger posted, terminal)
  Pending  -> Failed
  Pending  -> deleted    (cancellation before decision)
  Failed   -> deleted    (cleanup)

  Approved is terminal and immutable: it can be neither failed nor
  deleted. Approving a non-Pending record is rejected by the guard, which
  is what makes approval idempotent against retried requests - the second
  invocation fails with InvalidTransition and the ledger holds exactly
  one posting.

SUBMIT FLOW:
  validate fields -> resolve payee (UnknownPayee if absent) -> issue
  reference -> persist as Pending -> merge contact/method into the payee
  -> bump totalRequested -> recompute pending/failed.

APPROVE FLOW:
  guard (must be Pending) -> post credit/debit pair if both codes are
  present (skipped when absent; the amount is still recorded in stats) ->
  set Approved -> record amount in today's total -> recompute counts ->
  append "disbursed to <payee>" activity.

FAILURE HANDLING:
  A failed store call mid-operation is surfaced, never swallowed. Counts
  are recomputed from the full record set afterwards, so a partial
  failure cannot leave the counters drifted.

SEE ALSO:
  - registry.go, refgen.go, ledger.go, stats.go: The four collaborators
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// SUBMISSION - Input schema for a new disbursement request
// =============================================================================

type Submission struct {
	PayeeName     string
	Amount        decimal.Decimal
	Method        Method
	CreditAccount string
	DebitAccount  string
	Contact       string
	Date          Day // zero = today
	Reason        string
	CreatedBy     string
}

// =============================================================================
// MANAGER - Lifecycle orchestrator
// =============================================================================

type Manager struct {
	Store    Store
	Registry *Registry
	Refs     *ReferenceGenerator
	Ledger   *Ledger
	Stats    *Aggregator
	Now      func() time.Time
}

// NewManager wires the engine components over a single store.
func NewManager(store Store) *Manager {
	return &Manager{
		Store:    store,
		Registry: NewRegistry(store),
		Refs:     NewReferenceGenerator(store),
		Ledger:   NewLedger(store),
		Stats:    NewAggregator(store),
		Now:      time.Now,
	}
}

// today returns the manager's current calendar day. All stats mutations
// are keyed to the day the operation happens, not the disbursement date.
func (m *Manager) today() Day {
	return DayOf(m.Now())
}

// Submit validates the submission, issues a reference, and persists the
// request as Pending.
func (m *Manager) Submit(ctx context.Context, sub Submission) (*Disbursement, error) {
	if err := ValidateSubmission(sub); err != nil {
		return nil, err
	}

	// The payee must already exist in the registry; submission merges
	// details into it but never creates one from an unknown name.
	if _, err := m.Registry.Resolve(ctx, sub.PayeeName); err != nil {
		return nil, err
	}

	today := m.today()
	reference, err := m.Refs.Next(ctx, today)
	if err != nil {
		return nil, err
	}

	date := sub.Date
	if date.IsZero() {
		date = today
	}

	d := Disbursement{
		ID:            DisbursementID(uuid.NewString()),
		PayeeName:     sub.PayeeName,
		Amount:        sub.Amount,
		Method:        sub.Method,
		CreditAccount: sub.CreditAccount,
		DebitAccount:  sub.DebitAccount,
		Contact:       sub.Contact,
		Date:          date,
		Reason:        sub.Reason,
		Reference:     reference,
		Status:        StatusPending,
		CreatedBy:     sub.CreatedBy,
		CreatedAt:     m.Now(),
	}

	if err := m.Store.InsertDisbursement(ctx, d); err != nil {
		return nil, fmt.Errorf("persist disbursement: %w", err)
	}

	if err := m.Registry.UpsertFromSubmission(ctx, sub.PayeeName, sub.Contact, sub.Method); err != nil {
		return nil, err
	}

	if _, err := m.Stats.NextRequestedCount(ctx, today); err != nil {
		return nil, err
	}
	if err := m.Stats.SyncCounts(ctx, today); err != nil {
		return nil, err
	}

	return &d, nil
}

// Approve transitions Pending -> Approved, posting the balance pair when
// both account codes are present.
func (m *Manager) Approve(ctx context.Context, id DisbursementID) (*Disbursement, error) {
	d, err := m.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status != StatusPending {
		return nil, &InvalidTransitionError{ID: id, From: d.Status, To: StatusApproved}
	}

	// Post before flipping the status: if either code does not resolve,
	// approval fails with UnknownAccount and nothing mutates.
	if d.CreditAccount != "" && d.DebitAccount != "" {
		if err := m.Ledger.Post(ctx, d.CreditAccount, d.DebitAccount, d.Amount); err != nil {
			return nil, err
		}
	}

	d.Status = StatusApproved
	if err := m.Store.UpdateDisbursement(ctx, *d); err != nil {
		return nil, fmt.Errorf("persist approval: %w", err)
	}

	today := m.today()
	if err := m.Stats.RecordApproval(ctx, today, d.Amount); err != nil {
		return nil, err
	}
	if err := m.Stats.SyncCounts(ctx, today); err != nil {
		return nil, err
	}
	if err := m.Stats.PushActivity(ctx, fmt.Sprintf("₱%s disbursed to %s", d.Amount.String(), d.PayeeName)); err != nil {
		return nil, err
	}

	return d, nil
}

// Fail transitions Pending -> Failed. Failing an already-Failed or
// Approved record is rejected, so activity is never double-appended and
// nothing is double-counted.
func (m *Manager) Fail(ctx context.Context, id DisbursementID) (*Disbursement, error) {
	d, err := m.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status != StatusPending {
		return nil, &InvalidTransitionError{ID: id, From: d.Status, To: StatusFailed}
	}

	d.Status = StatusFailed
	if err := m.Store.UpdateDisbursement(ctx, *d); err != nil {
		return nil, fmt.Errorf("persist failure: %w", err)
	}

	today := m.today()
	if err := m.Stats.SyncCounts(ctx, today); err != nil {
		return nil, err
	}
	if err := m.Stats.PushActivity(ctx, fmt.Sprintf("₱%s disbursement cancelled for %s", d.Amount.String(), d.PayeeName)); err != nil {
		return nil, err
	}

	return d, nil
}

// Delete removes a Pending or Failed record. Approved records are never
// deletable through this path; the guard enforces it.
func (m *Manager) Delete(ctx context.Context, id DisbursementID) error {
	d, err := m.mustGet(ctx, id)
	if err != nil {
		return err
	}
	if d.Status == StatusApproved {
		return &InvalidTransitionError{ID: id, From: StatusApproved, To: "Deleted"}
	}

	if err := m.Store.DeleteDisbursement(ctx, id); err != nil {
		return fmt.Errorf("delete disbursement: %w", err)
	}
	return m.Stats.SyncCounts(ctx, m.today())
}

// Get returns a disbursement or ErrNotFound.
func (m *Manager) Get(ctx context.Context, id DisbursementID) (*Disbursement, error) {
	return m.mustGet(ctx, id)
}

// List returns all disbursements ordered by creation time.
func (m *Manager) List(ctx context.Context) ([]Disbursement, error) {
	return m.Store.ListDisbursements(ctx)
}

func (m *Manager) mustGet(ctx context.Context, id DisbursementID) (*Disbursement, error) {
	d, err := m.Store.GetDisbursement(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("disbursement %s: %w", id, ErrNotFound)
	}
	return d, nil
}
