/*
registry.go - Payee registry with name-based deduplication

PURPOSE:
  Owns payee records and enforces name uniqueness (case-sensitive).
  Resolves submitted names to payees, merges submission details into
  existing payees, and handles explicit add/update/delete.

OWNERSHIP:
  The registry exclusively owns payee records. Disbursements hold the
  payee name as a denormalized string, so deleting a payee never cascades
  to historical records.

SEE ALSO:
  - lifecycle.go: Calls Resolve and UpsertFromSubmission on submit
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// REGISTRY
// =============================================================================

type Registry struct {
	Store PayeeStore
	Now   func() time.Time
}

func NewRegistry(store PayeeStore) *Registry {
	return &Registry{Store: store, Now: time.Now}
}

// Resolve returns the payee with the exact, case-sensitive name, or
// ErrUnknownPayee.
func (r *Registry) Resolve(ctx context.Context, name string) (*Payee, error) {
	p, err := r.Store.FindPayeeByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolve payee: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("payee %q: %w", name, ErrUnknownPayee)
	}
	return p, nil
}

// UpsertFromSubmission records the contact and method from a disbursement
// submission. A new payee is created with empty account details if the
// name is unknown; otherwise only contact and method are merged in,
// leaving the other fields untouched.
func (r *Registry) UpsertFromSubmission(ctx context.Context, name, contact string, method Method) error {
	existing, err := r.Store.FindPayeeByName(ctx, name)
	if err != nil {
		return fmt.Errorf("upsert payee: %w", err)
	}

	if existing == nil {
		return r.Store.InsertPayee(ctx, Payee{
			ID:        PayeeID(uuid.NewString()),
			Name:      name,
			Contact:   contact,
			Method:    method,
			CreatedAt: r.Now(),
		})
	}

	existing.Contact = contact
	existing.Method = method
	return r.Store.UpdatePayee(ctx, *existing)
}

// Add is the explicit creation path. Fails with ErrConflict if the name
// already exists.
func (r *Registry) Add(ctx context.Context, p Payee) (*Payee, error) {
	if p.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "required"}
	}
	if p.ID == "" {
		p.ID = PayeeID(uuid.NewString())
	}
	p.CreatedAt = r.Now()
	if err := r.Store.InsertPayee(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update is a full-field overwrite. Fails with ErrNotFound if the id is
// absent.
func (r *Registry) Update(ctx context.Context, id PayeeID, fields Payee) (*Payee, error) {
	if fields.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "required"}
	}
	existing, err := r.Store.GetPayee(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("payee %s: %w", id, ErrNotFound)
	}

	fields.ID = id
	fields.CreatedAt = existing.CreatedAt
	if err := r.Store.UpdatePayee(ctx, fields); err != nil {
		return nil, err
	}
	return &fields, nil
}

// Delete hard-deletes the payee. Historical disbursements keep the name.
func (r *Registry) Delete(ctx context.Context, id PayeeID) error {
	return r.Store.DeletePayee(ctx, id)
}

// List returns all payees.
func (r *Registry) List(ctx context.Context) ([]Payee, error) {
	return r.Store.ListPayees(ctx)
}
