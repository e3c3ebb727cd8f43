/*
ledger.go - Chart-of-accounts ledger

PURPOSE:
  Holds account balances and exposes the posting operation that applies a
  paired credit/debit delta when a disbursement is approved.

POSTING INVARIANTS:
  1. ATOMIC: Both legs are applied together or not at all. The store's
     PostBalances runs both updates in one transaction; a crash or
     concurrent read never observes one leg without the other.
  2. VALIDATED: If either account code does not resolve, the whole
     posting fails with UnknownAccountError and neither balance changes.
  3. EXACTLY ONCE: Every Approved disbursement has exactly one matching
     posting. The lifecycle state machine guard (status must be Pending)
     makes approval idempotent against re-invocation.

SEE ALSO:
  - store.go: PostBalances contract
  - lifecycle.go: Approve calls Post
*/
package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	Store AccountStore
}

func NewLedger(store AccountStore) *Ledger {
	return &Ledger{Store: store}
}

// Accounts returns the chart of accounts ordered by account code.
func (l *Ledger) Accounts(ctx context.Context) ([]Account, error) {
	return l.Store.ListAccounts(ctx)
}

// Account returns a single entry or ErrNotFound.
func (l *Ledger) Account(ctx context.Context, code string) (*Account, error) {
	a, err := l.Store.GetAccount(ctx, code)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("account %s: %w", code, ErrNotFound)
	}
	return a, nil
}

// Post applies the paired delta: credit account balance += amount, debit
// account balance -= amount.
func (l *Ledger) Post(ctx context.Context, creditCode, debitCode string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "must be positive"}
	}
	if creditCode == "" || debitCode == "" {
		return &ValidationError{Field: "account", Message: "both credit and debit codes are required"}
	}
	return l.Store.PostBalances(ctx, creditCode, debitCode, amount)
}

// AddAccount creates a chart entry with a zero balance. Fails with
// ErrConflict if the code exists.
func (l *Ledger) AddAccount(ctx context.Context, code, name string, accountType AccountType) (*Account, error) {
	if code == "" {
		return nil, &ValidationError{Field: "code", Message: "required"}
	}
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "required"}
	}
	if !accountType.Valid() {
		return nil, &ValidationError{Field: "type", Message: "unknown account type"}
	}

	a := Account{Code: code, Name: name, Type: accountType, Balance: decimal.Zero}
	if err := l.Store.InsertAccount(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAccount overwrites name and type. The balance is untouchable
// through this path.
func (l *Ledger) UpdateAccount(ctx context.Context, code, name string, accountType AccountType) error {
	if !accountType.Valid() {
		return &ValidationError{Field: "type", Message: "unknown account type"}
	}
	return l.Store.UpdateAccount(ctx, code, name, accountType)
}

// DeleteAccount removes the entry. Fails with ErrNotFound if absent.
func (l *Ledger) DeleteAccount(ctx context.Context, code string) error {
	return l.Store.DeleteAccount(ctx, code)
}

// =============================================================================
// DEFAULT CHART - Seed set for a fresh store
// =============================================================================

// DefaultChartOfAccounts returns the starter chart used by a fresh
// installation.
func DefaultChartOfAccounts() []Account {
	entries := []struct {
		code string
		name string
		typ  AccountType
	}{
		{"1001", "Cash", AccountAsset},
		{"1002", "Accounts Receivable", AccountAsset},
		{"1003", "Office Equipment", AccountAsset},
		{"2001", "Accounts Payable", AccountLiability},
		{"2002", "Loans Payable", AccountLiability},
		{"3001", "Owner's Equity", AccountEquity},
		{"4001", "Materials", AccountExpense},
		{"4002", "Salaries", AccountExpense},
		{"4003", "Utilities", AccountExpense},
		{"5001", "Service Revenue", AccountRevenue},
	}

	accounts := make([]Account, len(entries))
	for i, e := range entries {
		accounts[i] = Account{Code: e.code, Name: e.name, Type: e.typ, Balance: decimal.Zero}
	}
	return accounts
}

// SeedDefaultAccounts inserts the default chart, skipping codes that
// already exist.
func SeedDefaultAccounts(ctx context.Context, store AccountStore) error {
	for _, a := range DefaultChartOfAccounts() {
		err := store.InsertAccount(ctx, a)
		if err != nil && !IsConflict(err) {
			return err
		}
	}
	return nil
}
