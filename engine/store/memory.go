// Package store provides Store implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/disbursement-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements engine.Store with mutex-guarded maps. The counter
// operations run under the write lock, which gives them the same
// atomicity the SQLite store gets from single-statement upserts.
type Memory struct {
	mu            sync.RWMutex
	payees        map[engine.PayeeID]engine.Payee
	disbursements map[engine.DisbursementID]engine.Disbursement
	accounts      map[string]engine.Account
	stats         map[string]engine.DailyStats // keyed by Day.String()
	activity      []engine.Activity

	insertSeq int64 // preserves ListDisbursements creation order
	order     map[engine.DisbursementID]int64
}

func NewMemory() *Memory {
	return &Memory{
		payees:        make(map[engine.PayeeID]engine.Payee),
		disbursements: make(map[engine.DisbursementID]engine.Disbursement),
		accounts:      make(map[string]engine.Account),
		stats:         make(map[string]engine.DailyStats),
		order:         make(map[engine.DisbursementID]int64),
	}
}

// =============================================================================
// PAYEES
// =============================================================================

func (m *Memory) ListPayees(_ context.Context) ([]engine.Payee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]engine.Payee, 0, len(m.payees))
	for _, p := range m.payees {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *Memory) GetPayee(_ context.Context, id engine.PayeeID) (*engine.Payee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.payees[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) FindPayeeByName(_ context.Context, name string) (*engine.Payee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.payees {
		if p.Name == name {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (m *Memory) InsertPayee(_ context.Context, p engine.Payee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.payees[p.ID]; ok {
		return fmt.Errorf("payee %s: %w", p.ID, engine.ErrConflict)
	}
	for _, existing := range m.payees {
		if existing.Name == p.Name {
			return fmt.Errorf("payee name %q: %w", p.Name, engine.ErrConflict)
		}
	}
	m.payees[p.ID] = p
	return nil
}

func (m *Memory) UpdatePayee(_ context.Context, p engine.Payee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.payees[p.ID]; !ok {
		return fmt.Errorf("payee %s: %w", p.ID, engine.ErrNotFound)
	}
	for id, existing := range m.payees {
		if id != p.ID && existing.Name == p.Name {
			return fmt.Errorf("payee name %q: %w", p.Name, engine.ErrConflict)
		}
	}
	m.payees[p.ID] = p
	return nil
}

func (m *Memory) DeletePayee(_ context.Context, id engine.PayeeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.payees[id]; !ok {
		return fmt.Errorf("payee %s: %w", id, engine.ErrNotFound)
	}
	delete(m.payees, id)
	return nil
}

// =============================================================================
// DISBURSEMENTS
// =============================================================================

func (m *Memory) ListDisbursements(_ context.Context) ([]engine.Disbursement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]engine.Disbursement, 0, len(m.disbursements))
	for _, d := range m.disbursements {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool {
		return m.order[result[i].ID] < m.order[result[j].ID]
	})
	return result, nil
}

func (m *Memory) GetDisbursement(_ context.Context, id engine.DisbursementID) (*engine.Disbursement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.disbursements[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *Memory) InsertDisbursement(_ context.Context, d engine.Disbursement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.disbursements[d.ID]; ok {
		return fmt.Errorf("disbursement %s: %w", d.ID, engine.ErrConflict)
	}
	for _, existing := range m.disbursements {
		if existing.Reference == d.Reference {
			return fmt.Errorf("reference %s: %w", d.Reference, engine.ErrConflict)
		}
	}
	m.insertSeq++
	m.order[d.ID] = m.insertSeq
	m.disbursements[d.ID] = d
	return nil
}

func (m *Memory) UpdateDisbursement(_ context.Context, d engine.Disbursement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.disbursements[d.ID]; !ok {
		return fmt.Errorf("disbursement %s: %w", d.ID, engine.ErrNotFound)
	}
	m.disbursements[d.ID] = d
	return nil
}

func (m *Memory) DeleteDisbursement(_ context.Context, id engine.DisbursementID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.disbursements[id]; !ok {
		return fmt.Errorf("disbursement %s: %w", id, engine.ErrNotFound)
	}
	delete(m.disbursements, id)
	delete(m.order, id)
	return nil
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (m *Memory) ListAccounts(_ context.Context) ([]engine.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]engine.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return accountCodeLess(result[i].Code, result[j].Code) })
	return result, nil
}

// accountCodeLess orders numerically when both codes are numeric.
func accountCodeLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

func (m *Memory) GetAccount(_ context.Context, code string) (*engine.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[code]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *Memory) InsertAccount(_ context.Context, a engine.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[a.Code]; ok {
		return fmt.Errorf("account %s: %w", a.Code, engine.ErrConflict)
	}
	m.accounts[a.Code] = a
	return nil
}

func (m *Memory) UpdateAccount(_ context.Context, code, name string, accountType engine.AccountType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[code]
	if !ok {
		return fmt.Errorf("account %s: %w", code, engine.ErrNotFound)
	}
	a.Name = name
	a.Type = accountType
	m.accounts[code] = a
	return nil
}

func (m *Memory) DeleteAccount(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[code]; !ok {
		return fmt.Errorf("account %s: %w", code, engine.ErrNotFound)
	}
	delete(m.accounts, code)
	return nil
}

// PostBalances applies both legs under the write lock: no reader can
// observe the credit applied without the debit.
func (m *Memory) PostBalances(_ context.Context, creditCode, debitCode string, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	credit, ok := m.accounts[creditCode]
	if !ok {
		return &engine.UnknownAccountError{Code: creditCode}
	}
	debit, ok := m.accounts[debitCode]
	if !ok {
		return &engine.UnknownAccountError{Code: debitCode}
	}

	credit.Balance = credit.Balance.Add(amount)
	debit.Balance = debit.Balance.Sub(amount)
	m.accounts[creditCode] = credit
	m.accounts[debitCode] = debit
	return nil
}

// =============================================================================
// DAILY STATS
// =============================================================================

func (m *Memory) GetDailyStats(_ context.Context, day engine.Day) (*engine.DailyStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.stats[day.String()]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// statsLocked returns the day's row, creating it lazily. Caller holds the
// write lock.
func (m *Memory) statsLocked(day engine.Day) engine.DailyStats {
	s, ok := m.stats[day.String()]
	if !ok {
		s = engine.DailyStats{Day: day, TotalDisbursed: decimal.Zero}
	}
	return s
}

func (m *Memory) IncrementRefCounter(_ context.Context, day engine.Day) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.statsLocked(day)
	s.RefCounter++
	m.stats[day.String()] = s
	return s.RefCounter, nil
}

func (m *Memory) IncrementTotalRequested(_ context.Context, day engine.Day) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.statsLocked(day)
	s.TotalRequested++
	m.stats[day.String()] = s
	return s.TotalRequested, nil
}

func (m *Memory) AddDisbursedTotal(_ context.Context, day engine.Day, amount decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.statsLocked(day)
	s.TotalDisbursed = s.TotalDisbursed.Add(amount)
	m.stats[day.String()] = s
	return s.TotalDisbursed, nil
}

func (m *Memory) SetDayCounts(_ context.Context, day engine.Day, pending, failed int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.statsLocked(day)
	s.Pending = pending
	s.Failed = failed
	m.stats[day.String()] = s
	return nil
}

// =============================================================================
// RECENT ACTIVITY
// =============================================================================

func (m *Memory) RecentActivity(_ context.Context) ([]engine.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]engine.Activity, len(m.activity))
	copy(result, m.activity)
	return result, nil
}

func (m *Memory) SaveRecentActivity(_ context.Context, feed []engine.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.activity = make([]engine.Activity, len(feed))
	copy(m.activity, feed)
	return nil
}
