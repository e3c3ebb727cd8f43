/*
sqlite_test.go - Store contract tests against a real SQLite database

Tests for:
- CRUD round-trips for all five collections
- Conflict and not-found mapping
- Atomic reference counter under concurrency
- Paired balance posting (all-or-nothing)
*/
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/disbursement-engine/engine"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPayee(id, name string) engine.Payee {
	return engine.Payee{
		ID:        engine.PayeeID(id),
		Name:      name,
		Contact:   "ap@acme.example.com",
		Method:    engine.MethodBankTransfer,
		TaxID:     "123-456-789",
		CreatedAt: time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC),
	}
}

func testDisbursement(id, reference string) engine.Disbursement {
	return engine.Disbursement{
		ID:            engine.DisbursementID(id),
		PayeeName:     "Acme Corp",
		Amount:        decimal.RequireFromString("500.25"),
		Method:        engine.MethodCash,
		CreditAccount: "1001",
		DebitAccount:  "4001",
		Contact:       "0917 123 4567",
		Date:          engine.NewDay(2025, time.June, 15),
		Reason:        "materials purchase",
		Reference:     reference,
		Status:        engine.StatusPending,
		CreatedAt:     time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC),
	}
}

// =============================================================================
// PAYEES
// =============================================================================

func TestPayeeCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p := testPayee("p-1", "Acme Corp")
	if err := s.InsertPayee(ctx, p); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetPayee(ctx, "p-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Name != "Acme Corp" || got.Method != engine.MethodBankTransfer {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("created_at mismatch: %v vs %v", got.CreatedAt, p.CreatedAt)
	}

	got.Contact = "0917 999 8888"
	if err := s.UpdatePayee(ctx, *got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = s.GetPayee(ctx, "p-1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Contact != "0917 999 8888" {
		t.Errorf("update not persisted: %s", got.Contact)
	}

	if err := s.DeletePayee(ctx, "p-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = s.GetPayee(ctx, "p-1")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Errorf("payee should be gone, got %+v", got)
	}
}

func TestInsertPayee_DuplicateNameConflicts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.InsertPayee(ctx, testPayee("p-1", "Acme Corp")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := s.InsertPayee(ctx, testPayee("p-2", "Acme Corp"))
	if !errors.Is(err, engine.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestFindPayeeByName_CaseSensitive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.InsertPayee(ctx, testPayee("p-1", "Acme Corp")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.FindPayeeByName(ctx, "Acme Corp")
	if err != nil || got == nil {
		t.Fatalf("exact match should resolve, got %v / %v", got, err)
	}

	got, err = s.FindPayeeByName(ctx, "acme corp")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != nil {
		t.Errorf("lookup must be case-sensitive, matched %+v", got)
	}
}

func TestUpdatePayee_MissingNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdatePayee(context.Background(), testPayee("ghost", "Ghost"))
	if !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// =============================================================================
// DISBURSEMENTS
// =============================================================================

func TestDisbursementCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	d := testDisbursement("d-1", "DISB-20250615-00001")
	if err := s.InsertDisbursement(ctx, d); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetDisbursement(ctx, "d-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("not found after insert")
	}
	if !got.Amount.Equal(d.Amount) {
		t.Errorf("amount round-trip: %s vs %s", got.Amount, d.Amount)
	}
	if !got.Date.Equal(d.Date) {
		t.Errorf("date round-trip: %s vs %s", got.Date, d.Date)
	}
	if got.Reference != d.Reference || got.Status != engine.StatusPending {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	got.Status = engine.StatusApproved
	if err := s.UpdateDisbursement(ctx, *got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.GetDisbursement(ctx, "d-1")
	if got.Status != engine.StatusApproved {
		t.Errorf("status not persisted: %s", got.Status)
	}

	if err := s.DeleteDisbursement(ctx, "d-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteDisbursement(ctx, "d-1"); !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestInsertDisbursement_DuplicateReferenceConflicts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.InsertDisbursement(ctx, testDisbursement("d-1", "DISB-20250615-00001")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := s.InsertDisbursement(ctx, testDisbursement("d-2", "DISB-20250615-00001"))
	if !errors.Is(err, engine.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestListDisbursements_CreationOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"d-1", "d-2", "d-3"} {
		d := testDisbursement(id, fmt.Sprintf("DISB-20250615-%05d", i+1))
		d.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := s.InsertDisbursement(ctx, d); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	all, err := s.ListDisbursements(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3, got %d", len(all))
	}
	for i, want := range []engine.DisbursementID{"d-1", "d-2", "d-3"} {
		if all[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, all[i].ID)
		}
	}
}

// =============================================================================
// ACCOUNTS & POSTING
// =============================================================================

func seedAccounts(t *testing.T, s *Store) {
	t.Helper()
	if err := engine.SeedDefaultAccounts(context.Background(), s); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestPostBalances_AppliesBothLegs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedAccounts(t, s)

	if err := s.PostBalances(ctx, "1001", "4001", decimal.RequireFromString("500.25")); err != nil {
		t.Fatalf("post: %v", err)
	}

	credit, _ := s.GetAccount(ctx, "1001")
	debit, _ := s.GetAccount(ctx, "4001")
	if !credit.Balance.Equal(decimal.RequireFromString("500.25")) {
		t.Errorf("credit balance: %s", credit.Balance)
	}
	if !debit.Balance.Equal(decimal.RequireFromString("-500.25")) {
		t.Errorf("debit balance: %s", debit.Balance)
	}
}

func TestPostBalances_UnknownCodeRollsBack(t *testing.T) {
	// GIVEN: A chart without code 9999
	// WHEN: Posting 1001 against 9999
	// THEN: UnknownAccount; the 1001 balance is untouched

	ctx := context.Background()
	s := newTestStore(t)
	seedAccounts(t, s)

	err := s.PostBalances(ctx, "1001", "9999", decimal.NewFromInt(500))
	if !errors.Is(err, engine.ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount, got %v", err)
	}

	credit, _ := s.GetAccount(ctx, "1001")
	if !credit.Balance.IsZero() {
		t.Errorf("credit leg leaked outside the transaction: %s", credit.Balance)
	}
}

func TestListAccounts_NumericOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, code := range []string{"1001", "999", "4002", "2001"} {
		a := engine.Account{Code: code, Name: "A" + code, Type: engine.AccountAsset, Balance: decimal.Zero}
		if err := s.InsertAccount(ctx, a); err != nil {
			t.Fatalf("insert %s: %v", code, err)
		}
	}

	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"999", "1001", "2001", "4002"}
	for i, code := range want {
		if accounts[i].Code != code {
			t.Errorf("position %d: expected %s, got %s", i, code, accounts[i].Code)
		}
	}
}

// =============================================================================
// DAILY STATS
// =============================================================================

func TestIncrementRefCounter_Sequential(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	jun15 := engine.NewDay(2025, time.June, 15)

	for want := int64(1); want <= 3; want++ {
		got, err := s.IncrementRefCounter(ctx, jun15)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}

	// Another day has its own counter.
	got, err := s.IncrementRefCounter(ctx, jun15.AddDays(1))
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if got != 1 {
		t.Errorf("new day should start at 1, got %d", got)
	}
}

func TestIncrementRefCounter_ConcurrentNoDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	jun15 := engine.NewDay(2025, time.June, 15)

	const n = 25
	values := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.IncrementRefCounter(ctx, jun15)
			if err != nil {
				t.Errorf("increment: %v", err)
				return
			}
			values <- v
		}()
	}
	wg.Wait()
	close(values)

	seen := make(map[int64]bool)
	for v := range values {
		if seen[v] {
			t.Errorf("duplicate counter value %d", v)
		}
		seen[v] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d distinct values, got %d", n, len(seen))
	}
}

func TestMemoryDatabase_ConcurrentReadsShareState(t *testing.T) {
	// GIVEN: A :memory: store with the chart seeded
	// WHEN: Many goroutines read concurrently (read lock allows parallel
	//       queries, so the pool may open extra connections)
	// THEN: Every reader sees the seeded data, never an empty database

	ctx := context.Background()
	s := newTestStore(t)
	seedAccounts(t, s)

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := s.GetAccount(ctx, "1001")
			if err != nil {
				t.Errorf("get: %v", err)
				return
			}
			if a == nil {
				t.Error("seeded account invisible to concurrent reader")
			}
		}()
	}
	wg.Wait()
}

func TestClosedStore_ClassifiesAsStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.Close()

	_, err = s.ListPayees(ctx)
	if !errors.Is(err, engine.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable from closed store, got %v", err)
	}
	if _, err := s.IncrementRefCounter(ctx, engine.NewDay(2025, time.June, 15)); !errors.Is(err, engine.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable from closed store, got %v", err)
	}
}

func TestDailyStatsRow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	jun15 := engine.NewDay(2025, time.June, 15)

	// Absent day reads as nil.
	st, err := s.GetDailyStats(ctx, jun15)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st != nil {
		t.Fatalf("expected nil for untouched day, got %+v", st)
	}

	if _, err := s.IncrementTotalRequested(ctx, jun15); err != nil {
		t.Fatalf("increment requested: %v", err)
	}
	if err := s.SetDayCounts(ctx, jun15, 2, 1); err != nil {
		t.Fatalf("set counts: %v", err)
	}
	total, err := s.AddDisbursedTotal(ctx, jun15, decimal.RequireFromString("100.50"))
	if err != nil {
		t.Fatalf("add total: %v", err)
	}
	if !total.Equal(decimal.RequireFromString("100.50")) {
		t.Errorf("returned total: %s", total)
	}

	st, err = s.GetDailyStats(ctx, jun15)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st.Pending != 2 || st.Failed != 1 || st.TotalRequested != 1 {
		t.Errorf("counters: %+v", st)
	}
	if !st.TotalDisbursed.Equal(decimal.RequireFromString("100.50")) {
		t.Errorf("total disbursed: %s", st.TotalDisbursed)
	}
}

// =============================================================================
// ACTIVITY
// =============================================================================

func TestRecentActivity_RoundTripPreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	at := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	feed := []engine.Activity{
		{Message: "₱500 disbursed to Acme Corp", At: at},
		{Message: "₱200 disbursement cancelled for Builders Inc", At: at.Add(-time.Minute)},
	}
	if err := s.SaveRecentActivity(ctx, feed); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.RecentActivity(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	for i := range feed {
		if got[i].Message != feed[i].Message {
			t.Errorf("position %d: %q vs %q", i, got[i].Message, feed[i].Message)
		}
		if !got[i].At.Equal(feed[i].At) {
			t.Errorf("position %d timestamp: %v vs %v", i, got[i].At, feed[i].At)
		}
	}

	// A second save replaces the feed wholesale.
	if err := s.SaveRecentActivity(ctx, feed[:1]); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ = s.RecentActivity(ctx)
	if len(got) != 1 {
		t.Errorf("expected rewritten feed of 1, got %d", len(got))
	}
}
