/*
Package sqlite provides a SQLite-backed implementation of engine.Store.

PURPOSE:
  Implements the record store for all five collections (payees,
  disbursements, chart of accounts, daily stats, recent activity) using
  SQLite. In production the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

ATOMIC COUNTERS:
  The reference counter and the total-requested counter use a single
  upsert statement with RETURNING:

      INSERT ... ON CONFLICT(day) DO UPDATE SET ref_counter = ref_counter + 1
      RETURNING ref_counter

  The increment-and-read happens inside SQLite as one statement, so two
  concurrent submissions can never receive the same reference number.

BALANCE POSTING:
  PostBalances resolves both account codes and applies both legs inside
  one SQL transaction. If either code is missing the transaction rolls
  back and neither balance changes.

KEY TABLES:
  payees:          Registry records, name UNIQUE
  disbursements:   Lifecycle records, reference UNIQUE
  accounts:        Chart of accounts, code PRIMARY KEY
  daily_stats:     Per-day counters, day PRIMARY KEY
  recent_activity: Bounded feed, rewritten wholesale on push

CONCURRENCY:
  Uses sync.RWMutex for in-process thread-safety on top of WAL mode.
  Decimal amounts are stored as TEXT and summed in Go; those
  read-modify-write paths run under the write lock and a SQL transaction.

USAGE:
  store, err := sqlite.New("./data/disburse.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  mgr := engine.NewManager(store)

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/disbursement-engine/engine"
)

// Store implements engine.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, storeErr("failed to open database", err)
	}

	// A plain :memory: DSN gives each pool connection its own empty
	// database. Cap the pool at one connection so every caller shares
	// the same in-memory state.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, storeErr("failed to migrate database", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Payees (name is the case-sensitive dedup key)
	CREATE TABLE IF NOT EXISTS payees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		contact TEXT NOT NULL DEFAULT '',
		method TEXT NOT NULL DEFAULT '',
		tax_id TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		contact_person TEXT NOT NULL DEFAULT '',
		account_ref TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Disbursements (payee name denormalized; survives payee deletion)
	CREATE TABLE IF NOT EXISTS disbursements (
		id TEXT PRIMARY KEY,
		payee_name TEXT NOT NULL,
		amount TEXT NOT NULL,
		method TEXT NOT NULL,
		credit_account TEXT NOT NULL DEFAULT '',
		debit_account TEXT NOT NULL DEFAULT '',
		contact TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		reference TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'Pending',
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_disbursements_status
		ON disbursements(status);
	CREATE INDEX IF NOT EXISTS idx_disbursements_payee
		ON disbursements(payee_name);

	-- Chart of accounts (balance mutated only by postings)
	CREATE TABLE IF NOT EXISTS accounts (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		balance TEXT NOT NULL DEFAULT '0'
	);

	-- Daily stats (one row per calendar day, created lazily)
	CREATE TABLE IF NOT EXISTS daily_stats (
		day TEXT PRIMARY KEY,
		total_disbursed TEXT NOT NULL DEFAULT '0',
		pending INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		total_requested INTEGER NOT NULL DEFAULT 0,
		ref_counter INTEGER NOT NULL DEFAULT 0
	);

	-- Recent activity feed (position 0 = newest)
	CREATE TABLE IF NOT EXISTS recent_activity (
		position INTEGER PRIMARY KEY,
		message TEXT NOT NULL,
		at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// storeErr tags a backing-database failure so callers can classify it
// with errors.Is(err, engine.ErrStoreUnavailable) and resynchronize.
func storeErr(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, engine.ErrStoreUnavailable, err)
}

// =============================================================================
// PAYEE STORE
// =============================================================================

func (s *Store) ListPayees(ctx context.Context) ([]engine.Payee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, contact, method, tax_id, address, contact_person, account_ref, created_at
		FROM payees ORDER BY name ASC
	`)
	if err != nil {
		return nil, storeErr("failed to query payees", err)
	}
	defer rows.Close()

	var payees []engine.Payee
	for rows.Next() {
		p, err := scanPayee(rows)
		if err != nil {
			return nil, err
		}
		payees = append(payees, p)
	}
	return payees, rows.Err()
}

func (s *Store) GetPayee(ctx context.Context, id engine.PayeeID) (*engine.Payee, error) {
	return s.onePayee(ctx, "id = ?", string(id))
}

// FindPayeeByName matches exactly. SQLite TEXT comparison with the
// default BINARY collation is case-sensitive, which is what the registry
// contract requires.
func (s *Store) FindPayeeByName(ctx context.Context, name string) (*engine.Payee, error) {
	return s.onePayee(ctx, "name = ?", name)
}

func (s *Store) onePayee(ctx context.Context, where string, arg any) (*engine.Payee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, contact, method, tax_id, address, contact_person, account_ref, created_at
		FROM payees WHERE `+where, arg)
	if err != nil {
		return nil, storeErr("failed to query payee", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	p, err := scanPayee(rows)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPayee(rows *sql.Rows) (engine.Payee, error) {
	var (
		p         engine.Payee
		method    string
		createdAt string
	)
	err := rows.Scan(&p.ID, &p.Name, &p.Contact, &method, &p.TaxID,
		&p.Address, &p.ContactPerson, &p.Account, &createdAt)
	if err != nil {
		return p, storeErr("failed to scan payee", err)
	}
	p.Method = engine.Method(method)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return p, nil
}

func (s *Store) InsertPayee(ctx context.Context, p engine.Payee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payees (id, name, contact, method, tax_id, address, contact_person, account_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Contact, string(p.Method), p.TaxID, p.Address, p.ContactPerson, p.Account,
		p.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("payee name %q: %w", p.Name, engine.ErrConflict)
		}
		return storeErr("failed to insert payee", err)
	}
	return nil
}

func (s *Store) UpdatePayee(ctx context.Context, p engine.Payee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE payees
		SET name = ?, contact = ?, method = ?, tax_id = ?, address = ?, contact_person = ?, account_ref = ?
		WHERE id = ?
	`, p.Name, p.Contact, string(p.Method), p.TaxID, p.Address, p.ContactPerson, p.Account, p.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("payee name %q: %w", p.Name, engine.ErrConflict)
		}
		return storeErr("failed to update payee", err)
	}
	return requireRow(res, fmt.Sprintf("payee %s", p.ID))
}

func (s *Store) DeletePayee(ctx context.Context, id engine.PayeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM payees WHERE id = ?`, id)
	if err != nil {
		return storeErr("failed to delete payee", err)
	}
	return requireRow(res, fmt.Sprintf("payee %s", id))
}

// requireRow converts a zero-row write into ErrNotFound.
func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, engine.ErrNotFound)
	}
	return nil
}

// =============================================================================
// DISBURSEMENT STORE
// =============================================================================

func (s *Store) ListDisbursements(ctx context.Context) ([]engine.Disbursement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payee_name, amount, method, credit_account, debit_account,
		       contact, date, reason, reference, status, created_by, created_at
		FROM disbursements ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, storeErr("failed to query disbursements", err)
	}
	defer rows.Close()

	var disbursements []engine.Disbursement
	for rows.Next() {
		d, err := scanDisbursement(rows)
		if err != nil {
			return nil, err
		}
		disbursements = append(disbursements, d)
	}
	return disbursements, rows.Err()
}

func (s *Store) GetDisbursement(ctx context.Context, id engine.DisbursementID) (*engine.Disbursement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payee_name, amount, method, credit_account, debit_account,
		       contact, date, reason, reference, status, created_by, created_at
		FROM disbursements WHERE id = ?
	`, id)
	if err != nil {
		return nil, storeErr("failed to query disbursement", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	d, err := scanDisbursement(rows)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanDisbursement(rows *sql.Rows) (engine.Disbursement, error) {
	var (
		d         engine.Disbursement
		amount    string
		method    string
		date      string
		status    string
		createdAt string
	)
	err := rows.Scan(&d.ID, &d.PayeeName, &amount, &method, &d.CreditAccount, &d.DebitAccount,
		&d.Contact, &date, &d.Reason, &d.Reference, &status, &d.CreatedBy, &createdAt)
	if err != nil {
		return d, storeErr("failed to scan disbursement", err)
	}
	d.Amount = parseDecimal(amount)
	d.Method = engine.Method(method)
	d.Date, _ = engine.ParseDay(date)
	d.Status = engine.Status(status)
	d.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return d, nil
}

func parseDecimal(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}

func (s *Store) InsertDisbursement(ctx context.Context, d engine.Disbursement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO disbursements
		(id, payee_name, amount, method, credit_account, debit_account,
		 contact, date, reason, reference, status, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.PayeeName, d.Amount.String(), string(d.Method), d.CreditAccount, d.DebitAccount,
		d.Contact, d.Date.String(), d.Reason, d.Reference, string(d.Status), d.CreatedBy,
		d.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("disbursement %s: %w", d.ID, engine.ErrConflict)
		}
		return storeErr("failed to insert disbursement", err)
	}
	return nil
}

func (s *Store) UpdateDisbursement(ctx context.Context, d engine.Disbursement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE disbursements
		SET payee_name = ?, amount = ?, method = ?, credit_account = ?, debit_account = ?,
		    contact = ?, date = ?, reason = ?, status = ?
		WHERE id = ?
	`, d.PayeeName, d.Amount.String(), string(d.Method), d.CreditAccount, d.DebitAccount,
		d.Contact, d.Date.String(), d.Reason, string(d.Status), d.ID)
	if err != nil {
		return storeErr("failed to update disbursement", err)
	}
	return requireRow(res, fmt.Sprintf("disbursement %s", d.ID))
}

func (s *Store) DeleteDisbursement(ctx context.Context, id engine.DisbursementID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM disbursements WHERE id = ?`, id)
	if err != nil {
		return storeErr("failed to delete disbursement", err)
	}
	return requireRow(res, fmt.Sprintf("disbursement %s", id))
}

// =============================================================================
// ACCOUNT STORE
// =============================================================================

func (s *Store) ListAccounts(ctx context.Context) ([]engine.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Codes are numeric in practice; CAST keeps 999 before 1001.
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, type, balance FROM accounts
		ORDER BY CAST(code AS INTEGER) ASC, code ASC
	`)
	if err != nil {
		return nil, storeErr("failed to query accounts", err)
	}
	defer rows.Close()

	var accounts []engine.Account
	for rows.Next() {
		var (
			a       engine.Account
			typ     string
			balance string
		)
		if err := rows.Scan(&a.Code, &a.Name, &typ, &balance); err != nil {
			return nil, storeErr("failed to scan account", err)
		}
		a.Type = engine.AccountType(typ)
		a.Balance = parseDecimal(balance)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *Store) GetAccount(ctx context.Context, code string) (*engine.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getAccount(ctx, s.db, code)
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getAccount(ctx context.Context, q rowQuerier, code string) (*engine.Account, error) {
	var (
		a       engine.Account
		typ     string
		balance string
	)
	err := q.QueryRowContext(ctx,
		`SELECT code, name, type, balance FROM accounts WHERE code = ?`, code,
	).Scan(&a.Code, &a.Name, &typ, &balance)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("failed to query account", err)
	}
	a.Type = engine.AccountType(typ)
	a.Balance = parseDecimal(balance)
	return &a, nil
}

func (s *Store) InsertAccount(ctx context.Context, a engine.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (code, name, type, balance) VALUES (?, ?, ?, ?)
	`, a.Code, a.Name, string(a.Type), a.Balance.String())
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("account %s: %w", a.Code, engine.ErrConflict)
		}
		return storeErr("failed to insert account", err)
	}
	return nil
}

func (s *Store) UpdateAccount(ctx context.Context, code, name string, accountType engine.AccountType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, type = ? WHERE code = ?
	`, name, string(accountType), code)
	if err != nil {
		return storeErr("failed to update account", err)
	}
	return requireRow(res, fmt.Sprintf("account %s", code))
}

func (s *Store) DeleteAccount(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE code = ?`, code)
	if err != nil {
		return storeErr("failed to delete account", err)
	}
	return requireRow(res, fmt.Sprintf("account %s", code))
}

// PostBalances applies the paired credit/debit update inside one SQL
// transaction. Balances are TEXT decimals, so both legs are computed in
// Go under the write lock and written back before commit.
func (s *Store) PostBalances(ctx context.Context, creditCode, debitCode string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("failed to begin posting", err)
	}
	defer sqlTx.Rollback()

	credit, err := getAccount(ctx, sqlTx, creditCode)
	if err != nil {
		return err
	}
	if credit == nil {
		return &engine.UnknownAccountError{Code: creditCode}
	}
	debit, err := getAccount(ctx, sqlTx, debitCode)
	if err != nil {
		return err
	}
	if debit == nil {
		return &engine.UnknownAccountError{Code: debitCode}
	}

	if _, err := sqlTx.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE code = ?`,
		credit.Balance.Add(amount).String(), creditCode); err != nil {
		return storeErr("failed to post credit leg", err)
	}
	if _, err := sqlTx.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE code = ?`,
		debit.Balance.Sub(amount).String(), debitCode); err != nil {
		return storeErr("failed to post debit leg", err)
	}

	return sqlTx.Commit()
}

// =============================================================================
// STATS STORE
// =============================================================================

func (s *Store) GetDailyStats(ctx context.Context, day engine.Day) (*engine.DailyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		st             engine.DailyStats
		dayStr         string
		totalDisbursed string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT day, total_disbursed, pending, failed, total_requested, ref_counter
		FROM daily_stats WHERE day = ?
	`, day.String()).Scan(&dayStr, &totalDisbursed, &st.Pending, &st.Failed, &st.TotalRequested, &st.RefCounter)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("failed to query daily stats", err)
	}
	st.Day, _ = engine.ParseDay(dayStr)
	st.TotalDisbursed = parseDecimal(totalDisbursed)
	return &st, nil
}

// IncrementRefCounter is the single-statement atomic increment the
// reference generator depends on.
func (s *Store) IncrementRefCounter(ctx context.Context, day engine.Day) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var counter int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO daily_stats (day, ref_counter) VALUES (?, 1)
		ON CONFLICT(day) DO UPDATE SET ref_counter = daily_stats.ref_counter + 1
		RETURNING ref_counter
	`, day.String()).Scan(&counter)
	if err != nil {
		return 0, storeErr("failed to increment ref counter", err)
	}
	return counter, nil
}

func (s *Store) IncrementTotalRequested(ctx context.Context, day engine.Day) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO daily_stats (day, total_requested) VALUES (?, 1)
		ON CONFLICT(day) DO UPDATE SET total_requested = daily_stats.total_requested + 1
		RETURNING total_requested
	`, day.String()).Scan(&total)
	if err != nil {
		return 0, storeErr("failed to increment total requested", err)
	}
	return total, nil
}

func (s *Store) AddDisbursedTotal(ctx context.Context, day engine.Day, amount decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, storeErr("failed to begin stats update", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, `
		INSERT INTO daily_stats (day) VALUES (?) ON CONFLICT(day) DO NOTHING
	`, day.String()); err != nil {
		return decimal.Zero, storeErr("failed to touch daily stats", err)
	}

	var current string
	if err := sqlTx.QueryRowContext(ctx,
		`SELECT total_disbursed FROM daily_stats WHERE day = ?`, day.String(),
	).Scan(&current); err != nil {
		return decimal.Zero, storeErr("failed to read disbursed total", err)
	}

	total := parseDecimal(current).Add(amount)
	if _, err := sqlTx.ExecContext(ctx,
		`UPDATE daily_stats SET total_disbursed = ? WHERE day = ?`,
		total.String(), day.String()); err != nil {
		return decimal.Zero, storeErr("failed to write disbursed total", err)
	}

	if err := sqlTx.Commit(); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (s *Store) SetDayCounts(ctx context.Context, day engine.Day, pending, failed int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_stats (day, pending, failed) VALUES (?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET pending = excluded.pending, failed = excluded.failed
	`, day.String(), pending, failed)
	if err != nil {
		return storeErr("failed to set day counts", err)
	}
	return nil
}

// =============================================================================
// ACTIVITY STORE
// =============================================================================

func (s *Store) RecentActivity(ctx context.Context) ([]engine.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT message, at FROM recent_activity ORDER BY position ASC
	`)
	if err != nil {
		return nil, storeErr("failed to query activity", err)
	}
	defer rows.Close()

	var feed []engine.Activity
	for rows.Next() {
		var (
			entry engine.Activity
			at    string
		)
		if err := rows.Scan(&entry.Message, &at); err != nil {
			return nil, storeErr("failed to scan activity", err)
		}
		entry.At, _ = time.Parse(time.RFC3339Nano, at)
		feed = append(feed, entry)
	}
	return feed, rows.Err()
}

// SaveRecentActivity rewrites the feed wholesale; dedup and capping
// happen in the aggregator.
func (s *Store) SaveRecentActivity(ctx context.Context, feed []engine.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("failed to begin activity save", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, `DELETE FROM recent_activity`); err != nil {
		return storeErr("failed to clear activity", err)
	}
	for i, entry := range feed {
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT INTO recent_activity (position, message, at) VALUES (?, ?, ?)
		`, i, entry.Message, entry.At.UTC().Format(time.RFC3339Nano)); err != nil {
			return storeErr("failed to insert activity", err)
		}
	}

	return sqlTx.Commit()
}
