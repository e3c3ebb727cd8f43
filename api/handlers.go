/*
handlers.go - HTTP API handlers for the disbursement engine

PURPOSE:
  Exposes the engine via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the lifecycle manager, registry,
  ledger, and aggregator.

REQUEST FLOW:
  1. Decode (unknown fields rejected)
  2. Validate request shape (validator tags)
  3. Call engine
  4. Serialize response
  5. Map engine errors to HTTP status

ERROR HANDLING:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 409: Conflict, invalid status transition
  - 422: Unknown payee / unknown account reference
  - 500: Store failures (client should GET /api/snapshot to resync)

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/disbursement-engine/engine"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Manager *engine.Manager
}

// NewHandler creates a new handler over the given store.
func NewHandler(store engine.Store) *Handler {
	return &Handler{Manager: engine.NewManager(store)}
}

// =============================================================================
// DISBURSEMENT HANDLERS
// =============================================================================

// ListDisbursements returns all disbursements, oldest first.
func (h *Handler) ListDisbursements(w http.ResponseWriter, r *http.Request) {
	all, err := h.Manager.List(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dtos := make([]DisbursementDTO, len(all))
	for i, d := range all {
		dtos[i] = toDisbursementDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDisbursement returns a single disbursement.
func (h *Handler) GetDisbursement(w http.ResponseWriter, r *http.Request) {
	id := engine.DisbursementID(chi.URLParam(r, "id"))

	d, err := h.Manager.Get(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDisbursementDTO(*d))
}

// SubmitDisbursement creates a new pending disbursement.
func (h *Handler) SubmitDisbursement(w http.ResponseWriter, r *http.Request) {
	var req SubmitDisbursementRequest
	if !decode(w, r, &req) {
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	var date engine.Day
	if req.Date != "" {
		date, err = engine.ParseDay(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
	}

	d, err := h.Manager.Submit(r.Context(), engine.Submission{
		PayeeName:     req.PayeeName,
		Amount:        amount,
		Method:        engine.Method(req.Method),
		CreditAccount: req.CreditAccount,
		DebitAccount:  req.DebitAccount,
		Contact:       req.Contact,
		Date:          date,
		Reason:        req.Reason,
		CreatedBy:     req.CreatedBy,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDisbursementDTO(*d))
}

// ApproveDisbursement transitions Pending -> Approved and posts the
// balance pair.
func (h *Handler) ApproveDisbursement(w http.ResponseWriter, r *http.Request) {
	id := engine.DisbursementID(chi.URLParam(r, "id"))

	d, err := h.Manager.Approve(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDisbursementDTO(*d))
}

// FailDisbursement transitions Pending -> Failed.
func (h *Handler) FailDisbursement(w http.ResponseWriter, r *http.Request) {
	id := engine.DisbursementID(chi.URLParam(r, "id"))

	d, err := h.Manager.Fail(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDisbursementDTO(*d))
}

// DeleteDisbursement removes a Pending or Failed record.
func (h *Handler) DeleteDisbursement(w http.ResponseWriter, r *http.Request) {
	id := engine.DisbursementID(chi.URLParam(r, "id"))

	if err := h.Manager.Delete(r.Context(), id); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PAYEE HANDLERS
// =============================================================================

// ListPayees returns all payees, optionally filtered by a
// case-insensitive substring for autocomplete (?q=).
func (h *Handler) ListPayees(w http.ResponseWriter, r *http.Request) {
	payees, err := h.Manager.Registry.List(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	q := r.URL.Query().Get("q")
	dtos := make([]PayeeDTO, 0, len(payees))
	for _, p := range payees {
		if q != "" && !containsFold(p.Name, q) {
			continue
		}
		dtos = append(dtos, toPayeeDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePayee is the explicit add path; duplicate names are rejected.
func (h *Handler) CreatePayee(w http.ResponseWriter, r *http.Request) {
	var req PayeeRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := h.Manager.Registry.Add(r.Context(), payeeFromRequest(req))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayeeDTO(*p))
}

// UpdatePayee overwrites all payee fields.
func (h *Handler) UpdatePayee(w http.ResponseWriter, r *http.Request) {
	id := engine.PayeeID(chi.URLParam(r, "id"))

	var req PayeeRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := h.Manager.Registry.Update(r.Context(), id, payeeFromRequest(req))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayeeDTO(*p))
}

// DeletePayee removes a payee. Historical disbursements keep the name.
func (h *Handler) DeletePayee(w http.ResponseWriter, r *http.Request) {
	id := engine.PayeeID(chi.URLParam(r, "id"))

	if err := h.Manager.Registry.Delete(r.Context(), id); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func payeeFromRequest(req PayeeRequest) engine.Payee {
	return engine.Payee{
		Name:          req.Name,
		Contact:       req.Contact,
		Method:        engine.Method(req.Method),
		TaxID:         req.TaxID,
		Address:       req.Address,
		ContactPerson: req.ContactPerson,
		Account:       req.Account,
	}
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns the chart of accounts ordered by code.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Manager.Ledger.Accounts(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAccount adds a chart entry with a zero balance.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !decode(w, r, &req) {
		return
	}

	a, err := h.Manager.Ledger.AddAccount(r.Context(), req.Code, req.Name, engine.AccountType(req.Type))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(*a))
}

// UpdateAccount overwrites name and type; the balance is not editable.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req UpdateAccountRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.Manager.Ledger.UpdateAccount(r.Context(), code, req.Name, engine.AccountType(req.Type)); err != nil {
		writeEngineError(w, err)
		return
	}

	a, err := h.Manager.Ledger.Account(r.Context(), code)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*a))
}

// DeleteAccount removes a chart entry.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.Manager.Ledger.DeleteAccount(r.Context(), code); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SeedAccounts installs the default chart of accounts, skipping codes
// that already exist.
func (h *Handler) SeedAccounts(w http.ResponseWriter, r *http.Request) {
	if err := engine.SeedDefaultAccounts(r.Context(), h.Manager.Store); err != nil {
		writeEngineError(w, err)
		return
	}
	h.ListAccounts(w, r)
}

// =============================================================================
// STATS & ACTIVITY HANDLERS
// =============================================================================

// GetStats returns today's stats snapshot plus a preview of the next
// reference code.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := engine.Today()

	stats, err := h.Manager.Stats.Snapshot(ctx, today)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	next, err := h.Manager.Refs.Peek(ctx, today)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatsDTO{
		Day:            stats.Day.String(),
		TotalDisbursed: stats.TotalDisbursed.String(),
		Pending:        stats.Pending,
		Failed:         stats.Failed,
		TotalRequested: stats.TotalRequested,
		NextReference:  next,
	})
}

// GetActivity returns the recent-activity feed, newest first.
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	feed, err := h.Manager.Stats.Feed(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityDTOs(feed))
}

// GetSnapshot returns all four collections plus the feed in one
// response, for clients resynchronizing after a failed operation.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	disbursements, err := h.Manager.List(ctx)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	payees, err := h.Manager.Registry.List(ctx)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	accounts, err := h.Manager.Ledger.Accounts(ctx)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	stats, err := h.Manager.Stats.Snapshot(ctx, engine.Today())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	feed, err := h.Manager.Stats.Feed(ctx)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	snapshot := SnapshotDTO{
		Disbursements: make([]DisbursementDTO, len(disbursements)),
		Payees:        make([]PayeeDTO, len(payees)),
		Accounts:      make([]AccountDTO, len(accounts)),
		Stats: StatsDTO{
			Day:            stats.Day.String(),
			TotalDisbursed: stats.TotalDisbursed.String(),
			Pending:        stats.Pending,
			Failed:         stats.Failed,
			TotalRequested: stats.TotalRequested,
		},
		Activity: toActivityDTOs(feed),
	}
	for i, d := range disbursements {
		snapshot.Disbursements[i] = toDisbursementDTO(d)
	}
	for i, p := range payees {
		snapshot.Payees[i] = toPayeeDTO(p)
	}
	for i, a := range accounts {
		snapshot.Accounts[i] = toAccountDTO(a)
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// =============================================================================
// HELPERS
// =============================================================================

// decode parses and validates a request body. Unknown fields are
// rejected. Writes the error response itself and returns false on
// failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return false
	}
	return true
}

// writeEngineError maps engine error kinds to HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrValidation):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case engine.IsConflict(err), errors.Is(err, engine.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "Conflict", err)
	case errors.Is(err, engine.ErrUnknownPayee), errors.Is(err, engine.ErrUnknownAccount):
		writeError(w, http.StatusUnprocessableEntity, "Unknown reference", err)
	case errors.Is(err, engine.ErrStoreUnavailable):
		// The client should re-read the full state (GET /api/snapshot)
		// rather than trust partially-applied local state.
		writeError(w, http.StatusInternalServerError, "Store unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// containsFold reports whether s contains substr, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
