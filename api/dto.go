/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry validator/v10 struct tags and are checked at the
  boundary before anything reaches the engine. Unknown JSON fields are
  rejected by the decoder (DisallowUnknownFields), never silently
  dropped. The engine re-validates domain rules (positive amount,
  phone-or-email contact) on its own schema.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/warp/disbursement-engine/engine"
)

var validate = validator.New()

// =============================================================================
// DISBURSEMENTS
// =============================================================================

// SubmitDisbursementRequest is the submission form payload.
type SubmitDisbursementRequest struct {
	PayeeName     string `json:"payee_name" validate:"required"`
	Amount        string `json:"amount" validate:"required"`
	Method        string `json:"method" validate:"required,oneof=Cash 'Bank Transfer' 'Online Payment' Check"`
	CreditAccount string `json:"credit_account" validate:"omitempty,numeric"`
	DebitAccount  string `json:"debit_account" validate:"omitempty,numeric"`
	Contact       string `json:"contact" validate:"required"`
	Date          string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Reason        string `json:"reason" validate:"required"`
	CreatedBy     string `json:"created_by"`
}

// DisbursementDTO represents a disbursement in API responses.
type DisbursementDTO struct {
	ID            string `json:"id"`
	PayeeName     string `json:"payee_name"`
	Amount        string `json:"amount"`
	Method        string `json:"method"`
	CreditAccount string `json:"credit_account,omitempty"`
	DebitAccount  string `json:"debit_account,omitempty"`
	Contact       string `json:"contact"`
	Date          string `json:"date"`
	Reason        string `json:"reason"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	CreatedBy     string `json:"created_by,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toDisbursementDTO(d engine.Disbursement) DisbursementDTO {
	return DisbursementDTO{
		ID:            string(d.ID),
		PayeeName:     d.PayeeName,
		Amount:        d.Amount.String(),
		Method:        string(d.Method),
		CreditAccount: d.CreditAccount,
		DebitAccount:  d.DebitAccount,
		Contact:       d.Contact,
		Date:          d.Date.String(),
		Reason:        d.Reason,
		Reference:     d.Reference,
		Status:        string(d.Status),
		CreatedBy:     d.CreatedBy,
		CreatedAt:     d.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// =============================================================================
// PAYEES
// =============================================================================

// PayeeRequest covers both the explicit add and the full-field update.
type PayeeRequest struct {
	Name          string `json:"name" validate:"required"`
	Contact       string `json:"contact"`
	Method        string `json:"method" validate:"omitempty,oneof=Cash 'Bank Transfer' 'Online Payment' Check"`
	TaxID         string `json:"tax_id"`
	Address       string `json:"address"`
	ContactPerson string `json:"contact_person"`
	Account       string `json:"account"`
}

type PayeeDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Contact       string `json:"contact,omitempty"`
	Method        string `json:"method,omitempty"`
	TaxID         string `json:"tax_id,omitempty"`
	Address       string `json:"address,omitempty"`
	ContactPerson string `json:"contact_person,omitempty"`
	Account       string `json:"account,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

func toPayeeDTO(p engine.Payee) PayeeDTO {
	dto := PayeeDTO{
		ID:            string(p.ID),
		Name:          p.Name,
		Contact:       p.Contact,
		Method:        string(p.Method),
		TaxID:         p.TaxID,
		Address:       p.Address,
		ContactPerson: p.ContactPerson,
		Account:       p.Account,
	}
	if !p.CreatedAt.IsZero() {
		dto.CreatedAt = p.CreatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// CHART OF ACCOUNTS
// =============================================================================

type CreateAccountRequest struct {
	Code string `json:"code" validate:"required,numeric"`
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required,oneof=Asset Liability Equity Revenue Expense"`
}

type UpdateAccountRequest struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required,oneof=Asset Liability Equity Revenue Expense"`
}

type AccountDTO struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Balance string `json:"balance"`
}

func toAccountDTO(a engine.Account) AccountDTO {
	return AccountDTO{
		Code:    a.Code,
		Name:    a.Name,
		Type:    string(a.Type),
		Balance: a.Balance.String(),
	}
}

// =============================================================================
// STATS & ACTIVITY
// =============================================================================

type StatsDTO struct {
	Day            string `json:"day"`
	TotalDisbursed string `json:"total_disbursed_today"`
	Pending        int    `json:"pending_disbursements"`
	Failed         int    `json:"failed_transactions"`
	TotalRequested int64  `json:"total_requested"`
	NextReference  string `json:"next_reference,omitempty"`
}

type ActivityDTO struct {
	Message string `json:"message"`
	At      string `json:"at"`
}

func toActivityDTOs(feed []engine.Activity) []ActivityDTO {
	dtos := make([]ActivityDTO, len(feed))
	for i, entry := range feed {
		dtos[i] = ActivityDTO{
			Message: entry.Message,
			At:      entry.At.UTC().Format(time.RFC3339),
		}
	}
	return dtos
}

// SnapshotDTO is the full-state resync payload: after a failed
// multi-step operation the client re-reads everything instead of
// trusting partially-applied local state.
type SnapshotDTO struct {
	Disbursements []DisbursementDTO `json:"disbursements"`
	Payees        []PayeeDTO        `json:"payees"`
	Accounts      []AccountDTO      `json:"accounts"`
	Stats         StatsDTO          `json:"stats"`
	Activity      []ActivityDTO     `json:"activity"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
