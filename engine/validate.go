/*
validate.go - Submission boundary validation

PURPOSE:
  Rejects malformed or incomplete submissions before any mutation. The
  schema is fixed: every field below is explicit, and nothing is silently
  defaulted except the date, which falls back to today when omitted
  (see lifecycle.go).

RULES:
  - payee name: required, not purely numeric
  - amount: required, positive
  - method: one of the Method enum
  - contact: required, phone number or email
  - reason: required
  - account codes: optional as a pair, numeric when present
*/
package engine

import (
	"regexp"
)

var (
	digitsOnlyRe = regexp.MustCompile(`^\d+$`)
	phoneRe      = regexp.MustCompile(`^[0-9+\-\s()]+$`)
	emailRe      = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidateSubmission checks a submission against the fixed schema.
// Returns a *ValidationError naming the first offending field.
func ValidateSubmission(sub Submission) error {
	if sub.PayeeName == "" {
		return &ValidationError{Field: "payee_name", Message: "required"}
	}
	if digitsOnlyRe.MatchString(sub.PayeeName) {
		return &ValidationError{Field: "payee_name", Message: "must contain letters, not only digits"}
	}
	if !sub.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "must be positive"}
	}
	if !sub.Method.Valid() {
		return &ValidationError{Field: "method", Message: "unknown payment method"}
	}
	if sub.Contact == "" {
		return &ValidationError{Field: "contact", Message: "required"}
	}
	if !phoneRe.MatchString(sub.Contact) && !emailRe.MatchString(sub.Contact) {
		return &ValidationError{Field: "contact", Message: "must be a phone number or email"}
	}
	if sub.Reason == "" {
		return &ValidationError{Field: "reason", Message: "required"}
	}
	if sub.CreditAccount != "" && !digitsOnlyRe.MatchString(sub.CreditAccount) {
		return &ValidationError{Field: "credit_account", Message: "must be numeric"}
	}
	if sub.DebitAccount != "" && !digitsOnlyRe.MatchString(sub.DebitAccount) {
		return &ValidationError{Field: "debit_account", Message: "must be numeric"}
	}
	// Posting needs both legs; one without the other is a form mistake,
	// not a postable pair.
	if (sub.CreditAccount == "") != (sub.DebitAccount == "") {
		return &ValidationError{Field: "debit_account", Message: "credit and debit codes must be provided together"}
	}
	return nil
}
