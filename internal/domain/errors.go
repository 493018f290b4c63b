package domain

import "fmt"

// Rejection codes shared by decision results and AppError.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeCutoffRejected   = "CUTOFF_REJECTED"
	CodeCapExceeded      = "CAP_EXCEEDED"
	CodeDuplicatePayment = "DUPLICATE_PAYMENT"
	CodeOverpayment      = "OVERPAYMENT_REJECTED"
	CodeLedgerClosed     = "LEDGER_CLOSED"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL_ERROR"
)

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Standard domain error constructors.

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: CodeConflict, Message: msg, Status: 409}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg, Status: 400}
}

func ErrCutoffRejected(msg string) *AppError {
	return &AppError{Code: CodeCutoffRejected, Message: msg, Status: 422}
}

func ErrCapExceeded(msg string) *AppError {
	return &AppError{Code: CodeCapExceeded, Message: msg, Status: 422}
}

func ErrOverpayment(msg string) *AppError {
	return &AppError{Code: CodeOverpayment, Message: msg, Status: 422}
}

func ErrLedgerClosed(ticketID string) *AppError {
	return &AppError{Code: CodeLedgerClosed, Message: fmt.Sprintf("ticket %s payout was closed by a final payment", ticketID), Status: 409}
}

// ErrDuplicatePayment is informational: the caller receives the original payment.
func ErrDuplicatePayment(existingPaymentID string) *AppError {
	return &AppError{Code: CodeDuplicatePayment, Message: fmt.Sprintf("payment already registered: %s", existingPaymentID), Status: 200}
}

func ErrRateLimited(msg string) *AppError {
	return &AppError{Code: CodeRateLimited, Message: msg, Status: 429}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: msg, Status: 500, Cause: cause}
}

// RejectionError converts a decision code and reason into an AppError with the
// matching HTTP status.
func RejectionError(code, reason string) *AppError {
	switch code {
	case CodeCutoffRejected:
		return ErrCutoffRejected(reason)
	case CodeCapExceeded:
		return ErrCapExceeded(reason)
	case CodeOverpayment:
		return ErrOverpayment(reason)
	case CodeLedgerClosed:
		return &AppError{Code: CodeLedgerClosed, Message: reason, Status: 409}
	case CodeConflict:
		return ErrConflict(reason)
	case CodeNotFound:
		return &AppError{Code: CodeNotFound, Message: reason, Status: 404}
	default:
		return ErrValidation(reason)
	}
}
