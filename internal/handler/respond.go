package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bancalot/platform/internal/domain"
)

// maxBodyBytes caps request bodies accepted by DecodeJSON.
const maxBodyBytes = 1 << 20

// RespondJSON writes a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// RespondError writes a JSON error response, detecting a wrapped domain.AppError for status codes.
func RespondError(w http.ResponseWriter, err error) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		RespondJSON(w, appErr.Status, map[string]string{
			"code":    appErr.Code,
			"message": appErr.Message,
		})
		return
	}
	RespondJSON(w, http.StatusInternalServerError, map[string]string{
		"code":    domain.CodeInternal,
		"message": "internal server error",
	})
}

// rejectionBody is rendered for refused admissions and payments so clients can
// show every problem inline.
type rejectionBody struct {
	Code     string      `json:"code"`
	Message  string      `json:"message"`
	Decision interface{} `json:"decision"`
}

// RespondRejection writes a business rejection with the status its code maps to.
func RespondRejection(w http.ResponseWriter, code, reason string, decision interface{}) {
	appErr := domain.RejectionError(code, reason)
	RespondJSON(w, appErr.Status, rejectionBody{Code: appErr.Code, Message: appErr.Message, Decision: decision})
}

// DecodeJSON reads and decodes a JSON request body into dst. Bodies over 1 MiB
// and unknown fields are rejected.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func badBody(w http.ResponseWriter) {
	RespondJSON(w, http.StatusBadRequest, map[string]string{
		"code": domain.CodeValidation, "message": "invalid request body",
	})
}
