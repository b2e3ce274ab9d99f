package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON error envelope of every gateway response.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// WriteError writes a JSON error. The request id is taken from the response
// header set by RequestID.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: w.Header().Get(RequestIDHeader),
	})
}
