package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/JakeFAU/sitepulse/internal/audit"
)

// Codes emitted by the transport layer in addition to the audit codes.
const (
	codeRateLimited  = "RATE_LIMITED"
	codeNotFound     = "NOT_FOUND"
	codeBadRequest   = "BAD_REQUEST"
	codeUnauthorized = "UNAUTHORIZED"
	codeInternal     = string(audit.CodeInternal)
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// statusFor maps an audit failure code to an HTTP status.
func statusFor(code audit.Code) int {
	switch code {
	case audit.CodeInvalidURL, audit.CodeBlockedHost, audit.CodeNonHTML:
		return http.StatusBadRequest
	case audit.CodeHTTPStatus:
		return http.StatusBadGateway
	case audit.CodeTimeout, audit.CodeNetwork:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, body apiError) {
	writeJSON(w, status, body)
}
