package audit

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable failure code of an audit.
type Code string

// Failure codes. All are terminal for a single audit.
const (
	CodeInvalidURL  Code = "INVALID_URL"
	CodeBlockedHost Code = "BLOCKED_HOST"
	CodeTimeout     Code = "TIMEOUT"
	CodeNonHTML     Code = "NON_HTML"
	CodeHTTPStatus  Code = "HTTP_ERROR"
	CodeNetwork     Code = "FETCH_ERROR"
	// CodeInternal marks a fault inside the pipeline rather than at the target.
	CodeInternal Code = "INTERNAL"
)

// Sentinels for errors.Is matching by code.
var (
	ErrInvalidURL  = &Error{Code: CodeInvalidURL}
	ErrBlockedHost = &Error{Code: CodeBlockedHost}
	ErrTimeout     = &Error{Code: CodeTimeout}
	ErrNonHTML     = &Error{Code: CodeNonHTML}
	ErrHTTPStatus  = &Error{Code: CodeHTTPStatus}
	ErrNetwork     = &Error{Code: CodeNetwork}
	ErrInternal    = &Error{Code: CodeInternal}
)

// Error is a structured audit failure: code, message, and an optional hint.
type Error struct {
	Code    Code
	Message string
	Hint    string
	// Status is the upstream HTTP status for CodeHTTPStatus.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// AsError converts err to an *Error, classifying unknown failures as network errors.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return NetworkError(err)
}

func invalidURL(msg string, err error) *Error {
	return &Error{
		Code:    CodeInvalidURL,
		Message: msg,
		Hint:    "Ensure the URL includes a valid protocol (https://) and is publicly reachable.",
		Err:     err,
	}
}

// BlockedHostError reports an unsafe audit target.
func BlockedHostError(host string) *Error {
	return &Error{
		Code:    CodeBlockedHost,
		Message: fmt.Sprintf("host %q is a local or private network target", host),
		Hint:    "Local/private network targets are not allowed for public audits.",
	}
}

// TimeoutError reports that the fetch deadline elapsed.
func TimeoutError(err error) *Error {
	return &Error{
		Code:    CodeTimeout,
		Message: "Request timed out fetching the page.",
		Hint:    "Try again or check server responsiveness / CDN caching.",
		Err:     err,
	}
}

// NonHTMLError reports a response whose content type is not HTML.
func NonHTMLError(contentType string) *Error {
	if contentType == "" {
		contentType = "unknown"
	}
	return &Error{
		Code:    CodeNonHTML,
		Message: fmt.Sprintf("URL did not return HTML content (%s).", contentType),
		Hint:    "Provide a direct page URL (not a file like PDF or image).",
	}
}

// HTTPStatusError reports an upstream status >= 400.
func HTTPStatusError(status int) *Error {
	hint := "Client error: the page may not exist or requires auth."
	if status >= http.StatusInternalServerError {
		hint = "Server error at the target site."
	}
	return &Error{
		Code:    CodeHTTPStatus,
		Message: fmt.Sprintf("Upstream returned status %d.", status),
		Hint:    hint,
		Status:  status,
	}
}

// NetworkError wraps any other transport fault.
func NetworkError(err error) *Error {
	return &Error{
		Code:    CodeNetwork,
		Message: "Network error fetching URL.",
		Hint:    "Verify DNS, HTTPS certificate, and that the site is accessible from the public internet.",
		Err:     err,
	}
}

// InternalError reports a pipeline stage that failed after the page was fetched.
func InternalError(stage string, err error) *Error {
	return &Error{
		Code:    CodeInternal,
		Message: fmt.Sprintf("Audit failed while %s.", stage),
		Hint:    "This is a SitePulse fault, not a problem with the site. Try again later.",
		Err:     err,
	}
}
