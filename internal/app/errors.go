package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"github.com/raysh454/sitelens/internal/model"
)

// ErrURLRequired is returned for a scan request without a URL.
var ErrURLRequired = errors.New("URL is required")

// ScanError is a fatal scan failure carrying the HTTP status and the message
// shown to the user.
type ScanError struct {
	Status  int
	Message string
	Err     error
}

func (e *ScanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ScanError) Unwrap() error { return e.Err }

// StatusError reports an upstream response with a status >= 400.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream responded with status %d", e.Code)
}

func newScanError(status int, message string, err error) *ScanError {
	return &ScanError{Status: status, Message: message, Err: err}
}

// CheckRequest validates req and resolves its effective mode. Failures are
// 400 ScanErrors.
func CheckRequest(req model.ScanRequest) (*url.URL, model.ScanMode, *ScanError) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, "", classifyRequestError(ErrURLRequired)
	}
	target, err := req.Validate()
	if err != nil {
		return nil, "", classifyRequestError(err)
	}
	mode := req.Mode
	if mode == "" {
		mode = model.ModeBasic
	}
	if mode != model.ModeBasic && mode != model.ModeRendered {
		return nil, "", newScanError(http.StatusBadRequest, fmt.Sprintf("Unknown scan mode %q", mode), nil)
	}
	return target, mode, nil
}

// classifyRequestError maps validation failures to 400s.
func classifyRequestError(err error) *ScanError {
	switch {
	case errors.Is(err, ErrURLRequired):
		return newScanError(http.StatusBadRequest, "URL is required", err)
	case errors.Is(err, model.ErrInvalidURL):
		return newScanError(http.StatusBadRequest, "Invalid URL format", err)
	}
	return newScanError(http.StatusBadRequest, err.Error(), err)
}

// classifyFetchError turns a fetch or render failure into the user-facing
// error for mode.
func classifyFetchError(err error, mode model.ScanMode) *ScanError {
	var se *ScanError
	if errors.As(err, &se) {
		return se
	}

	var status *StatusError
	if errors.As(err, &status) {
		switch {
		case status.Code == http.StatusForbidden:
			return newScanError(http.StatusForbidden,
				"Access denied. The website is blocking automated requests. Try a different website or check if it requires authentication.", err)
		case status.Code == http.StatusNotFound:
			return newScanError(http.StatusNotFound,
				"Website not found. Please check the URL and try again.", err)
		case status.Code >= 500:
			return newScanError(http.StatusBadGateway,
				fmt.Sprintf("The target website is experiencing issues (Error %d). Please try again later.", status.Code), err)
		default:
			return newScanError(http.StatusBadGateway,
				fmt.Sprintf("The website returned an error (%d). Please try again later.", status.Code), err)
		}
	}

	if isTimeout(err) {
		msg := "Request timeout. The website took too long to respond. Please try again."
		if mode == model.ModeRendered {
			msg = "Request timeout. The website took too long to load. Try the basic scan instead."
		}
		return newScanError(http.StatusRequestTimeout, msg, err)
	}

	if isUnreachable(err) {
		return newScanError(http.StatusBadRequest,
			"Cannot connect to website. Please check the URL and your internet connection.", err)
	}

	msg := "Failed to scan website. Please check the URL and try again."
	if mode == model.ModeRendered {
		msg = "Failed to scan website. Try the basic scan mode instead."
	}
	return newScanError(http.StatusInternalServerError, msg, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "ERR_TIMED_OUT")
}

func isUnreachable(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	// Browser navigation errors only surface as text.
	msg := err.Error()
	return strings.Contains(msg, "ERR_NAME_NOT_RESOLVED") ||
		strings.Contains(msg, "ERR_CONNECTION_REFUSED")
}
