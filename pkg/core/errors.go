package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the category of a Kraken error.
type ErrorType int

// Error type constants categorize errors so callers can decide how to react.
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork indicates a network connectivity issue.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates the request exceeded its deadline.
	ErrorTypeTimeout
	// ErrorTypeRateLimit indicates a rate limit or temporary lockout.
	ErrorTypeRateLimit
	// ErrorTypeAuthentication indicates invalid credentials, signature, nonce or session.
	ErrorTypeAuthentication
	// ErrorTypeBadRequest indicates invalid request parameters.
	ErrorTypeBadRequest
	// ErrorTypeNotFound indicates the requested resource does not exist.
	ErrorTypeNotFound
	// ErrorTypeServerError indicates the exchange is unavailable, busy or failing.
	ErrorTypeServerError
	// ErrorTypeInsufficientFunds indicates the account lacks required balance.
	ErrorTypeInsufficientFunds
	// ErrorTypeInvalidOrder indicates the order violates exchange rules.
	ErrorTypeInvalidOrder
	// ErrorTypeDisabled indicates trading or the requested feature is locked or disabled.
	ErrorTypeDisabled
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	names := [...]string{
		"UNKNOWN",
		"NETWORK",
		"TIMEOUT",
		"RATE_LIMIT",
		"AUTHENTICATION",
		"BAD_REQUEST",
		"NOT_FOUND",
		"SERVER_ERROR",
		"INSUFFICIENT_FUNDS",
		"INVALID_ORDER",
		"DISABLED",
	}
	if t < 0 || int(t) >= len(names) {
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
	return names[t]
}

// Sentinel errors for common error conditions.
var (
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")
	// ErrStreamClosed is returned when the remote end closed the stream.
	ErrStreamClosed = errors.New("stream is closed")
	// ErrNotConnected is returned when WebSocket is not connected.
	ErrNotConnected = errors.New("websocket not connected")
	// ErrCircuitBreakerOpen is returned when circuit breaker is open.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
	// ErrNoCredentials is returned when a private call has no secrets provider.
	ErrNoCredentials = errors.New("no credentials configured")
	// ErrInvalidSecretEncoding is returned when an API secret is not valid base64.
	ErrInvalidSecretEncoding = errors.New("api secret is not valid base64")
)

// ExchangeError is a payload-level rejection: HTTP 200 with a non-empty error list.
type ExchangeError struct {
	// Type categorizes the first error for programmatic handling.
	Type ErrorType `json:"type"`
	// StatusCode is the HTTP status code from the response.
	StatusCode int `json:"status_code"`
	// Code is the first error string, e.g. "EAPI:Invalid key".
	Code string `json:"code"`
	// Errors holds every error string in the response.
	Errors []string `json:"errors"`
	// Endpoint is the request path that produced the error.
	Endpoint string `json:"endpoint"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface for ExchangeError.
func (e *ExchangeError) Error() string {
	return fmt.Sprintf("[%s] %s (%d/%s): %s",
		e.Endpoint, e.Type, e.StatusCode, e.Code, strings.Join(e.Errors, "; "))
}

// NewExchangeError builds an ExchangeError from the exchange's error list.
// The type is taken from the first entry that maps to a known error.
func NewExchangeError(endpoint string, statusCode int, errs []string) *ExchangeError {
	e := &ExchangeError{
		Type:       ErrorTypeUnknown,
		StatusCode: statusCode,
		Errors:     errs,
		Endpoint:   endpoint,
		Timestamp:  time.Now(),
	}
	if len(errs) > 0 {
		e.Code = errs[0]
	}
	for _, msg := range errs {
		if t := ClassifyErrorString(msg); t != ErrorTypeUnknown {
			e.Type = t
			e.Code = msg
			break
		}
	}
	return e
}

// TransportError wraps a connectivity failure. It is never retried by this module.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// URLError reports a malformed base URL or endpoint.
type URLError struct {
	URL string
	Err error
}

func (e *URLError) Error() string {
	return fmt.Sprintf("invalid url %q: %v", e.URL, e.Err)
}

func (e *URLError) Unwrap() error { return e.Err }

// HTTPStatusError reports any status outside 200-299 together with the body text.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// DeserializationError reports a body that does not match the expected schema.
type DeserializationError struct {
	Context string
	Err     error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("deserialize %s: %v", e.Context, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// WSSErrorKind distinguishes WebSocket failures.
type WSSErrorKind int

const (
	WSSErrorSerde WSSErrorKind = iota
	WSSErrorTransport
	WSSErrorURLParse
)

func (k WSSErrorKind) String() string {
	names := [...]string{"SERDE", "TRANSPORT", "URL_PARSE"}
	if k < 0 || int(k) >= len(names) {
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
	return names[k]
}

// WSSError is returned by stream operations that fail outside classification.
type WSSError struct {
	Kind WSSErrorKind
	Err  error
}

func (e *WSSError) Error() string {
	return fmt.Sprintf("wss %s: %v", e.Kind, e.Err)
}

func (e *WSSError) Unwrap() error { return e.Err }

// ClassificationKind names the way an inbound frame failed to classify.
type ClassificationKind int

const (
	// MalformedFrame is text that is not valid JSON.
	MalformedFrame ClassificationKind = iota
	// UnrecognizedFrame is valid JSON of a shape no message uses.
	UnrecognizedFrame
	// SchemaMismatch is a known event whose body does not match its schema.
	SchemaMismatch
	// UnknownEventType is a well-formed frame naming an event or channel that is not known.
	UnknownEventType
	// MissingEventField is an array frame without a string in its event slot.
	MissingEventField
)

func (k ClassificationKind) String() string {
	names := [...]string{
		"MALFORMED_FRAME",
		"UNRECOGNIZED_FRAME",
		"SCHEMA_MISMATCH",
		"UNKNOWN_EVENT_TYPE",
		"MISSING_EVENT_FIELD",
	}
	if k < 0 || int(k) >= len(names) {
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
	return names[k]
}

// ClassificationError is returned for a single frame that could not be classified.
// The stream that produced it stays open.
type ClassificationError struct {
	Kind   ClassificationKind
	Event  string
	Detail string
	Err    error
}

func (e *ClassificationError) Error() string {
	var b strings.Builder
	b.WriteString("classify: ")
	b.WriteString(e.Kind.String())
	if e.Event != "" {
		b.WriteString(" event=")
		b.WriteString(e.Event)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// NewClassificationError creates a ClassificationError.
func NewClassificationError(kind ClassificationKind, event, detail string, err error) *ClassificationError {
	return &ClassificationError{Kind: kind, Event: event, Detail: detail, Err: err}
}

// IsClassificationKind reports whether err is a ClassificationError of the given kind.
func IsClassificationKind(err error, kind ClassificationKind) bool {
	var ce *ClassificationError
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

func exchangeErrorType(err error) (ErrorType, bool) {
	var e *ExchangeError
	if errors.As(err, &e) {
		return e.Type, true
	}
	return ErrorTypeUnknown, false
}

// IsNetworkError returns true if the error is a network connectivity issue.
func IsNetworkError(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	t, ok := exchangeErrorType(err)
	return ok && t == ErrorTypeNetwork
}

// IsTimeoutError returns true if the error is a timeout.
func IsTimeoutError(err error) bool {
	t, ok := exchangeErrorType(err)
	return ok && t == ErrorTypeTimeout
}

// IsRateLimitError returns true if the exchange rejected the call for rate limiting.
func IsRateLimitError(err error) bool {
	t, ok := exchangeErrorType(err)
	return ok && t == ErrorTypeRateLimit
}

// IsAuthenticationError returns true if the error is an authentication failure.
// Authentication errors require credential validation and are not retryable.
func IsAuthenticationError(err error) bool {
	t, ok := exchangeErrorType(err)
	return ok && t == ErrorTypeAuthentication
}

// IsTerminalError returns true if retrying the same request cannot succeed.
func IsTerminalError(err error) bool {
	t, ok := exchangeErrorType(err)
	if !ok {
		return false
	}
	return t == ErrorTypeInsufficientFunds ||
		t == ErrorTypeInvalidOrder ||
		t == ErrorTypeNotFound ||
		t == ErrorTypeDisabled
}
