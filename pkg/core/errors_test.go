package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		name      string
		errorType ErrorType
		want      string
	}{
		{"unknown", ErrorTypeUnknown, "UNKNOWN"},
		{"network", ErrorTypeNetwork, "NETWORK"},
		{"timeout", ErrorTypeTimeout, "TIMEOUT"},
		{"rate_limit", ErrorTypeRateLimit, "RATE_LIMIT"},
		{"authentication", ErrorTypeAuthentication, "AUTHENTICATION"},
		{"bad_request", ErrorTypeBadRequest, "BAD_REQUEST"},
		{"not_found", ErrorTypeNotFound, "NOT_FOUND"},
		{"server_error", ErrorTypeServerError, "SERVER_ERROR"},
		{"insufficient_funds", ErrorTypeInsufficientFunds, "INSUFFICIENT_FUNDS"},
		{"invalid_order", ErrorTypeInvalidOrder, "INVALID_ORDER"},
		{"disabled", ErrorTypeDisabled, "DISABLED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.errorType.String())
		})
	}
}

func TestKindStrings_OutOfRange(t *testing.T) {
	assert.Equal(t, "Unknown(11)", ErrorType(11).String())
	assert.Equal(t, "URL_PARSE", WSSErrorURLParse.String())
	assert.Equal(t, "Unknown(3)", WSSErrorKind(3).String())
	assert.Equal(t, "MALFORMED_FRAME", MalformedFrame.String())
	assert.Equal(t, "Unknown(5)", ClassificationKind(5).String())
	assert.Equal(t, "Unknown(-2)", ClassificationKind(-2).String())
}

func TestExchangeError_Error(t *testing.T) {
	err := NewExchangeError("/0/private/Balance", 200, []string{"EAPI:Invalid key"})

	assert.Equal(t, "[/0/private/Balance] AUTHENTICATION (200/EAPI:Invalid key): EAPI:Invalid key", err.Error())
	assert.False(t, err.Timestamp.IsZero())
}

func TestNewExchangeError_FirstKnownErrorWins(t *testing.T) {
	err := NewExchangeError("/0/private/AddOrder", 200, []string{
		"EOops:Something new",
		"EOrder:Rate limit exceeded",
		"EAPI:Invalid key",
	})

	assert.Equal(t, ErrorTypeRateLimit, err.Type)
	assert.Equal(t, "EOrder:Rate limit exceeded", err.Code)
	assert.Len(t, err.Errors, 3)
}

func TestNewExchangeError_Unknown(t *testing.T) {
	err := NewExchangeError("/0/public/Time", 200, []string{"EOops:Something new"})

	assert.Equal(t, ErrorTypeUnknown, err.Type)
	assert.Equal(t, "EOops:Something new", err.Code)
}

func TestClassifyErrorString(t *testing.T) {
	tests := []struct {
		msg  string
		want ErrorType
	}{
		{"EGeneral:Permission denied", ErrorTypeAuthentication},
		{"EAPI:Invalid key", ErrorTypeAuthentication},
		{"EQuery:Unknown asset pair", ErrorTypeNotFound},
		{"EGeneral:Invalid arguments", ErrorTypeBadRequest},
		{"EGeneral:Invalid arguments:volume", ErrorTypeBadRequest},
		{"EAPI:Invalid signature", ErrorTypeAuthentication},
		{"EAPI:Invalid nonce", ErrorTypeAuthentication},
		{"ESession:Invalid session", ErrorTypeAuthentication},
		{"EAPI:Bad request", ErrorTypeBadRequest},
		{"EGeneral:Unknown Method", ErrorTypeBadRequest},
		{"EAPI:Rate limit exceeded", ErrorTypeRateLimit},
		{"EOrder:Rate limit exceeded", ErrorTypeRateLimit},
		{"EGeneral:Temporary lockout", ErrorTypeRateLimit},
		{"EService:Unavailable", ErrorTypeServerError},
		{"EService:Busy", ErrorTypeServerError},
		{"EGeneral:Internal error", ErrorTypeServerError},
		{"ETrade:Locked", ErrorTypeDisabled},
		{"EAPI:Feature disabled", ErrorTypeDisabled},
		{"EOrder:Insufficient funds", ErrorTypeInsufficientFunds},
		{"EOrder:Order minimum not met", ErrorTypeInvalidOrder},
		{"EFunding:Unknown asset", ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyErrorString(tt.msg))
		})
	}
}

func TestIsErrorCode(t *testing.T) {
	err := fmt.Errorf("add order: %w", NewExchangeError("/0/private/AddOrder", 200,
		[]string{"EGeneral:Invalid arguments", "EOrder:Insufficient funds"}))

	assert.True(t, IsErrorCode(err, ErrCodeInsufficientFunds))
	assert.True(t, IsErrorCode(err, ErrCodeInvalidArguments))
	assert.False(t, IsErrorCode(err, ErrCodeInvalidKey))
	assert.False(t, IsErrorCode(errors.New("plain"), ErrCodeInvalidKey))
}

func TestErrorPredicates(t *testing.T) {
	rateLimited := NewExchangeError("/0/private/Balance", 200, []string{"EAPI:Rate limit exceeded"})
	authFailed := NewExchangeError("/0/private/Balance", 200, []string{"EAPI:Invalid signature"})
	locked := NewExchangeError("/0/private/AddOrder", 200, []string{"ETrade:Locked"})
	transport := &TransportError{Op: "POST", URL: "https://api.kraken.com", Err: errors.New("connection refused")}

	assert.True(t, IsRateLimitError(rateLimited))
	assert.False(t, IsRateLimitError(authFailed))
	assert.False(t, IsRateLimitError(nil))

	assert.True(t, IsAuthenticationError(fmt.Errorf("wrapped: %w", authFailed)))
	assert.False(t, IsAuthenticationError(rateLimited))

	assert.True(t, IsTerminalError(locked))
	assert.False(t, IsTerminalError(rateLimited))

	assert.True(t, IsNetworkError(transport))
	assert.False(t, IsNetworkError(authFailed))
	assert.False(t, IsTimeoutError(transport))
}

func TestWrappingErrors_Unwrap(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
	}{
		{"transport", &TransportError{Op: "GET", URL: "/0/public/Time", Err: cause}},
		{"url", &URLError{URL: "::", Err: cause}},
		{"deserialization", &DeserializationError{Context: "Time", Err: cause}},
		{"wss", &WSSError{Kind: WSSErrorTransport, Err: cause}},
		{"classification", NewClassificationError(SchemaMismatch, "book", "level", cause)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, cause)
		})
	}
}

func TestHTTPStatusError(t *testing.T) {
	err := &HTTPStatusError{StatusCode: 503, Body: "maintenance"}
	assert.Equal(t, "http status 503: maintenance", err.Error())
}

func TestClassificationError_Error(t *testing.T) {
	err := NewClassificationError(UnknownEventType, "emergency", "", nil)
	assert.Equal(t, "classify: UNKNOWN_EVENT_TYPE event=emergency", err.Error())

	err = NewClassificationError(MissingEventField, "", "array of length 1", nil)
	assert.Equal(t, "classify: MISSING_EVENT_FIELD: array of length 1", err.Error())

	wrapped := fmt.Errorf("next: %w", err)
	require.True(t, IsClassificationKind(wrapped, MissingEventField))
	assert.False(t, IsClassificationKind(wrapped, MalformedFrame))
}

func TestWSSErrorKind_String(t *testing.T) {
	assert.Equal(t, "SERDE", WSSErrorSerde.String())
	assert.Equal(t, "TRANSPORT", WSSErrorTransport.String())
	assert.Equal(t, "URL_PARSE", WSSErrorURLParse.String())
}
