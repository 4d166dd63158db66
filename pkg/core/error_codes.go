package core

import (
	"errors"
	"strings"
)

// ErrorCode is an error string as Kraken returns it in the "error" list.
type ErrorCode string

// Known Kraken error strings.
const (
	ErrCodePermissionDenied   ErrorCode = "EGeneral:Permission denied"
	ErrCodeInvalidKey         ErrorCode = "EAPI:Invalid key"
	ErrCodeUnknownAssetPair   ErrorCode = "EQuery:Unknown asset pair"
	ErrCodeInvalidArguments   ErrorCode = "EGeneral:Invalid arguments"
	ErrCodeInvalidSignature   ErrorCode = "EAPI:Invalid signature"
	ErrCodeInvalidNonce       ErrorCode = "EAPI:Invalid nonce"
	ErrCodeInvalidSession     ErrorCode = "ESession:Invalid session"
	ErrCodeBadRequest         ErrorCode = "EAPI:Bad request"
	ErrCodeUnknownMethod      ErrorCode = "EGeneral:Unknown Method"
	ErrCodeAPIRateLimit       ErrorCode = "EAPI:Rate limit exceeded"
	ErrCodeOrderRateLimit     ErrorCode = "EOrder:Rate limit exceeded"
	ErrCodeTemporaryLockout   ErrorCode = "EGeneral:Temporary lockout"
	ErrCodeServiceUnavailable ErrorCode = "EService:Unavailable"
	ErrCodeServiceBusy        ErrorCode = "EService:Busy"
	ErrCodeInternalError      ErrorCode = "EGeneral:Internal error"
	ErrCodeTradeLocked        ErrorCode = "ETrade:Locked"
	ErrCodeFeatureDisabled    ErrorCode = "EAPI:Feature disabled"
	ErrCodeInsufficientFunds  ErrorCode = "EOrder:Insufficient funds"
	ErrCodeUnknownOrder       ErrorCode = "EOrder:Unknown order"
)

var errorCodeTypes = map[ErrorCode]ErrorType{
	ErrCodePermissionDenied:   ErrorTypeAuthentication,
	ErrCodeInvalidKey:         ErrorTypeAuthentication,
	ErrCodeInvalidSignature:   ErrorTypeAuthentication,
	ErrCodeInvalidNonce:       ErrorTypeAuthentication,
	ErrCodeInvalidSession:     ErrorTypeAuthentication,
	ErrCodeUnknownAssetPair:   ErrorTypeNotFound,
	ErrCodeUnknownOrder:       ErrorTypeNotFound,
	ErrCodeInvalidArguments:   ErrorTypeBadRequest,
	ErrCodeBadRequest:         ErrorTypeBadRequest,
	ErrCodeUnknownMethod:      ErrorTypeBadRequest,
	ErrCodeAPIRateLimit:       ErrorTypeRateLimit,
	ErrCodeOrderRateLimit:     ErrorTypeRateLimit,
	ErrCodeTemporaryLockout:   ErrorTypeRateLimit,
	ErrCodeServiceUnavailable: ErrorTypeServerError,
	ErrCodeServiceBusy:        ErrorTypeServerError,
	ErrCodeInternalError:      ErrorTypeServerError,
	ErrCodeTradeLocked:        ErrorTypeDisabled,
	ErrCodeFeatureDisabled:    ErrorTypeDisabled,
	ErrCodeInsufficientFunds:  ErrorTypeInsufficientFunds,
}

// ClassifyErrorString maps a Kraken error string to an ErrorType.
// Kraken sometimes appends detail after the message ("EGeneral:Invalid arguments:volume"),
// so a known code followed by ':' matches too. Unlisted "EOrder:" strings are invalid orders.
func ClassifyErrorString(msg string) ErrorType {
	msg = strings.TrimSpace(msg)
	if t, ok := errorCodeTypes[ErrorCode(msg)]; ok {
		return t
	}
	for code, t := range errorCodeTypes {
		if strings.HasPrefix(msg, string(code)+":") {
			return t
		}
	}
	if strings.HasPrefix(msg, "EOrder:") {
		return ErrorTypeInvalidOrder
	}
	return ErrorTypeUnknown
}

// IsWarning reports whether an entry of the error list is a warning ("W" severity).
func IsWarning(msg string) bool {
	return strings.HasPrefix(msg, "W")
}

// IsErrorCode checks if the error is an ExchangeError carrying the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		for _, e := range exErr.Errors {
			if ErrorCode(e) == code {
				return true
			}
		}
	}
	return false
}
