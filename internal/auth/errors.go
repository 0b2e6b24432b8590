package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures surfaced by the auth core. Every entry point
// renders errors through Describe, so the Kind alone decides the HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindBadCredentials
	KindDisabled
	KindLocked
	KindConflict
	KindValidation
	KindUnauthorized
	KindRefreshRequired
	KindAccessDenied
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindBadCredentials:
		return "bad_credentials"
	case KindDisabled:
		return "disabled"
	case KindLocked:
		return "locked"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindRefreshRequired:
		return "refresh_required"
	case KindAccessDenied:
		return "access_denied"
	case KindNotFound:
		return "not_found"
	}
	return "internal"
}

// User-facing messages. Credential failures never say which field was wrong
// and access denials never name the required role.
const (
	MsgBadCredentials  = "incorrect username or password"
	MsgDisabled        = "account is not activated or has been disabled"
	MsgLocked          = "account is locked, please contact an administrator"
	MsgConflict        = "registration data already exists"
	MsgValidation      = "please check the submitted fields"
	MsgUnauthorized    = "Unauthorized"
	MsgInvalidRefresh  = "invalid or expired refresh token"
	MsgRefreshRequired = "refresh token required"
	MsgAccessDenied    = "you do not have permission to access this resource"
	MsgNotFound        = "resource not found"
	MsgInternal        = "internal server error"
)

// Error is the typed failure returned by the auth core.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, details ...string) *Error {
	return &Error{Kind: kind, Message: msg, Details: details}
}

func internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the Kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Describe maps any error onto the HTTP status, message and details shown to
// the caller. Internal errors never leak their cause.
func Describe(err error) (status int, message string, details []string) {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, MsgInternal, nil
	}
	switch e.Kind {
	case KindBadCredentials:
		return http.StatusUnauthorized, MsgBadCredentials, nil
	case KindDisabled:
		return http.StatusUnauthorized, MsgDisabled, nil
	case KindLocked:
		return http.StatusUnauthorized, MsgLocked, nil
	case KindUnauthorized:
		return http.StatusUnauthorized, orDefault(e.Message, MsgUnauthorized), nil
	case KindConflict:
		return http.StatusBadRequest, orDefault(e.Message, MsgConflict), e.Details
	case KindValidation:
		return http.StatusBadRequest, orDefault(e.Message, MsgValidation), e.Details
	case KindRefreshRequired:
		return http.StatusBadRequest, MsgRefreshRequired, nil
	case KindAccessDenied:
		return http.StatusForbidden, MsgAccessDenied, nil
	case KindNotFound:
		return http.StatusNotFound, orDefault(e.Message, MsgNotFound), nil
	}
	return http.StatusInternalServerError, MsgInternal, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
