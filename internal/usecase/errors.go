package usecase

import (
	"errors"
	"fmt"
	"time"
)

type ErrorKind string

const (
	KindValidation           ErrorKind = "validation"
	KindConflict             ErrorKind = "conflict"
	KindAuthentication       ErrorKind = "authentication"
	KindLocked               ErrorKind = "locked"
	KindInactiveAccount      ErrorKind = "inactive_account"
	KindUpstreamProvisioning ErrorKind = "upstream_provisioning"
	KindNotFound             ErrorKind = "not_found"
	KindInternal             ErrorKind = "internal"
)

// Messages shared by every authentication failure so callers cannot tell
// which factor was wrong.
const (
	MsgInvalidCredentials = "invalid credentials"
	MsgInvalidResetToken  = "invalid or expired reset token"
)

// AppError is the error type returned by every service in this package.
type AppError struct {
	Kind    ErrorKind
	Message string
	Fields  map[string]string
	// LockedUntil is set for KindLocked.
	LockedUntil string
	Err         error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of an AppError anywhere in err's chain, or
// KindInternal for anything else.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func newValidationError(fields map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

func newConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func newAuthenticationError(message string) *AppError {
	return &AppError{Kind: KindAuthentication, Message: message}
}

func newNotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func newInternalError(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

func newLockedError(until time.Time) *AppError {
	return &AppError{
		Kind:        KindLocked,
		Message:     "account is locked, try again later",
		LockedUntil: until.UTC().Format(time.RFC3339),
	}
}

func newInactiveError() *AppError {
	return &AppError{Kind: KindInactiveAccount, Message: "account is deactivated"}
}

func newUpstreamError(reason string, err error) *AppError {
	return &AppError{
		Kind:    KindUpstreamProvisioning,
		Message: "vendor profile provisioning failed: " + reason,
		Err:     err,
	}
}
