package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/allthepins/identity-gateway/internal/idp"
)

// Error kinds returned by Service. Match them with errors.Is.
var (
	ErrUsernameExists       = errors.New("username already exists")
	ErrInvalidPassword      = errors.New("invalid password")
	ErrFailedAuthentication = errors.New("authentication failed")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidParameter     = errors.New("invalid parameter")
	ErrInternal             = errors.New("identity provider internal error")
	ErrSigning              = errors.New("request signing failed")
	ErrInvalidCode          = errors.New("invalid or expired confirmation code")
	ErrRateLimited          = errors.New("too many requests")
	ErrOperationFailed      = errors.New("operation failed")
)

// Error is a failure of a gateway operation. Kind is one of the Err* values
// above; Err is the underlying cause, typically an *idp.ProviderError.
type Error struct {
	Kind    error
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// translate maps a provider binding failure to the local taxonomy. username
// is interpolated into not-found messages when known.
func translate(op, username string, err error) error {
	if err == nil {
		return nil
	}

	var perr *idp.ProviderError
	if !errors.As(err, &perr) {
		return &Error{
			Kind:    ErrOperationFailed,
			Op:      op,
			Message: fmt.Sprintf("Failed to %s: %v", describe(op), err),
			Err:     err,
		}
	}

	e := &Error{Op: op, Err: err}
	switch perr.Kind {
	case idp.KindUsernameExists:
		e.Kind, e.Message = ErrUsernameExists, "User name already exists."
	case idp.KindInvalidPassword:
		e.Kind, e.Message = ErrInvalidPassword, "Invalid password."
	case idp.KindNotAuthorized:
		e.Kind = ErrFailedAuthentication
		e.Message = fmt.Sprintf("%s failed: %s", capitalize(describe(op)), perr.Message)
	case idp.KindUserNotFound:
		e.Kind, e.Message = ErrUserNotFound, "User not found."
		if username != "" {
			e.Message = fmt.Sprintf("Username %s not found.", username)
		}
	case idp.KindInvalidParameter:
		e.Kind = ErrInvalidParameter
		e.Message = fmt.Sprintf("Identity provider encountered an invalid parameter: %s", perr.Message)
	case idp.KindInternalError:
		e.Kind, e.Message = ErrInternal, perr.Message
	case idp.KindCodeMismatch, idp.KindExpiredCode:
		e.Kind, e.Message = ErrInvalidCode, "Invalid or expired confirmation code."
	case idp.KindTooManyRequests:
		e.Kind, e.Message = ErrRateLimited, "Too many requests, try again later."
	default:
		e.Kind = ErrOperationFailed
		e.Message = fmt.Sprintf("Failed to %s: %s", describe(op), perr.Message)
	}

	return e
}

// operationFailed wraps any failure as ErrOperationFailed, keeping the cause.
func operationFailed(op string, err error) error {
	msg := err.Error()
	var perr *idp.ProviderError
	if errors.As(err, &perr) {
		msg = perr.Message
	}
	return &Error{
		Kind:    ErrOperationFailed,
		Op:      op,
		Message: fmt.Sprintf("Failed to %s: %s", describe(op), msg),
		Err:     err,
	}
}

func invalidParameter(op, message string) error {
	return &Error{Kind: ErrInvalidParameter, Op: op, Message: message}
}

func signingFailed(op string, err error) error {
	return &Error{Kind: ErrSigning, Op: op, Message: "Error while calculating secret hash.", Err: err}
}

// outcome is the metrics label for an operation result.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}

	var e *Error
	if !errors.As(err, &e) {
		return "error"
	}
	switch e.Kind {
	case ErrUsernameExists:
		return "username_exists"
	case ErrInvalidPassword:
		return "invalid_password"
	case ErrFailedAuthentication:
		return "failed_authentication"
	case ErrUserNotFound:
		return "user_not_found"
	case ErrInvalidParameter:
		return "invalid_parameter"
	case ErrInternal:
		return "internal_error"
	case ErrSigning:
		return "signing_error"
	case ErrInvalidCode:
		return "invalid_code"
	case ErrRateLimited:
		return "rate_limited"
	default:
		return "operation_failed"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
