package idp

import "fmt"

// Kind classifies a provider failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindUsernameExists
	KindInvalidPassword
	KindNotAuthorized
	KindUserNotFound
	KindInvalidParameter
	KindInternalError
	KindCodeMismatch
	KindExpiredCode
	KindTooManyRequests
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindUsernameExists:   "username_exists",
	KindInvalidPassword:  "invalid_password",
	KindNotAuthorized:    "not_authorized",
	KindUserNotFound:     "user_not_found",
	KindInvalidParameter: "invalid_parameter",
	KindInternalError:    "internal_error",
	KindCodeMismatch:     "code_mismatch",
	KindExpiredCode:      "expired_code",
	KindTooManyRequests:  "too_many_requests",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ProviderError is a failure reported by the identity provider. Code and
// Message are the provider's own; Err is the binding-specific error.
type ProviderError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider: %s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
