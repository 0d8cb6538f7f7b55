package idp

import "context"

// Provider defines the required behavior for an identity provider binding.
//
// Every method returns a *ProviderError for failures the provider reported,
// and a plain error for anything else (transport, cancelled context).
type Provider interface {
	// CreateUser creates a user with a temporary password and no welcome message.
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)

	// AddUserToGroup adds username to the named group.
	AddUserToGroup(ctx context.Context, username, group string) error

	// SetUserPassword sets a user's password as an administrator.
	SetUserPassword(ctx context.Context, username, password string, permanent bool) error

	// AdminInitiateAuth runs the administrator-initiated no-SRP auth flow.
	AdminInitiateAuth(ctx context.Context, req AdminAuthRequest) (*AuthResult, error)

	// RespondToChallenge answers a challenge from AdminInitiateAuth.
	RespondToChallenge(ctx context.Context, req ChallengeResponse) (*AuthResult, error)

	// ListAuthEvents returns one page of a user's auth events.
	ListAuthEvents(ctx context.Context, req ListAuthEventsRequest) (*AuthEventPage, error)

	// GlobalSignOut invalidates every token of the session behind accessToken.
	GlobalSignOut(ctx context.Context, accessToken string) error

	// ForgotPassword sends a password reset code to the user.
	ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*CodeDelivery, error)

	// ConfirmForgotPassword sets a new password using a reset code.
	ConfirmForgotPassword(ctx context.Context, req ConfirmForgotPasswordRequest) error
}
