// Package idp defines the contract between the identity gateway and a managed
// identity provider binding. Nothing in here knows which provider is behind it.
package idp

import "time"

// Auth parameter and challenge response keys understood by the provider.
const (
	ParamUsername    = "USERNAME"
	ParamPassword    = "PASSWORD"
	ParamNewPassword = "NEW_PASSWORD"
	ParamSecretHash  = "SECRET_HASH"

	// ChallengeNewPasswordRequired is issued for users still on a temporary password.
	ChallengeNewPasswordRequired = "NEW_PASSWORD_REQUIRED"
)

// Attribute is a single user attribute as the provider names it.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CreateUserRequest describes an administrative user creation.
type CreateUserRequest struct {
	Username          string
	TemporaryPassword string
	Attributes        []Attribute
}

// User is the provider's view of a user record.
type User struct {
	Username   string      `json:"username"`
	Status     string      `json:"status,omitempty"`
	Enabled    bool        `json:"enabled"`
	Attributes []Attribute `json:"attributes,omitempty"`
	CreatedAt  time.Time   `json:"createdAt,omitzero"`
	ModifiedAt time.Time   `json:"modifiedAt,omitzero"`
}

// Tokens is the token set of a completed authentication.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int32  `json:"expiresIn"`
}

// AuthResult is the outcome of an auth or challenge call: either Tokens, or a
// follow-up challenge the caller must answer using Session.
type AuthResult struct {
	Tokens              *Tokens           `json:"tokens,omitempty"`
	ChallengeName       string            `json:"challengeName,omitempty"`
	ChallengeParameters map[string]string `json:"challengeParameters,omitempty"`
	Session             string            `json:"session,omitempty"`
}

// Challenged reports whether the provider asked for a follow-up challenge.
func (r *AuthResult) Challenged() bool {
	return r.ChallengeName != ""
}

// AdminAuthRequest starts an administrator-initiated, no-SRP auth flow.
// Parameters must already carry USERNAME, PASSWORD and SECRET_HASH.
type AdminAuthRequest struct {
	Parameters map[string]string
}

// ChallengeResponse answers a challenge issued by an earlier auth call.
// Responses must already carry USERNAME, the challenge answer and SECRET_HASH.
type ChallengeResponse struct {
	ChallengeName string
	Session       string
	Responses     map[string]string
}

// ListAuthEventsRequest pages through a user's auth events.
type ListAuthEventsRequest struct {
	Username   string
	MaxResults int32
	// NextToken is omitted from the provider call when empty.
	NextToken string
}

// ChallengeOutcome is one challenge step recorded on an auth event.
type ChallengeOutcome struct {
	Name   string `json:"name"`
	Result string `json:"result"`
}

// AuthEvent is one recorded sign-in, sign-up or password event.
type AuthEvent struct {
	ID                     string             `json:"id"`
	Type                   string             `json:"type"`
	Response               string             `json:"response,omitempty"`
	CreatedAt              time.Time          `json:"createdAt,omitzero"`
	RiskDecision           string             `json:"riskDecision,omitempty"`
	RiskLevel              string             `json:"riskLevel,omitempty"`
	CompromisedCredentials bool               `json:"compromisedCredentials,omitempty"`
	IPAddress              string             `json:"ipAddress,omitempty"`
	DeviceName             string             `json:"deviceName,omitempty"`
	City                   string             `json:"city,omitempty"`
	Country                string             `json:"country,omitempty"`
	Challenges             []ChallengeOutcome `json:"challenges,omitempty"`
}

// AuthEventPage is one page of auth events. NextToken is empty on the last page.
type AuthEventPage struct {
	Events    []AuthEvent `json:"events"`
	NextToken string      `json:"nextToken,omitempty"`
}

// ForgotPasswordRequest starts the forgot-password flow.
type ForgotPasswordRequest struct {
	Username   string
	SecretHash string
}

// ConfirmForgotPasswordRequest completes the forgot-password flow.
type ConfirmForgotPasswordRequest struct {
	Username         string
	ConfirmationCode string
	Password         string
	SecretHash       string
}

// CodeDelivery tells where a confirmation code was sent.
type CodeDelivery struct {
	Destination    string `json:"destination"`
	DeliveryMedium string `json:"deliveryMedium"`
	AttributeName  string `json:"attributeName"`
}
