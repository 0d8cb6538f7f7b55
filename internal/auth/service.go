// Package auth is the identity gateway: one method per supported identity
// operation, each delegating to an idp.Provider. The gateway signs requests
// that need a secret hash and translates provider failures into this
// package's error kinds. It holds no state between calls.
package auth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allthepins/identity-gateway/internal/idp"
	"github.com/allthepins/identity-gateway/internal/platform/ipcrypt"
	"github.com/allthepins/identity-gateway/internal/platform/jwt"
	"github.com/allthepins/identity-gateway/internal/platform/password"
	"github.com/allthepins/identity-gateway/internal/platform/secrethash"
)

// Operation names, used as log attributes and metric labels.
const (
	OpCreateUser         = "create_user"
	OpAddUserToGroup     = "add_user_to_group"
	OpSetPassword        = "set_password"
	OpInitiateAuth       = "initiate_auth"
	OpRespondToChallenge = "respond_to_challenge"
	OpChangePassword     = "change_password"
	OpResetPassword      = "reset_password"
	OpListAuthEvents     = "list_auth_events"
	OpSignOut            = "sign_out"
	OpForgotPassword     = "forgot_password"
	OpRevealIP           = "reveal_ip"
)

var opDescriptions = map[string]string{
	OpCreateUser:         "sign up",
	OpAddUserToGroup:     "add user to group",
	OpSetPassword:        "set password",
	OpInitiateAuth:       "authenticate",
	OpRespondToChallenge: "respond to challenge",
	OpChangePassword:     "change password",
	OpResetPassword:      "reset password",
	OpListAuthEvents:     "list auth events",
	OpSignOut:            "logout",
	OpForgotPassword:     "forgot password",
	OpRevealIP:           "reveal IP address",
}

func describe(op string) string {
	if d, ok := opDescriptions[op]; ok {
		return d
	}
	return op
}

// maxAuthEventsPage is the provider's page size limit for auth events.
const maxAuthEventsPage = 60

// DefaultTenantNameAttribute is the schema name existing user pools use for
// the tenant name. The misspelling is part of the pool schema.
const DefaultTenantNameAttribute = "custom:tenatName"

// MetricsRecorder records the outcome of each operation.
type MetricsRecorder interface {
	ObserveOperation(operation, outcome string, d time.Duration)
}

// Config holds the dependencies for the gateway.
type Config struct {
	Provider    idp.Provider
	Credentials secrethash.Credentials
	Passwords   password.Generator
	Tokens      jwt.Inspector
	Logger      *slog.Logger

	// IPCrypt pseudonymizes auth event IPs when set.
	IPCrypt ipcrypt.Encryptor
	// Metrics is optional.
	Metrics MetricsRecorder
	// AuthEventsMaxResults is the page size used when callers pass 0.
	AuthEventsMaxResults int32
	// TenantNameAttribute defaults to DefaultTenantNameAttribute.
	TenantNameAttribute string
}

// Service is the identity gateway. It is safe for concurrent use as long as
// its Provider is.
type Service struct {
	provider    idp.Provider
	credentials secrethash.Credentials
	passwords   password.Generator
	tokens      jwt.Inspector
	ipcrypt     ipcrypt.Encryptor
	metrics     MetricsRecorder
	logger      *slog.Logger
	eventsLimit int32

	tenantNameAttr string
	now            func() time.Time
}

// NewService creates a new gateway.
func NewService(cfg Config) (*Service, error) {
	if cfg.Provider == nil {
		return nil, errors.New("identity provider is required")
	}
	if cfg.Credentials.ClientID == "" {
		return nil, errors.New("client id is required")
	}
	if cfg.Credentials.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if cfg.Passwords == nil {
		return nil, errors.New("password generator is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token inspector is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}

	limit := cfg.AuthEventsMaxResults
	if limit <= 0 {
		limit = 10
	}
	if limit > maxAuthEventsPage {
		limit = maxAuthEventsPage
	}

	tenantAttr := cfg.TenantNameAttribute
	if tenantAttr == "" {
		tenantAttr = DefaultTenantNameAttribute
	}

	return &Service{
		provider:    cfg.Provider,
		credentials: cfg.Credentials,
		passwords:   cfg.Passwords,
		tokens:      cfg.Tokens,
		ipcrypt:     cfg.IPCrypt,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		eventsLimit: limit,

		tenantNameAttr: tenantAttr,
		now:            time.Now,
	}, nil
}

// begin tags a logger for one operation call and returns a finish func that
// logs failures and records metrics. Call finish exactly once with the
// operation's final error.
func (s *Service) begin(op, username string) (*slog.Logger, func(error)) {
	start := time.Now()
	log := s.logger.With(
		slog.String("op", op),
		slog.String("op_id", uuid.NewString()),
	)
	if username != "" {
		log = log.With(slog.String("username", username))
	}

	return log, func(err error) {
		if s.metrics != nil {
			s.metrics.ObserveOperation(op, outcome(err), time.Since(start))
		}
		if err != nil {
			log.Warn("operation failed", "outcome", outcome(err), "error", err)
		}
	}
}

// signedParams builds the parameter map for a secret-hash flow. It is built
// fresh per call; the hash is specific to username.
func (s *Service) signedParams(op, username, passwordKey, pw string) (map[string]string, error) {
	hash, err := s.secretHash(op, username)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		idp.ParamUsername:   username,
		passwordKey:         pw,
		idp.ParamSecretHash: hash,
	}, nil
}

// secretHash signs username for flows that take the hash as its own field.
func (s *Service) secretHash(op, username string) (string, error) {
	hash, err := s.credentials.Sign(username)
	if err != nil {
		return "", signingFailed(op, err)
	}
	return hash, nil
}
