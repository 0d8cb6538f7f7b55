package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allthepins/identity-gateway/internal/auth"
	"github.com/allthepins/identity-gateway/internal/idp"
	"github.com/allthepins/identity-gateway/internal/platform/metrics"
)

// mockGateway mocks the gateway interface
type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateUser(ctx context.Context, req auth.SignUp) (*idp.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.User), args.Error(1)
}

func (m *mockGateway) AddUserToGroup(ctx context.Context, username, groupName string) error {
	return m.Called(ctx, username, groupName).Error(0)
}

func (m *mockGateway) SetPassword(ctx context.Context, username, password string) error {
	return m.Called(ctx, username, password).Error(0)
}

func (m *mockGateway) InitiateAuth(ctx context.Context, username, password string) (*idp.AuthResult, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.AuthResult), args.Error(1)
}

func (m *mockGateway) RespondToChallenge(ctx context.Context, req auth.NewPasswordChallenge) (*idp.AuthResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.AuthResult), args.Error(1)
}

func (m *mockGateway) ChangePassword(ctx context.Context, username, newPassword string) error {
	return m.Called(ctx, username, newPassword).Error(0)
}

func (m *mockGateway) ResetPassword(ctx context.Context, req auth.PasswordReset) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockGateway) ListAuthEvents(ctx context.Context, username string, maxResults int, nextToken string) (*idp.AuthEventPage, error) {
	args := m.Called(ctx, username, maxResults, nextToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.AuthEventPage), args.Error(1)
}

func (m *mockGateway) SignOut(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

func (m *mockGateway) ForgotPassword(ctx context.Context, username string) (*idp.CodeDelivery, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.CodeDelivery), args.Error(1)
}

func (m *mockGateway) RevealIP(pseudonym string) (string, error) {
	args := m.Called(pseudonym)
	return args.String(0), args.Error(1)
}

func newTestCLI(t *testing.T) (*cli, *mockGateway, *bytes.Buffer) {
	t.Helper()
	t.Setenv("IDPCTL_PASSWORD", "")
	t.Setenv("IDPCTL_NEW_PASSWORD", "")
	t.Setenv("IDPCTL_ACCESS_TOKEN", "")

	gw := &mockGateway{}
	out := &bytes.Buffer{}
	c := &cli{
		out:    out,
		errOut: io.Discard,
		connect: func(context.Context, io.Writer, prometheus.Registerer) (gateway, error) {
			return gw, nil
		},
	}
	t.Cleanup(func() { gw.AssertExpectations(t) })
	return c, gw, out
}

func TestRunUnknownCommand(t *testing.T) {
	c, _, _ := newTestCLI(t)

	err := c.run(context.Background(), []string{"frobnicate"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "frobnicate"`)
}

func TestRunHelp(t *testing.T) {
	c, _, _ := newTestCLI(t)

	assert.NoError(t, c.run(context.Background(), []string{"help"}))
	assert.NoError(t, c.run(context.Background(), []string{"auth", "-h"}))
	assert.NoError(t, c.run(context.Background(), []string{"-h"}))
	assert.NoError(t, c.run(context.Background(), []string{"--help"}))
	assert.Error(t, c.run(context.Background(), nil))
}

func TestRequiredFlags(t *testing.T) {
	c, _, _ := newTestCLI(t)

	err := c.run(context.Background(), []string{"add-to-group", "-username", "bob"})

	require.Error(t, err)
	assert.Equal(t, "-group is required", err.Error())
}

func TestCreateUserCommand(t *testing.T) {
	c, gw, out := newTestCLI(t)
	gw.On("CreateUser", mock.Anything, auth.SignUp{
		Email:            "bob@example.com",
		Password:         "Permanent1!",
		Name:             "Bob",
		Roles:            []string{"admin", "editor"},
		CustomAttributes: map[string]string{"plan": "pro"},
	}).Return(&idp.User{Username: "bob@example.com", Enabled: true}, nil).Once()

	err := c.run(context.Background(), []string{
		"create-user", "-email", "bob@example.com", "-password", "Permanent1!",
		"-name", "Bob", "-roles", "admin,editor", "-attr", "plan=pro",
	})

	require.NoError(t, err)
	var user idp.User
	require.NoError(t, json.Unmarshal(out.Bytes(), &user))
	assert.Equal(t, "bob@example.com", user.Username)
}

func TestCreateUserCommandPartialFailure(t *testing.T) {
	c, gw, out := newTestCLI(t)
	roleErr := &auth.Error{Kind: auth.ErrOperationFailed, Op: auth.OpAddUserToGroup, Message: "Failed to add user to group: nope"}
	gw.On("CreateUser", mock.Anything, mock.Anything).
		Return(&idp.User{Username: "bob@example.com"}, roleErr).Once()

	err := c.run(context.Background(), []string{"create-user", "-email", "bob@example.com", "-roles", "admin"})

	assert.ErrorIs(t, err, auth.ErrOperationFailed)
	assert.Contains(t, out.String(), `"username": "bob@example.com"`)
}

func TestAuthCommand(t *testing.T) {
	c, gw, out := newTestCLI(t)
	t.Setenv("IDPCTL_PASSWORD", "Secret1!")
	gw.On("InitiateAuth", mock.Anything, "bob", "Secret1!").
		Return(&idp.AuthResult{ChallengeName: idp.ChallengeNewPasswordRequired, Session: "sess"}, nil).Once()

	require.NoError(t, c.run(context.Background(), []string{"auth", "-username", "bob"}))

	var result idp.AuthResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, "sess", result.Session)
}

func TestRespondChallengeCommand(t *testing.T) {
	c, gw, _ := newTestCLI(t)
	gw.On("RespondToChallenge", mock.Anything, auth.NewPasswordChallenge{
		Username:    "bob",
		NewPassword: "NewSecret1!",
		Session:     "sess",
		Attributes:  map[string]string{"name": "Bob"},
	}).Return(&idp.AuthResult{Tokens: &idp.Tokens{AccessToken: "at"}}, nil).Once()

	err := c.run(context.Background(), []string{
		"respond-challenge", "-username", "bob", "-new-password", "NewSecret1!",
		"-session", "sess", "-attr", "name=Bob",
	})

	require.NoError(t, err)
}

func TestStatusCommands(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		setup func(gw *mockGateway)
	}{
		{
			name:  "add-to-group",
			args:  []string{"add-to-group", "-username", "bob", "-group", "admin"},
			setup: func(gw *mockGateway) { gw.On("AddUserToGroup", mock.Anything, "bob", "admin").Return(nil).Once() },
		},
		{
			name:  "set-password",
			args:  []string{"set-password", "-username", "bob", "-password", "P1!"},
			setup: func(gw *mockGateway) { gw.On("SetPassword", mock.Anything, "bob", "P1!").Return(nil).Once() },
		},
		{
			name:  "change-password",
			args:  []string{"change-password", "-username", "bob", "-new-password", "P2!"},
			setup: func(gw *mockGateway) { gw.On("ChangePassword", mock.Anything, "bob", "P2!").Return(nil).Once() },
		},
		{
			name: "reset-password",
			args: []string{"reset-password", "-username", "bob", "-code", "123", "-new-password", "P3!", "-confirm-password", "P3!"},
			setup: func(gw *mockGateway) {
				gw.On("ResetPassword", mock.Anything, auth.PasswordReset{
					Username: "bob", ResetCode: "123", NewPassword: "P3!", ConfirmPassword: "P3!",
				}).Return(nil).Once()
			},
		},
		{
			name:  "sign-out",
			args:  []string{"sign-out", "-access-token", "at"},
			setup: func(gw *mockGateway) { gw.On("SignOut", mock.Anything, "at").Return(nil).Once() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, gw, out := newTestCLI(t)
			tt.setup(gw)

			require.NoError(t, c.run(context.Background(), tt.args))
			assert.JSONEq(t, `{"status":"ok"}`, out.String())
		})
	}
}

func TestListAuthEventsCommand(t *testing.T) {
	c, gw, out := newTestCLI(t)
	gw.On("ListAuthEvents", mock.Anything, "bob", 5, "tok").
		Return(&idp.AuthEventPage{Events: []idp.AuthEvent{{ID: "e1", Type: "SignIn"}}, NextToken: "tok2"}, nil).Once()

	require.NoError(t, c.run(context.Background(), []string{"list-auth-events", "-username", "bob", "-max", "5", "-next-token", "tok"}))

	var page idp.AuthEventPage
	require.NoError(t, json.Unmarshal(out.Bytes(), &page))
	assert.Equal(t, "tok2", page.NextToken)
	assert.Len(t, page.Events, 1)
}

func TestForgotPasswordCommandError(t *testing.T) {
	c, gw, out := newTestCLI(t)
	gw.On("ForgotPassword", mock.Anything, "bob").Return(nil, auth.ErrRateLimited).Once()

	err := c.run(context.Background(), []string{"forgot-password", "-username", "bob"})

	assert.True(t, errors.Is(err, auth.ErrRateLimited))
	assert.Empty(t, out.String())
}

func TestAttrFlag(t *testing.T) {
	a := attrFlag{}
	require.NoError(t, a.Set("b=2"))
	require.NoError(t, a.Set("a=x=y"))
	assert.Error(t, a.Set("novalue"))
	assert.Error(t, a.Set("=v"))
	assert.Equal(t, "a=x=y,b=2", a.String())
}

func TestRevealIPCommand(t *testing.T) {
	c, gw, out := newTestCLI(t)
	gw.On("RevealIP", "203.0.113.77").Return("192.0.2.1", nil).Once()

	require.NoError(t, c.run(context.Background(), []string{"reveal-ip", "-ip", "203.0.113.77"}))
	assert.JSONEq(t, `{"pseudonym":"203.0.113.77","ipAddress":"192.0.2.1"}`, out.String())
}

func TestMetricsFlag(t *testing.T) {
	gw := &mockGateway{}
	gw.On("SignOut", mock.Anything, "at").Return(nil).Once()

	var stderr bytes.Buffer
	c := &cli{
		out:    io.Discard,
		errOut: &stderr,
		connect: func(_ context.Context, _ io.Writer, reg prometheus.Registerer) (gateway, error) {
			// Stands in for the gateway recording its own call.
			metrics.New(reg).ObserveOperation("sign_out", "ok", time.Millisecond)
			return gw, nil
		},
	}

	t.Run("dumps registry after the command", func(t *testing.T) {
		require.NoError(t, c.run(context.Background(), []string{"-metrics", "sign-out", "-access-token", "at"}))

		assert.Contains(t, stderr.String(), `identity_gateway_operations_total{operation="sign_out",outcome="ok"} 1`)
		assert.Contains(t, stderr.String(), "identity_gateway_operation_duration_seconds_count")
	})

	t.Run("silent without the flag", func(t *testing.T) {
		stderr.Reset()
		c.registry = nil
		gw.On("SignOut", mock.Anything, "at").Return(nil).Once()

		require.NoError(t, c.run(context.Background(), []string{"sign-out", "-access-token", "at"}))

		assert.NotContains(t, stderr.String(), "identity_gateway_operations_total")
	})

	gw.AssertExpectations(t)
}
