package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/allthepins/identity-gateway/internal/auth"
	"github.com/allthepins/identity-gateway/internal/idp"
)

// gateway is the part of *auth.Service the CLI drives.
type gateway interface {
	CreateUser(ctx context.Context, req auth.SignUp) (*idp.User, error)
	AddUserToGroup(ctx context.Context, username, groupName string) error
	SetPassword(ctx context.Context, username, password string) error
	InitiateAuth(ctx context.Context, username, password string) (*idp.AuthResult, error)
	RespondToChallenge(ctx context.Context, req auth.NewPasswordChallenge) (*idp.AuthResult, error)
	ChangePassword(ctx context.Context, username, newPassword string) error
	ResetPassword(ctx context.Context, req auth.PasswordReset) error
	ListAuthEvents(ctx context.Context, username string, maxResults int, nextToken string) (*idp.AuthEventPage, error)
	SignOut(ctx context.Context, accessToken string) error
	ForgotPassword(ctx context.Context, username string) (*idp.CodeDelivery, error)
	RevealIP(pseudonym string) (string, error)
}

var _ gateway = (*auth.Service)(nil)

type cli struct {
	out      io.Writer
	errOut   io.Writer
	connect  func(ctx context.Context, errOut io.Writer, reg prometheus.Registerer) (gateway, error)
	registry *prometheus.Registry
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string) error
}

func (c *cli) commands() []command {
	return []command{
		{"create-user", "Create a user, assign roles and set a permanent password", c.createUser},
		{"add-to-group", "Add a user to a group", c.addToGroup},
		{"set-password", "Set a user's permanent password", c.setPassword},
		{"auth", "Authenticate a user and print tokens or a challenge", c.authenticate},
		{"respond-challenge", "Answer a NEW_PASSWORD_REQUIRED challenge", c.respondChallenge},
		{"change-password", "Change a user's password as an administrator", c.changePassword},
		{"reset-password", "Complete a forgot-password flow with a reset code", c.resetPassword},
		{"list-auth-events", "List a user's auth events", c.listAuthEvents},
		{"sign-out", "Sign out every session of an access token's user", c.signOut},
		{"forgot-password", "Send a password reset code", c.forgotPassword},
		{"reveal-ip", "Recover the address behind an auth event IP pseudonym", c.revealIP},
	}
}

func (c *cli) run(ctx context.Context, args []string) error {
	if c.registry == nil {
		c.registry = prometheus.NewRegistry()
	}

	global := flag.NewFlagSet("idpctl", flag.ContinueOnError)
	global.SetOutput(c.errOut)
	global.Usage = c.printUsage
	dumpMetrics := global.Bool("metrics", false, "Print operation metrics to stderr on exit")
	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	args = global.Args()

	if len(args) == 0 {
		c.printUsage()
		return errors.New("command is required")
	}

	if args[0] == "help" {
		c.printUsage()
		return nil
	}

	for _, cmd := range c.commands() {
		if cmd.name == args[0] {
			err := cmd.run(ctx, args[1:])
			if *dumpMetrics {
				if merr := c.writeMetrics(); merr != nil && err == nil {
					err = merr
				}
			}
			return err
		}
	}

	c.printUsage()
	return fmt.Errorf("unknown command %q", args[0])
}

// writeMetrics prints the gathered registry in the Prometheus text format.
func (c *cli) writeMetrics() error {
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	enc := expfmt.NewEncoder(c.errOut, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encoding metrics: %w", err)
		}
	}
	return nil
}

func (c *cli) printUsage() {
	fmt.Fprintf(c.errOut, "Usage: %s [-metrics] <command> [options]\n\nCommands:\n", os.Args[0])
	for _, cmd := range c.commands() {
		fmt.Fprintf(c.errOut, "  %-18s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintf(c.errOut, `
Environment variables:
  COGNITO_USER_POOL_ID       User pool id (required)
  COGNITO_CLIENT_ID          App client id (required)
  COGNITO_CLIENT_SECRET      App client secret (required)
  AWS_REGION                 Region (default us-east-1)
  COGNITO_ENDPOINT           Endpoint override for local emulators
  COGNITO_TENANT_NAME_ATTR   Tenant name attribute (default custom:tenatName)
  AUTH_EVENTS_MAX_RESULTS    Default auth events page size (default 10)
  IPCRYPT_KEY                Base64 key for auth event IP pseudonymization
  LOG_LEVEL                  debug, info, warn or error (default info)

Use '%s <command> -h' for command options.
`, os.Args[0])
}

// envOrDefault returns the environment variable value if set, otherwise the default.
func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func (c *cli) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

// parse parses args and connects to the gateway. It returns a nil gateway
// and nil error when help was requested.
func (c *cli) parse(ctx context.Context, fs *flag.FlagSet, args []string, required ...string) (gateway, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil
		}
		return nil, err
	}
	for _, name := range required {
		if f := fs.Lookup(name); f != nil && f.Value.String() == "" {
			return nil, fmt.Errorf("-%s is required", name)
		}
	}
	return c.connect(ctx, c.errOut, c.registry)
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) printOK() error {
	return c.print(map[string]string{"status": "ok"})
}

// attrFlag collects repeated key=value flags.
type attrFlag map[string]string

func (a attrFlag) String() string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+a[k])
	}
	return strings.Join(parts, ",")
}

func (a attrFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	a[k] = v
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func (c *cli) createUser(ctx context.Context, args []string) error {
	fs := c.flagSet("create-user")
	var req auth.SignUp
	var roles string
	attrs := attrFlag{}
	fs.StringVar(&req.Email, "email", "", "User email, also the username")
	fs.StringVar(&req.Password, "password", envOrDefault("IDPCTL_PASSWORD", ""), "Permanent password (env IDPCTL_PASSWORD)")
	fs.StringVar(&req.Name, "name", "", "Given name")
	fs.StringVar(&req.LastName, "last-name", "", "Family name")
	fs.StringVar(&req.PhoneNumber, "phone", "", "Phone number in E.164 format")
	fs.StringVar(&req.TenantID, "tenant-id", "", "Tenant id")
	fs.StringVar(&req.TenantName, "tenant-name", "", "Tenant name")
	fs.StringVar(&roles, "roles", "", "Comma-separated role groups")
	fs.Var(attrs, "attr", "Custom attribute key=value (repeatable)")

	gw, err := c.parse(ctx, fs, args, "email")
	if err != nil || gw == nil {
		return err
	}
	req.Roles = splitList(roles)
	req.CustomAttributes = attrs

	user, err := gw.CreateUser(ctx, req)
	if user != nil {
		if perr := c.print(user); perr != nil {
			return perr
		}
	}
	return err
}

func (c *cli) addToGroup(ctx context.Context, args []string) error {
	fs := c.flagSet("add-to-group")
	username := fs.String("username", "", "Username")
	group := fs.String("group", "", "Group name")

	gw, err := c.parse(ctx, fs, args, "username", "group")
	if err != nil || gw == nil {
		return err
	}
	if err := gw.AddUserToGroup(ctx, *username, *group); err != nil {
		return err
	}
	return c.printOK()
}

func (c *cli) setPassword(ctx context.Context, args []string) error {
	fs := c.flagSet("set-password")
	username := fs.String("username", "", "Username")
	pw := fs.String("password", envOrDefault("IDPCTL_PASSWORD", ""), "Permanent password (env IDPCTL_PASSWORD)")

	gw, err := c.parse(ctx, fs, args, "username", "password")
	if err != nil || gw == nil {
		return err
	}
	if err := gw.SetPassword(ctx, *username, *pw); err != nil {
		return err
	}
	return c.printOK()
}

func (c *cli) authenticate(ctx context.Context, args []string) error {
	fs := c.flagSet("auth")
	username := fs.String("username", "", "Username")
	pw := fs.String("password", envOrDefault("IDPCTL_PASSWORD", ""), "Password (env IDPCTL_PASSWORD)")

	gw, err := c.parse(ctx, fs, args, "username", "password")
	if err != nil || gw == nil {
		return err
	}
	result, err := gw.InitiateAuth(ctx, *username, *pw)
	if err != nil {
		return err
	}
	return c.print(result)
}

func (c *cli) respondChallenge(ctx context.Context, args []string) error {
	fs := c.flagSet("respond-challenge")
	var req auth.NewPasswordChallenge
	attrs := attrFlag{}
	fs.StringVar(&req.Username, "username", "", "Username")
	fs.StringVar(&req.NewPassword, "new-password", envOrDefault("IDPCTL_NEW_PASSWORD", ""), "New password (env IDPCTL_NEW_PASSWORD)")
	fs.StringVar(&req.Session, "session", "", "Session from the auth command")
	fs.Var(attrs, "attr", "Required user attribute key=value (repeatable)")

	gw, err := c.parse(ctx, fs, args, "username", "new-password", "session")
	if err != nil || gw == nil {
		return err
	}
	if len(attrs) > 0 {
		req.Attributes = attrs
	}

	result, err := gw.RespondToChallenge(ctx, req)
	if err != nil {
		return err
	}
	return c.print(result)
}

func (c *cli) changePassword(ctx context.Context, args []string) error {
	fs := c.flagSet("change-password")
	username := fs.String("username", "", "Username")
	pw := fs.String("new-password", envOrDefault("IDPCTL_NEW_PASSWORD", ""), "New password (env IDPCTL_NEW_PASSWORD)")

	gw, err := c.parse(ctx, fs, args, "username", "new-password")
	if err != nil || gw == nil {
		return err
	}
	if err := gw.ChangePassword(ctx, *username, *pw); err != nil {
		return err
	}
	return c.printOK()
}

func (c *cli) resetPassword(ctx context.Context, args []string) error {
	fs := c.flagSet("reset-password")
	var req auth.PasswordReset
	fs.StringVar(&req.Username, "username", "", "Username")
	fs.StringVar(&req.ResetCode, "code", "", "Reset code")
	fs.StringVar(&req.NewPassword, "new-password", envOrDefault("IDPCTL_NEW_PASSWORD", ""), "New password (env IDPCTL_NEW_PASSWORD)")
	fs.StringVar(&req.ConfirmPassword, "confirm-password", envOrDefault("IDPCTL_NEW_PASSWORD", ""), "New password again")

	gw, err := c.parse(ctx, fs, args, "username", "code")
	if err != nil || gw == nil {
		return err
	}
	if err := gw.ResetPassword(ctx, req); err != nil {
		return err
	}
	return c.printOK()
}

func (c *cli) listAuthEvents(ctx context.Context, args []string) error {
	fs := c.flagSet("list-auth-events")
	username := fs.String("username", "", "Username")
	maxResults := fs.Int("max", 0, "Page size, 0 for the configured default")
	nextToken := fs.String("next-token", "", "Token of the page to fetch")

	gw, err := c.parse(ctx, fs, args, "username")
	if err != nil || gw == nil {
		return err
	}
	page, err := gw.ListAuthEvents(ctx, *username, *maxResults, *nextToken)
	if err != nil {
		return err
	}
	return c.print(page)
}

func (c *cli) signOut(ctx context.Context, args []string) error {
	fs := c.flagSet("sign-out")
	token := fs.String("access-token", envOrDefault("IDPCTL_ACCESS_TOKEN", ""), "Access token (env IDPCTL_ACCESS_TOKEN)")

	gw, err := c.parse(ctx, fs, args, "access-token")
	if err != nil || gw == nil {
		return err
	}
	if err := gw.SignOut(ctx, *token); err != nil {
		return err
	}
	return c.printOK()
}

func (c *cli) forgotPassword(ctx context.Context, args []string) error {
	fs := c.flagSet("forgot-password")
	username := fs.String("username", "", "Username")

	gw, err := c.parse(ctx, fs, args, "username")
	if err != nil || gw == nil {
		return err
	}
	delivery, err := gw.ForgotPassword(ctx, *username)
	if err != nil {
		return err
	}
	return c.print(delivery)
}

func (c *cli) revealIP(ctx context.Context, args []string) error {
	fs := c.flagSet("reveal-ip")
	pseudonym := fs.String("ip", "", "Pseudonymized IP address from list-auth-events")

	gw, err := c.parse(ctx, fs, args, "ip")
	if err != nil || gw == nil {
		return err
	}
	ip, err := gw.RevealIP(*pseudonym)
	if err != nil {
		return err
	}
	return c.print(map[string]string{"pseudonym": *pseudonym, "ipAddress": ip})
}
