package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"

	"github.com/allthepins/identity-gateway/internal/idp"
)

// SignUp holds the data for creating a user.
type SignUp struct {
	Email       string
	Password    string
	Name        string
	LastName    string
	PhoneNumber string
	TenantID    string
	TenantName  string
	Roles       []string
	// CustomAttributes are sent as "custom:<key>".
	CustomAttributes map[string]string
}

// NewPasswordChallenge answers a NEW_PASSWORD_REQUIRED challenge.
type NewPasswordChallenge struct {
	Username    string
	NewPassword string
	Session     string
	// Attributes fills required attributes the user has not set yet.
	Attributes map[string]string
}

// PasswordReset holds the data for confirming a forgot-password flow.
type PasswordReset struct {
	Username        string
	ResetCode       string
	NewPassword     string
	ConfirmPassword string
}

// validate checks required sign-up fields.
func (s SignUp) validate() error {
	if err := validateEmail(s.Email); err != nil {
		return err
	}
	if s.Password == "" {
		return errors.New("password is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("name is required")
	}
	if len(s.roles()) == 0 {
		return errors.New("at least one role is required")
	}
	return nil
}

// attributes maps the sign-up to provider attribute names. Empty optional
// values are left out. tenantNameAttr is the pool's schema name for the
// tenant name.
func (s SignUp) attributes(tenantNameAttr string) []idp.Attribute {
	attrs := []idp.Attribute{
		{Name: "email", Value: s.Email},
		{Name: "email_verified", Value: "true"},
		{Name: "name", Value: s.Name},
	}

	add := func(name, value string) {
		if value != "" {
			attrs = append(attrs, idp.Attribute{Name: name, Value: value})
		}
	}
	add("family_name", s.LastName)
	add("custom:lastname", s.LastName)
	if s.PhoneNumber != "" {
		add("phone_number", s.PhoneNumber)
		add("phone_number_verified", "true")
	}
	add("custom:tenantId", s.TenantID)
	add(tenantNameAttr, s.TenantName)

	keys := make([]string, 0, len(s.CustomAttributes))
	for k := range s.CustomAttributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add("custom:"+strings.TrimPrefix(k, "custom:"), s.CustomAttributes[k])
	}

	return attrs
}

// roles returns the role set sorted and without blanks or duplicates.
func (s SignUp) roles() []string {
	seen := make(map[string]struct{}, len(s.Roles))
	out := make([]string, 0, len(s.Roles))
	for _, r := range s.Roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

func (c NewPasswordChallenge) validate() error {
	if err := required("username", c.Username); err != nil {
		return err
	}
	if err := required("new password", c.NewPassword); err != nil {
		return err
	}
	return required("session", c.Session)
}

func (r PasswordReset) validate() error {
	for _, f := range []struct{ name, value string }{
		{"username", r.Username},
		{"reset code", r.ResetCode},
		{"new password", r.NewPassword},
		{"confirm password", r.ConfirmPassword},
	} {
		if err := required(f.name, f.value); err != nil {
			return err
		}
	}
	if r.NewPassword != r.ConfirmPassword {
		return errors.New("passwords do not match")
	}
	return nil
}

// validateEmail validates email format.
func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("invalid email format")
	}
	return nil
}

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}
