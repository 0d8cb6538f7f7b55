package auth

import (
	"context"

	"github.com/allthepins/identity-gateway/internal/idp"
)

// CreateUser creates a user with a throwaway temporary password, adds it to
// every role group, then sets the caller's password as permanent.
//
// The steps are not transactional. If a group add or the password step fails
// the user already exists: the created user is returned together with the
// error, whose Op names the failed step (OpAddUserToGroup or OpSetPassword)
// so callers know which of AddUserToGroup and SetPassword to retry. A failed
// group add skips the password step.
func (s *Service) CreateUser(ctx context.Context, req SignUp) (user *idp.User, err error) {
	log, finish := s.begin(OpCreateUser, req.Email)
	defer func() { finish(err) }()

	if err := req.validate(); err != nil {
		return nil, invalidParameter(OpCreateUser, err.Error())
	}

	tmp, err := s.passwords.Generate()
	if err != nil {
		return nil, &Error{Kind: ErrOperationFailed, Op: OpCreateUser, Message: "Failed to generate temporary password.", Err: err}
	}

	user, err = s.provider.CreateUser(ctx, idp.CreateUserRequest{
		Username:          req.Email,
		TemporaryPassword: tmp,
		Attributes:        req.attributes(s.tenantNameAttr),
	})
	if err != nil {
		return nil, translate(OpCreateUser, req.Email, err)
	}
	log.Info("created user", "user", user.Username)

	roles := req.roles()
	for i, role := range roles {
		if err := s.provider.AddUserToGroup(ctx, req.Email, role); err != nil {
			log.Warn("user created with incomplete role assignment",
				"step", OpAddUserToGroup, "assigned", roles[:i], "failed_role", role)
			return user, translate(OpAddUserToGroup, req.Email, err)
		}
	}

	if err := s.provider.SetUserPassword(ctx, req.Email, req.Password, true); err != nil {
		log.Warn("user created without permanent password", "step", OpSetPassword, "roles", roles)
		return user, translate(OpSetPassword, req.Email, err)
	}

	log.Info("user ready", "roles", roles)
	return user, nil
}

// AddUserToGroup adds username to groupName.
func (s *Service) AddUserToGroup(ctx context.Context, username, groupName string) (err error) {
	log, finish := s.begin(OpAddUserToGroup, username)
	defer func() { finish(err) }()

	if err := required("username", username); err != nil {
		return invalidParameter(OpAddUserToGroup, err.Error())
	}
	if err := required("group name", groupName); err != nil {
		return invalidParameter(OpAddUserToGroup, err.Error())
	}

	if err := s.provider.AddUserToGroup(ctx, username, groupName); err != nil {
		return translate(OpAddUserToGroup, username, err)
	}

	log.Info("added user to group", "group", groupName)
	return nil
}

// SetPassword sets password as the user's permanent password, skipping the
// temporary-password flow.
func (s *Service) SetPassword(ctx context.Context, username, password string) (err error) {
	log, finish := s.begin(OpSetPassword, username)
	defer func() { finish(err) }()

	if err := required("username", username); err != nil {
		return invalidParameter(OpSetPassword, err.Error())
	}
	if err := required("password", password); err != nil {
		return invalidParameter(OpSetPassword, err.Error())
	}

	if err := s.provider.SetUserPassword(ctx, username, password, true); err != nil {
		return translate(OpSetPassword, username, err)
	}

	log.Info("password set")
	return nil
}
