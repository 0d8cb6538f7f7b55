package auth

import (
	"context"

	"github.com/allthepins/identity-gateway/internal/idp"
)

// ChangePassword sets newPassword as the user's permanent password. Unlike
// the other operations, every failure is reported as ErrOperationFailed,
// including missing input.
func (s *Service) ChangePassword(ctx context.Context, username, newPassword string) (err error) {
	log, finish := s.begin(OpChangePassword, username)
	defer func() { finish(err) }()

	if err := required("username", username); err != nil {
		return operationFailed(OpChangePassword, err)
	}
	if err := required("new password", newPassword); err != nil {
		return operationFailed(OpChangePassword, err)
	}

	if err := s.provider.SetUserPassword(ctx, username, newPassword, true); err != nil {
		return operationFailed(OpChangePassword, err)
	}

	log.Info("password changed")
	return nil
}

// ResetPassword completes a forgot-password flow with the emailed code.
func (s *Service) ResetPassword(ctx context.Context, req PasswordReset) (err error) {
	log, finish := s.begin(OpResetPassword, req.Username)
	defer func() { finish(err) }()

	if err := req.validate(); err != nil {
		return invalidParameter(OpResetPassword, err.Error())
	}

	hash, err := s.secretHash(OpResetPassword, req.Username)
	if err != nil {
		return err
	}

	err = s.provider.ConfirmForgotPassword(ctx, idp.ConfirmForgotPasswordRequest{
		Username:         req.Username,
		ConfirmationCode: req.ResetCode,
		Password:         req.NewPassword,
		SecretHash:       hash,
	})
	if err != nil {
		return translate(OpResetPassword, req.Username, err)
	}

	log.Info("password reset")
	return nil
}

// ForgotPassword sends a reset code to the user's verified contact.
func (s *Service) ForgotPassword(ctx context.Context, username string) (delivery *idp.CodeDelivery, err error) {
	log, finish := s.begin(OpForgotPassword, username)
	defer func() { finish(err) }()

	if err := required("username", username); err != nil {
		return nil, invalidParameter(OpForgotPassword, err.Error())
	}

	hash, err := s.secretHash(OpForgotPassword, username)
	if err != nil {
		return nil, err
	}

	delivery, err = s.provider.ForgotPassword(ctx, idp.ForgotPasswordRequest{
		Username:   username,
		SecretHash: hash,
	})
	if err != nil {
		return nil, translate(OpForgotPassword, username, err)
	}
	if delivery == nil {
		delivery = &idp.CodeDelivery{}
	}

	log.Info("reset code sent", "medium", delivery.DeliveryMedium)
	return delivery, nil
}
