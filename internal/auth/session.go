package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/allthepins/identity-gateway/internal/idp"
)

// InitiateAuth authenticates username with password. The result carries
// either tokens or a challenge to answer with RespondToChallenge.
func (s *Service) InitiateAuth(ctx context.Context, username, password string) (result *idp.AuthResult, err error) {
	log, finish := s.begin(OpInitiateAuth, username)
	defer func() { finish(err) }()

	if err := required("username", username); err != nil {
		return nil, invalidParameter(OpInitiateAuth, err.Error())
	}
	if err := required("password", password); err != nil {
		return nil, invalidParameter(OpInitiateAuth, err.Error())
	}

	params, err := s.signedParams(OpInitiateAuth, username, idp.ParamPassword, password)
	if err != nil {
		return nil, err
	}

	result, err = s.provider.AdminInitiateAuth(ctx, idp.AdminAuthRequest{Parameters: params})
	if err != nil {
		return nil, translate(OpInitiateAuth, username, err)
	}
	if result == nil {
		return nil, operationFailed(OpInitiateAuth, errors.New("provider returned no auth result"))
	}

	if result.Challenged() {
		log.Info("challenge issued", "challenge", result.ChallengeName)
	} else {
		log.Info("authenticated")
	}
	return result, nil
}

// RespondToChallenge answers a NEW_PASSWORD_REQUIRED challenge.
func (s *Service) RespondToChallenge(ctx context.Context, req NewPasswordChallenge) (result *idp.AuthResult, err error) {
	log, finish := s.begin(OpRespondToChallenge, req.Username)
	defer func() { finish(err) }()

	if err := req.validate(); err != nil {
		return nil, invalidParameter(OpRespondToChallenge, err.Error())
	}

	responses, err := s.signedParams(OpRespondToChallenge, req.Username, idp.ParamNewPassword, req.NewPassword)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Attributes {
		responses["userAttributes."+k] = v
	}

	result, err = s.provider.RespondToChallenge(ctx, idp.ChallengeResponse{
		ChallengeName: idp.ChallengeNewPasswordRequired,
		Session:       req.Session,
		Responses:     responses,
	})
	if err != nil {
		return nil, translate(OpRespondToChallenge, req.Username, err)
	}
	if result == nil {
		return nil, operationFailed(OpRespondToChallenge, errors.New("provider returned no auth result"))
	}

	log.Info("challenge answered", "next_challenge", result.ChallengeName)
	return result, nil
}

// SignOut invalidates every token issued for the session behind accessToken.
//
// Tokens that decode but are not access tokens, or have already expired, are
// rejected before the provider is called. Tokens that do not decode are
// passed through and left for the provider to reject.
func (s *Service) SignOut(ctx context.Context, accessToken string) (err error) {
	var username string
	claims, inspectErr := s.tokens.Inspect(accessToken)
	if inspectErr == nil {
		username = claims.Username
	}

	log, finish := s.begin(OpSignOut, username)
	defer func() { finish(err) }()

	if err := required("access token", accessToken); err != nil {
		return invalidParameter(OpSignOut, err.Error())
	}
	if inspectErr == nil {
		log = log.With("sub", claims.Subject, "client_id", claims.ClientID, "groups", claims.Groups)
		if !claims.IsAccessToken() {
			return invalidParameter(OpSignOut, "token is not an access token")
		}
		if claims.Expired(s.now()) {
			return &Error{
				Kind:    ErrFailedAuthentication,
				Op:      OpSignOut,
				Message: fmt.Sprintf("%s failed: Access Token has expired", capitalize(describe(OpSignOut))),
			}
		}
	}

	if err := s.provider.GlobalSignOut(ctx, accessToken); err != nil {
		return translate(OpSignOut, username, err)
	}

	log.Info("signed out")
	return nil
}
