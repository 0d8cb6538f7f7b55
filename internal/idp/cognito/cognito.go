// Package cognito binds idp.Provider to Amazon Cognito user pools through the
// AWS SDK for Go v2.
package cognito

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/allthepins/identity-gateway/internal/idp"
)

// API is the subset of the Cognito Identity Provider client this binding
// calls. *cognitoidentityprovider.Client satisfies it.
type API interface {
	AdminCreateUser(ctx context.Context, in *cip.AdminCreateUserInput, optFns ...func(*cip.Options)) (*cip.AdminCreateUserOutput, error)
	AdminAddUserToGroup(ctx context.Context, in *cip.AdminAddUserToGroupInput, optFns ...func(*cip.Options)) (*cip.AdminAddUserToGroupOutput, error)
	AdminSetUserPassword(ctx context.Context, in *cip.AdminSetUserPasswordInput, optFns ...func(*cip.Options)) (*cip.AdminSetUserPasswordOutput, error)
	AdminInitiateAuth(ctx context.Context, in *cip.AdminInitiateAuthInput, optFns ...func(*cip.Options)) (*cip.AdminInitiateAuthOutput, error)
	AdminRespondToAuthChallenge(ctx context.Context, in *cip.AdminRespondToAuthChallengeInput, optFns ...func(*cip.Options)) (*cip.AdminRespondToAuthChallengeOutput, error)
	AdminListUserAuthEvents(ctx context.Context, in *cip.AdminListUserAuthEventsInput, optFns ...func(*cip.Options)) (*cip.AdminListUserAuthEventsOutput, error)
	GlobalSignOut(ctx context.Context, in *cip.GlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
	ForgotPassword(ctx context.Context, in *cip.ForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, in *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error)
}

// ClientConfig configures the underlying SDK client.
type ClientConfig struct {
	Region string
	// Endpoint overrides the service endpoint (local emulators).
	Endpoint string
	// AccessKeyID and SecretAccessKey select static credentials. When empty
	// the default credential chain (env, shared config, IAM role) is used.
	AccessKeyID     string
	SecretAccessKey string
}

// NewClient creates a Cognito Identity Provider client. The client is safe
// for concurrent use and should be shared.
func NewClient(ctx context.Context, cfg ClientConfig) (*cip.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return cip.NewFromConfig(awsCfg, func(o *cip.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// Provider implements idp.Provider against one user pool and app client.
type Provider struct {
	api        API
	userPoolID string
	clientID   string
}

var _ idp.Provider = (*Provider)(nil)

// New creates a Provider.
func New(api API, userPoolID, clientID string) (*Provider, error) {
	if api == nil {
		return nil, errors.New("cognito API client is required")
	}
	if userPoolID == "" {
		return nil, errors.New("user pool id is required")
	}
	if clientID == "" {
		return nil, errors.New("client id is required")
	}

	return &Provider{
		api:        api,
		userPoolID: userPoolID,
		clientID:   clientID,
	}, nil
}

// CreateUser creates the user with a temporary password and suppresses the
// provider's welcome message.
func (p *Provider) CreateUser(ctx context.Context, req idp.CreateUserRequest) (*idp.User, error) {
	out, err := p.api.AdminCreateUser(ctx, &cip.AdminCreateUserInput{
		UserPoolId:             aws.String(p.userPoolID),
		Username:               aws.String(req.Username),
		TemporaryPassword:      aws.String(req.TemporaryPassword),
		DesiredDeliveryMediums: []types.DeliveryMediumType{types.DeliveryMediumTypeEmail},
		MessageAction:          types.MessageActionTypeSuppress,
		UserAttributes:         toAttributeTypes(req.Attributes),
	})
	if err != nil {
		return nil, classify(err)
	}
	if out.User == nil {
		return &idp.User{Username: req.Username}, nil
	}

	return fromUserType(out.User), nil
}

// AddUserToGroup adds username to group.
func (p *Provider) AddUserToGroup(ctx context.Context, username, group string) error {
	_, err := p.api.AdminAddUserToGroup(ctx, &cip.AdminAddUserToGroupInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(username),
		GroupName:  aws.String(group),
	})
	return classify(err)
}

// SetUserPassword sets the password as an administrator. Works on any user.
func (p *Provider) SetUserPassword(ctx context.Context, username, password string, permanent bool) error {
	_, err := p.api.AdminSetUserPassword(ctx, &cip.AdminSetUserPasswordInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(username),
		Password:   aws.String(password),
		Permanent:  permanent,
	})
	return classify(err)
}

// AdminInitiateAuth runs ADMIN_NO_SRP_AUTH with pre-signed parameters.
func (p *Provider) AdminInitiateAuth(ctx context.Context, req idp.AdminAuthRequest) (*idp.AuthResult, error) {
	out, err := p.api.AdminInitiateAuth(ctx, &cip.AdminInitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeAdminNoSrpAuth,
		UserPoolId:     aws.String(p.userPoolID),
		ClientId:       aws.String(p.clientID),
		AuthParameters: req.Parameters,
	})
	if err != nil {
		return nil, classify(err)
	}

	return toAuthResult(out.AuthenticationResult, out.ChallengeName, out.ChallengeParameters, out.Session), nil
}

// RespondToChallenge answers a challenge with pre-signed responses.
func (p *Provider) RespondToChallenge(ctx context.Context, req idp.ChallengeResponse) (*idp.AuthResult, error) {
	in := &cip.AdminRespondToAuthChallengeInput{
		ChallengeName:      types.ChallengeNameType(req.ChallengeName),
		UserPoolId:         aws.String(p.userPoolID),
		ClientId:           aws.String(p.clientID),
		ChallengeResponses: req.Responses,
	}
	if req.Session != "" {
		in.Session = aws.String(req.Session)
	}

	out, err := p.api.AdminRespondToAuthChallenge(ctx, in)
	if err != nil {
		return nil, classify(err)
	}

	return toAuthResult(out.AuthenticationResult, out.ChallengeName, out.ChallengeParameters, out.Session), nil
}

// ListAuthEvents returns one page of auth events, newest first.
func (p *Provider) ListAuthEvents(ctx context.Context, req idp.ListAuthEventsRequest) (*idp.AuthEventPage, error) {
	in := &cip.AdminListUserAuthEventsInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(req.Username),
		MaxResults: aws.Int32(req.MaxResults),
	}
	if req.NextToken != "" {
		in.NextToken = aws.String(req.NextToken)
	}

	out, err := p.api.AdminListUserAuthEvents(ctx, in)
	if err != nil {
		return nil, classify(err)
	}

	page := &idp.AuthEventPage{
		Events:    make([]idp.AuthEvent, 0, len(out.AuthEvents)),
		NextToken: aws.ToString(out.NextToken),
	}
	for _, ev := range out.AuthEvents {
		page.Events = append(page.Events, fromAuthEventType(ev))
	}

	return page, nil
}

// GlobalSignOut invalidates all tokens issued to the session.
func (p *Provider) GlobalSignOut(ctx context.Context, accessToken string) error {
	_, err := p.api.GlobalSignOut(ctx, &cip.GlobalSignOutInput{
		AccessToken: aws.String(accessToken),
	})
	return classify(err)
}

// ForgotPassword sends a reset code through the user's verified channel.
func (p *Provider) ForgotPassword(ctx context.Context, req idp.ForgotPasswordRequest) (*idp.CodeDelivery, error) {
	out, err := p.api.ForgotPassword(ctx, &cip.ForgotPasswordInput{
		ClientId:   aws.String(p.clientID),
		Username:   aws.String(req.Username),
		SecretHash: aws.String(req.SecretHash),
	})
	if err != nil {
		return nil, classify(err)
	}

	delivery := &idp.CodeDelivery{}
	if d := out.CodeDeliveryDetails; d != nil {
		delivery.Destination = aws.ToString(d.Destination)
		delivery.DeliveryMedium = string(d.DeliveryMedium)
		delivery.AttributeName = aws.ToString(d.AttributeName)
	}

	return delivery, nil
}

// ConfirmForgotPassword sets the new password if the code checks out.
func (p *Provider) ConfirmForgotPassword(ctx context.Context, req idp.ConfirmForgotPasswordRequest) error {
	_, err := p.api.ConfirmForgotPassword(ctx, &cip.ConfirmForgotPasswordInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(req.Username),
		ConfirmationCode: aws.String(req.ConfirmationCode),
		Password:         aws.String(req.Password),
		SecretHash:       aws.String(req.SecretHash),
	})
	return classify(err)
}
