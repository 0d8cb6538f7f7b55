package cognito

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"

	"github.com/allthepins/identity-gateway/internal/idp"
)

// kindByCode maps Cognito exception codes to provider error kinds. Codes not
// listed classify as idp.KindUnknown and keep their code and message.
var kindByCode = map[string]idp.Kind{
	"UsernameExistsException":          idp.KindUsernameExists,
	"AliasExistsException":             idp.KindUsernameExists,
	"InvalidPasswordException":         idp.KindInvalidPassword,
	"NotAuthorizedException":           idp.KindNotAuthorized,
	"UserNotFoundException":            idp.KindUserNotFound,
	"InvalidParameterException":        idp.KindInvalidParameter,
	"UserPoolAddOnNotEnabledException": idp.KindInvalidParameter,
	"InternalErrorException":           idp.KindInternalError,
	"CodeMismatchException":            idp.KindCodeMismatch,
	"ExpiredCodeException":             idp.KindExpiredCode,
	"TooManyRequestsException":         idp.KindTooManyRequests,
	"TooManyFailedAttemptsException":   idp.KindTooManyRequests,
	"LimitExceededException":           idp.KindTooManyRequests,
}

// classify turns an SDK error into an *idp.ProviderError. Errors that did not
// come from the service (nil, transport, context) are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	return &idp.ProviderError{
		Kind:    kindByCode[apiErr.ErrorCode()],
		Code:    apiErr.ErrorCode(),
		Message: apiErr.ErrorMessage(),
		Err:     err,
	}
}

func toAttributeTypes(attrs []idp.Attribute) []types.AttributeType {
	out := make([]types.AttributeType, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, types.AttributeType{
			Name:  aws.String(a.Name),
			Value: aws.String(a.Value),
		})
	}
	return out
}

func fromUserType(u *types.UserType) *idp.User {
	user := &idp.User{
		Username:   aws.ToString(u.Username),
		Status:     string(u.UserStatus),
		Enabled:    u.Enabled,
		CreatedAt:  aws.ToTime(u.UserCreateDate),
		ModifiedAt: aws.ToTime(u.UserLastModifiedDate),
	}
	for _, a := range u.Attributes {
		user.Attributes = append(user.Attributes, idp.Attribute{
			Name:  aws.ToString(a.Name),
			Value: aws.ToString(a.Value),
		})
	}
	return user
}

func toAuthResult(res *types.AuthenticationResultType, challenge types.ChallengeNameType, params map[string]string, session *string) *idp.AuthResult {
	out := &idp.AuthResult{
		ChallengeName:       string(challenge),
		ChallengeParameters: params,
		Session:             aws.ToString(session),
	}
	if res != nil {
		out.Tokens = &idp.Tokens{
			AccessToken:  aws.ToString(res.AccessToken),
			IDToken:      aws.ToString(res.IdToken),
			RefreshToken: aws.ToString(res.RefreshToken),
			TokenType:    aws.ToString(res.TokenType),
			ExpiresIn:    res.ExpiresIn,
		}
	}
	return out
}

func fromAuthEventType(ev types.AuthEventType) idp.AuthEvent {
	out := idp.AuthEvent{
		ID:        aws.ToString(ev.EventId),
		Type:      string(ev.EventType),
		Response:  string(ev.EventResponse),
		CreatedAt: aws.ToTime(ev.CreationDate),
	}
	if r := ev.EventRisk; r != nil {
		out.RiskDecision = string(r.RiskDecision)
		out.RiskLevel = string(r.RiskLevel)
		out.CompromisedCredentials = aws.ToBool(r.CompromisedCredentialsDetected)
	}
	if c := ev.EventContextData; c != nil {
		out.IPAddress = aws.ToString(c.IpAddress)
		out.DeviceName = aws.ToString(c.DeviceName)
		out.City = aws.ToString(c.City)
		out.Country = aws.ToString(c.Country)
	}
	for _, cr := range ev.ChallengeResponses {
		out.Challenges = append(out.Challenges, idp.ChallengeOutcome{
			Name:   string(cr.ChallengeName),
			Result: string(cr.ChallengeResponse),
		})
	}
	return out
}
