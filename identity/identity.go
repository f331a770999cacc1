// Package identity wraps the Cognito user-pool authentication flows: direct
// login, forced password change, and the two-step password reset. Each entry
// point is one independent exchange with the provider; provider-reported
// client errors are logged with the provider's own message instead of being
// returned, so callers observe outcomes through the log.
package identity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
)

// CognitoAPI is the subset of the Cognito identity provider API the client
// uses. *cognitoidentityprovider.Client satisfies it.
type CognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	RespondToAuthChallenge(ctx context.Context, params *cognitoidentityprovider.RespondToAuthChallengeInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.RespondToAuthChallengeOutput, error)
	ForgotPassword(ctx context.Context, params *cognitoidentityprovider.ForgotPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, params *cognitoidentityprovider.ConfirmForgotPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmForgotPasswordOutput, error)
}

var _ CognitoAPI = (*cognitoidentityprovider.Client)(nil)

// Client talks to one Cognito app client.
type Client struct {
	api      CognitoAPI
	clientID string
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for flow diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a Client for the given app client ID.
func New(api CognitoAPI, clientID string, opts ...Option) *Client {
	c := &Client{api: api, clientID: clientID, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetToken authenticates with username and password and returns the identity
// token. On failure it logs the provider's message and returns the empty
// string.
func (c *Client) GetToken(ctx context.Context, username, password string) string {
	out, err := c.api.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		ClientId: aws.String(c.clientID),
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		c.logProviderError("authentication failed", username, err)
		return ""
	}
	if out.AuthenticationResult == nil {
		c.logger.Error("authentication returned no result", "username", username)
		return ""
	}
	return aws.ToString(out.AuthenticationResult.IdToken)
}

// TestLogin attempts an authentication and, when the provider demands a
// password change, answers the challenge with newPassword. It is a manual
// diagnostic helper: every branch is reported through the log and nothing
// is returned.
func (c *Client) TestLogin(ctx context.Context, username, password, newPassword string) {
	out, err := c.api.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		ClientId: aws.String(c.clientID),
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		c.logProviderError("authentication failed", username, err)
		return
	}

	switch {
	case out.ChallengeName == types.ChallengeNameTypeNewPasswordRequired:
		c.logger.Info("password change is required", "username", username)
		resp, err := c.api.RespondToAuthChallenge(ctx, &cognitoidentityprovider.RespondToAuthChallengeInput{
			ClientId:      aws.String(c.clientID),
			ChallengeName: types.ChallengeNameTypeNewPasswordRequired,
			Session:       out.Session,
			ChallengeResponses: map[string]string{
				"USERNAME":     username,
				"NEW_PASSWORD": newPassword,
			},
		})
		if err != nil {
			c.logProviderError("password change failed", username, err)
			return
		}
		if resp.AuthenticationResult != nil {
			c.logger.Info("password changed successfully", "username", username)
		} else {
			c.logger.Error("password change failed", "username", username)
		}
	case out.AuthenticationResult != nil:
		c.logger.Info("no password change required", "username", username)
	default:
		c.logger.Error("unexpected challenge received", "username", username, "challenge", out.ChallengeName)
	}
}

// ResetPassword starts the forgot-password flow; the provider emails a
// confirmation code to the user.
func (c *Client) ResetPassword(ctx context.Context, username string) {
	_, err := c.api.ForgotPassword(ctx, &cognitoidentityprovider.ForgotPasswordInput{
		ClientId: aws.String(c.clientID),
		Username: aws.String(username),
	})
	if err != nil {
		c.logProviderError("password reset failed", username, err)
		return
	}
	c.logger.Info("password reset initiated, check your email for the confirmation code", "username", username)
}

// ConfirmPassword completes a reset flow with the emailed verification code.
func (c *Client) ConfirmPassword(ctx context.Context, username, code, newPassword string) {
	_, err := c.api.ConfirmForgotPassword(ctx, &cognitoidentityprovider.ConfirmForgotPasswordInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
	})
	if err != nil {
		c.logProviderError("password confirmation failed", username, err)
		return
	}
	c.logger.Info("password has been reset successfully", "username", username)
}

// logProviderError reports the provider's own message for API errors and
// falls back to the raw error otherwise.
func (c *Client) logProviderError(msg, username string, err error) {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		c.logger.Error(msg, "username", username, "provider_message", apiErr.ErrorMessage())
		return
	}
	c.logger.Error(msg, "username", username, "error", err)
}
