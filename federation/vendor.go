package federation

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentity"
	"github.com/jrsteele09/studio-auth-gateway/internal/config"
	"github.com/jrsteele09/studio-auth-gateway/internal/errors"
	"github.com/rs/zerolog"
)

// IdentityAPI is the part of the Cognito Identity client the vendor uses.
type IdentityAPI interface {
	GetId(ctx context.Context, params *cognitoidentity.GetIdInput, optFns ...func(*cognitoidentity.Options)) (*cognitoidentity.GetIdOutput, error)
	GetCredentialsForIdentity(ctx context.Context, params *cognitoidentity.GetCredentialsForIdentityInput, optFns ...func(*cognitoidentity.Options)) (*cognitoidentity.GetCredentialsForIdentityOutput, error)
}

var _ IdentityAPI = (*cognitoidentity.Client)(nil)

// Vendor exchanges a user pool ID token for temporary AWS credentials through
// an identity pool.
type Vendor struct {
	api            IdentityAPI
	identityPoolID string
	providerKey    string
	callTimeout    time.Duration
}

// NewVendor creates a vendor for identityPoolID. providerKey is the login map
// key of the user pool, see config.LoginProviderKey. A zero callTimeout
// leaves the calls bounded only by ctx.
func NewVendor(api IdentityAPI, identityPoolID, providerKey string, callTimeout time.Duration) *Vendor {
	return &Vendor{
		api:            api,
		identityPoolID: identityPoolID,
		providerKey:    providerKey,
		callTimeout:    callTimeout,
	}
}

// NewVendorFromConfig creates a vendor for the configured identity pool.
func NewVendorFromConfig(api IdentityAPI, c config.Config) *Vendor {
	return NewVendor(api, c.IdentityPoolID, c.LoginProviderKey(), c.CallTimeout)
}

// Vend resolves the identity id for idToken and fetches its credentials. Any
// failure is reported as ErrCredentialVending; nothing is retried.
func (v *Vendor) Vend(ctx context.Context, idToken string) (*TemporaryCredentials, error) {
	logger := zerolog.Ctx(ctx)
	logins := map[string]string{v.providerKey: idToken}

	identityID, err := v.getID(ctx, logins)
	if err != nil {
		logger.Err(err).Msg("Failed to get AWS credentials")
		return nil, errors.NewStageError(errors.ErrCredentialVending, "", errors.Wrapf(err, "GetId"))
	}
	logger.Debug().Str("identity_id", identityID).Msg("Resolved federated identity")

	creds, err := v.getCredentials(ctx, identityID, logins)
	if err != nil {
		logger.Err(err).Str("identity_id", identityID).Msg("Failed to get AWS credentials")
		return nil, errors.NewStageError(errors.ErrCredentialVending, "", errors.Wrapf(err, "GetCredentialsForIdentity"))
	}
	return creds, nil
}

func (v *Vendor) getID(ctx context.Context, logins map[string]string) (string, error) {
	ctx, cancel := v.withTimeout(ctx)
	defer cancel()

	out, err := v.api.GetId(ctx, &cognitoidentity.GetIdInput{
		IdentityPoolId: aws.String(v.identityPoolID),
		Logins:         logins,
	}, noRetry)
	if err != nil {
		return "", err
	}
	if out == nil || aws.ToString(out.IdentityId) == "" {
		return "", errors.Wrapf(errors.ErrCredentialVending, "empty identity id")
	}
	return aws.ToString(out.IdentityId), nil
}

func (v *Vendor) getCredentials(ctx context.Context, identityID string, logins map[string]string) (*TemporaryCredentials, error) {
	ctx, cancel := v.withTimeout(ctx)
	defer cancel()

	out, err := v.api.GetCredentialsForIdentity(ctx, &cognitoidentity.GetCredentialsForIdentityInput{
		IdentityId: aws.String(identityID),
		Logins:     logins,
	}, noRetry)
	if err != nil {
		return nil, err
	}
	if out == nil || out.Credentials == nil {
		return nil, errors.Wrapf(errors.ErrCredentialVending, "no credentials returned")
	}

	return &TemporaryCredentials{
		IdentityID:   identityID,
		AccessKeyID:  aws.ToString(out.Credentials.AccessKeyId),
		SecretKey:    aws.ToString(out.Credentials.SecretKey),
		SessionToken: aws.ToString(out.Credentials.SessionToken),
		Expiration:   aws.ToTime(out.Credentials.Expiration),
	}, nil
}

func (v *Vendor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if v.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, v.callTimeout)
}

func noRetry(o *cognitoidentity.Options) {
	o.RetryMaxAttempts = 1
}
