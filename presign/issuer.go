package presign

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/jrsteele09/studio-auth-gateway/internal/errors"
	"github.com/rs/zerolog"
)

// DefaultExpiration is the Studio session length when a request sets none.
const DefaultExpiration = 3600 * time.Second

// Session bounds accepted by CreatePresignedDomainUrl.
const (
	MinExpiration = 1800 * time.Second
	MaxExpiration = 43200 * time.Second
)

// Request identifies the Studio workspace a URL is minted for.
type Request struct {
	Region          string
	DomainID        string
	UserProfileName string
	// Expiration of the Studio session; zero means the issuer default.
	Expiration time.Duration
}

// Issuer mints SageMaker Studio presigned domain URLs.
type Issuer struct {
	clients           ClientFactory
	defaultExpiration time.Duration
	callTimeout       time.Duration
}

// NewIssuer creates an issuer. A zero defaultExpiration means
// DefaultExpiration, a zero callTimeout leaves the call bounded only by ctx.
// Expirations are clamped to [MinExpiration, MaxExpiration].
func NewIssuer(clients ClientFactory, defaultExpiration, callTimeout time.Duration) *Issuer {
	if defaultExpiration <= 0 {
		defaultExpiration = DefaultExpiration
	}
	return &Issuer{
		clients:           clients,
		defaultExpiration: defaultExpiration,
		callTimeout:       callTimeout,
	}
}

// Issue mints the URL for req. creds signs the call when non-nil; otherwise
// the factory's default credentials are used. Failures are reported as
// ErrPresign.
func (i *Issuer) Issue(ctx context.Context, req Request, creds aws.CredentialsProvider) (string, error) {
	logger := zerolog.Ctx(ctx)
	expiration := i.sessionExpiration(req.Expiration)
	if expiration != req.Expiration && req.Expiration > 0 {
		logger.Warn().Dur("requested", req.Expiration).Dur("expiration", expiration).
			Msg("Presign expiration outside the allowed range, clamped")
	}

	if i.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.callTimeout)
		defer cancel()
	}

	client := i.clients.Client(req.Region, creds)
	out, err := client.CreatePresignedDomainUrl(ctx, &sagemaker.CreatePresignedDomainUrlInput{
		DomainId:                           aws.String(req.DomainID),
		UserProfileName:                    aws.String(req.UserProfileName),
		SessionExpirationDurationInSeconds: aws.Int32(int32(expiration / time.Second)),
	})
	if err != nil {
		logger.Err(err).Str("domain_id", req.DomainID).Str("user_profile", req.UserProfileName).
			Msg("Error generating presigned URL")
		return "", errors.NewStageError(errors.ErrPresign, "", err)
	}

	url := aws.ToString(out.AuthorizedUrl)
	if url == "" {
		logger.Error().Str("domain_id", req.DomainID).Str("user_profile", req.UserProfileName).
			Msg("Presigned URL response carried no URL")
		return "", errors.NewStageError(errors.ErrPresign, "", nil)
	}
	logger.Debug().Str("user_profile", req.UserProfileName).Dur("expiration", expiration).Msg("Presigned URL issued")
	return url, nil
}

// sessionExpiration resolves the default and clamps to the service bounds,
// so the seconds value always fits SessionExpirationDurationInSeconds.
func (i *Issuer) sessionExpiration(requested time.Duration) time.Duration {
	expiration := requested
	if expiration <= 0 {
		expiration = i.defaultExpiration
	}
	return min(max(expiration, MinExpiration), MaxExpiration)
}
