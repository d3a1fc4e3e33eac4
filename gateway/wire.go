package gateway

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentity"
	"github.com/jrsteele09/studio-auth-gateway/exchange"
	"github.com/jrsteele09/studio-auth-gateway/federation"
	"github.com/jrsteele09/studio-auth-gateway/internal/config"
	"github.com/jrsteele09/studio-auth-gateway/presign"
	"github.com/rs/zerolog/log"
)

// LoadAWSConfig loads the default credential chain (the Lambda execution
// role when deployed) pinned to the configured region.
func LoadAWSConfig(ctx context.Context, c config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.Region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("[gateway LoadAWSConfig] failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// NewFromConfig builds a Handler with real Cognito and SageMaker clients.
// It is meant to run once per process.
func NewFromConfig(ctx context.Context, c config.Config, awsCfg aws.Config) (*Handler, *exchange.Exchanger, error) {
	exchanger := exchange.NewFromConfig(c)

	var decoder exchange.ClaimsDecoder = exchange.UnverifiedDecoder{}
	if c.VerifyIDToken {
		verifier, err := exchange.NewOIDCVerifier(ctx, c.IssuerURL(), c.ClientID)
		if err != nil {
			return nil, nil, fmt.Errorf("[gateway NewFromConfig] %w", err)
		}
		decoder = verifier
	} else {
		log.Warn().Msg("ID token signatures are not verified; set VERIFY_ID_TOKEN=true to enable")
	}

	vendor := federation.NewVendorFromConfig(cognitoidentity.NewFromConfig(awsCfg), c)
	issuer := presign.NewIssuer(presign.NewSDKClientFactory(awsCfg), c.PresignExpiration, c.CallTimeout)

	log.Info().
		Str("region", c.Region).
		Str("studio_domain_id", c.StudioDomainID).
		Bool("verify_id_token", c.VerifyIDToken).
		Bool("presign_with_identity_credentials", c.PresignWithIdentityCredentials).
		Msg("Gateway configured")

	return NewHandler(c, exchanger, decoder, vendor, issuer), exchanger, nil
}
