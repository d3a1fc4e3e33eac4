package config

import (
	"fmt"
	"time"
)

// AWS holds the identity pool and SageMaker settings.
type AWS struct {
	Region         string `env:"CUSTOM_AWS_REGION,required"`
	IdentityPoolID string `env:"IDENTITY_POOL_ID,required"`
	StudioDomainID string `env:"STUDIO_DOMAIN_ID,required"`

	PresignExpiration time.Duration `env:"PRESIGN_EXPIRATION" envDefault:"1h"`

	// PresignWithIdentityCredentials signs the presign call with the
	// credentials vended for the attendee instead of the execution role.
	PresignWithIdentityCredentials bool `env:"PRESIGN_WITH_IDENTITY_CREDENTIALS" envDefault:"false"`
}

// IssuerURL is the OIDC issuer of the user pool in the given region.
func IssuerURL(region, userPoolID string) string {
	return "https://" + LoginProviderKey(region, userPoolID)
}

// LoginProviderKey is the key used in Cognito Identity login maps for a user
// pool, "cognito-idp.<region>.amazonaws.com/<pool>".
func LoginProviderKey(region, userPoolID string) string {
	return fmt.Sprintf("cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
}

func (c Config) IssuerURL() string {
	return IssuerURL(c.Region, c.UserPoolID)
}

func (c Config) LoginProviderKey() string {
	return LoginProviderKey(c.Region, c.UserPoolID)
}
