package federation

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// TemporaryCredentials are the short-lived keys vended for one federated
// identity. Their lifetime is owned by Cognito Identity.
type TemporaryCredentials struct {
	IdentityID   string
	AccessKeyID  string
	SecretKey    string
	SessionToken string
	Expiration   time.Time
}

// Provider exposes the credentials to AWS SDK clients.
func (c *TemporaryCredentials) Provider() aws.CredentialsProvider {
	static := credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretKey, c.SessionToken)
	return aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		creds, err := static.Retrieve(ctx)
		if err != nil {
			return aws.Credentials{}, err
		}
		creds.Source = "CognitoIdentity"
		if !c.Expiration.IsZero() {
			creds.CanExpire = true
			creds.Expires = c.Expiration
		}
		return creds, nil
	})
}
