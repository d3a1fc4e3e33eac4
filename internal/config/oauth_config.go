package config

import "fmt"

// OAuth describes the Cognito user pool app client the redirect belongs to.
type OAuth struct {
	ClientID      string `env:"CLIENT_ID,required"`
	RedirectURI   string `env:"REDIRECT_URI,required"`
	CognitoDomain string `env:"COGNITO_DOMAIN,required"`
	UserPoolID    string `env:"USER_POOL_ID,required"`

	LoginScopes []string `env:"LOGIN_SCOPES" envSeparator:"," envDefault:"aws.cognito.signin.user.admin,openid,profile"`

	// VerifyIDToken turns on signature, audience and expiry checks of the ID
	// token before its claims pick the Studio user profile.
	VerifyIDToken bool `env:"VERIFY_ID_TOKEN" envDefault:"false"`
}

// TokenEndpoint is the hosted domain's OAuth2 token URL.
func (o OAuth) TokenEndpoint() string {
	return fmt.Sprintf("https://%s/oauth2/token", o.CognitoDomain)
}

// LoginEndpoint is the hosted UI sign-in page.
func (o OAuth) LoginEndpoint() string {
	return fmt.Sprintf("https://%s/login", o.CognitoDomain)
}
