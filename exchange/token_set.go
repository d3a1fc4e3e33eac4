package exchange

import "time"

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant is sent as grant_type with client_id, code and
	// redirect_uri.
	AuthorizationCodeGrant GrantType = "authorization_code"
)

// TokenSet is the token endpoint response for one authorization code. It only
// lives for the invocation that produced it.
type TokenSet struct {
	// IDToken is the OpenID Connect ID token containing the attendee's identity.
	// Always present on a TokenSet returned by Exchange.
	IDToken string

	// AccessToken grants access to the user pool APIs for the requested scopes.
	AccessToken string

	// RefreshToken is only returned when the app client allows it.
	RefreshToken string

	// TokenType is "Bearer" for Cognito.
	TokenType string

	// Expiry of the access token, zero if the endpoint sent no expires_in.
	Expiry time.Time
}

// tokenResponse is the token endpoint's JSON body.
type tokenResponse struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (tr tokenResponse) tokenSet(now time.Time) *TokenSet {
	ts := &TokenSet{
		IDToken:      tr.IDToken,
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
	}
	if tr.ExpiresIn > 0 {
		ts.Expiry = now.Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return ts
}
