package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultUsername is used when the ID token names neither a Cognito
	// username nor an email.
	DefaultUsername = "default_username"

	usernameClaim = "cognito:username"
	emailClaim    = "email"
)

// IdentityClaims is the decoded payload of an ID token.
type IdentityClaims jwt.MapClaims

// Username returns the Studio user profile name the claims map to:
// cognito:username, then email, then DefaultUsername.
func (c IdentityClaims) Username() string {
	for _, claim := range []string{usernameClaim, emailClaim} {
		if v, ok := c[claim].(string); ok && v != "" {
			return v
		}
	}
	return DefaultUsername
}

// segmentParser pads base64url segments to a multiple of four before decoding.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeClaims decodes the payload segment of a JWT without checking its
// signature, issuer or expiry.
func DecodeClaims(rawIDToken string) (IdentityClaims, error) {
	parts := strings.Split(rawIDToken, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("id token has %d segment(s), expected 3", len(parts))
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode id token payload: %w", err)
	}

	var claims IdentityClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("parse id token claims: %w", err)
	}
	if claims == nil {
		return nil, fmt.Errorf("id token payload is not a JSON object")
	}
	return claims, nil
}

// ClaimsDecoder turns a raw ID token into claims.
type ClaimsDecoder interface {
	Decode(ctx context.Context, rawIDToken string) (IdentityClaims, error)
}

// UnverifiedDecoder trusts the ID token as received from the token endpoint
// over TLS and only decodes it.
type UnverifiedDecoder struct{}

var _ ClaimsDecoder = UnverifiedDecoder{}

func (UnverifiedDecoder) Decode(_ context.Context, rawIDToken string) (IdentityClaims, error) {
	return DecodeClaims(rawIDToken)
}
