package exchange

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/studio-auth-gateway/internal/errors"
	"github.com/rs/zerolog"
)

// OIDCVerifier checks the ID token signature against the user pool's JWKS,
// and its issuer, audience and expiry, before exposing the claims.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

var _ ClaimsDecoder = (*OIDCVerifier)(nil)

// NewOIDCVerifier discovers the issuer's keys. The user pool issuer is
// https://cognito-idp.<region>.amazonaws.com/<pool id>.
func NewOIDCVerifier(ctx context.Context, issuerURL, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("[exchange NewOIDCVerifier] failed to create OIDC provider: %w", err)
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// NewOIDCVerifierWithKeySet skips discovery and verifies against keySet.
func NewOIDCVerifierWithKeySet(issuerURL, clientID string, keySet oidc.KeySet) *OIDCVerifier {
	return &OIDCVerifier{
		verifier: oidc.NewVerifier(issuerURL, keySet, &oidc.Config{ClientID: clientID}),
	}
}

func (v *OIDCVerifier) Decode(ctx context.Context, rawIDToken string) (IdentityClaims, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		zerolog.Ctx(ctx).Err(err).Msg("ID token verification failed")
		return nil, errors.NewStageError(errors.ErrInvalidIDToken, "", err)
	}

	var claims IdentityClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("extracting oidc claims: %w", err)
	}
	return claims, nil
}
