package exchange_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/studio-auth-gateway/exchange"
	"github.com/stretchr/testify/require"
)

// mintIDToken signs claims with a throwaway HMAC key; DecodeClaims ignores
// the signature.
func mintIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return raw
}

func TestIdentityClaims_Username(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   string
	}{
		{name: "cognito username", claims: jwt.MapClaims{"cognito:username": "alice"}, want: "alice"},
		{name: "username wins over email", claims: jwt.MapClaims{"cognito:username": "alice", "email": "a@b.com"}, want: "alice"},
		{name: "email fallback", claims: jwt.MapClaims{"email": "a@b.com"}, want: "a@b.com"},
		{name: "sentinel", claims: jwt.MapClaims{"sub": "1234"}, want: exchange.DefaultUsername},
		{name: "non-string username", claims: jwt.MapClaims{"cognito:username": 42, "email": "a@b.com"}, want: "a@b.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := exchange.DecodeClaims(mintIDToken(t, tt.claims))
			require.NoError(t, err)
			require.Equal(t, tt.want, claims.Username())
		})
	}

	require.Equal(t, "default_username", exchange.DefaultUsername)
}

func TestDecodeClaims_PaddingTolerant(t *testing.T) {
	// Values of increasing length walk the encoded payload through every
	// length remainder a base64url segment can have.
	for n := 0; n < 12; n++ {
		value := strings.Repeat("x", n)
		payload, err := json.Marshal(map[string]string{"cognito:username": "carol" + value})
		require.NoError(t, err)

		unpadded := base64.RawURLEncoding.EncodeToString(payload)
		padded := base64.URLEncoding.EncodeToString(payload)

		for _, segment := range []string{unpadded, padded} {
			claims, err := exchange.DecodeClaims("eyJhbGciOiJub25lIn0." + segment + ".sig")
			require.NoError(t, err, "segment %q (len %d)", segment, len(segment))
			require.Equal(t, "carol"+value, claims.Username())
		}
	}
}

func TestDecodeClaims_Errors(t *testing.T) {
	t.Run("single segment", func(t *testing.T) {
		_, err := exchange.DecodeClaims("not-a-jwt")
		require.Error(t, err)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := exchange.DecodeClaims("h.!!!.s")
		require.Error(t, err)
	})

	t.Run("payload not an object", func(t *testing.T) {
		seg := base64.RawURLEncoding.EncodeToString([]byte(`["a"]`))
		_, err := exchange.DecodeClaims("h." + seg + ".s")
		require.Error(t, err)
	})

	t.Run("payload null", func(t *testing.T) {
		seg := base64.RawURLEncoding.EncodeToString([]byte(`null`))
		_, err := exchange.DecodeClaims("h." + seg + ".s")
		require.Error(t, err)
	})
}
