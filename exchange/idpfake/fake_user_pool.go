// Package idpfake runs an in-process stand-in for a Cognito user pool: the
// hosted UI token endpoint, OIDC discovery and the JWKS.
package idpfake

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const keyID = "fake-pool-key"

// TokenResponse is the token endpoint's success body.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// JWKS is the key set served at /.well-known/jwks.json.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// UserPool hands out single-use codes via IssueCode and redeems them at
// POST /oauth2/token for an RS256-signed ID token. Its URL is also the issuer.
type UserPool struct {
	ClientID string

	// OmitIDToken drops id_token from successful token responses.
	OmitIDToken bool
	// TokenTTL is the ID token lifetime; zero means one hour.
	TokenTTL time.Duration

	server *httptest.Server
	key    *rsa.PrivateKey

	mu       sync.Mutex
	codes    map[string]jwt.MapClaims
	next     int
	requests []url.Values
}

func New(clientID string) (*UserPool, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("[idpfake New] failed to generate RSA key: %w", err)
	}
	p := &UserPool{
		ClientID: clientID,
		key:      key,
		codes:    make(map[string]jwt.MapClaims),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth2/token", p.token)
	mux.HandleFunc("GET /.well-known/openid-configuration", p.discovery)
	mux.HandleFunc("GET /.well-known/jwks.json", p.jwks)
	p.server = httptest.NewServer(mux)
	return p, nil
}

func (p *UserPool) Close() { p.server.Close() }

// URL is both the issuer and the base of every endpoint.
func (p *UserPool) URL() string { return p.server.URL }

func (p *UserPool) TokenURL() string { return p.server.URL + "/oauth2/token" }

// IssueCode registers claims to be signed into the ID token minted for the
// returned code.
func (p *UserPool) IssueCode(claims jwt.MapClaims) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	code := fmt.Sprintf("code-%03d", p.next)
	p.codes[code] = claims
	return code
}

// Requests returns the forms posted to the token endpoint.
func (p *UserPool) Requests() []url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]url.Values(nil), p.requests...)
}

func (p *UserPool) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, "invalid_request")
		return
	}

	p.mu.Lock()
	p.requests = append(p.requests, r.PostForm)
	claims, ok := p.codes[r.PostForm.Get("code")]
	delete(p.codes, r.PostForm.Get("code"))
	p.mu.Unlock()

	switch {
	case r.PostForm.Get("grant_type") != "authorization_code":
		writeError(w, "unsupported_grant_type")
		return
	case r.PostForm.Get("client_id") != p.ClientID:
		writeError(w, "invalid_client")
		return
	case !ok:
		writeError(w, "invalid_grant")
		return
	}

	resp := TokenResponse{
		AccessToken:  "fake-access-token",
		RefreshToken: "fake-refresh-token",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
	}
	if !p.OmitIDToken {
		idToken, err := p.Sign(claims)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resp.IDToken = idToken
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Sign mints an ID token for claims, filling iss, aud, iat and exp when absent.
func (p *UserPool) Sign(claims jwt.MapClaims) (string, error) {
	ttl := p.TokenTTL
	if ttl == 0 {
		ttl = time.Hour
	}
	now := time.Now()
	full := jwt.MapClaims{
		"iss":       p.URL(),
		"aud":       p.ClientID,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
		"token_use": "id",
	}
	for k, v := range claims {
		full[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, full)
	token.Header["kid"] = keyID
	return token.SignedString(p.key)
}

func (p *UserPool) discovery(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"issuer":                                p.URL(),
		"authorization_endpoint":                p.URL() + "/oauth2/authorize",
		"token_endpoint":                        p.TokenURL(),
		"jwks_uri":                              p.URL() + "/.well-known/jwks.json",
		"response_types_supported":              []string{"code", "token"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (p *UserPool) jwks(w http.ResponseWriter, _ *http.Request) {
	pub := p.key.PublicKey
	set := JWKS{Keys: []JWK{{
		Kty: "RSA",
		Use: "sig",
		Kid: keyID,
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(set)
}

func writeError(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = fmt.Fprintf(w, `{"error":%q}`, code)
}
