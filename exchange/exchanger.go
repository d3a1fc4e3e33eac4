package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/studio-auth-gateway/internal/config"
	"github.com/jrsteele09/studio-auth-gateway/internal/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const maxTokenResponseBytes = 1 << 20

// Options configures an Exchanger.
type Options struct {
	ClientID    string
	RedirectURI string
	TokenURL    string
	AuthURL     string   // hosted UI sign-in page, only used by LoginURL
	Scopes      []string // only used by LoginURL

	// HTTPClient performs the token request. Its Timeout bounds the call.
	HTTPClient *http.Client
}

// Exchanger trades an authorization code for tokens at the user pool's token
// endpoint. The oauth2 config only shapes the hosted UI URL; the token request
// is sent directly so that the status and body checks stay exact.
type Exchanger struct {
	oauth      *oauth2.Config
	httpClient *http.Client
}

func New(opts Options) *Exchanger {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Exchanger{
		oauth: &oauth2.Config{
			ClientID: opts.ClientID,
			Endpoint: oauth2.Endpoint{
				AuthURL:   opts.AuthURL,
				TokenURL:  opts.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: opts.RedirectURI,
			Scopes:      opts.Scopes,
		},
		httpClient: httpClient,
	}
}

// NewFromConfig builds an Exchanger for the configured app client.
func NewFromConfig(c config.Config) *Exchanger {
	return New(Options{
		ClientID:    c.ClientID,
		RedirectURI: c.RedirectURI,
		TokenURL:    c.TokenEndpoint(),
		AuthURL:     c.LoginEndpoint(),
		Scopes:      c.LoginScopes,
		HTTPClient:  &http.Client{Timeout: c.HTTPTimeout},
	})
}

// Exchange posts grant_type=authorization_code with the code to the token
// endpoint and returns the resulting tokens. The app client is public, so no
// client secret is sent. Only a 200 counts as success, and only id_token is
// required of its body.
func (e *Exchanger) Exchange(ctx context.Context, code string) (*TokenSet, error) {
	logger := zerolog.Ctx(ctx)
	if code == "" {
		return nil, errors.NewStageError(errors.ErrBadRequest, "", nil)
	}

	form := url.Values{
		"grant_type":   {string(AuthorizationCodeGrant)},
		"client_id":    {e.oauth.ClientID},
		"code":         {code},
		"redirect_uri": {e.oauth.RedirectURL},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.oauth.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.NewStageError(errors.ErrUnhandled, "", errors.Wrapf(err, "building token request"))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		logger.Err(err).Msg("Error exchanging authorization code for tokens")
		return nil, errors.NewStageError(errors.ErrUpstreamAuth, err.Error(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		logger.Err(err).Msg("Error reading token endpoint response")
		return nil, errors.NewStageError(errors.ErrUpstreamAuth, err.Error(), err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Error().Int("status", resp.StatusCode).Str("body", string(body)).
			Msg("Error exchanging authorization code for tokens")
		return nil, errors.NewStageError(errors.ErrUpstreamAuth, string(body),
			fmt.Errorf("token endpoint returned status %d", resp.StatusCode))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		logger.Err(err).Msg("Token endpoint response is not JSON")
		return nil, errors.NewStageError(errors.ErrUnhandled, "", errors.Wrapf(err, "decoding token response"))
	}

	if tr.IDToken == "" {
		logger.Error().Msg("ID token not found in the response")
		return nil, errors.NewStageError(errors.ErrMalformedTokenResponse, "", nil)
	}

	return tr.tokenSet(time.Now()), nil
}

// LoginURL is the hosted UI address that starts the flow ending at the
// configured redirect URI. An empty state is omitted.
func (e *Exchanger) LoginURL(state string) string {
	return e.oauth.AuthCodeURL(state)
}
