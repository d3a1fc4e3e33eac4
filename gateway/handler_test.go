package gateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/studio-auth-gateway/exchange"
	"github.com/jrsteele09/studio-auth-gateway/federation"
	"github.com/jrsteele09/studio-auth-gateway/federation/brokerfake"
	"github.com/jrsteele09/studio-auth-gateway/gateway"
	"github.com/jrsteele09/studio-auth-gateway/internal/config"
	"github.com/jrsteele09/studio-auth-gateway/internal/logging"
	"github.com/jrsteele09/studio-auth-gateway/presign"
	"github.com/jrsteele09/studio-auth-gateway/presign/clientfake"
	"github.com/stretchr/testify/require"
)

const (
	testClientID    = "client-123"
	testRedirectURI = "https://api.example.com/invoke"
	testRegion      = "eu-west-1"
	testPoolID      = "eu-west-1:11111111-2222-3333-4444-555555555555"
	testUserPoolID  = "eu-west-1_AbCdEf"
	testDomainID    = "d-abc123"
	testCode        = "auth-code-1"
)

// testFixture wires the real exchanger against a fake token endpoint, and the
// real vendor and issuer against in-memory AWS fakes.
type testFixture struct {
	config  config.Config
	broker  *brokerfake.FakeBroker
	studio  *clientfake.FakeStudio
	handler *gateway.Handler

	tokenURL    string
	tokenStatus int
	tokenBody   string
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		broker:      brokerfake.NewFakeBroker(testPoolID),
		studio:      clientfake.NewFakeStudio(),
		tokenStatus: http.StatusOK,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.tokenStatus)
		_, _ = w.Write([]byte(f.tokenBody))
	}))
	t.Cleanup(srv.Close)
	f.tokenURL = srv.URL + "/oauth2/token"

	f.config = config.Config{
		EnvVars: config.EnvVars{HandlerTimeout: 2 * time.Second, CallTimeout: time.Second, HTTPTimeout: time.Second},
		OAuth: config.OAuth{
			ClientID:    testClientID,
			RedirectURI: testRedirectURI,
			UserPoolID:  testUserPoolID,
		},
		AWS: config.AWS{
			Region:            testRegion,
			IdentityPoolID:    testPoolID,
			StudioDomainID:    testDomainID,
			PresignExpiration: presign.DefaultExpiration,
		},
	}
	f.rebuild()
	return f
}

// rebuild recreates the handler after f.config changed.
func (f *testFixture) rebuild() {
	exchanger := exchange.New(exchange.Options{
		ClientID:    testClientID,
		RedirectURI: testRedirectURI,
		TokenURL:    f.tokenURL,
		HTTPClient:  &http.Client{Timeout: time.Second},
	})
	vendor := federation.NewVendorFromConfig(f.broker, f.config)
	issuer := presign.NewIssuer(f.studio, f.config.PresignExpiration, f.config.CallTimeout)
	f.handler = gateway.NewHandler(f.config, exchanger, nil, vendor, issuer)
}

// issueTokens makes the token endpoint return an ID token carrying claims.
func (f *testFixture) issueTokens(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	idToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("pool-key"))
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{
		"access_token": "access-1",
		"id_token":     idToken,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
	require.NoError(t, err)
	f.tokenBody = string(body)
	return idToken
}

func (f *testFixture) invoke(t *testing.T, query map[string]string) events.APIGatewayV2HTTPResponse {
	t.Helper()
	resp, err := f.handler.Handle(context.Background(), events.APIGatewayV2HTTPRequest{
		RouteKey:              "ANY /invoke",
		RawPath:               "/invoke",
		QueryStringParameters: query,
		RequestContext:        events.APIGatewayV2HTTPRequestContext{RequestID: "req-1"},
	})
	require.NoError(t, err)
	return resp
}

func TestHandler_Handle(t *testing.T) {
	t.Run("end to end redirect", func(t *testing.T) {
		f := setupTestFixture(t)
		idToken := f.issueTokens(t, jwt.MapClaims{"cognito:username": "carol", "email": "carol@example.com"})
		f.studio.AddProfile(testDomainID, "carol")

		resp := f.invoke(t, map[string]string{"code": testCode})

		want := clientfake.URL(testRegion, testDomainID, "carol")
		require.Equal(t, http.StatusFound, resp.StatusCode)
		require.Equal(t, want, resp.Headers["Location"])
		require.Equal(t, "Redirecting to "+want+" now...", resp.Body)

		require.Equal(t, []string{"GetId", "GetCredentialsForIdentity"}, f.broker.Calls())
		require.Equal(t, map[string]string{
			"cognito-idp.eu-west-1.amazonaws.com/eu-west-1_AbCdEf": idToken,
		}, f.broker.LastLogins())

		calls := f.studio.Calls()
		require.Len(t, calls, 1)
		require.Equal(t, int32(3600), calls[0].ExpirationSecs)
		require.Nil(t, calls[0].Creds, "execution role signs by default")
	})

	t.Run("missing code", func(t *testing.T) {
		f := setupTestFixture(t)

		for _, query := range []map[string]string{nil, {}, {"code": ""}, {"state": "abc"}} {
			resp := f.invoke(t, query)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Equal(t, "Authorization code missing", resp.Body)
			require.Equal(t, "text/plain; charset=utf-8", resp.Headers["Content-Type"])
		}
		require.Empty(t, f.broker.Calls())
	})

	t.Run("token endpoint rejects the code", func(t *testing.T) {
		f := setupTestFixture(t)
		f.tokenStatus = http.StatusBadRequest
		f.tokenBody = `{"error":"invalid_grant"}`

		resp := f.invoke(t, map[string]string{"code": testCode})
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Equal(t, `Error exchanging authorization code for tokens: {"error":"invalid_grant"}`, resp.Body)
		require.Empty(t, f.broker.Calls())
	})

	t.Run("token response without id token", func(t *testing.T) {
		f := setupTestFixture(t)
		f.tokenBody = `{"access_token":"access-1","token_type":"Bearer"}`

		resp := f.invoke(t, map[string]string{"code": testCode})
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Equal(t, "ID token not found in the response", resp.Body)
	})

	t.Run("201 from token endpoint is an upstream error", func(t *testing.T) {
		f := setupTestFixture(t)
		f.issueTokens(t, jwt.MapClaims{"cognito:username": "carol"})
		f.tokenStatus = http.StatusCreated
		f.studio.AddProfile(testDomainID, "carol")

		resp := f.invoke(t, map[string]string{"code": testCode})
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Equal(t, "Error exchanging authorization code for tokens: "+f.tokenBody, resp.Body)
		require.Empty(t, f.broker.Calls())
		require.Empty(t, f.studio.Calls())
	})

	t.Run("empty token response", func(t *testing.T) {
		f := setupTestFixture(t)
		f.tokenBody = `{}`

		resp := f.invoke(t, map[string]string{"code": testCode})
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Equal(t, "ID token not found in the response", resp.Body)
	})

	t.Run("undecodable id token", func(t *testing.T) {
		f := setupTestFixture(t)
		f.tokenBody = `{"access_token":"access-1","id_token":"garbage","token_type":"Bearer"}`

		resp := f.invoke(t, map[string]string{"code": testCode})
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Contains(t, resp.Body, "Internal server error: ")
	})

	t.Run("GetId fails", func(t *testing.T) {
		f := setupTestFixture(t)
		f.issueTokens(t, jwt.MapClaims{"cognito:username": "carol"})
		f.broker.GetIDErr = stderrors.New("NotAuthorizedException: Invalid login token")

		resp := f.invoke(t, map[string]string{"code": testCode})
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Contains(t, resp.Body, "Failed to get AWS credentials")
		require.Empty(t, f.studio.Calls())
	})

	t.Run("presign fails", func(t *testing.T) {
		f := setupTestFixture(t)
		f.issueTokens(t, jwt.MapClaims{"cognito:username": "nobody"})

		resp := f.invoke(t, map[string]string{"code": testCode})
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Equal(t, "Failed to generate presigned URL", resp.Body)
	})

	t.Run("email and sentinel fallbacks pick the profile", func(t *testing.T) {
		f := setupTestFixture(t)
		f.studio.AddProfile(testDomainID, "a@b.com")
		f.studio.AddProfile(testDomainID, exchange.DefaultUsername)

		f.issueTokens(t, jwt.MapClaims{"email": "a@b.com"})
		resp := f.invoke(t, map[string]string{"code": testCode})
		require.Equal(t, http.StatusFound, resp.StatusCode)

		f.issueTokens(t, jwt.MapClaims{"sub": "1234"})
		resp = f.invoke(t, map[string]string{"code": testCode})
		require.Equal(t, http.StatusFound, resp.StatusCode)

		calls := f.studio.Calls()
		require.Len(t, calls, 2)
		require.Equal(t, "a@b.com", calls[0].UserProfileName)
		require.Equal(t, exchange.DefaultUsername, calls[1].UserProfileName)
	})

	t.Run("presign with identity credentials", func(t *testing.T) {
		f := setupTestFixture(t)
		f.config.PresignWithIdentityCredentials = true
		f.rebuild()
		f.issueTokens(t, jwt.MapClaims{"cognito:username": "carol"})
		f.studio.AddProfile(testDomainID, "carol")

		resp := f.invoke(t, map[string]string{"code": testCode})
		require.Equal(t, http.StatusFound, resp.StatusCode)

		calls := f.studio.Calls()
		require.Len(t, calls, 1)
		require.NotNil(t, calls[0].Creds)
		creds, err := calls[0].Creds.Retrieve(context.Background())
		require.NoError(t, err)
		require.Equal(t, "ASIAFAKE001", creds.AccessKeyID)
	})
}

type panickingExchanger struct{}

func (panickingExchanger) Exchange(context.Context, string) (*exchange.TokenSet, error) {
	panic("boom")
}

type blockingExchanger struct{}

func (blockingExchanger) Exchange(ctx context.Context, _ string) (*exchange.TokenSet, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestHandler_UnhandledFailures(t *testing.T) {
	f := setupTestFixture(t)

	t.Run("panic", func(t *testing.T) {
		h := gateway.NewHandler(f.config, panickingExchanger{}, nil, nil, nil)
		resp, err := h.Handle(context.Background(), events.APIGatewayV2HTTPRequest{
			QueryStringParameters: map[string]string{"code": testCode},
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Equal(t, "Internal server error: boom", resp.Body)
	})

	t.Run("handler deadline", func(t *testing.T) {
		c := f.config
		c.HandlerTimeout = 20 * time.Millisecond
		h := gateway.NewHandler(c, blockingExchanger{}, nil, nil, nil)

		resp, err := h.Handle(context.Background(), events.APIGatewayV2HTTPRequest{
			QueryStringParameters: map[string]string{"code": testCode},
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Equal(t, "Internal server error: context deadline exceeded", resp.Body)
	})
}

func TestHandler_StageLogsCarryRequestID(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, logging.Init("info", logging.FormatJSON, &buf))
	t.Cleanup(func() { _ = logging.Init("info", logging.FormatJSON, os.Stderr) })

	f := setupTestFixture(t)
	f.issueTokens(t, jwt.MapClaims{"cognito:username": "carol"})
	f.broker.GetIDErr = stderrors.New("NotAuthorizedException")

	resp := f.invoke(t, map[string]string{"code": testCode})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var stageLines int
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		require.Equal(t, "req-1", entry["request_id"], "line %s", line)
		if entry["message"] == "Failed to get AWS credentials" {
			stageLines++
		}
	}
	require.Equal(t, 1, stageLines)
}

func TestHandler_Run_Stages(t *testing.T) {
	f := setupTestFixture(t)
	f.issueTokens(t, jwt.MapClaims{"cognito:username": "carol"})

	o := f.handler.Run(context.Background(), testCode)
	require.Error(t, o.Err)
	require.Equal(t, gateway.StageCredentialsVended, o.Stage)
	require.Equal(t, "carol", o.Username)

	f.studio.AddProfile(testDomainID, "carol")
	o = f.handler.Run(context.Background(), testCode)
	require.NoError(t, o.Err)
	require.Equal(t, gateway.StageURLIssued, o.Stage)

	o = f.handler.Run(context.Background(), "")
	require.Equal(t, gateway.StageStart, o.Stage)
}
