package gateway

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jrsteele09/studio-auth-gateway/exchange"
	"github.com/jrsteele09/studio-auth-gateway/federation"
	"github.com/jrsteele09/studio-auth-gateway/internal/config"
	"github.com/jrsteele09/studio-auth-gateway/internal/errors"
	"github.com/jrsteele09/studio-auth-gateway/presign"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const codeParam = "code"

type Exchanger interface {
	Exchange(ctx context.Context, code string) (*exchange.TokenSet, error)
}

type CredentialVendor interface {
	Vend(ctx context.Context, idToken string) (*federation.TemporaryCredentials, error)
}

type URLIssuer interface {
	Issue(ctx context.Context, req presign.Request, creds aws.CredentialsProvider) (string, error)
}

var (
	_ Exchanger        = (*exchange.Exchanger)(nil)
	_ CredentialVendor = (*federation.Vendor)(nil)
	_ URLIssuer        = (*presign.Issuer)(nil)
)

// Handler serves the OAuth redirect of the user pool hosted UI: it turns the
// authorization code into a SageMaker Studio presigned URL and redirects the
// browser there.
type Handler struct {
	config    config.Config
	exchanger Exchanger
	decoder   exchange.ClaimsDecoder
	vendor    CredentialVendor
	issuer    URLIssuer
}

func NewHandler(c config.Config, exchanger Exchanger, decoder exchange.ClaimsDecoder, vendor CredentialVendor, issuer URLIssuer) *Handler {
	if decoder == nil {
		decoder = exchange.UnverifiedDecoder{}
	}
	return &Handler{
		config:    c,
		exchanger: exchanger,
		decoder:   decoder,
		vendor:    vendor,
		issuer:    issuer,
	}
}

// Handle is the Lambda entry point for API Gateway HTTP API events. Failures
// are always expressed in the response; the returned error is always nil.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	logger := log.With().Str("request_id", req.RequestContext.RequestID).Logger()
	ctx = logger.WithContext(ctx)

	code := req.QueryStringParameters[codeParam]
	logger.Info().
		Str("route", req.RouteKey).
		Str("path", req.RawPath).
		Bool("has_code", code != "").
		Msg("Received event")

	if h.config.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.HandlerTimeout)
		defer cancel()
	}

	outcome := h.Run(ctx, code)
	resp := Compose(outcome)

	event := logger.Info()
	if outcome.Err != nil {
		event = logger.Error().Err(outcome.Err)
	}
	event.Str("stage", string(outcome.Stage)).
		Str("username", outcome.Username).
		Int("status", resp.StatusCode).
		Msg("Responded")

	return resp, nil
}

// Run executes the pipeline for one authorization code. It never panics; a
// panic in any stage becomes an ErrUnhandled outcome.
func (h *Handler) Run(ctx context.Context, code string) (o Outcome) {
	o.Stage = StageStart
	defer func() {
		if r := recover(); r != nil {
			zerolog.Ctx(ctx).Error().Str("stage", string(o.Stage)).Interface("panic", r).Msg("Recovered from panic")
			o.URL = ""
			o.Err = errors.NewStageError(errors.ErrUnhandled, fmt.Sprint(r), nil)
		}
	}()

	if code == "" {
		zerolog.Ctx(ctx).Error().Msg(MsgCodeMissing)
		o.Err = errors.NewStageError(errors.ErrBadRequest, "", nil)
		return o
	}
	o.Stage = StageCodeReceived

	tokens, err := h.exchanger.Exchange(ctx, code)
	if err != nil {
		o.Err = err
		return o
	}
	o.Stage = StageTokensExchanged

	claims, err := h.decoder.Decode(ctx, tokens.IDToken)
	if err != nil {
		o.Err = err
		return o
	}
	o.Username = claims.Username()
	o.Stage = StageClaimsDecoded

	creds, err := h.vendor.Vend(ctx, tokens.IDToken)
	if err != nil {
		o.Err = err
		return o
	}
	o.Stage = StageCredentialsVended

	var signer aws.CredentialsProvider
	if h.config.PresignWithIdentityCredentials {
		signer = creds.Provider()
	}
	url, err := h.issuer.Issue(ctx, presign.Request{
		Region:          h.config.Region,
		DomainID:        h.config.StudioDomainID,
		UserProfileName: o.Username,
		Expiration:      h.config.PresignExpiration,
	}, signer)
	if err != nil {
		o.Err = err
		return o
	}
	o.URL = url
	o.Stage = StageURLIssued
	return o
}
