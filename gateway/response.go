package gateway

import (
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/jrsteele09/studio-auth-gateway/internal/errors"
)

const contentTypeText = "text/plain; charset=utf-8"

// Response bodies, one per failure kind.
const (
	MsgCodeMissing       = "Authorization code missing"
	MsgTokenExchange     = "Error exchanging authorization code for tokens"
	MsgIDTokenMissing    = "ID token not found in the response"
	MsgIDTokenInvalid    = "ID token verification failed"
	MsgCredentials       = "Failed to get AWS credentials"
	MsgPresign           = "Failed to generate presigned URL"
	MsgInternalServerErr = "Internal server error"
)

// Compose maps an outcome to the API Gateway response.
func Compose(o Outcome) events.APIGatewayV2HTTPResponse {
	if o.Err == nil {
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusFound,
			Headers:    map[string]string{"Location": o.URL},
			Body:       fmt.Sprintf("Redirecting to %s now...", o.URL),
		}
	}

	status, body := http.StatusInternalServerError, ""
	switch kind := errors.KindOf(o.Err); kind {
	case errors.ErrBadRequest:
		status, body = http.StatusBadRequest, MsgCodeMissing
	case errors.ErrUpstreamAuth:
		body = fmt.Sprintf("%s: %s", MsgTokenExchange, detail(o.Err))
	case errors.ErrMalformedTokenResponse:
		body = MsgIDTokenMissing
	case errors.ErrInvalidIDToken:
		status, body = http.StatusUnauthorized, MsgIDTokenInvalid
	case errors.ErrCredentialVending:
		body = MsgCredentials
	case errors.ErrPresign:
		body = MsgPresign
	default:
		body = fmt.Sprintf("%s: %s", MsgInternalServerErr, unhandledMessage(o.Err))
	}

	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": contentTypeText},
		Body:       body,
	}
}

func detail(err error) string {
	var se *errors.StageError
	if errors.As(err, &se) {
		return se.Detail
	}
	return err.Error()
}

// unhandledMessage prefers the cause over the StageError wrapper so the body
// carries the original failure text.
func unhandledMessage(err error) string {
	var se *errors.StageError
	if errors.As(err, &se) {
		switch {
		case se.Detail != "":
			return se.Detail
		case se.Err != nil:
			return se.Err.Error()
		}
	}
	return err.Error()
}
