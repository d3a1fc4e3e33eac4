package gateway

// Stage is the furthest point an invocation reached. Stages only move
// forward; from any of them the invocation ends with the response Compose
// builds, an error response if the next stage failed.
type Stage string

const (
	StageStart             Stage = "start"
	StageCodeReceived      Stage = "code_received"
	StageTokensExchanged   Stage = "tokens_exchanged"
	StageClaimsDecoded     Stage = "claims_decoded"
	StageCredentialsVended Stage = "credentials_vended"
	StageURLIssued         Stage = "url_issued"
)

// Outcome is the result of one run of the pipeline.
type Outcome struct {
	Stage    Stage  // last stage completed
	Username string // resolved Studio user profile, once claims are decoded
	URL      string // presigned URL on success
	Err      error  // nil on success
}
