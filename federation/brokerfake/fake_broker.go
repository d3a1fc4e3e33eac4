package brokerfake

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentity"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentity/types"
	"github.com/jrsteele09/studio-auth-gateway/federation"
)

var _ federation.IdentityAPI = (*FakeBroker)(nil)

// FakeBroker is an in-memory identity pool. Identity ids are keyed by the
// login token so repeated sign-ins resolve to the same identity.
type FakeBroker struct {
	IdentityPoolID string

	// GetIDErr and CredentialsErr, when set, fail the matching call.
	GetIDErr       error
	CredentialsErr error

	identities map[string]string
	calls      []string
	lastLogins map[string]string
	lock       sync.Mutex
}

func NewFakeBroker(identityPoolID string) *FakeBroker {
	return &FakeBroker{
		IdentityPoolID: identityPoolID,
		identities:     make(map[string]string),
	}
}

func (b *FakeBroker) GetId(_ context.Context, params *cognitoidentity.GetIdInput, _ ...func(*cognitoidentity.Options)) (*cognitoidentity.GetIdOutput, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.calls = append(b.calls, "GetId")
	b.lastLogins = params.Logins

	if b.GetIDErr != nil {
		return nil, b.GetIDErr
	}
	if aws.ToString(params.IdentityPoolId) != b.IdentityPoolID {
		return nil, errors.New("ResourceNotFoundException: identity pool not found")
	}
	if len(params.Logins) == 0 {
		return nil, errors.New("NotAuthorizedException: unauthenticated access is not supported")
	}

	key := loginKey(params.Logins)
	id, ok := b.identities[key]
	if !ok {
		id = fmt.Sprintf("%s-%03d", b.IdentityPoolID, len(b.identities)+1)
		b.identities[key] = id
	}
	return &cognitoidentity.GetIdOutput{IdentityId: aws.String(id)}, nil
}

func (b *FakeBroker) GetCredentialsForIdentity(_ context.Context, params *cognitoidentity.GetCredentialsForIdentityInput, _ ...func(*cognitoidentity.Options)) (*cognitoidentity.GetCredentialsForIdentityOutput, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.calls = append(b.calls, "GetCredentialsForIdentity")

	if b.CredentialsErr != nil {
		return nil, b.CredentialsErr
	}
	if b.identities[loginKey(params.Logins)] != aws.ToString(params.IdentityId) {
		return nil, errors.New("NotAuthorizedException: logins do not match identity")
	}

	return &cognitoidentity.GetCredentialsForIdentityOutput{
		IdentityId: params.IdentityId,
		Credentials: &types.Credentials{
			AccessKeyId:  aws.String(fmt.Sprintf("ASIAFAKE%03d", len(b.identities))),
			SecretKey:    aws.String("fake-secret"),
			SessionToken: aws.String("fake-session"),
			Expiration:   aws.Time(time.Now().Add(time.Hour)),
		},
	}, nil
}

// Calls returns the operations invoked so far, in order.
func (b *FakeBroker) Calls() []string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]string(nil), b.calls...)
}

// LastLogins returns the login map of the most recent GetId call.
func (b *FakeBroker) LastLogins() map[string]string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.lastLogins
}

func loginKey(logins map[string]string) string {
	pairs := make([]string, 0, len(logins))
	for provider, token := range logins {
		pairs = append(pairs, provider+"="+token)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ";")
}
