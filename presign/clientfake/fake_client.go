package clientfake

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/jrsteele09/studio-auth-gateway/presign"
)

var (
	_ presign.DomainURLAPI  = (*FakeStudio)(nil)
	_ presign.ClientFactory = (*FakeStudio)(nil)
)

// Call records one CreatePresignedDomainUrl request.
type Call struct {
	Region          string
	DomainID        string
	UserProfileName string
	ExpirationSecs  int32
	Creds           aws.CredentialsProvider
}

// FakeStudio stands in for SageMaker in every region. Only user profiles that
// were added can be presigned.
type FakeStudio struct {
	// Err, when set, fails every call.
	Err error
	// EmptyURL makes successful calls return no AuthorizedUrl.
	EmptyURL bool

	profiles map[string]struct{}
	calls    []Call
	pending  Call
	lock     sync.Mutex
}

func NewFakeStudio() *FakeStudio {
	return &FakeStudio{profiles: make(map[string]struct{})}
}

// AddProfile registers a user profile in a domain.
func (s *FakeStudio) AddProfile(domainID, userProfileName string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.profiles[domainID+"/"+userProfileName] = struct{}{}
}

// Client returns the fake itself, remembering the region and credentials for
// the next call.
func (s *FakeStudio) Client(region string, creds aws.CredentialsProvider) presign.DomainURLAPI {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.pending = Call{Region: region, Creds: creds}
	return s
}

func (s *FakeStudio) CreatePresignedDomainUrl(_ context.Context, params *sagemaker.CreatePresignedDomainUrlInput, _ ...func(*sagemaker.Options)) (*sagemaker.CreatePresignedDomainUrlOutput, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	call := s.pending
	call.DomainID = aws.ToString(params.DomainId)
	call.UserProfileName = aws.ToString(params.UserProfileName)
	call.ExpirationSecs = aws.ToInt32(params.SessionExpirationDurationInSeconds)
	s.calls = append(s.calls, call)

	if s.Err != nil {
		return nil, s.Err
	}
	if _, ok := s.profiles[call.DomainID+"/"+call.UserProfileName]; !ok {
		return nil, fmt.Errorf("ResourceNotFound: user profile %s does not exist in domain %s", call.UserProfileName, call.DomainID)
	}
	if s.EmptyURL {
		return &sagemaker.CreatePresignedDomainUrlOutput{}, nil
	}
	return &sagemaker.CreatePresignedDomainUrlOutput{
		AuthorizedUrl: aws.String(URL(call.Region, call.DomainID, call.UserProfileName)),
	}, nil
}

// Calls returns the recorded requests.
func (s *FakeStudio) Calls() []Call {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Call(nil), s.calls...)
}

// URL is the address FakeStudio mints for a profile.
func URL(region, domainID, userProfileName string) string {
	return fmt.Sprintf("https://%s.studio.%s.sagemaker.aws/auth?token=fake-%s", domainID, region, userProfileName)
}
