package presign

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
)

// DomainURLAPI is the part of the SageMaker client the issuer uses.
type DomainURLAPI interface {
	CreatePresignedDomainUrl(ctx context.Context, params *sagemaker.CreatePresignedDomainUrlInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreatePresignedDomainUrlOutput, error)
}

var _ DomainURLAPI = (*sagemaker.Client)(nil)

// ClientFactory returns a SageMaker client for a region. A nil creds means
// the factory's default credential chain.
type ClientFactory interface {
	Client(region string, creds aws.CredentialsProvider) DomainURLAPI
}

// SDKClientFactory builds real SageMaker clients from a base AWS config.
// Clients using the default credentials are cached per region.
type SDKClientFactory struct {
	base    aws.Config
	clients map[string]*sagemaker.Client
	lock    sync.Mutex
}

var _ ClientFactory = (*SDKClientFactory)(nil)

func NewSDKClientFactory(base aws.Config) *SDKClientFactory {
	return &SDKClientFactory{
		base:    base,
		clients: make(map[string]*sagemaker.Client),
	}
}

func (f *SDKClientFactory) Client(region string, creds aws.CredentialsProvider) DomainURLAPI {
	if region == "" {
		region = f.base.Region
	}
	if creds != nil {
		return sagemaker.NewFromConfig(f.base, func(o *sagemaker.Options) {
			o.Region = region
			o.Credentials = aws.NewCredentialsCache(creds)
		})
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	if c, ok := f.clients[region]; ok {
		return c
	}
	c := sagemaker.NewFromConfig(f.base, func(o *sagemaker.Options) {
		o.Region = region
	})
	f.clients[region] = c
	return c
}
