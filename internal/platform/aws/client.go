package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// managedByTag marks every resource this tool creates.
const managedByTag = "vpcforge"

// Options configures the real EC2 client.
type Options struct {
	Region          string
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
}

// Client implements the provider operations against EC2.
type Client struct {
	api EC2API
}

// NewClient builds a Client backed by the real EC2 API. Credentials follow
// the default chain unless static keys are given.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &Client{api: ec2.NewFromConfig(cfg)}, nil
}

// NewWithAPI wraps an existing EC2API implementation. Used by tests with
// the in-memory fake.
func NewWithAPI(api EC2API) *Client {
	return &Client{api: api}
}

// nameTags builds the tag specification applied to every created resource.
func nameTags(resourceType types.ResourceType, name string) []types.TagSpecification {
	return []types.TagSpecification{{
		ResourceType: resourceType,
		Tags: []types.Tag{
			{Key: awssdk.String("Name"), Value: awssdk.String(name)},
			{Key: awssdk.String("managed-by"), Value: awssdk.String(managedByTag)},
		},
	}}
}
