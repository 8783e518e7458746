package db

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
)

// awsTokenTTL is the documented lifetime of an RDS IAM auth token.
const awsTokenTTL = 15 * time.Minute

// AWSIAMTokenProvider builds RDS IAM authentication tokens for the
// configured endpoint. Credentials come from the default AWS chain
// (environment, shared config, instance role).
type AWSIAMTokenProvider struct {
	endpoint string
	region   string
	username string
}

// NewAWSIAMTokenProvider creates a token provider for an RDS instance at
// host:port. All parameters are required; region maps to --aws-region or
// $AWS_REGION, username to the database user enabled for IAM auth.
func NewAWSIAMTokenProvider(host string, port int, region, username string) (*AWSIAMTokenProvider, error) {
	switch {
	case host == "":
		return nil, fmt.Errorf("AWS IAM auth requires a database host")
	case region == "":
		return nil, fmt.Errorf("AWS IAM auth requires region (use --aws-region or $AWS_REGION)")
	case username == "":
		return nil, fmt.Errorf("AWS IAM auth requires database username (-U)")
	}

	return &AWSIAMTokenProvider{
		endpoint: fmt.Sprintf("%s:%d", host, port),
		region:   region,
		username: username,
	}, nil
}

// GetToken builds a presigned IAM authentication token.
func (p *AWSIAMTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(p.region))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	token, err := auth.BuildAuthToken(ctx, p.endpoint, p.region, p.username, cfg.Credentials)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build RDS auth token: %w", err)
	}

	return token, time.Now().Add(awsTokenTTL), nil
}

func (p *AWSIAMTokenProvider) String() string {
	return fmt.Sprintf("AWSIAM(endpoint=%s, region=%s, user=%s)", p.endpoint, p.region, p.username)
}
