package db

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"

	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// AWSIAMTokenProvider signs RDS IAM authentication tokens with the default
// AWS credential chain (environment, shared config, instance roles).
type AWSIAMTokenProvider struct {
	endpoint string // host:port
	region   string
	username string
}

// NewAWSIAMTokenProvider creates a token provider for AWS RDS IAM authentication.
func NewAWSIAMTokenProvider(endpoint, region, username string) (*AWSIAMTokenProvider, error) {
	switch {
	case endpoint == "":
		return nil, fmt.Errorf("AWS IAM auth requires endpoint (host:port): %w", fsedit.ErrInvalidConfig)
	case region == "":
		return nil, fmt.Errorf("AWS IAM auth requires postgres.aws_region: %w", fsedit.ErrInvalidConfig)
	case username == "":
		return nil, fmt.Errorf("AWS IAM auth requires postgres.username: %w", fsedit.ErrInvalidConfig)
	}

	return &AWSIAMTokenProvider{
		endpoint: endpoint,
		region:   region,
		username: username,
	}, nil
}

// GetToken signs a fresh token. Signing is local; no network call is made
// unless the credential chain needs one.
func (p *AWSIAMTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(p.region))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	token, err := auth.BuildAuthToken(ctx, p.endpoint, p.region, p.username, cfg.Credentials)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build RDS auth token: %w", err)
	}

	return token, time.Now().Add(rdsTokenLifetime), nil
}

func (p *AWSIAMTokenProvider) String() string {
	return fmt.Sprintf("AWSIAMTokenProvider(endpoint=%s, region=%s, user=%s)", p.endpoint, p.region, p.username)
}
