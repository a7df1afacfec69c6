package objectstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vvka-141/fsedit/internal/config"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// NewClient builds an S3 client from the s3 configuration section.
//
// Static keys are used when both are set, otherwise the default credential
// chain. A custom endpoint and path-style addressing support MinIO and other
// S3-compatible servers.
func NewClient(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w: %w", fsedit.ErrInvalidConfig, err)
	}
	if awsCfg.Region == "" {
		// S3-compatible servers rarely care, but the signer needs one
		awsCfg.Region = "us-east-1"
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	}), nil
}

// NewFromConfig creates a provider for the configured bucket and prefix.
func NewFromConfig(ctx context.Context, cfg config.S3Config, opts ...Option) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(client, cfg.Bucket, cfg.Prefix, opts...), nil
}
