// Package s3ds opens an input object from Amazon S3 or an S3-compatible
// store.
//
// Credentials and region come from the usual AWS chain (environment,
// shared config, instance role). Requests are not retried.
package s3ds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// Config identifies one object.
type Config struct {
	Bucket string
	Key    string
	// Region falls back to AWS_REGION.
	Region string
	// Endpoint overrides the S3 endpoint (MinIO, localstack). Path-style
	// addressing is used when set.
	Endpoint string
}

// Source reads one S3 object.
type Source struct {
	bucket, key string
	api         s3iface.S3API
}

// New builds a Source from cfg.
func New(cfg Config) (*Source, error) {
	return newSource(cfg, nil)
}

// newSource lets tests supply credentials and an HTTP client through base.
func newSource(cfg Config, base *aws.Config) (*Source, error) {
	if cfg.Bucket == "" || cfg.Key == "" {
		return nil, errors.New("s3ds: bucket and key are required")
	}
	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}

	awsCfg := aws.NewConfig().WithMaxRetries(0)
	if base != nil {
		awsCfg.MergeIn(base)
	}
	if region != "" {
		awsCfg.WithRegion(region)
	}
	if cfg.Endpoint != "" {
		awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3ds: create session: %w", err)
	}
	return &Source{bucket: cfg.Bucket, key: cfg.Key, api: s3.New(sess)}, nil
}

func (s *Source) String() string { return "s3://" + s.bucket + "/" + s.key }

// Open starts the GetObject call and returns the streaming body.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3ds: get %s: %w", s, err)
	}
	return out.Body, nil
}
