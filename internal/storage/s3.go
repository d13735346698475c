package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/studyvault/notesdash/internal/config"
	"github.com/studyvault/notesdash/internal/http"
)

// Environment variables with static S3 credentials. When unset the
// default AWS credential chain applies.
const (
	envS3AccessKey    = "NOTESDASH_S3_ACCESS_KEY_ID"
	envS3SecretKey    = "NOTESDASH_S3_SECRET_ACCESS_KEY"
	envS3SessionToken = "NOTESDASH_S3_SESSION_TOKEN"
)

// s3PutAPI is the subset of *s3.Client the saver needs.
type s3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Saver uploads files to a bucket.
type S3Saver struct {
	client s3PutAPI
	bucket string
	prefix string
}

// NewS3Saver creates an S3 client for the target bucket.
func NewS3Saver(ctx context.Context, t Target, cfg *config.Config) (*S3Saver, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	httpClient, err := http.NewTransferClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithHTTPClient(httpClient),
	}
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if key, secret := os.Getenv(envS3AccessKey), os.Getenv(envS3SecretKey); key != "" && secret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, os.Getenv(envS3SessionToken)),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Saver{client: client, bucket: t.Root, prefix: t.Prefix}, nil
}

// Save puts data at prefix/name. Existing objects are overwritten.
func (s *S3Saver) Save(ctx context.Context, name string, data []byte) (string, error) {
	key := objectKey(s.prefix, name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to s3://%s/%s: %w", s.bucket, key, err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

func (s *S3Saver) String() string {
	return "s3://" + s.bucket + "/" + s.prefix
}
