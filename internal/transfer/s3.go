package transfer

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"shoebox/internal/box"
	"shoebox/internal/config"
)

// S3Transfer uploads to an S3 bucket (or any S3-compatible store via a
// custom endpoint).
type S3Transfer struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Transfer builds an S3 client from the target configuration. With
// no access key configured the default AWS credential chain applies, so
// environment variables and shared credential files keep working.
func NewS3Transfer(ctx context.Context, cfg config.TargetConfig) (*S3Transfer, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	})

	return &S3Transfer{
		uploader: manager.NewUploader(client),
		bucket:   cfg.S3Bucket,
		prefix:   cfg.S3Prefix,
	}, nil
}

// Send uploads the content under the configured prefix. The upload
// manager splits large videos into multipart uploads on its own.
func (t *S3Transfer) Send(ctx context.Context, key string, r io.Reader, size int64) error {
	_, err := t.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(path.Join(t.prefix, key)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

func (t *S3Transfer) Close() error {
	return nil
}

// Compile-time check that S3Transfer implements box.Transfer
var _ box.Transfer = (*S3Transfer)(nil)
