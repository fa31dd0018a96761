// Package objectstore uploads files to S3 or an S3-compatible store.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/dataprocessor/internal/common"
	"github.com/dmitrijs2005/dataprocessor/internal/filex"
	"github.com/dmitrijs2005/dataprocessor/internal/logging"
)

var loadDefaultAWSConfig = config.LoadDefaultConfig

type Options struct {
	Region string
	// BaseEndpoint points the client at an S3-compatible store; requests
	// then use path-style addressing.
	BaseEndpoint string

	// Static credentials are used only when both key parts are set;
	// otherwise the default AWS credential chain applies.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	HTTPClient  *http.Client
	MaxAttempts int
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Uploader struct {
	client putObjectAPI
	logger logging.Logger
}

func New(ctx context.Context, opts Options, logger logging.Logger) (*Uploader, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			opts.SessionToken,
		)))
	}
	if opts.HTTPClient != nil {
		loadOpts = append(loadOpts, config.WithHTTPClient(opts.HTTPClient))
	}
	if opts.MaxAttempts > 0 {
		loadOpts = append(loadOpts, config.WithRetryMaxAttempts(opts.MaxAttempts))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &Uploader{client: client, logger: logger}, nil
}

// Upload stores the file at filePath in bucket under its base name, encrypted
// at rest with SSE-S3.
func (u *Uploader) Upload(ctx context.Context, filePath, bucket string) error {
	if bucket == "" {
		return fmt.Errorf("upload: %w: bucket is empty", common.ErrValidation)
	}

	f, size, err := filex.OpenRegular(filePath)
	if err != nil {
		return fmt.Errorf("upload: %w: %w", common.ErrValidation, err)
	}
	defer f.Close()

	key := filepath.Base(filePath)
	log := u.logger.With("bucket", bucket, "key", key)

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(bucket),
		Key:                  aws.String(key),
		Body:                 f,
		ContentLength:        aws.Int64(size),
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	})
	if err != nil {
		log.Error(ctx, "object upload failed", "error", err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("upload s3://%s/%s: %w", bucket, key, err)
		}
		return fmt.Errorf("upload s3://%s/%s: %w: %w", bucket, key, common.ErrConnectivity, err)
	}

	log.Info(ctx, "object uploaded")
	return nil
}
