package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/kendall-kelly/customer-analytics-api/analytics"
	appConfig "github.com/kendall-kelly/customer-analytics-api/config"
)

// S3API is the subset of the S3 client the model store calls
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3ModelStore keeps each tenant's model as models/<key>.json in a bucket
type S3ModelStore struct {
	client S3API
	bucket string
}

// NewS3ModelStore wraps an existing client
func NewS3ModelStore(client S3API, bucket string) *S3ModelStore {
	return &S3ModelStore{client: client, bucket: bucket}
}

// InitS3ModelStore builds an S3 client from the AWS settings in cfg
func InitS3ModelStore(ctx context.Context, cfg *appConfig.Config) (*S3ModelStore, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewS3ModelStore(s3.NewFromConfig(awsConfig), cfg.AWSS3Bucket), nil
}

func (s *S3ModelStore) Name() string { return "s3" }

func (s *S3ModelStore) key(tenantID uint) string {
	return "models/" + ModelKey(tenantID) + ".json"
}

// Save uploads the model, replacing the tenant's previous object
func (s *S3ModelStore) Save(ctx context.Context, tenantID uint, model *analytics.Model) error {
	data, err := encodeModel(model)
	if err != nil {
		return countSave(s.Name(), err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(tenantID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		err = fmt.Errorf("failed to upload model to S3: %w", err)
	}
	return countSave(s.Name(), err)
}

func (s *S3ModelStore) Load(ctx context.Context, tenantID uint) (*analytics.Model, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(tenantID)),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("failed to download model from S3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read model from S3: %w", err)
	}
	return decodeModel(data)
}
