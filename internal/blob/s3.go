package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config holds construction parameters. Credentials come from the default
// AWS chain (env vars, shared config, instance role).
type S3Config struct {
	Region    string
	Bucket    string
	Endpoint  string // optional; e.g. MinIO
	PathStyle bool
}

// S3 implements Store using an S3-compatible bucket.
type S3 struct {
	client *s3.Client
	bucket string
}

// NewS3 creates an S3 blob store.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3{client: client, bucket: cfg.Bucket}, nil
}

// Driver returns the blob driver identifier.
func (s *S3) Driver() Driver { return DriverS3 }

// Put uploads the object.
func (s *S3) Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error) {
	input := &s3.PutObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key), Body: r}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return Info{}, err
	}
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return Info{}, err
	}
	return Info{
		Key:          key,
		Size:         aws.ToInt64(head.ContentLength),
		ContentType:  aws.ToString(head.ContentType),
		LastModified: aws.ToTime(head.LastModified),
	}, nil
}

// Get downloads the object. The caller closes the body.
func (s *S3) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return Info{}, nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return Info{}, nil, err
	}
	return Info{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
	}, out.Body, nil
}

// Delete removes the object.
func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	return err
}
