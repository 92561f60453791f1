package upload

import (
	"context" // Context for AWS calls
	"fmt"     // Error wrapping and URL formatting
	"io"      // Object body
	"strings" // URL trimming

	"github.com/aws/aws-sdk-go-v2/aws"         // AWS core types
	"github.com/aws/aws-sdk-go-v2/config"      // Default config loader
	"github.com/aws/aws-sdk-go-v2/credentials" // Static credentials
	"github.com/aws/aws-sdk-go-v2/service/s3"  // S3 client
)

// S3Options configures the S3 backend
type S3Options struct {
	Bucket    string // Target bucket
	Region    string // Bucket region
	Endpoint  string // Custom endpoint for S3-compatible stores, empty for AWS
	AccessKey string // Static access key, empty to use the default chain
	SecretKey string // Static secret key
}

// objectPutter is the subset of *s3.Client used by the backend
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores uploads as objects in a bucket
type S3 struct {
	client    objectPutter // S3 API
	bucket    string       // Target bucket
	publicURL string       // Prefix for returned object URLs
}

// NewS3 builds an S3 client from opts
func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint) // MinIO and friends
			o.UsePathStyle = true
		}
	})
	return newS3(client, opts), nil
}

func newS3(client objectPutter, opts S3Options) *S3 {
	publicURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	if opts.Endpoint != "" {
		publicURL = strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
	}
	return &S3{client: client, bucket: opts.Bucket, publicURL: publicURL}
}

// Put uploads body under key name and returns the object URL
func (s *S3) Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(name),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s/%s: %w", s.bucket, name, err)
	}
	return s.publicURL + "/" + name, nil
}
