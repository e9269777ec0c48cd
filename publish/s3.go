package publish

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the subset of the S3 client the publisher uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher writes pages to an S3 bucket under a key prefix.
type S3Publisher struct {
	client s3API
	bucket string
	prefix string
}

// S3Options configures an S3 publisher.
type S3Options struct {
	// Path is the destination as s3://bucket/prefix.
	Path string
	// Region overrides the ambient AWS region when set.
	Region string
	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string
	// UsePathStyle forces path-style addressing. Required by most
	// S3-compatible stores (MinIO and friends).
	UsePathStyle bool
}

// ParseS3Path splits an s3://bucket/prefix path.
func ParseS3Path(path string) (bucket, prefix string, err error) {
	const scheme = "s3://"
	if !strings.HasPrefix(path, scheme) {
		return "", "", fmt.Errorf("s3 path must start with s3://, got %q", path)
	}
	rest := strings.TrimPrefix(path, scheme)
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 path %q has no bucket", path)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// NewS3Publisher creates an S3 publisher from ambient AWS credentials.
func NewS3Publisher(ctx context.Context, opts S3Options) (*S3Publisher, error) {
	bucket, prefix, err := ParseS3Path(opts.Path)
	if err != nil {
		return nil, err
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3 publisher: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return &S3Publisher{client: client, bucket: bucket, prefix: prefix}, nil
}

// newS3PublisherWithClient is used by tests to inject a stub client.
func newS3PublisherWithClient(client s3API, bucket, prefix string) *S3Publisher {
	return &S3Publisher{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for a page.
func (p *S3Publisher) Key(pageID string) string {
	name := PageFileName(pageID)
	if p.prefix == "" {
		return name
	}
	return p.prefix + "/" + name
}

// Publish implements Publisher.
func (p *S3Publisher) Publish(ctx context.Context, pageID string, html []byte) (string, error) {
	key := p.Key(pageID)
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(html),
		ContentType: aws.String("text/html; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 publish %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", p.bucket, key), nil
}

// Close implements Publisher.
func (p *S3Publisher) Close() error { return nil }

// Verify S3Publisher implements Publisher.
var _ Publisher = (*S3Publisher)(nil)
