package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"showdown-backend/internal/shared/storage/object"
)

// DefaultCacheControl is applied to stored objects unless overridden.
const DefaultCacheControl = "public, max-age=3600"

// Options configures the S3 store. Endpoint and static credentials target
// S3-compatible services such as MinIO.
type Options struct {
	Region          string
	Bucket          string
	Prefix          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	PublicACL       bool
	KMSKeyID        string
	CacheControl    string
}

// Store implements BlobStore using Amazon S3.
type Store struct {
	client        *s3.Client
	bucket        string
	prefix        string
	region        string
	endpoint      string
	publicBaseURL string
	publicACL     bool
	kmsKeyID      string
	cacheControl  string
}

// New creates a new S3-backed object store.
func New(ctx context.Context, opts Options) (*Store, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	if opts.Region == "" {
		opts.Region = cfg.Region
	}
	return NewWithClient(client, opts), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *s3.Client, opts Options) *Store {
	cacheControl := strings.TrimSpace(opts.CacheControl)
	if cacheControl == "" {
		cacheControl = DefaultCacheControl
	}
	return &Store{
		client:        client,
		bucket:        strings.TrimSpace(opts.Bucket),
		prefix:        normalizePrefix(opts.Prefix),
		region:        strings.TrimSpace(opts.Region),
		endpoint:      strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/"),
		publicBaseURL: strings.TrimRight(strings.TrimSpace(opts.PublicBaseURL), "/"),
		publicACL:     opts.PublicACL,
		kmsKeyID:      strings.TrimSpace(opts.KMSKeyID),
		cacheControl:  cacheControl,
	}
}

// Put uploads the reader contents to S3 under key.
func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (object.Handle, error) {
	if err := ctx.Err(); err != nil {
		return object.Handle{}, err
	}
	clean, err := object.CleanKey(key)
	if err != nil {
		return object.Handle{}, err
	}

	objectKey := applyPrefix(s.prefix, clean)
	input := &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(objectKey),
		Body:         r,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(s.cacheControl),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if s.kmsKeyID != "" {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(s.kmsKeyID)
	} else if s.endpoint == "" {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return object.Handle{}, fmt.Errorf("s3 put object bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return object.Handle{Key: clean, ContentType: contentType, SizeBytes: size}, nil
}

// Publish makes the object publicly readable when configured and returns its URL.
func (s *Store) Publish(ctx context.Context, h object.Handle) (string, error) {
	clean, err := object.CleanKey(h.Key)
	if err != nil {
		return "", err
	}
	objectKey := applyPrefix(s.prefix, clean)

	if s.publicACL {
		if _, err := s.client.PutObjectAcl(ctx, &s3.PutObjectAclInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(objectKey),
			ACL:    s3types.ObjectCannedACLPublicRead,
		}); err != nil {
			return "", fmt.Errorf("s3 put object acl bucket=%s key=%s: %w", s.bucket, objectKey, err)
		}
	}

	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}); err != nil {
		return "", fmt.Errorf("s3 head object bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}

	return s.publicURL(objectKey), nil
}

func (s *Store) publicURL(objectKey string) string {
	escaped := escapeKey(objectKey)
	switch {
	case s.publicBaseURL != "":
		return s.publicBaseURL + "/" + escaped
	case s.endpoint != "":
		return s.endpoint + "/" + s.bucket + "/" + escaped
	default:
		region := s.region
		if region == "" {
			region = "us-east-1"
		}
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, region, escaped)
	}
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func normalizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func applyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}

var _ object.BlobStore = (*Store)(nil)
