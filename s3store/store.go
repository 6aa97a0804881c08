// Package s3store keeps objects in an S3 bucket (or any S3 compatible
// service such as MinIO). Content type and upload filename travel as native
// object metadata, so no database is needed.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/transfermanager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sagarc03/bucketgate"
)

// filenameKey is the user metadata entry holding the upload filename. The
// value is path-escaped because S3 metadata must be ASCII.
const filenameKey = "filename"

type Config struct {
	Endpoint     string `mapstructure:"endpoint"` // Empty uses the AWS default
	Region       string `mapstructure:"region"`
	Bucket       string `mapstructure:"bucket"`
	Prefix       string `mapstructure:"prefix"`
	AccessKey    string `mapstructure:"access_key"` // Empty falls back to the default credential chain
	SecretKey    string `mapstructure:"secret_key"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

// API is the subset of the S3 client used for reads and deletes.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Uploader streams object bodies, switching to multipart uploads for large
// files.
type Uploader interface {
	UploadObject(ctx context.Context, input *transfermanager.UploadObjectInput, optFns ...func(*transfermanager.Options)) (*transfermanager.UploadObjectOutput, error)
}

// Store is a bucketgate.ObjectStore on S3.
type Store struct {
	api      API
	uploader Uploader
	bucket   string
	prefix   string
}

var _ bucketgate.ObjectStore = (*Store)(nil)

// New loads the AWS configuration and creates a Store for cfg.Bucket.
func New(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(awsCfg, cfg)
}

// LoadAWSConfig resolves the AWS configuration for cfg.Region. Static
// credentials are used when AccessKey is set; otherwise the default chain
// (environment, shared config, instance role) applies.
func LoadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	if cfg.Region == "" {
		return aws.Config{}, errors.New("load aws config: region is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

// NewFromConfig creates a Store from a loaded AWS configuration. Endpoint
// and UsePathStyle point the client at S3-compatible services.
func NewFromConfig(awsCfg aws.Config, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("new s3 store: bucket is required")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewFromClients(client, transfermanager.New(client), cfg.Bucket, cfg.Prefix), nil
}

// NewFromClients creates a Store from already configured clients. prefix is
// prepended to every key, with a "/" added when missing.
func NewFromClients(api API, uploader Uploader, bucket, prefix string) *Store {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Store{
		api:      api,
		uploader: uploader,
		bucket:   bucket,
		prefix:   prefix,
	}
}

func (s *Store) objectKey(key string) string {
	return s.prefix + key
}

// maxKeyBytes is the S3 limit on the full object key, prefix included.
const maxKeyBytes = 1024

// validKey applies the S3 key rules: non-empty UTF-8, at most 1024 bytes once
// the prefix is added. Keys such as "dir/" or "a//b" are legal here.
func (s *Store) validKey(key string) bool {
	return key != "" && utf8.ValidString(key) && len(s.prefix)+len(key) <= maxKeyBytes
}

func (s *Store) Put(ctx context.Context, key string, content io.Reader, meta bucketgate.ObjectMeta) error {
	if !s.validKey(key) {
		return fmt.Errorf("put object %q: %w", key, bucketgate.ErrInvalidInput)
	}

	input := &transfermanager.UploadObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(s.objectKey(key)),
		Body:     content,
		Metadata: map[string]string{filenameKey: url.PathEscape(meta.Filename)},
	}
	if meta.ContentType != "" {
		input.ContentType = aws.String(meta.ContentType)
	}

	if _, err := s.uploader.UploadObject(ctx, input); err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (bucketgate.Object, error) {
	if !s.validKey(key) {
		return bucketgate.Object{}, fmt.Errorf("get object %q: %w", key, bucketgate.ErrNotFound)
	}

	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return bucketgate.Object{}, fmt.Errorf("get object %q: %w", key, bucketgate.ErrNotFound)
		}
		return bucketgate.Object{}, fmt.Errorf("get object %q: %w", key, err)
	}

	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}

	filename := out.Metadata[filenameKey]
	if unescaped, err := url.PathUnescape(filename); err == nil {
		filename = unescaped
	}

	return bucketgate.Object{
		MetaData: bucketgate.MetaData{
			Key:           key,
			ContentType:   aws.ToString(out.ContentType),
			Filename:      filename,
			Etag:          strings.Trim(aws.ToString(out.ETag), `"`),
			FileSizeBytes: size,
			UpdatedAt:     aws.ToTime(out.LastModified),
		},
		Body: out.Body,
	}, nil
}

// Delete removes key. S3 treats deleting an absent key as success.
func (s *Store) Delete(ctx context.Context, key string) error {
	if !s.validKey(key) {
		return nil
	}

	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}
