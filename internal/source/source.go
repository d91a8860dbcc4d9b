package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dgallion1/eadtool/internal/config"
)

// ErrNotFound is returned when a local file or S3 object does not exist.
var ErrNotFound = errors.New("file not found")

const s3Scheme = "s3://"

// Store reads and writes documents addressed by local path or s3://bucket/key.
// The S3 client is only built the first time an s3:// location is used.
type Store struct {
	client func() (*s3.Client, error)
}

// NewStore creates a Store using cfg for S3 access.
func NewStore(cfg config.S3Config) *Store {
	return &Store{
		client: sync.OnceValues(func() (*s3.Client, error) {
			return newS3Client(cfg)
		}),
	}
}

func newS3Client(cfg config.S3Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}

// ParseS3URI splits s3://bucket/key. ok is false for anything else.
func ParseS3URI(uri string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(uri, s3Scheme) {
		return "", "", false
	}
	bucket, key, found := strings.Cut(strings.TrimPrefix(uri, s3Scheme), "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// IsS3 reports whether location uses the s3:// scheme.
func IsS3(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

// Name returns the base file name of location.
func Name(location string) string {
	if _, key, ok := ParseS3URI(location); ok {
		return path.Base(key)
	}
	return filepath.Base(location)
}

// ReadFile returns the contents of location.
func (s *Store) ReadFile(ctx context.Context, location string) ([]byte, error) {
	if !IsS3(location) {
		data, err := os.ReadFile(location)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", location, err)
		}
		return data, nil
	}

	bucket, key, ok := ParseS3URI(location)
	if !ok {
		return nil, fmt.Errorf("invalid s3 location: %s", location)
	}
	client, err := s.client()
	if err != nil {
		return nil, err
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		return nil, fmt.Errorf("s3 download: %w", err)
	}
	defer result.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(result.Body); err != nil {
		return nil, fmt.Errorf("s3 download read: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile stores data at location, replacing any existing content.
func (s *Store) WriteFile(ctx context.Context, location string, data []byte) error {
	if !IsS3(location) {
		if err := os.WriteFile(location, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", location, err)
		}
		return nil
	}

	bucket, key, ok := ParseS3URI(location)
	if !ok {
		return fmt.Errorf("invalid s3 location: %s", location)
	}
	client, err := s.client()
	if err != nil {
		return err
	}

	uploader := manager.NewUploader(client)
	if _, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(key)),
	}); err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}
	return nil
}

func contentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".md":
		return "text/markdown; charset=utf-8"
	}
	return "application/xml"
}
