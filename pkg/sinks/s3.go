package sinks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/loclint/loclint/pkg/errors"
	"github.com/loclint/loclint/pkg/object"
	"github.com/loclint/loclint/pkg/output"
)

// S3Config holds client configuration for report uploads.
type S3Config struct {
	// Region is the AWS region (e.g., "us-east-1")
	Region string

	// Endpoint overrides the default S3 endpoint (for S3-compatible services)
	Endpoint string

	// UsePathStyle forces path-style addressing (for MinIO, LocalStack)
	UsePathStyle bool

	// Credentials (optional - uses default chain if not provided)
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// UploadTimeout bounds the Finish-time upload.
	UploadTimeout time.Duration
}

// S3Sink writes the XML report to a local spool file and uploads it on
// Finish. CI pipelines use it to publish reports without a shared
// filesystem. The configured path must have the form
// s3://bucket/key.xml.
type S3Sink struct {
	cfg    S3Config
	inner  *XMLSink
	bucket string
	key    string
	spool  string
}

// NewS3Sink creates an S3 upload sink.
func NewS3Sink(cfg S3Config) *S3Sink {
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 5 * time.Minute
	}
	return &S3Sink{cfg: cfg, inner: NewXMLSink()}
}

// Initialize parses the s3:// destination and opens the local spool.
func (s *S3Sink) Initialize(cfg output.SinkConfig) error {
	bucket, key, err := splitS3Path(cfg.Path)
	if err != nil {
		return errors.Wrap(err, errors.CodeBadConfig, "invalid s3 report path")
	}
	s.bucket, s.key = bucket, key
	s.spool = filepath.Join(os.TempDir(), fmt.Sprintf("loclint-report-%d.xml", time.Now().UnixNano()))

	local := cfg
	local.Path = s.spool
	return s.inner.Initialize(local)
}

// WriteEntry delegates to the spooled XML writer.
func (s *S3Sink) WriteEntry(obj *object.Object, entries []*output.Entry) error {
	return s.inner.WriteEntry(obj, entries)
}

// Finish completes the spool file and uploads it.
func (s *S3Sink) Finish() error {
	if err := s.inner.Finish(); err != nil {
		return err
	}
	defer func() { _ = os.Remove(s.spool) }()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.UploadTimeout)
	defer cancel()

	client, err := s.newClient(ctx)
	if err != nil {
		return err
	}

	f, err := os.Open(s.spool)
	if err != nil {
		return errors.Wrap(err, errors.CodeUploadFailed, "cannot reopen spooled report")
	}
	defer f.Close()

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        f,
		ContentType: aws.String("application/xml"),
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeUploadFailed, "report upload failed").
			WithContext("bucket", s.bucket).
			WithContext("key", s.key)
	}
	return nil
}

func (s *S3Sink) newClient(ctx context.Context) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if s.cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(s.cfg.Region))
	}
	if s.cfg.AccessKeyID != "" && s.cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				s.cfg.AccessKeyID,
				s.cfg.SecretAccessKey,
				s.cfg.SessionToken,
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUploadFailed, "cannot load AWS config")
	}

	s3Opts := []func(*s3.Options){}
	if s.cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s.cfg.Endpoint)
		})
	}
	if s.cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}

// splitS3Path parses s3://bucket/key into its parts.
func splitS3Path(path string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(path, "s3://")
	if !ok {
		return "", "", fmt.Errorf("path %q does not start with s3://", path)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("path %q is missing bucket or key", path)
	}
	return bucket, key, nil
}
