package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/specialistvlad/orgaudit/internal/ctxlog"
)

const s3Scheme = "s3://"

// S3Config holds the client settings for S3 roster sources. Empty fields fall
// back to the default AWS configuration chain.
type S3Config struct {
	Region   string
	Endpoint string // optional; set for S3-compatible stores such as MinIO
	// PathStyle addresses objects as endpoint/bucket/key.
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// HTTPClient replaces the SDK transport. Used by tests.
	HTTPClient *http.Client
}

// S3 reads a roster from one object in an S3-compatible bucket.
type S3 struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3 creates an S3 source for bucket/key.
func NewS3(ctx context.Context, bucket, key string, cfg S3Config) (*S3, error) {
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("s3 bucket and key required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	})
	return &S3{client: client, bucket: bucket, key: key}, nil
}

// Location returns the s3:// reference of the object.
func (s *S3) Location() string {
	return s3Scheme + s.bucket + "/" + s.key
}

// Open fetches the object body.
func (s *S3) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &s.key})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: object does not exist: %s", ErrNotFound, s.Location())
		}
		return nil, fmt.Errorf("failed to get %s: %w", s.Location(), err)
	}
	ctxlog.FromContext(ctx).Debug("Roster object opened.", "location", s.Location(), "bytes", aws.ToInt64(out.ContentLength))
	return out.Body, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}

// parseS3URL splits s3://bucket/key. ok is false for anything else.
func parseS3URL(location string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(location, s3Scheme)
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
