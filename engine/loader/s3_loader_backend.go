package loader

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3API is the subset of *s3.Client used to read objects.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config configures NewS3Client.
type S3Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// NewS3Client builds an S3 client from the default AWS credential chain,
// optionally overridden by static keys and a custom endpoint.
//
// Parameters:
//   - ctx: used while resolving shared configuration
//   - cfg: region, endpoint and credential overrides
//
// Returns:
//   - *s3.Client: the client
//   - error: an error if the AWS configuration could not be loaded
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// s3LoaderBackend reads s3://<bucket>/<key> sources.
type s3LoaderBackend struct {
	client S3API
}

var _ loaderBackend = &s3LoaderBackend{}

func newS3LoaderBackend(client S3API) *s3LoaderBackend {
	return &s3LoaderBackend{client: client}
}

func (b *s3LoaderBackend) Load(ctx context.Context, ref string, maxBytes int64) (stereo.Source, error) {
	bucket, key, err := splitS3Ref(ref)
	if err != nil {
		return stereo.Source{}, err
	}

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound") {
			return stereo.Source{}, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
		}
		return stereo.Source{}, err
	}
	defer out.Body.Close()

	if maxBytes > 0 && out.ContentLength != nil && *out.ContentLength > maxBytes {
		return stereo.Source{}, ErrTooLarge
	}
	data, err := readLimited(out.Body, maxBytes)
	if err != nil {
		return stereo.Source{}, err
	}
	return stereo.Source{Name: path.Base(key), Data: data}, nil
}

func splitS3Ref(ref string) (bucket, key string, err error) {
	rest := ref[len("s3://"):]
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", ErrInvalidReference
	}
	return bucket, key, nil
}
