package media

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/audio"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// DefaultPresignExpiry is how long a presigned playback URL stays valid.
const DefaultPresignExpiry = 24 * time.Hour

// S3Config configures an S3-compatible bucket (AWS S3, MinIO, Wasabi).
type S3Config struct {
	Endpoint        string        `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Bucket          string        `mapstructure:"bucket" yaml:"bucket"`
	Prefix          string        `mapstructure:"prefix" yaml:"prefix,omitempty"`
	Region          string        `mapstructure:"region" yaml:"region,omitempty"`
	AccessKeyID     string        `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key" yaml:"secret_access_key"`
	UseSSL          bool          `mapstructure:"use_ssl" yaml:"use_ssl"`
	PublicBaseURL   string        `mapstructure:"public_base_url" yaml:"public_base_url,omitempty"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry" yaml:"presign_expiry,omitempty"`
}

// Validate checks if the configuration is valid.
func (c S3Config) Validate() error {
	if c.Bucket == "" {
		return configErr("s3: bucket is required")
	}
	if c.AccessKeyID == "" {
		return configErr("s3: access_key_id is required")
	}
	if c.SecretAccessKey == "" {
		return configErr("s3: secret_access_key is required")
	}
	return nil
}

// endpointURL returns the custom endpoint with a scheme, or "" for AWS.
func (c S3Config) endpointURL() string {
	if c.Endpoint == "" {
		return ""
	}
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}
	endpoint := c.Endpoint
	if u, err := url.Parse(c.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
	}
	return fmt.Sprintf("%s://%s", scheme, endpoint)
}

// S3Uploader puts clips into a bucket and returns a playable URL, either
// under PublicBaseURL or presigned.
type S3Uploader struct {
	cfg     S3Config
	client  *s3.Client
	presign *s3.PresignClient
	logger  zerolog.Logger
}

// NewS3Uploader builds the S3 client for cfg.
func NewS3Uploader(ctx context.Context, cfg S3Config, logger zerolog.Logger) (*S3Uploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = DefaultPresignExpiry
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, errors.New(err).
			Component("media").
			Category(errors.CategoryConfiguration).
			Context("operation", "load_aws_config").
			Build()
	}

	clientOpts := []func(*s3.Options){
		func(o *s3.Options) {
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		},
	}
	if endpoint := cfg.endpointURL(); endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}
	client := s3.NewFromConfig(awsCfg, clientOpts...)

	return &S3Uploader{
		cfg:     cfg,
		client:  client,
		presign: s3.NewPresignClient(client),
		logger:  logger.With().Str("component", "media").Str("bucket", cfg.Bucket).Logger(),
	}, nil
}

// UploadAudio puts clip under a fresh key.
func (u *S3Uploader) UploadAudio(ctx context.Context, clip audio.Clip) (audio.Asset, error) {
	if len(clip.Data) == 0 {
		return audio.Asset{}, uploadErr(errEmptyClip, BackendS3, "")
	}
	key := objectName(u.cfg.Prefix, clip)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(clip.Data),
		ContentLength: aws.Int64(int64(len(clip.Data))),
		ContentType:   aws.String(clip.MIMEType),
	})
	if err != nil {
		return audio.Asset{}, uploadErr(err, BackendS3, key)
	}

	playable, err := u.playableURL(ctx, key)
	if err != nil {
		return audio.Asset{}, uploadErr(err, BackendS3, key)
	}
	u.logger.Debug().Str("key", key).Int("bytes", len(clip.Data)).Msg("clip uploaded")
	return audio.Asset{Ref: key, PlayableURL: playable}, nil
}

func (u *S3Uploader) playableURL(ctx context.Context, key string) (string, error) {
	if u.cfg.PublicBaseURL != "" {
		return strings.TrimRight(u.cfg.PublicBaseURL, "/") + "/" + key, nil
	}
	req, err := u.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(u.cfg.PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign playback url: %w", err)
	}
	return req.URL, nil
}
