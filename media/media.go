// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const uploadExpiry = 15 * time.Minute

var (
	ErrDisabled        = errors.New("image uploads are not configured")
	ErrUnsupportedType = errors.New("unsupported image type")
)

// Test seams around the AWS SDK.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignPutObject = func(ctx context.Context, pc *s3.PresignClient, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// PublicURL is the base URL images are served from. Defaults to the
	// bucket's S3 URL.
	PublicURL string
}

// Uploader hands out presigned PUT URLs for topic images.
type Uploader struct {
	cfg     Config
	presign *s3.PresignClient
}

// New builds an uploader. An empty bucket yields a disabled uploader whose
// calls return ErrDisabled.
func New(ctx context.Context, cfg Config) (*Uploader, error) {
	if cfg.Bucket == "" {
		return &Uploader{cfg: cfg}, nil
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// MinIO and other S3-compatible stores
			o.UsePathStyle = true
		}
	})

	return &Uploader{cfg: cfg, presign: s3.NewPresignClient(client)}, nil
}

func (u *Uploader) Enabled() bool {
	return u != nil && u.presign != nil
}

// PresignTopicImage returns a URL the browser can PUT the image to and
// the URL the image will be served from once uploaded.
func (u *Uploader) PresignTopicImage(ctx context.Context, topicID, contentType string) (uploadURL, imageURL string, err error) {
	if !u.Enabled() {
		return "", "", ErrDisabled
	}

	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	key := fmt.Sprintf("topics/%s/%s.%s", topicID, uuid.NewString(), ext)

	req, err := presignPutObject(ctx, u.presign, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(uploadExpiry))
	if err != nil {
		return "", "", fmt.Errorf("presign topic image: %w", err)
	}

	return req.URL, u.publicURL(key), nil
}

func (u *Uploader) publicURL(key string) string {
	switch {
	case u.cfg.PublicURL != "":
		return strings.TrimRight(u.cfg.PublicURL, "/") + "/" + key
	case u.cfg.Endpoint != "":
		return strings.TrimRight(u.cfg.Endpoint, "/") + "/" + u.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, key)
}
