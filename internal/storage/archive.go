// Package storage forwards import artifacts to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"rentflow-backend/internal/config"
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver stores the raw CSV and the JSON result of each bank import.
type Archiver struct {
	client objectPutter
	bucket string
	prefix string
	now    func() time.Time
}

// NewArchiver builds an S3 client with static credentials. A custom
// endpoint (R2, MinIO) replaces the AWS one.
func NewArchiver(ctx context.Context, cfg config.ArchiveConfig) (*Archiver, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure archive client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Archiver{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, now: time.Now}, nil
}

// Archive uploads <prefix>/YYYY/MM/<batch>.csv and <batch>.json.
func (a *Archiver) Archive(ctx context.Context, batchID string, raw []byte, result []byte) error {
	base := objectBase(a.prefix, batchID, a.now())

	if err := a.put(ctx, base+".csv", raw, "text/csv; charset=utf-8"); err != nil {
		return err
	}
	return a.put(ctx, base+".json", result, "application/json")
}

func (a *Archiver) put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func objectBase(prefix, batchID string, at time.Time) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "bank-imports"
	}
	return path.Join(prefix, at.UTC().Format("2006/01"), batchID)
}
