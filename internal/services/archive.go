package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"conference-agenda-sync/internal/config"
	"conference-agenda-sync/internal/models"
)

// ContentArchiver persists the raw text of a fetched page for diagnostics
// and replay. Archiving is best-effort: the pipeline logs failures and moves
// on. A nil archiver disables the feature.
type ContentArchiver interface {
	ArchivePage(ctx context.Context, eventID uuid.UUID, content string) (string, error)
}

// S3Archiver stores raw page text in S3 under
// {prefix}/{eventID}/{runID}.txt.
type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Archiver builds an archiver from the shared AWS config chain. Returns
// (nil, nil) when no bucket is configured, which disables archiving.
func NewS3Archiver(ctx context.Context, cfg config.ArchiveConfig) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	}

	return &S3Archiver{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// ArchivePage uploads one page snapshot and returns its object key.
func (a *S3Archiver) ArchivePage(ctx context.Context, eventID uuid.UUID, content string) (string, error) {
	runID := models.GenerateEnrichmentRunID(eventID.String(), time.Now())
	key := fmt.Sprintf("%s/%s/%s.txt", a.prefix, eventID, runID)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(content),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive page to s3: %w", err)
	}

	return key, nil
}
