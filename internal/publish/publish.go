// Package publish uploads a built site to an S3 bucket.
package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/ziadkadry99/dirsite/internal/config"
	"github.com/ziadkadry99/dirsite/internal/progress"
	"github.com/ziadkadry99/dirsite/internal/walker"
)

// Cache-Control values. Pages change on every build; everything else is
// cache-busted by the build id or changes rarely.
const (
	cachePages  = "no-cache"
	cacheAssets = "public, max-age=3600"
)

// ErrNoBucket is returned when no bucket is configured.
var ErrNoBucket = errors.New("publish: no bucket configured")

// PutObjectAPI is the part of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewClient builds an S3 client from the default AWS credential chain.
func NewClient(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Result summarises an upload.
type Result struct {
	Files int
	Bytes int64
}

// Publisher uploads every file of a directory under a key prefix.
type Publisher struct {
	client   PutObjectAPI
	bucket   string
	prefix   string
	reporter progress.Reporter
	logger   *zap.Logger
}

// New creates a Publisher for cfg.Bucket.
func New(client PutObjectAPI, cfg config.PublishConfig, reporter progress.Reporter, logger *zap.Logger) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		reporter: reporter,
		logger:   logger,
	}, nil
}

// Key returns the object key for a slash-separated path relative to the
// site root.
func (p *Publisher) Key(relPath string) string {
	if p.prefix == "" {
		return relPath
	}
	return path.Join(p.prefix, relPath)
}

// Publish uploads the contents of dir. It stops at the first failure.
func (p *Publisher) Publish(ctx context.Context, dir string) (*Result, error) {
	files, err := walker.Walk(walker.Config{RootDir: dir, KeepHidden: true})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("nothing to publish in %s; run dirsite build first", dir)
	}

	p.reporter.Start(len(files))
	defer p.reporter.Finish()

	res := &Result{}
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := p.upload(ctx, f); err != nil {
			return res, fmt.Errorf("uploading %s: %w", f.RelPath, err)
		}
		res.Files++
		res.Bytes += f.Size
		p.reporter.Update(i+1, f.RelPath)
	}

	p.logger.Info("site published",
		zap.String("bucket", p.bucket),
		zap.String("prefix", p.prefix),
		zap.Int("files", res.Files),
		zap.Int64("bytes", res.Bytes),
	)
	return res, nil
}

func (p *Publisher) upload(ctx context.Context, f walker.File) error {
	body, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	defer body.Close()

	contentType := walker.ContentType(f.RelPath)
	cache := cacheAssets
	if strings.HasPrefix(contentType, "text/html") {
		cache = cachePages
	}

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.bucket),
		Key:          aws.String(p.Key(f.RelPath)),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cache),
	})
	return err
}
