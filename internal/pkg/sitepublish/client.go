package sitepublish

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"

	"github.com/alexfalanx/wevibecode/app/models"
	"github.com/alexfalanx/wevibecode/internal/pkg/imagefetch"
)

// Client wraps the S3 client with site publishing functionality
type Client struct {
	s3Client *s3.Client
	config   *Config
	fetcher  *imagefetch.Fetcher
}

// NewClient creates a new S3 publishing client
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("site publishing is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible services need path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   cfg,
		fetcher:  imagefetch.NewFetcher(),
	}

	if err := client.testConnection(); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("[SitePublish] Successfully initialized S3 client for bucket: %s", cfg.GetBucketName())
	return client, nil
}

// testConnection checks if the bucket exists
func (c *Client) testConnection() error {
	ctx := context.Background()
	bucketName := c.config.GetBucketName()

	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		// If bucket doesn't exist, try to create it (for development)
		if GetAppEnv() != "prod" {
			log.Warnf("[SitePublish] Bucket %s not found, attempting to create it", bucketName)
			return c.createBucket(bucketName)
		}
		return fmt.Errorf("bucket %s not accessible: %w", bucketName, err)
	}
	return nil
}

// createBucket creates a new S3 bucket (dev/staging only)
func (c *Client) createBucket(bucketName string) error {
	ctx := context.Background()

	input := &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	}
	// For AWS regions other than us-east-1 the location constraint is
	// required; S3-compatible endpoints reject it.
	if c.config.EndpointURL == "" && c.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.config.Region),
		}
	}

	_, err := c.s3Client.CreateBucket(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
	}

	log.Infof("[SitePublish] Successfully created bucket: %s", bucketName)
	return nil
}

// PublishPreview uploads the preview's HTML, CSS and JS under sites/<slug>/.
// Remote image references in the HTML are mirrored into the bucket so the
// published site does not hotlink the stock provider.
func (c *Client) PublishPreview(ctx context.Context, preview *models.Preview) error {
	if preview.Slug == "" {
		return fmt.Errorf("preview %s has no slug", preview.UUID)
	}

	html := preview.HTML
	mirrored, err := c.mirrorImages(ctx, preview.Slug, html)
	if err != nil {
		log.Warnf("[SitePublish] image mirroring for %s failed, publishing with remote URLs: %v", preview.Slug, err)
	} else {
		html = mirrored
	}

	files := []struct {
		name        string
		contentType string
		body        string
	}{
		{"index.html", "text/html; charset=utf-8", html},
		{"style.css", "text/css; charset=utf-8", preview.CSS},
		{"app.js", "application/javascript; charset=utf-8", preview.JS},
	}

	for _, f := range files {
		if f.body == "" {
			continue
		}
		key := c.config.GetObjectKey(preview.Slug, f.name)
		if err := c.putObject(ctx, key, f.contentType, []byte(f.body)); err != nil {
			return fmt.Errorf("failed to upload %s: %w", key, err)
		}
	}

	log.Infof("[SitePublish] Published site %s (%s)", preview.Slug, preview.UUID)
	return nil
}

// mirrorImages downloads every remote <img src> in the HTML, resizes it,
// uploads it next to the site and rewrites the reference.
func (c *Client) mirrorImages(ctx context.Context, slug, html string) (string, error) {
	refs := imagefetch.ExtractImageURLs(html)
	for i, ref := range refs {
		img, err := c.fetcher.Fetch(ctx, ref)
		if err != nil {
			return html, err
		}
		name := fmt.Sprintf("img-%d%s", i+1, img.Extension)
		key := c.config.GetObjectKey(slug, name)
		if err := c.putObject(ctx, key, img.ContentType, img.Data); err != nil {
			return html, err
		}
		html = strings.ReplaceAll(html, ref, name)
	}
	return html, nil
}

func (c *Client) putObject(ctx context.Context, key, contentType string, body []byte) error {
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.GetBucketName()),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	return err
}

// RemoveSite deletes every object under sites/<slug>/ after an unpublish.
func (c *Client) RemoveSite(ctx context.Context, slug string) error {
	if slug == "" {
		return nil
	}
	prefix := c.config.GetObjectKey(slug, "")

	list, err := c.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.config.GetBucketName()),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return fmt.Errorf("failed to list site objects for %s: %w", slug, err)
	}

	for _, obj := range list.Contents {
		_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(c.config.GetBucketName()),
			Key:    obj.Key,
		})
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", aws.ToString(obj.Key), err)
		}
	}

	log.Infof("[SitePublish] Removed site %s (%d objects)", slug, len(list.Contents))
	return nil
}

// HealthCheck verifies the bucket is still reachable
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.config.GetBucketName()),
	})
	return err
}
