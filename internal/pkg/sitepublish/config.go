package sitepublish

import (
	"errors"
	"fmt"

	"github.com/alexfalanx/wevibecode/internal/pkg/env"
)

// Config holds S3 site publishing configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	PublicBaseURL   string // Optional CDN/base URL for published sites
	Enabled         bool
}

// LoadConfig loads S3 publishing configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-west-001"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   env.GetEnv("SITE_PUBLIC_BASE_URL", ""),
		Enabled:         env.GetEnv("SITE_PUBLISH_ENABLED", "false") == "true",
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when site publishing is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when site publishing is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when site publishing is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if site publishing is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// GetObjectKey generates the S3 object key for one file of a published site.
// Format: sites/<slug>/<filename>
func (c *Config) GetObjectKey(slug, filename string) string {
	return fmt.Sprintf("sites/%s/%s", slug, filename)
}

// GetBucketName returns the bucket name as configured
func (c *Config) GetBucketName() string {
	return c.BucketName
}

// GetAppEnv returns the current application environment
func GetAppEnv() string {
	return env.GetEnv("APP_ENV", "dev")
}
