package sitepublish

import "github.com/gofiber/fiber/v2/log"

// NewFromEnv builds a publishing client from the environment. Returns nil
// when publishing is disabled or misconfigured; callers treat a nil client
// as "serve from the database only".
func NewFromEnv() *Client {
	cfg, err := LoadConfig()
	if err != nil {
		log.Errorf("[SitePublish] invalid configuration: %v", err)
		return nil
	}
	if !cfg.IsEnabled() {
		log.Info("[SitePublish] site publishing is disabled")
		return nil
	}

	client, err := NewClient(cfg)
	if err != nil {
		log.Errorf("[SitePublish] initialization failed: %v", err)
		return nil
	}
	return client
}
