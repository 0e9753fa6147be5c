package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
)

// ErrUpstreamProvider wraps failures of the content or image providers so the
// HTTP layer can map them to a 502 instead of a generic 500.
var ErrUpstreamProvider = errors.New("upstream provider failure")

// ContentProvider produces structured site copy for a prompt.
type ContentProvider interface {
	GenerateSiteContent(ctx context.Context, prompt, generationType string) (*SiteContent, error)
}

// ImageProvider searches stock photos for a query.
type ImageProvider interface {
	SearchPhotos(ctx context.Context, query string, perPage int) ([]StockPhoto, error)
}

// Service orchestrates one generation: copy first, then optional imagery,
// then template assembly.
type Service struct {
	content ContentProvider
	images  ImageProvider
}

// NewService creates a generator from injected providers. The image provider
// may be nil when stock imagery is disabled.
func NewService(content ContentProvider, images ImageProvider) *Service {
	return &Service{content: content, images: images}
}

// NewServiceFromEnv wires the OpenAI and Pexels clients from the environment.
func NewServiceFromEnv() *Service {
	return NewService(NewAIClientFromEnv(), NewStockImageClientFromEnv())
}

// Request describes one site generation.
type Request struct {
	Prompt         string
	GenerationType string
	WithImages     bool
}

// Generate produces the full site artifact. Any provider failure aborts the
// whole generation; nothing is stored and nothing is charged for it.
func (s *Service) Generate(ctx context.Context, req Request) (*GeneratedSite, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("prompt is required")
	}

	content, err := s.content.GenerateSiteContent(ctx, req.Prompt, req.GenerationType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamProvider, err)
	}

	var photos []StockPhoto
	if req.WithImages && s.images != nil {
		query := content.ImageQuery
		if query == "" {
			query = req.Prompt
		}
		photos, err = s.images.SearchPhotos(ctx, query, len(content.Sections))
		if err != nil {
			log.Errorf("[Generator] image search for %q failed: %v", query, err)
			return nil, fmt.Errorf("%w: %v", ErrUpstreamProvider, err)
		}
	}

	return AssembleSite(content, photos)
}
