package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alexfalanx/wevibecode/internal/pkg/env"
)

const defaultPexelsBaseURL = "https://api.pexels.com"

// StockPhoto is one image result with ready-to-embed URLs.
type StockPhoto struct {
	ID          int64
	URL         string
	LargeURL    string
	MediumURL   string
	Alt         string
	AvgColorHex string
}

// StockImageClient searches a stock photo API for site imagery.
type StockImageClient struct {
	APIKey  string
	BaseURL string

	HTTPClient *http.Client
}

// NewStockImageClientFromEnv builds a client from PEXELS_* environment variables.
func NewStockImageClientFromEnv() *StockImageClient {
	return &StockImageClient{
		APIKey:  strings.TrimSpace(env.GetEnv("PEXELS_API_KEY", "")),
		BaseURL: strings.TrimRight(env.GetEnv("PEXELS_API_BASE_URL", defaultPexelsBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type pexelsSearchResponse struct {
	Photos []struct {
		ID       int64  `json:"id"`
		URL      string `json:"url"`
		Alt      string `json:"alt"`
		AvgColor string `json:"avg_color"`
		Src      struct {
			Large  string `json:"large"`
			Medium string `json:"medium"`
		} `json:"src"`
	} `json:"photos"`
}

// SearchPhotos returns up to perPage landscape photos for the query.
func (c *StockImageClient) SearchPhotos(ctx context.Context, query string, perPage int) ([]StockPhoto, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("PEXELS_API_KEY is not configured")
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("search query is required")
	}
	if perPage <= 0 || perPage > 15 {
		perPage = 3
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.APIKey)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stock image request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("stock image provider returned status %d", resp.StatusCode)
	}

	var parsed pexelsSearchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode stock image response: %w", err)
	}

	photos := make([]StockPhoto, 0, len(parsed.Photos))
	for _, p := range parsed.Photos {
		photos = append(photos, StockPhoto{
			ID:          p.ID,
			URL:         p.URL,
			LargeURL:    p.Src.Large,
			MediumURL:   p.Src.Medium,
			Alt:         p.Alt,
			AvgColorHex: p.AvgColor,
		})
	}
	return photos, nil
}
