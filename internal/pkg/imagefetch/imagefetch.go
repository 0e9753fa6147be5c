package imagefetch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// MaxWidth is the widest any mirrored site image is stored at.
const MaxWidth = 1600

const maxDownloadBytes = 15 << 20

// Image is one downloaded, normalized site image.
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
	Width       int
	Height      int
}

// Fetcher downloads remote images and normalizes them for publishing.
type Fetcher struct {
	HTTPClient *http.Client
}

// NewFetcher returns a fetcher with a sane download timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch downloads an image, resizes it down to MaxWidth when wider and
// re-encodes it as JPEG. Smaller images pass through unresized.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	httpClient := f.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return Normalize(img)
}

// Normalize resizes and re-encodes a decoded image.
func Normalize(img image.Image) (*Image, error) {
	bounds := img.Bounds()
	if bounds.Dx() > MaxWidth {
		img = imaging.Resize(img, MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	final := img.Bounds()
	return &Image{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Extension:   ".jpg",
		Width:       final.Dx(),
		Height:      final.Dy(),
	}, nil
}

var imgSrcPattern = regexp.MustCompile(`<img[^>]+src="(https?://[^"]+)"`)

// ExtractImageURLs returns the remote image URLs referenced by the HTML, in
// document order and deduplicated.
func ExtractImageURLs(html string) []string {
	matches := imgSrcPattern.FindAllStringSubmatch(html, -1)
	seen := make(map[string]struct{}, len(matches))
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		u := strings.TrimSpace(m[1])
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls
}
