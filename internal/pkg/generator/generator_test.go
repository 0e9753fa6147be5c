package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubContent struct {
	content *SiteContent
	err     error
}

func (s *stubContent) GenerateSiteContent(context.Context, string, string) (*SiteContent, error) {
	return s.content, s.err
}

type stubImages struct {
	photos  []StockPhoto
	err     error
	queries []string
}

func (s *stubImages) SearchPhotos(_ context.Context, query string, _ int) ([]StockPhoto, error) {
	s.queries = append(s.queries, query)
	return s.photos, s.err
}

func sampleContent() *SiteContent {
	return &SiteContent{
		Title:   "Rosa's Bakery",
		Tagline: "Fresh bread every morning",
		Sections: []SiteSection{
			{Heading: "Our Story", Body: "Baking since 1987."},
			{Heading: "Visit Us", Body: "Open daily from 7am."},
		},
		Palette:    Palette{Primary: "#aa3333", Background: "#fff8f0", Text: "#222222", Accent: "#e0a030"},
		ImageQuery: "bakery bread",
	}
}

func TestParseSiteContent(t *testing.T) {
	raw := `{"title":"T","tagline":"tag","sections":[{"heading":"h","body":"b"}],` +
		`"palette":{"primary":"#123456"},"image_query":"q"}`

	content, err := ParseSiteContent(raw)
	require.NoError(t, err)
	assert.Equal(t, "T", content.Title)
	assert.Len(t, content.Sections, 1)
	assert.Equal(t, "#123456", content.Palette.Primary)
	// Missing palette entries fall back to defaults.
	assert.NotEmpty(t, content.Palette.Background)
	assert.NotEmpty(t, content.Palette.Text)
}

func TestParseSiteContent_CodeFence(t *testing.T) {
	raw := "```json\n{\"title\":\"T\",\"sections\":[{\"heading\":\"h\",\"body\":\"b\"}]}\n```"

	content, err := ParseSiteContent(raw)
	require.NoError(t, err)
	assert.Equal(t, "T", content.Title)
}

func TestParseSiteContent_Invalid(t *testing.T) {
	for _, raw := range []string{"not json", `{"title":""}`, `{"title":"T","sections":[]}`} {
		_, err := ParseSiteContent(raw)
		assert.Error(t, err, "raw %q", raw)
	}
}

func TestAssembleSite(t *testing.T) {
	photos := []StockPhoto{
		{MediumURL: "https://img.example/1.jpg", Alt: "bread on a counter"},
	}

	site, err := AssembleSite(sampleContent(), photos)
	require.NoError(t, err)

	assert.Contains(t, site.HTML, "<title>Rosa&#39;s Bakery</title>")
	assert.Contains(t, site.HTML, "Fresh bread every morning")
	assert.Contains(t, site.HTML, "Our Story")
	assert.Contains(t, site.HTML, `src="https://img.example/1.jpg"`)
	// Second section has no photo.
	assert.Equal(t, 1, strings.Count(site.HTML, "<img"))

	assert.Contains(t, site.CSS, "--color-primary: #aa3333;")
	assert.Contains(t, site.CSS, "--color-accent: #e0a030;")
	assert.NotEmpty(t, site.JS)
}

func TestAssembleSite_EscapesContent(t *testing.T) {
	content := sampleContent()
	content.Sections[0].Body = `<script>alert("x")</script>`

	site, err := AssembleSite(content, nil)
	require.NoError(t, err)
	assert.NotContains(t, site.HTML, `<script>alert`)
	assert.Contains(t, site.HTML, "&lt;script&gt;")
}

func TestServiceGenerate(t *testing.T) {
	images := &stubImages{photos: []StockPhoto{{MediumURL: "https://img.example/a.jpg"}}}
	svc := NewService(&stubContent{content: sampleContent()}, images)

	site, err := svc.Generate(context.Background(), Request{
		Prompt:         "a bakery website",
		GenerationType: "business",
		WithImages:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Rosa's Bakery", site.Title)
	assert.Equal(t, []string{"bakery bread"}, images.queries)
}

func TestServiceGenerate_WithoutImagesSkipsSearch(t *testing.T) {
	images := &stubImages{}
	svc := NewService(&stubContent{content: sampleContent()}, images)

	_, err := svc.Generate(context.Background(), Request{Prompt: "p", WithImages: false})
	require.NoError(t, err)
	assert.Empty(t, images.queries)
}

func TestServiceGenerate_ProviderFailures(t *testing.T) {
	svc := NewService(&stubContent{err: errors.New("rate limited")}, nil)
	_, err := svc.Generate(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrUpstreamProvider)

	svc = NewService(&stubContent{content: sampleContent()}, &stubImages{err: errors.New("quota")})
	_, err = svc.Generate(context.Background(), Request{Prompt: "p", WithImages: true})
	assert.ErrorIs(t, err, ErrUpstreamProvider)

	_, err = svc.Generate(context.Background(), Request{Prompt: "   "})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUpstreamProvider)
}
