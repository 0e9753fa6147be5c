package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alexfalanx/wevibecode/internal/pkg/env"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com"
	defaultOpenAIModel   = "gpt-4o-mini"
)

// SiteSection is one content block of a generated page.
type SiteSection struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// SiteContent is the structured output the model is asked to produce.
type SiteContent struct {
	Title      string        `json:"title"`
	Tagline    string        `json:"tagline"`
	Sections   []SiteSection `json:"sections"`
	Palette    Palette       `json:"palette"`
	ImageQuery string        `json:"image_query"`
}

// Palette holds the CSS color values the template wires into the stylesheet.
type Palette struct {
	Primary    string `json:"primary"`
	Background string `json:"background"`
	Text       string `json:"text"`
	Accent     string `json:"accent"`
}

// AIClient calls the chat completions API and asks for JSON site content.
type AIClient struct {
	APIKey  string
	BaseURL string
	Model   string

	HTTPClient *http.Client
}

// NewAIClientFromEnv builds a client from OPENAI_* environment variables.
func NewAIClientFromEnv() *AIClient {
	return &AIClient{
		APIKey:  strings.TrimSpace(env.GetEnv("OPENAI_API_KEY", "")),
		BaseURL: strings.TrimRight(env.GetEnv("OPENAI_API_BASE_URL", defaultOpenAIBaseURL), "/"),
		Model:   env.GetEnv("OPENAI_MODEL", defaultOpenAIModel),
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
	Temperature    float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

const systemPrompt = `You write website copy. Respond with a single JSON object:
{"title":"...","tagline":"...","sections":[{"heading":"...","body":"..."}],
"palette":{"primary":"#hex","background":"#hex","text":"#hex","accent":"#hex"},
"image_query":"short stock photo search phrase"}
Produce 3 to 5 sections. No markdown, JSON only.`

// GenerateSiteContent asks the model for structured content for one site.
func (c *AIClient) GenerateSiteContent(ctx context.Context, prompt, generationType string) (*SiteContent, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("OPENAI_API_KEY is not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Site type: %s. Brief: %s", generationType, prompt)},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
		Temperature:    0.7,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content provider request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode content provider response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if parsed.Error != nil {
			return nil, fmt.Errorf("content provider error (%s): %s", parsed.Error.Type, parsed.Error.Message)
		}
		return nil, fmt.Errorf("content provider returned status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("content provider returned no choices")
	}

	return ParseSiteContent(parsed.Choices[0].Message.Content)
}

// ParseSiteContent decodes and sanity-checks the model's JSON output.
func ParseSiteContent(raw string) (*SiteContent, error) {
	raw = strings.TrimSpace(raw)
	// Some models wrap JSON in a code fence despite instructions.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var content SiteContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, fmt.Errorf("model output is not valid JSON: %w", err)
	}
	if content.Title == "" || len(content.Sections) == 0 {
		return nil, errors.New("model output is missing title or sections")
	}
	content.Palette = content.Palette.withDefaults()
	return &content, nil
}

func (p Palette) withDefaults() Palette {
	if p.Primary == "" {
		p.Primary = "#2563eb"
	}
	if p.Background == "" {
		p.Background = "#ffffff"
	}
	if p.Text == "" {
		p.Text = "#1f2937"
	}
	if p.Accent == "" {
		p.Accent = "#f59e0b"
	}
	return p
}
