// Package gemini is a thin text-completion client over Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

var ErrEmptyResponse = errors.New("gemini returned no text")

type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint; empty uses Google's default.
	BaseURL string
	Timeout time.Duration
}

// Client generates text with a single Gemini model.
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// GenerateRequest is one completion call.
type GenerateRequest struct {
	System      string
	Prompt      string
	Temperature float32
	TopP        float32
}

// NewClient creates a Gemini client. httpClient may be nil.
func NewClient(ctx context.Context, cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Client{client: client, model: cfg.Model, timeout: cfg.Timeout}, nil
}

// Generate returns the trimmed text of the first candidate.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	gc := &genai.GenerateContentConfig{}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature > 0 {
		gc.Temperature = genai.Ptr(req.Temperature)
	}
	if req.TopP > 0 {
		gc.TopP = genai.Ptr(req.TopP)
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, gc)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}
