package imagen

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"scenemedic/internal/config"
)

// Generator produces one image per call from a text prompt.
// Failures are reported to the caller and treated as per-record, not fatal.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Client generates images through the Google GenAI SDK, against either the
// Vertex AI backend (project + location) or the Gemini API backend (API key).
type Client struct {
	client      *genai.Client
	model       string
	aspectRatio string
}

// NewClient builds the generation client from deployment configuration.
// Exactly one backend is selected: API key wins when both could apply
// (config validation rejects that earlier for the CLI path).
func NewClient(ctx context.Context, cfg config.Generation) (*Client, error) {
	cc := &genai.ClientConfig{}
	if cfg.APIKey != "" {
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	} else {
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		cc.Backend = genai.BackendVertexAI
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create generation client: %w", err)
	}
	return &Client{
		client:      client,
		model:       cfg.Model,
		aspectRatio: cfg.AspectRatio,
	}, nil
}

// Generate requests exactly one image for the prompt and returns its bytes.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if prompt == "" {
		return nil, errors.New("prompt must not be empty")
	}

	resp, err := c.client.Models.GenerateImages(ctx, c.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    c.aspectRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, errors.New("generate image: provider returned no images")
	}

	data := resp.GeneratedImages[0].Image.ImageBytes
	if len(data) == 0 {
		return nil, errors.New("generate image: provider returned empty image data")
	}
	return data, nil
}
