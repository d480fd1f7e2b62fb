package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"storyboard/internal/credentials"
	"storyboard/pkg/prompts"
)

var (
	ErrNoImage       = errors.New("no image generated")
	ErrEmptyResponse = errors.New("empty response")
)

type Image struct {
	Data     []byte
	MIMEType string
}

type Config struct {
	TextModel   string
	ImageModel  string
	AspectRatio string
	ImageSize   string
}

// Client talks to the Gemini API for both the shot list and the stills.
// The API key is read from the credential source on every request.
type Client struct {
	keys    credentials.Source
	cfg     Config
	prompts *prompts.Prompts
}

var shotSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"shotNumber":       {Type: genai.TypeInteger},
		"sceneDescription": {Type: genai.TypeString, Description: "What happens in the shot"},
		"cameraAngle":      {Type: genai.TypeString, Description: "e.g. low angle, over the shoulder"},
		"cameraMovement":   {Type: genai.TypeString, Description: "e.g. static, dolly in, pan left"},
		"lens":             {Type: genai.TypeString, Description: "e.g. 35mm, 85mm"},
		"lighting":         {Type: genai.TypeString},
		"imagePrompt":      {Type: genai.TypeString, Description: "Self-contained prompt for a still of this shot"},
	},
	Required: []string{
		"shotNumber", "sceneDescription", "cameraAngle", "cameraMovement",
		"lens", "lighting", "imagePrompt",
	},
}

var shotListSchema = &genai.Schema{
	Type:  genai.TypeArray,
	Items: shotSchema,
}

func NewClient(keys credentials.Source, cfg Config, p *prompts.Prompts) *Client {
	return &Client{keys: keys, cfg: cfg, prompts: p}
}

func (c *Client) newClient(ctx context.Context) (*genai.Client, error) {
	key, err := c.keys.APIKey(ctx)
	if err != nil {
		return nil, err
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

// GenerateShotList returns the raw JSON array text produced for script.
func (c *Client) GenerateShotList(ctx context.Context, script string) (string, error) {
	prompt, err := c.prompts.RenderGeminiShots(prompts.ShotsParams{Script: script})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	client, err := c.newClient(ctx)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: c.prompts.System.Shots}},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema:   shotListSchema,
	}

	resp, err := client.Models.GenerateContent(ctx, c.cfg.TextModel, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return textFromResponse(resp)
}

// GenerateImage renders one still for prompt. The prompt is the only content
// sent; aspect ratio and size come from the client config.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	client, err := c.newClient(ctx)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: c.cfg.AspectRatio,
			ImageSize:   c.cfg.ImageSize,
		},
	}

	slog.Debug("Requesting image", "model", c.cfg.ImageModel, "prompt_len", len(prompt))
	resp, err := client.Models.GenerateContent(ctx, c.cfg.ImageModel, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	return imageFromResponse(resp)
}

func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// imageFromResponse takes the first inline data part of the first
// candidate. Text parts are skipped.
func imageFromResponse(resp *genai.GenerateContentResponse) (*Image, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, ErrNoImage
	}

	cand := resp.Candidates[0]
	if cand.FinishReason != "" &&
		cand.FinishReason != genai.FinishReasonStop &&
		cand.FinishReason != genai.FinishReasonUnspecified {
		return nil, fmt.Errorf("%w: finish reason %s", ErrNoImage, cand.FinishReason)
	}
	if cand.Content == nil {
		return nil, ErrNoImage
	}

	for _, part := range cand.Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mime := part.InlineData.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		return &Image{Data: part.InlineData.Data, MIMEType: mime}, nil
	}
	return nil, ErrNoImage
}
