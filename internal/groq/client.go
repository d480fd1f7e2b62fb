package groq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/conneroisu/groq-go"

	"storyboard/pkg/prompts"
)

var ErrEmptyResponse = errors.New("empty response")

// Client produces shot lists through Groq chat completions in JSON mode.
// JSON mode only returns objects, so the array comes back wrapped as
// {"shots": [...]}.
type Client struct {
	client  *groq.Client
	model   groq.ChatModel
	prompts *prompts.Prompts
}

func NewClient(apiKey, model string, p *prompts.Prompts) (*Client, error) {
	client, err := groq.NewClient(apiKey)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	return &Client{
		client:  client,
		model:   groq.ChatModel(model),
		prompts: p,
	}, nil
}

func (c *Client) GenerateShotList(ctx context.Context, script string) (string, error) {
	prompt, err := c.prompts.RenderGroqShots(prompts.ShotsParams{Script: script})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	req := groq.ChatCompletionRequest{
		Model: c.model,
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleSystem, Content: c.prompts.System.Shots},
			{Role: groq.RoleUser, Content: prompt},
		},
		ResponseFormat: &groq.ChatResponseFormat{Type: "json_object"},
	}

	resp, err := c.client.ChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", ErrEmptyResponse
	}

	slog.Debug("Groq shot list response", "bytes", len(content))
	return content, nil
}
