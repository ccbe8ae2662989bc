package anthropic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Completer sends one system + user prompt pair and returns the reply text
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Client wraps the Anthropic Messages API
type Client struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// NewClient creates an API client. The token falls back to ANTHROPIC_API_KEY.
func NewClient(model string, apiToken string) (*Client, error) {
	token := apiToken
	if token == "" {
		token = os.Getenv("ANTHROPIC_API_KEY")
	}
	if token == "" {
		return nil, errors.New("no API token provided: set model.anthropic_api_key or ANTHROPIC_API_KEY")
	}

	return &Client{
		client:    anthropic.NewClient(option.WithAPIKey(token)),
		model:     mapModelName(model),
		maxTokens: 256,
	}, nil
}

// mapModelName converts friendly model names to model IDs
func mapModelName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "haiku":
		return "claude-3-5-haiku-latest"
	case "sonnet":
		return "claude-sonnet-4-20250514"
	case "opus":
		return "claude-opus-4-20250514"
	default:
		// Full model IDs pass through
		return name
	}
}

// Complete implements Completer
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(c.model),
		MaxTokens: anthropic.F(c.maxTokens),
		System: anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(system),
		}),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		}),
	})
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}

	text := extractTextContent(message)
	if text == "" {
		return "", errors.New("empty response from API")
	}
	return text, nil
}

// Model returns the model ID in use
func (c *Client) Model() string {
	return c.model
}

func extractTextContent(message *anthropic.Message) string {
	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			text.WriteString(block.Text)
		}
	}
	return text.String()
}
