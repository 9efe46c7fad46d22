// Package generation answers questions over assembled context through the
// Anthropic messages API. It is only ever called with bounded, assembled
// context, never with the raw corpus.
package generation

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

	"github.com/tabletop-tools/gm-assistant/internal/prompt"
)

// Defaults for the Anthropic client.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens = 2048
	DefaultTimeout   = 120 * time.Second

	anthropicVersion = "2023-06-01"
)

// systemPrompt keeps answers grounded in the supplied passages. The [[Name]]
// hint matches the wiki-link markup campaign notes carry verbatim.
const systemPrompt = `You are a tabletop RPG game master assistant.
Answer precisely and concisely. Keep responses short unless explicitly asked for details.
Respond in plain text without markdown formatting.

Context hints:
- Text in [[Name]] are note links to other documents
- Answer based only on the provided context`

// Config holds the Anthropic client settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client calls the Anthropic /v1/messages endpoint.
type Client struct {
	http      *http.Client
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
}

// NewClient creates a generation client. The API key is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("generation: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

type messagesRequest struct {
	Model     string            `json:"model"`
	Messages  []messagesMessage `json:"messages"`
	MaxTokens int               `json:"max_tokens"`
	System    string            `json:"system,omitempty"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Answer sends the question with its assembled context and returns the
// answer text.
func (c *Client) Answer(ctx context.Context, question string, pc *prompt.Context) (string, error) {
	user := fmt.Sprintf("Relevant context:%s\n\nQuestion: %s", pc.Render(), question)

	reqBody := messagesRequest{
		Model: c.model,
		Messages: []messagesMessage{
			{Role: "user", Content: user},
		},
		MaxTokens: c.maxTokens,
		System:    systemPrompt,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if msgResp.Error != nil {
		return "", fmt.Errorf("anthropic error: %s", msgResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic error (status %d): %s", resp.StatusCode, string(body))
	}
	if len(msgResp.Content) == 0 {
		return "", errors.New("anthropic: no response content returned")
	}

	var result strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}

	return result.String(), nil
}
