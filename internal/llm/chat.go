package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultChatBaseURL = "https://api.groq.com/openai/v1/chat/completions"
	DefaultChatModel   = "llama-3.3-70b-versatile"
)

// ChatConfig configures an OpenAI-compatible chat completions client.
type ChatConfig struct {
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// ChatClient calls an OpenAI-compatible Chat Completions endpoint (Groq by
// default). See: https://console.groq.com/docs/api-reference
type ChatClient struct {
	http     *http.Client
	provider string
	apiKey   string
	model    string
	baseURL  string
}

func NewChatClient(cfg ChatConfig) (*ChatClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultChatModel
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultChatBaseURL
	}
	provider := strings.TrimSpace(cfg.Provider)
	if provider == "" {
		provider = "groq"
	}
	return &ChatClient{
		http:     hc,
		provider: provider,
		apiKey:   apiKey,
		model:    model,
		baseURL:  baseURL,
	}, nil
}

func (c *ChatClient) Name() string { return c.provider + ":" + c.model }
func (c *ChatClient) Close() error { return nil }

type chatReq struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float32           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *ChatClient) Complete(ctx context.Context, in Request) (string, error) {
	msgs := make([]chatMessage, 0, 2)
	if s := strings.TrimSpace(in.System); s != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: s})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: in.User})
	body := chatReq{
		Model:       c.model,
		Messages:    msgs,
		Temperature: in.Temperature,
		MaxTokens:   in.MaxTokens,
	}
	if in.JSONMode {
		body.ResponseFormat = map[string]string{"type": "json_object"}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: request failed: %w", c.provider, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		serr := &StatusError{
			Provider:   c.provider,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(serr.Body, `"code":"context_length_exceeded"`) {
			return "", NewPermanentError(serr)
		}
		return "", serr
	}
	var out chatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", c.provider, err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return out.Choices[0].Message.Content, nil
}
