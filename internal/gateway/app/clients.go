package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"safewatch/internal/gateway/config"
	"safewatch/internal/llm"
	"safewatch/internal/search"
)

const (
	openAIChatURL      = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel = "gpt-4o-mini"
)

// NewLLMClient builds the configured provider wrapped with request logging.
// It returns nil without error when no credential is configured.
func NewLLMClient(ctx context.Context, cfg config.LLMConfig, logger *log.Logger) (llm.Client, error) {
	var (
		client llm.Client
		err    error
	)
	switch cfg.Provider {
	case "gemini":
		client, err = llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Model)
	case "openai":
		client, err = llm.NewChatClient(llm.ChatConfig{
			Provider: "openai",
			APIKey:   cfg.APIKey,
			Model:    firstNonEmpty(cfg.Model, defaultOpenAIModel),
			BaseURL:  firstNonEmpty(cfg.BaseURL, openAIChatURL),
		})
	case "groq", "":
		client, err = llm.NewChatClient(llm.ChatConfig{
			Provider: "groq",
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			BaseURL:  cfg.BaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if errors.Is(err, llm.ErrMissingAPIKey) {
		logger.Printf("llm: %s api key not set, alert generation disabled", cfg.Provider)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm client: %w", err)
	}
	logger.Printf("llm: using %s", client.Name())
	return llm.Wrap(client, llm.WithLogging(logger)), nil
}

// NewSearcher returns the SerpAPI client, behind an LRU cache when a TTL is set.
func NewSearcher(cfg config.SearchConfig, logger *log.Logger) search.Searcher {
	if cfg.APIKey == "" {
		logger.Printf("search: api key not set, generate requests will fail")
	}
	var s search.Searcher = search.NewClient(search.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL})
	if cfg.CacheTTL > 0 {
		s = search.NewCached(s, cfg.CacheSize, cfg.CacheTTL)
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
