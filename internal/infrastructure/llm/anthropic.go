package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"AINewsAgent/internal/config"
	"AINewsAgent/internal/domain"
	"AINewsAgent/internal/ports"
)

// AnthropicDrafter implements ports.Drafter backed by the Messages API.
type AnthropicDrafter struct {
	client       *anthropic.Client
	model        anthropic.Model
	maxTokens    int64
	systemPrompt string
	fallback     TemplateDrafter
	logger       *slog.Logger
}

var _ ports.Drafter = (*AnthropicDrafter)(nil)

func NewAnthropicDrafter(cfg config.AnthropicConfig, logger *slog.Logger, opts ...option.RequestOption) *AnthropicDrafter {
	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithRequestTimeout(60 * time.Second)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	model := anthropic.Model(cfg.Model)
	if cfg.Model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	client := anthropic.NewClient(reqOpts...)
	return &AnthropicDrafter{
		client:       &client,
		model:        model,
		maxTokens:    maxTokens,
		systemPrompt: systemPromptOrDefault(cfg.SystemPrompt),
		logger:       logger,
	}
}

func (c *AnthropicDrafter) Draft(ctx context.Context, article domain.ScoredArticle) (domain.Drafts, error) {
	content, err := c.complete(ctx, draftPrompt(article))
	if err == nil {
		var drafts domain.Drafts
		if drafts, err = parseDrafts(content); err == nil {
			return drafts, nil
		}
	}
	c.warn("anthropic draft failed, using template", "link", article.Link, "error", err)
	return c.fallback.Draft(ctx, article)
}

func (c *AnthropicDrafter) DraftDigest(ctx context.Context, articles []domain.ScoredArticle, day time.Time) (string, error) {
	if len(articles) == 0 {
		return NoNewsDigest, nil
	}
	content, err := c.complete(ctx, digestPrompt(articles, day))
	if err == nil && strings.TrimSpace(content) != "" {
		return strings.TrimSpace(content), nil
	}
	c.warn("anthropic digest failed, using template", "articles", len(articles), "error", err)
	return c.fallback.DraftDigest(ctx, articles, day)
}

func (c *AnthropicDrafter) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: c.systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no response from anthropic")
	}
	return b.String(), nil
}

func (c *AnthropicDrafter) warn(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
