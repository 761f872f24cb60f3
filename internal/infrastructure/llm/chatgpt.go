package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"AINewsAgent/internal/config"
	"AINewsAgent/internal/domain"
	"AINewsAgent/internal/ports"
)

// ChatGPTDrafter implements ports.Drafter backed by the OpenAI chat completions API.
// Any API or parsing failure falls back to the fixed templates.
type ChatGPTDrafter struct {
	client       *openai.Client
	model        openai.ChatModel
	systemPrompt string
	fallback     TemplateDrafter
	logger       *slog.Logger
}

var _ ports.Drafter = (*ChatGPTDrafter)(nil)

// NewChatGPTDrafter builds a client from configuration.
func NewChatGPTDrafter(cfg config.OpenAIConfig, logger *slog.Logger, opts ...option.RequestOption) *ChatGPTDrafter {
	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithRequestTimeout(60 * time.Second)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	model := openai.ChatModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.ChatModelGPT4oMini
	}

	client := openai.NewClient(reqOpts...)
	return &ChatGPTDrafter{
		client:       &client,
		model:        model,
		systemPrompt: systemPromptOrDefault(cfg.SystemPrompt),
		logger:       logger,
	}
}

func (c *ChatGPTDrafter) Draft(ctx context.Context, article domain.ScoredArticle) (domain.Drafts, error) {
	content, err := c.complete(ctx, draftPrompt(article))
	if err == nil {
		var drafts domain.Drafts
		if drafts, err = parseDrafts(content); err == nil {
			return drafts, nil
		}
	}
	c.warn("openai draft failed, using template", "link", article.Link, "error", err)
	return c.fallback.Draft(ctx, article)
}

func (c *ChatGPTDrafter) DraftDigest(ctx context.Context, articles []domain.ScoredArticle, day time.Time) (string, error) {
	if len(articles) == 0 {
		return NoNewsDigest, nil
	}
	content, err := c.complete(ctx, digestPrompt(articles, day))
	if err == nil && strings.TrimSpace(content) != "" {
		return strings.TrimSpace(content), nil
	}
	c.warn("openai digest failed, using template", "articles", len(articles), "error", err)
	return c.fallback.DraftDigest(ctx, articles, day)
}

func (c *ChatGPTDrafter) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.systemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *ChatGPTDrafter) warn(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
