package llm

import (
	"fmt"
	"log/slog"
	"strings"

	"AINewsAgent/internal/config"
	"AINewsAgent/internal/ports"
)

// NewDrafter selects the drafting provider. A provider without an API key
// degrades to the templates.
func NewDrafter(cfg config.DraftingConfig, logger *slog.Logger) (ports.Drafter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "template":
		return NewTemplateDrafter(), nil
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			warnNoKey(logger, "openai")
			return NewTemplateDrafter(), nil
		}
		return NewChatGPTDrafter(cfg.OpenAI, logger), nil
	case "anthropic":
		if cfg.Anthropic.APIKey == "" {
			warnNoKey(logger, "anthropic")
			return NewTemplateDrafter(), nil
		}
		return NewAnthropicDrafter(cfg.Anthropic, logger), nil
	default:
		return nil, fmt.Errorf("unknown drafting provider %q", cfg.Provider)
	}
}

func warnNoKey(logger *slog.Logger, provider string) {
	if logger != nil {
		logger.Warn("drafting provider has no api key, using templates", "provider", provider)
	}
}
