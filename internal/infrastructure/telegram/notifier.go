package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"AINewsAgent/internal/config"
	"AINewsAgent/internal/domain"
	"AINewsAgent/internal/ports"
)

const (
	defaultAPIURL  = "https://api.telegram.org"
	maxMessageRune = 4096
	ellipsis       = "\n[...]"
)

// Approver sends the review preview to a Telegram chat and leaves the decision
// pending; the reviewer answers through the resume command or the HTTP API.
// Without credentials it only logs the preview.
type Approver struct {
	apiURL   string
	botToken string
	chatID   string
	client   *http.Client
	logger   *slog.Logger
}

var _ ports.Approver = (*Approver)(nil)

// NewApprover registers bot token and chat identifier.
func NewApprover(cfg config.TelegramConfig, logger *slog.Logger) *Approver {
	apiURL := strings.TrimSuffix(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Approver{
		apiURL:   apiURL,
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		client:   &http.Client{Timeout: 5 * time.Second},
		logger:   logger,
	}
}

// RequestApproval delivers the preview and returns a pending decision carrying payload.
func (n *Approver) RequestApproval(ctx context.Context, runID string, payload domain.ApprovalPayload) (domain.ApprovalDecision, error) {
	decision := domain.ApprovalDecision{Status: domain.ApprovalPending, Payload: payload}
	preview := formatPreview(runID, payload, maxMessageRune)

	if n.botToken == "" || n.chatID == "" {
		if n.logger != nil {
			n.logger.Info("approval requested", "run_id", runID, "channel", "log", "preview", preview)
		}
		return decision, nil
	}

	if err := n.send(ctx, preview); err != nil {
		return domain.ApprovalDecision{}, err
	}
	if n.logger != nil {
		n.logger.Info("approval requested", "run_id", runID, "channel", "telegram")
	}
	return decision, nil
}

// FormatPreview renders what a reviewer sees, including how to answer.
func FormatPreview(runID string, payload domain.ApprovalPayload) string {
	return formatPreview(runID, payload, 0)
}

// formatPreview keeps the result within limit runes by shortening the drafts;
// the header and the resume commands are always kept. A limit of 0 means no limit.
func formatPreview(runID string, payload domain.ApprovalPayload, limit int) string {
	header := fmt.Sprintf("AI NEWS POST FOR APPROVAL\n\n📰 %s\n%s\n\n", payload.Title, payload.URL)
	drafts := "[LinkedIn]\n" + payload.Drafts.LinkedIn + "\n\n[Twitter]\n" + payload.Drafts.TwitterText()
	footer := fmt.Sprintf("\n\nRun: %s\nTo approve: ainewsagent resume --run %s --approve\nTo reject:  ainewsagent resume --run %s --reject", runID, runID, runID)

	if limit > 0 {
		room := limit - utf8.RuneCountInString(header) - utf8.RuneCountInString(footer)
		drafts = shorten(drafts, room)
	}
	return header + drafts + footer
}

func shorten(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	if limit <= len(ellipsis) {
		return ""
	}
	runes := []rune(text)
	return string(runes[:limit-utf8.RuneCountInString(ellipsis)]) + ellipsis
}

func (n *Approver) send(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}
