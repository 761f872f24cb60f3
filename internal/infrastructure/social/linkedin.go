package social

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"AINewsAgent/internal/config"
	"AINewsAgent/internal/ports"
)

const linkedInPostURL = "https://www.linkedin.com/feed/update/%s/"

// LinkedInPublisher shares text posts through the UGC Posts API.
type LinkedInPublisher struct {
	api       apiClient
	baseURL   string
	token     string
	authorURN string
}

var _ ports.Publisher = (*LinkedInPublisher)(nil)

func NewLinkedInPublisher(cfg config.LinkedInConfig, policy RetryPolicy, logger *slog.Logger) *LinkedInPublisher {
	baseURL := strings.TrimSuffix(cfg.APIURL, "/")
	if baseURL == "" {
		baseURL = "https://api.linkedin.com"
	}
	return &LinkedInPublisher{
		api: apiClient{
			platform: "linkedin",
			http:     &http.Client{Timeout: 30 * time.Second},
			policy:   policy,
			logger:   logger,
		},
		baseURL:   baseURL,
		token:     cfg.AccessToken,
		authorURN: cfg.AuthorURN,
	}
}

func (p *LinkedInPublisher) Platform() string {
	return "linkedin"
}

// Publish posts parts as one share and returns its feed URL.
func (p *LinkedInPublisher) Publish(ctx context.Context, parts []string) (string, error) {
	if p.token == "" || p.authorURN == "" {
		return "", fmt.Errorf("linkedin publisher misconfigured")
	}
	text := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if text == "" {
		return "", fmt.Errorf("linkedin: empty post")
	}

	payload := map[string]any{
		"author":         p.authorURN,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]string{"text": text},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	resp, err := p.api.postJSON(ctx, p.baseURL+"/v2/ugcPosts", p.token, map[string]string{
		"X-Restli-Protocol-Version": "2.0.0",
	}, payload)
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if len(resp.body) > 0 {
		_ = json.Unmarshal(resp.body, &created)
	}
	id := created.ID
	if id == "" {
		id = resp.header.Get("X-RestLi-Id")
	}
	if id == "" {
		return "", fmt.Errorf("linkedin: response without post id")
	}
	return fmt.Sprintf(linkedInPostURL, id), nil
}
