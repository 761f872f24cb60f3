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

const tweetURL = "https://twitter.com/user/status/%s"

// TwitterPublisher posts tweets through the X API v2. A multi-part draft is
// posted as a reply chain and the URL of the first tweet is returned. When the
// chain breaks after the first tweet, that URL is returned with the error.
type TwitterPublisher struct {
	api     apiClient
	baseURL string
	token   string
}

var _ ports.Publisher = (*TwitterPublisher)(nil)

func NewTwitterPublisher(cfg config.TwitterConfig, policy RetryPolicy, logger *slog.Logger) *TwitterPublisher {
	baseURL := strings.TrimSuffix(cfg.APIURL, "/")
	if baseURL == "" {
		baseURL = "https://api.twitter.com"
	}
	return &TwitterPublisher{
		api: apiClient{
			platform: "twitter",
			http:     &http.Client{Timeout: 30 * time.Second},
			policy:   policy,
			logger:   logger,
		},
		baseURL: baseURL,
		token:   cfg.BearerToken,
	}
}

func (p *TwitterPublisher) Platform() string {
	return "twitter"
}

type tweetRequest struct {
	Text  string      `json:"text"`
	Reply *tweetReply `json:"reply,omitempty"`
}

type tweetReply struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

func (p *TwitterPublisher) Publish(ctx context.Context, parts []string) (string, error) {
	if p.token == "" {
		return "", fmt.Errorf("twitter publisher misconfigured")
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("twitter: empty post")
	}

	var firstID, previousID string
	for i, part := range parts {
		req := tweetRequest{Text: part}
		if previousID != "" {
			req.Reply = &tweetReply{InReplyToTweetID: previousID}
		}

		resp, err := p.api.postJSON(ctx, p.baseURL+"/2/tweets", p.token, nil, req)
		if err != nil {
			if firstID != "" {
				return fmt.Sprintf(tweetURL, firstID), fmt.Errorf("thread broken after %d of %d tweets (first %s): %w", i, len(parts), firstID, err)
			}
			return "", err
		}

		var created struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		if err := json.Unmarshal(resp.body, &created); err != nil || created.Data.ID == "" {
			if firstID != "" {
				return fmt.Sprintf(tweetURL, firstID), fmt.Errorf("twitter: reply %d of %d without tweet id", i+1, len(parts))
			}
			return "", fmt.Errorf("twitter: response without tweet id")
		}

		if firstID == "" {
			firstID = created.Data.ID
		}
		previousID = created.Data.ID
	}

	return fmt.Sprintf(tweetURL, firstID), nil
}
