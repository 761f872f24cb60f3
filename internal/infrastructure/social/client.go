// Package social posts approved drafts to LinkedIn and Twitter/X.
package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"AINewsAgent/internal/apperr"
)

const (
	defaultMaxAttempts = 5
	retryInitial       = 2 * time.Second
	retryMax           = 60 * time.Second
	maxErrorBody       = 1024
)

// RetryPolicy bounds retries of rate-limited or failing platform calls.
type RetryPolicy struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
}

// DefaultRetryPolicy is 5 attempts with exponential backoff from 2s up to 60s.
func DefaultRetryPolicy(maxAttempts int) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return RetryPolicy{MaxAttempts: maxAttempts, Initial: retryInitial, Max: retryMax}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial
	b.MaxInterval = p.Max
	b.MaxElapsedTime = 0
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// apiClient sends JSON requests to one platform, retrying transient failures
// of each individual request.
type apiClient struct {
	platform string
	http     *http.Client
	policy   RetryPolicy
	logger   *slog.Logger
}

type apiResponse struct {
	header http.Header
	body   []byte
}

func (c apiClient) postJSON(ctx context.Context, url, token string, headers map[string]string, payload any) (apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return apiResponse{}, fmt.Errorf("marshal %s payload: %w", c.platform, err)
	}

	var result apiResponse
	attempt := 0
	op := func() error {
		attempt++
		res, err := c.postOnce(ctx, url, token, headers, body)
		if err == nil {
			result = res
			return nil
		}
		if apperr.IsTransient(err) {
			if c.logger != nil {
				c.logger.Warn("platform call failed, retrying", "platform", c.platform, "attempt", attempt, "error", err)
			}
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(op, c.policy.backOff(ctx)); err != nil {
		return apiResponse{}, err
	}
	return result, nil
}

func (c apiClient) postOnce(ctx context.Context, url, token string, headers map[string]string, body []byte) (apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return apiResponse{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return apiResponse{}, ctx.Err()
		}
		return apiResponse{}, &apperr.TransientPlatformError{Platform: c.platform, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiResponse{}, &apperr.TransientPlatformError{Platform: c.platform, StatusCode: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return apiResponse{}, &apperr.TransientPlatformError{
			Platform:   c.platform,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", snippet(data)),
		}
	case resp.StatusCode >= http.StatusBadRequest:
		return apiResponse{}, &apperr.PlatformError{Platform: c.platform, StatusCode: resp.StatusCode, Body: snippet(data)}
	}

	return apiResponse{header: resp.Header, body: data}, nil
}

func snippet(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return strings.TrimSpace(string(body))
}
