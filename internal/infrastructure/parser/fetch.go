package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"AINewsAgent/internal/apperr"
)

const (
	userAgent       = "AINewsAgent/1.0"
	maxFeedBytes    = 10 << 20
	feedRetries     = 2
	feedRetryPeriod = time.Second
)

// fetcher performs GET requests against feed hosts, retrying 429 and 5xx.
type fetcher struct {
	client  *http.Client
	retries uint64
	initial time.Duration
}

func newFetcher(client *http.Client) fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return fetcher{client: client, retries: feedRetries, initial: feedRetryPeriod}
}

func (f fetcher) get(ctx context.Context, target string) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = f.initial
	policy.MaxElapsedTime = 0

	var body []byte
	op := func() error {
		data, err := f.getOnce(ctx, target)
		if err != nil {
			if apperr.IsTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		body = data
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, f.retries), ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

func (f fetcher) getOnce(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return nil, &apperr.TransientPlatformError{
			Platform:   "feed",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s returned %s", target, resp.Status),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", target, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
