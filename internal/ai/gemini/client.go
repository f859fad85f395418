package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultModel      = "text-embedding-004"
	defaultMaxRetries = 3
	defaultBatchSize  = 100

	baseBackoff = time.Second
	// Quota errors asking to wait longer than this are returned immediately.
	maxQuotaDelay = 30 * time.Second
)

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)

// newClient creates a genai client configured for the Gemini API backend.
func newClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}

// retryDelay reports whether err is worth retrying and how long to wait first.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		delay := backoff(attempt)
		if m := retryAfterPattern.FindStringSubmatch(apiErr.Message); m != nil {
			if seconds, parseErr := strconv.ParseFloat(m[1], 64); parseErr == nil {
				delay = time.Duration(seconds * float64(time.Second))
			}
		}
		if delay > maxQuotaDelay {
			return 0, false
		}
		return delay, true
	case apiErr.Code >= http.StatusInternalServerError:
		return backoff(attempt), true
	}
	return 0, false
}

func backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return baseBackoff << attempt
}

// withRetry runs call up to maxRetries times, waiting between attempts as
// retryDelay decides. Errors that are not worth retrying are returned at once.
func withRetry(ctx context.Context, log *zap.Logger, wait func(context.Context, time.Duration) error, maxRetries int, op string, call func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := call()
		if err == nil {
			return nil
		}
		lastErr = err

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == maxRetries-1 {
			break
		}

		log.Warn("gemini "+op+" failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := wait(ctx, delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}
