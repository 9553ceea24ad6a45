package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/pkg/logger"
)

// httpFetcher is the retrying GET helper shared by all source clients.
// Transport failures and non-2xx statuses are retried with exponential
// backoff (2^attempt seconds); a response that arrives but cannot be decoded
// is a contract violation and aborts immediately.
type httpFetcher struct {
	client     *http.Client
	maxRetries int
	log        *logger.Logger

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

func newHTTPFetcher(timeout time.Duration, maxRetries int, log *logger.Logger) *httpFetcher {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &httpFetcher{
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		log:        log,
		sleep:      time.Sleep,
	}
}

func (f *httpFetcher) getJSON(ctx context.Context, url string, out any) error {
	var lastErr error

	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if attempt > 0 {
			f.sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			f.log.Warn("Request attempt failed", "attempt", attempt+1, "error", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			f.log.Warn("Request attempt failed", "attempt", attempt+1, "status", resp.StatusCode)
			continue
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			// Connected and got a 2xx, but the payload is not the
			// contract shape. Not a transient fault, no retry.
			return fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
		}

		return nil
	}

	return fmt.Errorf("%w: failed after %d attempts: %v", model.ErrSourceUnavailable, f.maxRetries, lastErr)
}
