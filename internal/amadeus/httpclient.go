package amadeus

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/flytogether/internal/telemetry"
	"golang.org/x/time/rate"
)

// httpClient issues throttled requests and retries transient failures
// (network errors, 429, 5xx) with exponential backoff.
type httpClient struct {
	client  *http.Client
	limiter *rate.Limiter
	retries int
	backoff time.Duration
}

func newHTTPClient(timeout time.Duration, retries int, backoff time.Duration, limiter *rate.Limiter) *httpClient {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	if backoff == 0 {
		backoff = 300 * time.Millisecond
	}
	return &httpClient{client: &http.Client{Timeout: timeout}, limiter: limiter, retries: retries, backoff: backoff}
}

// doJSON sends the request and decodes a 2xx body into out. body is resent
// verbatim on each attempt. Non-retryable statuses return an *APIError
// straight away.
func (c *httpClient) doJSON(ctx context.Context, endpoint, method, url string, headers map[string]string, body []byte, out any) error {
	var lastErr error
	tries := c.retries + 1
	for attempt := 0; attempt < tries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.client.Do(req)
		telemetry.UpstreamLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
		} else {
			var retry bool
			retry, lastErr = c.handle(resp, out)
			if !retry {
				return lastErr
			}
		}

		if attempt < tries-1 {
			select {
			case <-time.After(c.backoff * time.Duration(1<<attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

func (c *httpClient) handle(resp *http.Response, out any) (bool, error) {
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return false, nil
		}
		return false, json.NewDecoder(resp.Body).Decode(out)
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	err := newAPIError(resp.StatusCode, b)
	return err.Temporary(), err
}
