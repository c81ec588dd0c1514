// Package apiclient talks to the reviews HTTP API.
package apiclient

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"restaurant_reviews/internal/adapters/observability"
	"restaurant_reviews/internal/domain"
)

type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

var (
	// ErrNotFound is returned when the API answers 404 (unknown review id).
	ErrNotFound = errors.New("api: not found")
	ErrBadInput = errors.New("api: bad request")
)

type payload struct {
	CustomerName   string  `json:"customer_name"`
	RestaurantName string  `json:"restaurant_name"`
	Rating         float64 `json:"rating"`
	Text           string  `json:"review"`
}

func toPayload(in domain.ReviewInput) payload {
	return payload{CustomerName: in.CustomerName, RestaurantName: in.RestaurantName, Rating: in.Rating, Text: in.Text}
}

// ---- Public API ----

func (c *Client) List(ctx context.Context) ([]domain.Review, error) {
	var out struct {
		Items []domain.Review `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/reviews", "list", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) Get(ctx context.Context, id int64) (domain.Review, error) {
	var out domain.Review
	return out, c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/reviews/%d", id), "get", nil, &out)
}

func (c *Client) Add(ctx context.Context, in domain.ReviewInput) (domain.Review, error) {
	var out domain.Review
	return out, c.do(ctx, http.MethodPost, "/v1/reviews", "create", toPayload(in), &out)
}

func (c *Client) Update(ctx context.Context, id int64, in domain.ReviewInput) (domain.Review, error) {
	var out domain.Review
	return out, c.do(ctx, http.MethodPut, fmt.Sprintf("/v1/reviews/%d", id), "update", toPayload(in), &out)
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/reviews/%d", id), "delete", nil, nil)
}

// ---- Internals ----

// do performs one API call with client-side rate limiting and retries.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
// POST is only retried on 429; a 5xx or a transport error may follow a
// write the server already made.
func (c *Client) do(ctx context.Context, method, path, endpoint string, in, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = b
	}
	retryable := method != http.MethodPost

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "reviewctl/1.0")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("reviews-api", endpoint, 0, time.Since(start))
			// network error or context canceled
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			// the server may have handled a POST before the connection failed
			if !retryable {
				return lastErr
			}
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("reviews-api", endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotModified:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			var err error
			if out != nil {
				err = json.NewDecoder(resp.Body).Decode(out)
			}
			resp.Body.Close()
			return err

		case resp.StatusCode == http.StatusNotFound:
			detail := problemDetail(resp)
			resp.Body.Close()
			if detail != "" {
				return fmt.Errorf("%w: %s", ErrNotFound, detail)
			}
			return ErrNotFound

		case resp.StatusCode == http.StatusBadRequest:
			detail := problemDetail(resp)
			resp.Body.Close()
			return fmt.Errorf("%w: %s", ErrBadInput, detail)

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if !retryable && resp.StatusCode != http.StatusTooManyRequests {
				return lastErr
			}
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

func problemDetail(resp *http.Response) string {
	var p struct {
		Detail string `json:"detail"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&p)
	return p.Detail
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns 200ms, 400ms, 800ms... plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
