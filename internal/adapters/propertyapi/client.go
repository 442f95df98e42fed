package propertyapi

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"property_submission/internal/adapters/observability"
	"property_submission/internal/domain"
)

const service = "property_api"

// Client talks to the Property API on behalf of one user.
type Client struct {
	base  string
	hc    *http.Client
	token string
	owner string
	role  domain.Role
	rl    *rate.Limiter
}

type Options struct {
	Token string
	RPS   int
	HTTP  *http.Client
}

func New(base, owner string, role domain.Role, opt Options) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("property API base URL is required")
	}
	if owner == "" {
		return nil, fmt.Errorf("owner id is required")
	}
	rps := opt.RPS
	if rps <= 0 {
		rps = 5
	}
	hc := opt.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		base:  strings.TrimRight(base, "/"),
		hc:    hc,
		token: opt.Token,
		owner: owner,
		role:  role,
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

func (c *Client) CreateDraft(ctx context.Context, p domain.Payload, key string) (domain.Record, error) {
	var out domain.Record
	return out, c.do(ctx, http.MethodPost, "/properties/draft", "create_draft", p, key, &out)
}

func (c *Client) Create(ctx context.Context, p domain.Payload, key string) (domain.Record, error) {
	var out domain.Record
	return out, c.do(ctx, http.MethodPost, "/properties", "create", p, key, &out)
}

func (c *Client) Update(ctx context.Context, id string, p domain.Payload) (domain.Record, error) {
	var out domain.Record
	return out, c.do(ctx, http.MethodPut, "/properties/"+url.PathEscape(id), "update", p, "", &out)
}

func (c *Client) Get(ctx context.Context, id string) (domain.Record, error) {
	var out domain.Record
	return out, c.do(ctx, http.MethodGet, "/properties/"+url.PathEscape(id), "get", nil, "", &out)
}

// problem is the application/problem+json body the API answers errors with.
type problem struct {
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

// do sends one request with client-side rate limiting and retries on 429,
// transient 5xx and network errors, honoring Retry-After when provided.
// Creates are only retried when they carry an idempotency key.
func (c *Client) do(ctx context.Context, method, path, endpoint string, in any, key string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		body = b
	}
	retryable := method != http.MethodPost || key != ""

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		c.headers(req, key, body != nil)

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(service, endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %s %s: %v", domain.ErrTransport, method, path, err)
			if retryable && i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("%w: decode %s %s: %v", domain.ErrMalformedResponse, method, path, err)
			}
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return fmt.Errorf("%s %s: %w", method, path, domain.ErrNotFound)

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return fmt.Errorf("%s %s: %w", method, path, domain.ErrForbidden)

		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return validationError(resp)

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%w: remote %d", domain.ErrTransport, resp.StatusCode)
			if (retryable || resp.StatusCode == http.StatusTooManyRequests) && i < 3 && sleepCtx(ctx, wait) {
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
			return fmt.Errorf("%w: bad status %d: %s", domain.ErrMalformedResponse, resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

func (c *Client) headers(req *http.Request, key string, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "property-submission/1.0")
	req.Header.Set("X-User-ID", c.owner)
	req.Header.Set("X-User-Role", string(c.role))
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func validationError(resp *http.Response) error {
	defer resp.Body.Close()
	var p problem
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&p); err != nil {
		return fmt.Errorf("%w: undecodable %d body: %v", domain.ErrMalformedResponse, resp.StatusCode, err)
	}
	fields := domain.ErrorMap{}
	for k, v := range p.Fields {
		fields[k] = v
	}
	if len(fields) == 0 {
		msg := p.Detail
		if msg == "" {
			msg = p.Title
		}
		fields[domain.GlobalKey] = msg
	}
	return &domain.ValidationError{Fields: fields}
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

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}

// IsRetryable reports whether err is worth retrying on a later trigger.
func IsRetryable(err error) bool {
	return errors.Is(err, domain.ErrTransport)
}
