package procare

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"daycaresync/pkg/errors"
	"daycaresync/pkg/logger"
	"daycaresync/pkg/ratelimit"
)

// Client is a bearer-authenticated HTTP client for the provider API. The
// token is explicit construction-time state; it is attached to every request
// and never refreshed mid-run.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// Options configures a Client
type Options struct {
	BaseURL   string
	Token     string
	UserAgent string
	Timeout   time.Duration
	Limiter   ratelimit.Limiter
	Logger    logger.Logger
}

// NewClient creates a provider API client. The header set mirrors what the
// web frontend sends; the provider rejects requests without a plausible
// Origin/Referer pair.
func NewClient(opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	headers := map[string]string{
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "en-US,en;q=0.5",
		"Authorization":   "Bearer " + opts.Token,
		"Cache-Control":   "no-cache",
		"Origin":          "https://schools.procareconnect.com",
		"Referer":         "https://schools.procareconnect.com/",
	}
	if opts.UserAgent != "" {
		headers["User-Agent"] = opts.UserAgent
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		headers:    headers,
		baseURL:    opts.BaseURL,
		limiter:    opts.Limiter,
		logger:     opts.Logger,
	}
}

// BaseURL returns the configured API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetHeader sets a custom header for all subsequent requests
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// doRequest performs a GET with the configured headers, pacing through the
// rate limiter when one is set.
func (c *Client) doRequest(ctx context.Context, url string) (*http.Response, error) {
	if c.limiter != nil {
		c.limiter.Wait()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown, "failed to create request: %v", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.New(errors.ErrorTypeNetwork, "request failed: %v", err)
	}

	c.logger.DebugWithFields("request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// getJSON performs a GET and decodes the JSON response into target
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	resp, err := c.doRequest(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewWithCode(errors.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return errors.NewWithCode(errors.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}

	return nil
}

// Download fetches raw media bytes from the given URL. Media URLs point at
// the provider's CDN, not the API host: the request carries no bearer token
// and none of the browser-like API headers, only the User-Agent. Presigned
// CDN URLs reject requests with a stray Authorization header.
func (c *Client) Download(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown, "failed to create request: %v", err)
	}
	if ua := c.headers["User-Agent"]; ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("media request failed", map[string]interface{}{
			"url":      mediaURL,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.New(errors.ErrorTypeNetwork, "request failed: %v", err)
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeNetwork, "failed to read media body: %v", err)
	}

	c.logger.DebugWithFields("media downloaded", map[string]interface{}{
		"url":  mediaURL,
		"size": len(data),
	})

	return data, nil
}

// checkResponseStatus maps HTTP statuses onto the pipeline error taxonomy
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.WarnWithFields("request rejected", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errors.NewWithCode(errors.ErrorTypeAuth, resp.StatusCode, "bearer token rejected")
	case resp.StatusCode == http.StatusNotFound:
		return errors.NewWithCode(errors.ErrorTypeNotFound, resp.StatusCode, "resource not found")
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.NewWithCode(errors.ErrorTypeRateLimit, resp.StatusCode, "rate limit exceeded")
	case resp.StatusCode >= 500:
		return errors.NewWithCode(errors.ErrorTypeServerError, resp.StatusCode, "server error")
	case resp.StatusCode >= 400:
		return errors.NewWithCode(errors.ErrorTypeUnknown, resp.StatusCode, "unexpected status code: %d", resp.StatusCode)
	default:
		return nil
	}
}
