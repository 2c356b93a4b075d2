// Package pharos implements the PointsClient port against the Pharos points
// API. A wallet fetch issues the profile and tasks calls concurrently and
// requires both to succeed. The attempt state machine routes the first
// attempt through a rotating outbound proxy with a long timeout and retries
// once over a direct connection with a shorter one; terminal failure is a
// typed error, never a panic past this boundary.
package pharos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/avzcrypto/pharos-stats/internal/domain/entity"
	"github.com/avzcrypto/pharos-stats/internal/pkg/retry"
	"github.com/avzcrypto/pharos-stats/internal/ports/outbound"
)

// Compile-time check that Client implements outbound.PointsClient.
var _ outbound.PointsClient = (*Client)(nil)

// maxResponseBytes caps how much of an upstream response body is read.
const maxResponseBytes = 1 << 20

// ClientConfig holds configuration for the points API client.
type ClientConfig struct {
	// BaseURL is the points API base URL.
	BaseURL string

	// BearerToken authenticates upstream requests.
	BearerToken string

	// Origin, Referer and UserAgent are sent on every request; the upstream
	// rejects calls without browser-shaped headers.
	Origin    string
	Referer   string
	UserAgent string

	// ProxyTimeout bounds each call on the proxied first attempt.
	ProxyTimeout time.Duration

	// DirectTimeout bounds each call on the direct second attempt.
	DirectTimeout time.Duration

	// RateLimitPerMin is the rate limit in requests per minute.
	RateLimitPerMin int

	// Proxies supplies outbound proxies for the first attempt. Optional;
	// with no pool the first attempt goes direct with the long timeout.
	Proxies outbound.ProxySource

	// Logger is the structured logger for the client.
	Logger *slog.Logger

	// Metrics records per-attempt outcomes.
	Metrics outbound.MetricsRecorder
}

// ClientConfigDefaults returns a config with default values.
func ClientConfigDefaults() ClientConfig {
	return ClientConfig{
		BaseURL:         "https://api.pharosnetwork.xyz",
		Origin:          "https://testnet.pharosnetwork.xyz",
		Referer:         "https://testnet.pharosnetwork.xyz/",
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		ProxyTimeout:    15 * time.Second,
		DirectTimeout:   12 * time.Second,
		RateLimitPerMin: 300,
	}
}

func applyClientDefaults(config *ClientConfig) {
	defaults := ClientConfigDefaults()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Origin == "" {
		config.Origin = defaults.Origin
	}
	if config.Referer == "" {
		config.Referer = defaults.Referer
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	if config.ProxyTimeout == 0 {
		config.ProxyTimeout = defaults.ProxyTimeout
	}
	if config.DirectTimeout == 0 {
		config.DirectTimeout = defaults.DirectTimeout
	}
	if config.RateLimitPerMin == 0 {
		config.RateLimitPerMin = defaults.RateLimitPerMin
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Metrics == nil {
		config.Metrics = outbound.NoopMetrics{}
	}
}

// Client implements PointsClient against the Pharos points API.
type Client struct {
	config        ClientConfig
	baseTransport *http.Transport
	logger        *slog.Logger
	limiter       *rate.Limiter
	metrics       outbound.MetricsRecorder
}

// NewClient creates a new points API client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BearerToken == "" {
		return nil, errors.New("BearerToken is required")
	}
	applyClientDefaults(&config)

	rps := float64(config.RateLimitPerMin) / 60.0

	return &Client{
		config:        config,
		baseTransport: http.DefaultTransport.(*http.Transport).Clone(),
		logger:        config.Logger.With("component", "pharos-client"),
		limiter:       rate.NewLimiter(rate.Limit(rps), 2),
		metrics:       config.Metrics,
	}, nil
}

type fetchResult struct {
	profile *entity.UserProfile
	tasks   []entity.TaskCompletion
}

// FetchWallet fetches the wallet's profile and task data. Attempt 1 is
// proxied with the long timeout; any failure is retried once over a direct
// connection with the shorter timeout. Connection-class and other failures
// are distinguished only for observability; both advance the state machine.
func (c *Client) FetchWallet(ctx context.Context, address string) (*entity.UserProfile, []entity.TaskCompletion, error) {
	isRetryable := func(err error) bool {
		return !errors.Is(err, context.Canceled)
	}
	onRetry := func(attempt int, err error) {
		c.logger.Warn("upstream attempt failed, falling back to direct connection",
			"address", address,
			"error", err,
		)
	}

	result, err := retry.Do(ctx, retry.Config{MaxRetries: 1}, isRetryable, onRetry, func(attempt int) (fetchResult, error) {
		httpc, timeout, transport := c.transportForAttempt(attempt)
		profile, tasks, err := c.fetchOnce(ctx, httpc, timeout, address)

		status := "ok"
		if err != nil {
			status = "error"
			if isConnectionError(err) {
				status = "connection"
			}
		}
		c.metrics.RecordUpstreamAttempt(ctx, transport, status)

		if err != nil {
			return fetchResult{}, err
		}
		return fetchResult{profile: profile, tasks: tasks}, nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", outbound.ErrUpstreamUnavailable, err)
	}
	return result.profile, result.tasks, nil
}

// transportForAttempt picks the HTTP client for an attempt: proxied with the
// long timeout first (when a proxy is available), direct with the shorter
// timeout on the retry.
func (c *Client) transportForAttempt(attempt int) (*http.Client, time.Duration, string) {
	timeout := c.config.DirectTimeout
	transport := "direct"

	tr := c.baseTransport
	if attempt == 0 {
		timeout = c.config.ProxyTimeout
		if c.config.Proxies != nil {
			if proxy := c.config.Proxies.Next(); proxy != nil {
				proxied := c.baseTransport.Clone()
				proxied.Proxy = http.ProxyURL(proxy)
				tr = proxied
				transport = "proxy"
			}
		}
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, timeout, transport
}

// fetchOnce runs one attempt: both calls concurrently, both must succeed.
func (c *Client) fetchOnce(ctx context.Context, httpc *http.Client, timeout time.Duration, address string) (*entity.UserProfile, []entity.TaskCompletion, error) {
	// Bounded overall wait per attempt so a stalled call can never block
	// the request indefinitely.
	attemptCtx, cancel := context.WithTimeout(ctx, timeout+5*time.Second)
	defer cancel()

	var profileWire profilePayload
	var tasksWire tasksPayload

	g, gctx := errgroup.WithContext(attemptCtx)
	g.Go(func() error {
		return c.getJSON(gctx, httpc, "/user/profile", address, &profileWire)
	})
	g.Go(func() error {
		return c.getJSON(gctx, httpc, "/user/tasks", address, &tasksWire)
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return profileWire.toProfile(), tasksWire.toTasks(c.logger), nil
}

func (c *Client) getJSON(ctx context.Context, httpc *http.Client, path, address string, target any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{"address": {address}}
	fullURL := fmt.Sprintf("%s%s?%s", c.config.BaseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Authorization", "Bearer "+c.config.BearerToken)
	req.Header.Set("Origin", c.config.Origin)
	req.Header.Set("Referer", c.config.Referer)
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := httpc.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reading %s response: %w", path, err)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("parsing %s response: %w", path, err)
	}
	if envelope.Code != 0 {
		return fmt.Errorf("upstream error code %d from %s", envelope.Code, path)
	}
	// A success envelope may omit the data payload for wallets the upstream
	// has never seen; the zero-valued wire struct stands in for it.
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		return fmt.Errorf("parsing %s data: %w", path, err)
	}
	return nil
}

// isConnectionError reports whether err is a connection-class failure
// (proxy error, connect timeout, connection refused) as opposed to an
// application-level one.
func isConnectionError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, context.DeadlineExceeded)
}
