package clashapi

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
	"github.com/riskibarqy/clash-tables/internal/platform/resilience"
	"github.com/riskibarqy/clash-tables/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

const (
	defaultBaseURL      = "https://api.clashofclans.com/v1"
	defaultDeveloperURL = "https://developer.clashofclans.com"
	defaultKeyName      = "clash-tables"
	defaultPageSize     = 200
	maxResponseBytes    = 8 << 20
)

var (
	errClashTransient = crerr.New("clash api transient failure")

	ErrNotFound     = crerr.New("clash api: resource not found")
	ErrAccessDenied = crerr.New("clash api: access denied")
	ErrNoCredential = crerr.New("clash api: token or email/password is required")
)

type ClientConfig struct {
	HTTPClient     *fasthttp.Client
	BaseURL        string
	DeveloperURL   string
	Token          string
	Email          string
	Password       string
	KeyName        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client opens sessions against the Clash of Clans API. One breaker and one
// request flight are shared by every session it opens.
type Client struct {
	httpClient   *fasthttp.Client
	baseURL      string
	developerURL string
	token        string
	email        string
	password     string
	keyName      string
	timeout      time.Duration
	retrier      resilience.Retrier
	logger       *logging.Logger
	breaker      *resilience.CircuitBreaker
	flight       resilience.SingleFlight[[]byte]
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("clashapi")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			Name:         "clash-tables",
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	developerURL := strings.TrimRight(strings.TrimSpace(cfg.DeveloperURL), "/")
	if developerURL == "" {
		developerURL = defaultDeveloperURL
	}
	keyName := strings.TrimSpace(cfg.KeyName)
	if keyName == "" {
		keyName = defaultKeyName
	}
	c := &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		developerURL: developerURL,
		token:        strings.TrimSpace(cfg.Token),
		email:        strings.TrimSpace(cfg.Email),
		password:     cfg.Password,
		keyName:      keyName,
		timeout:      timeout,
		logger:       logger,
	}
	breakerCfg := cfg.CircuitBreaker
	breakerCfg.IsFailure = isClashCircuitFailure
	breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
		logger.Warn("clash api circuit breaker state changed", "from", from.String(), "to", to.String())
	}
	c.breaker = breakerCfg.Build()
	c.retrier = resilience.Retrier{
		Retries: max(cfg.MaxRetries, 0),
		Backoff: resilience.LinearBackoff(time.Second),
		Retryable: func(err error) bool {
			return stderrors.Is(err, errClashTransient)
		},
		OnRetry: func(ctx context.Context, attempt int, err error) {
			c.logger.DebugContext(ctx, "retrying clash api request", "attempt", attempt, "error", err)
		},
	}
	return c
}

// Open logs in and returns a session the caller must close. A static token
// wins over developer portal credentials.
func (c *Client) Open(ctx context.Context) (gamedata.OwnedSession, error) {
	token := c.token
	if token == "" {
		if c.email == "" || c.password == "" {
			return nil, ErrNoCredential
		}
		var err error
		token, err = c.portalLogin(ctx)
		if err != nil {
			return nil, fmt.Errorf("developer portal login: %w", err)
		}
	}
	c.logger.InfoContext(ctx, "clash api session opened")
	return &Session{client: c, token: token}, nil
}

func (c *Client) doJSON(ctx context.Context, token, path string, query map[string]string, target any) error {
	fullURL := buildURL(c.baseURL, path, query)
	raw, err := c.get(ctx, token, fullURL)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode clash api payload: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, token, fullURL string) ([]byte, error) {
	raw, err, _ := c.flight.Do(ctx, fullURL, func(ctx context.Context) ([]byte, error) {
		var body []byte
		err := c.breaker.Guard(ctx, func(ctx context.Context) error {
			return c.retrier.Do(ctx, func(ctx context.Context, _ int) error {
				var err error
				body, err = c.execute(ctx, fasthttp.MethodGet, fullURL, bearer(token), nil)
				return err
			})
		})
		return body, err
	})
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "clash api circuit breaker rejected request", "state", c.breaker.State().String(), "error", err)
		return nil, fmt.Errorf("%w: clash api is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}
	if err != nil {
		c.logger.WarnContext(ctx, "clash api request failed", "url", fullURL, "error", err)
		return nil, err
	}
	return raw, nil
}

type header struct {
	key   string
	value string
}

func bearer(token string) header {
	return header{key: "Authorization", value: "Bearer " + token}
}

// execute sends one request. The returned body is a copy owned by the caller.
func (c *Client) execute(ctx context.Context, method, fullURL string, hdr header, body []byte, extra ...header) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	if hdr.key != "" {
		req.Header.Set(hdr.key, hdr.value)
	}
	for _, h := range extra {
		req.Header.Set(h.key, h.value)
	}
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.httpClient.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("%w: send request: %v", errClashTransient, err)
	}

	raw := append([]byte(nil), resp.Body()...)
	if len(raw) > maxResponseBytes {
		return nil, fmt.Errorf("clash api response too large: %d bytes", len(raw))
	}
	status := resp.StatusCode()
	if status >= 200 && status < 300 {
		return raw, nil
	}
	return nil, statusError(status, raw)
}

func statusError(status int, raw []byte) error {
	var payload errorResponse
	_ = sonic.Unmarshal(raw, &payload)
	detail := strings.TrimSpace(payload.Reason + " " + payload.Message)
	if detail == "" {
		detail = abbreviateBody(raw)
	}

	switch {
	case status == fasthttp.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, detail)
	case status == fasthttp.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAccessDenied, detail)
	case isRetryableStatus(status):
		return fmt.Errorf("%w: status=%d %s", errClashTransient, status, detail)
	default:
		return fmt.Errorf("clash api status=%d %s", status, detail)
	}
}

func isRetryableStatus(status int) bool {
	return status == fasthttp.StatusRequestTimeout ||
		status == fasthttp.StatusTooManyRequests ||
		status >= 500
}

func isClashCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errClashTransient) || stderrors.Is(err, resilience.ErrRetriesExhausted)
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(raw))
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}

func buildURL(base, path string, query map[string]string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(base)
	_, _ = buf.WriteString(path)
	if len(query) > 0 {
		values := url.Values{}
		for k, v := range query {
			if v != "" {
				values.Set(k, v)
			}
		}
		if encoded := values.Encode(); encoded != "" {
			_ = buf.WriteByte('?')
			_, _ = buf.WriteString(encoded)
		}
	}
	return buf.String()
}

func tagPath(prefix, tag string) string {
	return prefix + url.PathEscape(gamedata.NormalizeTag(tag))
}

func pageQuery(limit int, after string) map[string]string {
	if limit <= 0 {
		limit = defaultPageSize
	}
	return map[string]string{
		"limit": strconv.Itoa(limit),
		"after": after,
	}
}
