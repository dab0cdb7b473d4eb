// Package httpclient предоставляет единый HTTP-клиент банковского API:
// подставляет токен сессии в запросы и сбрасывает сессию при ответе 401.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mmeshcher/bank-client/internal/apierror"
)

const (
	defaultTimeout         = 10 * time.Second
	defaultBreakerFailures = 5
	breakerOpenTimeout     = 30 * time.Second
)

var errServerStatus = errors.New("server responded with 5xx")

// TokenSource отдаёт токен текущей сессии и сбрасывает её при отказе в доступе.
// *session.Manager удовлетворяет этому интерфейсу.
type TokenSource interface {
	Token(ctx context.Context) string
	Expire(ctx context.Context, reason string)
}

// Config задаёт параметры клиента.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit ограничивает число запросов в секунду; 0 отключает ограничение.
	RateLimit float64
	// BreakerFailures — число подряд идущих сетевых и 5xx ошибок до размыкания; 0 берёт значение по умолчанию.
	BreakerFailures uint32
}

// Client инкапсулирует HTTP-взаимодействие с банковским API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// Request описывает один вызов API.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// JSON кодируется как application/json.
	JSON any
	// Form кодируется как multipart/form-data. Нельзя задавать вместе с JSON.
	Form []Field
	// Public помечает запросы, выполняемые без сессии (вход, регистрация):
	// их 401 не считается истечением сессии.
	Public bool
}

// Response — прочитанный ответ сервера.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// New создаёт клиент по указанному адресу.
func New(cfg Config, tokens TokenSource, logger *zap.Logger) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = timeout

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = defaultBreakerFailures
	}

	c := &Client{
		baseURL:    base,
		httpClient: httpClient,
		tokens:     tokens,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "bank-api",
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// 4xx считается ответом сервера, а не его недоступностью
		IsSuccessful: func(err error) bool {
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c
}

// BaseURL возвращает нормализованный адрес API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do выполняет запрос и возвращает ответ со статусом 2xx.
// Любой другой исход возвращается как *apierror.Error.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	c.authorize(ctx, req)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apierror.Network(fmt.Errorf("wait for rate limiter: %w", err))
	}

	start := time.Now()
	resp, err := c.dispatch(req)
	c.observe(r, resp, start)

	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.Path),
			zap.Error(err),
		)
		return nil, apierror.Network(err)
	}

	c.logger.Debug("request completed",
		zap.String("method", r.Method),
		zap.String("path", r.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode == http.StatusUnauthorized && !r.Public && c.tokens != nil {
		c.tokens.Expire(ctx, fmt.Sprintf("%s %s returned 401", r.Method, r.Path))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, apierror.FromResponse(resp.StatusCode, resp.Body)
	}
	return resp, nil
}

// DoJSON выполняет запрос и декодирует JSON-ответ в out. Пустое тело оставляет out нетронутым.
func (c *Client) DoJSON(ctx context.Context, r Request, out any) error {
	resp, err := c.Do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &apierror.Error{
			Kind:       apierror.KindServer,
			StatusCode: resp.StatusCode,
			Message:    apierror.MsgRequestFailed,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, apierror.Network(errors.New("api base url is not configured"))
	}

	target := c.baseURL + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case r.JSON != nil && r.Form != nil:
		return nil, apierror.Validation("request cannot carry both json and form bodies")
	case r.JSON != nil:
		raw, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, apierror.Validation("encode request: %v", err)
		}
		body, contentType = bytes.NewReader(raw), "application/json"
	case r.Form != nil:
		raw, ct, err := encodeMultipart(r.Form)
		if err != nil {
			return nil, apierror.Validation("encode form: %v", err)
		}
		body, contentType = bytes.NewReader(raw), ct
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, apierror.Network(fmt.Errorf("create request: %w", err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// authorize подставляет Bearer-токен, если сессия есть; без сессии запрос уходит анонимно.
func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if c.tokens == nil {
		return
	}
	if token := c.tokens.Token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) dispatch(req *http.Request) (*Response, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("do request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
		if resp.StatusCode >= http.StatusInternalServerError {
			return out, errServerStatus
		}
		return out, nil
	})

	resp, _ := result.(*Response)
	if errors.Is(err, errServerStatus) && resp != nil {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) observe(r Request, resp *Response, start time.Time) {
	status := "network_error"
	if resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	endpoint := metricEndpoint(r.Path)
	requestsTotal.WithLabelValues(r.Method, endpoint, status).Inc()
	requestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
}
