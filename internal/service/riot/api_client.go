package riot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"log/slog"

	"github.com/kapu/tft-coach-go/internal/constants"
	"github.com/kapu/tft-coach-go/pkg/errors"
)

// ResponseCache: GET 응답 캐싱용 인터페이스. cache.Service가 구현한다.
// 클라이언트는 nil 캐시로도 동작한다.
type ResponseCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Requester: Riot API HTTP 요청 수행 인터페이스
type Requester interface {
	DoRequest(ctx context.Context, host, path string, params url.Values) ([]byte, error)
}

// APIClient: Riot API 요청을 처리하는 클라이언트.
// 토큰 버킷 속도 제한, 429/5xx 재시도, 응답 캐싱을 포함한다.
// 모든 엔드포인트가 하나의 limiter를 공유한다. (키 단위 제한이므로)
type APIClient struct {
	httpClient  *http.Client
	apiKey      string
	rateLimiter *rate.Limiter
	cache       ResponseCache
	cacheTTL    time.Duration
	logger      *slog.Logger

	// sleep은 테스트에서 대기를 건너뛰기 위해 주입 가능하다.
	sleep func(time.Duration)

	// baseURL이 설정되면 호스트 라우팅 대신 사용한다. (테스트 전용)
	baseURL string
}

// NewAPIClient: 새로운 Riot API 클라이언트를 생성한다. cache는 nil일 수 있다.
func NewAPIClient(httpClient *http.Client, apiKey string, cache ResponseCache, logger *slog.Logger) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.RiotAPIConfig.Timeout}
	}
	return &APIClient{
		httpClient: httpClient,
		apiKey:     apiKey,
		rateLimiter: rate.NewLimiter(
			rate.Limit(constants.RiotAPIConfig.RequestsPerSecond),
			constants.RiotAPIConfig.Burst,
		),
		cache:    cache,
		cacheTTL: constants.CacheTTL.APIResponse,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

// DoRequest: Riot API에 GET 요청을 보낸다.
// 캐시 히트는 limiter 토큰을 소비하지 않는다. 404는 (nil, nil)로 돌려준다.
func (c *APIClient) DoRequest(ctx context.Context, host, path string, params url.Values) ([]byte, error) {
	reqURL := c.buildRequestURL(host, path, params)

	if cached := c.lookupCache(ctx, reqURL); cached != nil {
		return cached, nil
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	maxAttempts := 1 + constants.RetryConfig.MaxAttempts
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		body, done, err := c.tryRequest(ctx, reqURL, path, attempt, maxAttempts)
		if done {
			if err != nil {
				return nil, err
			}
			if body != nil {
				c.storeCache(ctx, reqURL, body)
			}
			return body, nil
		}
		if err != nil {
			lastErr = err
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.NewTransientError(path, maxAttempts, fmt.Errorf("riot request failed"))
}

func (c *APIClient) buildRequestURL(host, path string, params url.Values) string {
	base := "https://" + host
	if c.baseURL != "" {
		base = c.baseURL
	}
	reqURL := base + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	return reqURL
}

func (c *APIClient) lookupCache(ctx context.Context, key string) []byte {
	if c.cache == nil {
		return nil
	}
	body, err := c.cache.GetBytes(ctx, key)
	if err != nil {
		c.logger.Warn("Response cache lookup failed", slog.Any("error", err))
		return nil
	}
	return body
}

func (c *APIClient) storeCache(ctx context.Context, key string, body []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.SetBytes(ctx, key, body, c.cacheTTL); err != nil {
		c.logger.Warn("Response cache store failed", slog.Any("error", err))
	}
}

// tryRequest: 한 번의 시도를 수행한다. done=false면 재시도한다.
func (c *APIClient) tryRequest(ctx context.Context, reqURL, path string, attempt, maxAttempts int) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, true, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if attempt < maxAttempts-1 {
			delay := c.computeDelay(attempt)
			c.logger.Warn("Request failed, retrying",
				slog.Any("error", err),
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay),
			)
			c.sleep(delay)
			return nil, false, errors.NewTransientError(path, attempt+1, err)
		}
		return nil, true, errors.NewTransientError(path, maxAttempts, err)
	}

	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", readErr)
	}

	return c.processResponse(resp, body, path, attempt, maxAttempts)
}

func (c *APIClient) processResponse(resp *http.Response, body []byte, path string, attempt, maxAttempts int) ([]byte, bool, error) {
	status := resp.StatusCode
	switch {
	case status == http.StatusNotFound:
		// 존재하지 않는 리소스는 오류가 아니다.
		return nil, true, nil

	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		c.logger.Error("Riot API key rejected", slog.Int("status", status), slog.String("path", path))
		return nil, true, errors.NewUnauthorizedError(path, status)

	case status == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		if attempt < maxAttempts-1 {
			c.logger.Warn("Rate limited by Riot API",
				slog.Duration("retry_after", retryAfter),
				slog.Int("attempt", attempt+1),
			)
			c.sleep(retryAfter)
			return nil, false, errors.NewRateLimitError(path, retryAfter, attempt+1)
		}
		return nil, true, errors.NewRateLimitError(path, retryAfter, maxAttempts)

	case status >= 500:
		if attempt < maxAttempts-1 {
			delay := c.computeDelay(attempt)
			c.logger.Warn("Riot API server error, retrying",
				slog.Int("status", status),
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay),
			)
			c.sleep(delay)
			return nil, false, errors.NewTransientError(path, attempt+1, fmt.Errorf("server error: %d", status))
		}
		return nil, true, errors.NewTransientError(path, maxAttempts, fmt.Errorf("server error: %d", status))

	case status >= 400:
		return nil, true, errors.NewAPIError(path, status, fmt.Errorf("client error body: %s", truncate(body, 200)))

	default:
		return body, true, nil
	}
}

// computeDelay: 지수 백오프 지연을 계산한다. (1s, 2s, 4s)
func (c *APIClient) computeDelay(attempt int) time.Duration {
	return constants.RetryConfig.BaseDelay * time.Duration(1<<attempt)
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return constants.RiotAPIConfig.DefaultRetryAfter
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return constants.RiotAPIConfig.DefaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
