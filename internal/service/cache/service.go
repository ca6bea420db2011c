package cache

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valkey-io/valkey-go"

	"log/slog"

	"github.com/kapu/tft-coach-go/internal/constants"
	"github.com/kapu/tft-coach-go/pkg/errors"
)

// Service: Valkey(Redis) 클라이언트를 래핑한 캐시 서비스.
// Riot API 응답 캐싱과 보고서 캐싱에 사용한다.
type Service struct {
	client    valkey.Client
	logger    *slog.Logger
	closeOnce sync.Once
}

// Config: Valkey 연결 설정을 담는 구조체
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewCacheService: 새로운 Valkey 캐시 서비스 인스턴스를 생성하고 연결을 수립한다.
func NewCacheService(cfg Config, logger *slog.Logger) (*Service, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:       []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Password:          cfg.Password,
		SelectDB:          cfg.DB,
		ConnWriteTimeout:  constants.ValkeyConfig.ConnWriteTimeout,
		BlockingPoolSize:  constants.ValkeyConfig.BlockingPoolSize,
		PipelineMultiplex: constants.ValkeyConfig.PipelineMultiplex,
		Dialer:            net.Dialer{Timeout: constants.ValkeyConfig.DialTimeout},
	})
	if err != nil {
		return nil, errors.NewCacheError("init", "", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.ValkeyConfig.ReadyTimeout)
	defer cancel()

	// Ping 테스트
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, errors.NewCacheError("ping", "", err)
	}

	logger.Info("Cache store connected",
		slog.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		slog.Int("db", cfg.DB),
	)

	return &Service{
		client: client,
		logger: logger,
	}, nil
}

// GetBytes: 키에 해당하는 원본 바이트를 돌려준다. 미스는 (nil, nil)이다.
func (c *Service) GetBytes(ctx context.Context, key string) ([]byte, error) {
	resp := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if valkey.IsValkeyNil(resp.Error()) {
		return nil, nil
	}
	if resp.Error() != nil {
		c.logger.Error("Cache get operation failed", slog.String("key", key), slog.Any("error", resp.Error()))
		return nil, errors.NewCacheError("get", key, resp.Error())
	}

	value, err := resp.AsBytes()
	if err != nil {
		return nil, errors.NewCacheError("get", key, err)
	}
	return value, nil
}

// SetBytes: 원본 바이트를 TTL과 함께 저장한다.
func (c *Service) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var cmd valkey.Completed
	if ttl > 0 {
		cmd = c.client.B().Set().Key(key).Value(string(value)).ExSeconds(int64(ttl.Seconds())).Build()
	} else {
		cmd = c.client.B().Set().Key(key).Value(string(value)).Build()
	}

	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		c.logger.Error("Cache set failed", slog.String("key", key), slog.Any("error", err))
		return errors.NewCacheError("set", key, err)
	}
	return nil
}

// Get: 키에 해당하는 값을 조회하여 dest에 언마샬링한다. 미스는 (false, nil)이다.
func (c *Service) Get(ctx context.Context, key string, dest any) (bool, error) {
	value, err := c.GetBytes(ctx, key)
	if err != nil || value == nil {
		return false, err
	}
	if dest != nil {
		if err := json.Unmarshal(value, dest); err != nil {
			c.logger.Error("Cache value unmarshal failed", slog.String("key", key), slog.Any("error", err))
			return false, errors.NewCacheError("get", key, err)
		}
	}
	return true, nil
}

// Set: 값을 JSON으로 직렬화하여 TTL과 함께 저장한다.
func (c *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("set", key, err)
	}
	return c.SetBytes(ctx, key, jsonData, ttl)
}

// Del: 키를 삭제한다.
func (c *Service) Del(ctx context.Context, key string) error {
	if err := c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error(); err != nil {
		return errors.NewCacheError("del", key, err)
	}
	return nil
}

// Exists: 키 존재 여부를 확인한다.
func (c *Service) Exists(ctx context.Context, key string) (bool, error) {
	resp := c.client.Do(ctx, c.client.B().Exists().Key(key).Build())
	if resp.Error() != nil {
		return false, errors.NewCacheError("exists", key, resp.Error())
	}
	count, err := resp.AsInt64()
	if err != nil {
		return false, errors.NewCacheError("exists", key, err)
	}
	return count > 0, nil
}

// Close: 클라이언트 연결을 닫는다. 여러 번 호출해도 안전하다.
func (c *Service) Close() error {
	c.closeOnce.Do(func() {
		if c.client == nil {
			return
		}
		c.client.Close()
		c.logger.Info("Cache store disconnected")
	})
	return nil
}

// IsConnected: 연결 상태를 Ping으로 확인한다.
func (c *Service) IsConnected(ctx context.Context) bool {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error() == nil
}

// WaitUntilReady: 캐시 서버가 응답할 때까지 대기한다.
func (c *Service) WaitUntilReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for cache store to be ready")
		case <-ticker.C:
			if c.IsConnected(ctx) {
				return nil
			}
		}
	}
}
