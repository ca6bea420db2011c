package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/kapu/tft-coach-go/internal/config"
	"github.com/kapu/tft-coach-go/internal/constants"
	"github.com/kapu/tft-coach-go/internal/health"
	"github.com/kapu/tft-coach-go/internal/server"
)

// ProvideAPIRouter: 코칭 API를 서빙하는 Gin 라우터를 설정합니다.
// cron/sync 트리거는 bcrypt 해시된 시크릿으로 보호되고, 조회 경로는 공개다.
func ProvideAPIRouter(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	apiHandler *server.APIHandler,
) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	if err := router.SetTrustedProxies(constants.ServerConfig.TrustedProxies); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	router.Use(gin.Recovery())
	router.Use(server.LoggerMiddleware(ctx, logger, "/health"))
	router.Use(cors.New(newAPICORSConfig(cfg)))
	router.Use(server.SecurityHeadersMiddleware())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Health check 엔드포인트 (버전/uptime 포함)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, health.Get())
	})

	registerAPIRoutes(router, cfg, apiHandler)

	if cfg.Server.CronSecretHash == "" {
		logger.Warn("cron_auth_disabled", slog.String("reason", "CRON_SECRET_HASH not set"))
	}

	return router, nil
}

func newAPICORSConfig(cfg *config.Config) cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = constants.CORSConfig.AllowMethods
	corsConfig.AllowHeaders = constants.CORSConfig.AllowHeaders
	return corsConfig
}

func registerAPIRoutes(router *gin.Engine, cfg *config.Config, apiHandler *server.APIHandler) {
	api := router.Group("/api")

	// 조회 API (공개)
	api.GET("/report/:puuid", apiHandler.GetPlayerReport)
	api.GET("/meta/comps", apiHandler.GetMetaComps)
	api.GET("/meta/snapshots", apiHandler.GetMetaSnapshot)

	// 수집 트리거 (cron 시크릿 인증)
	protected := api.Group("")
	protected.Use(server.CronAuthMiddleware(cfg.Server.CronSecretHash, server.NewAuthRateLimiter()))
	protected.GET("/cron", apiHandler.TriggerCron)
	protected.POST("/sync", apiHandler.SyncPlayer)
}
