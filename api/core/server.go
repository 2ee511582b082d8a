package core

import (
	"net/http"

	"github.com/anoixa/image-api/api/middleware"
	"github.com/anoixa/image-api/internal/app"
)

// StartServer 根据容器创建 http.Server，返回的 cleanup 用于停止限流器
func StartServer(container *app.Container) (*http.Server, func()) {
	cfg := container.GetConfig()

	apiRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	imageRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitImageRPS, cfg.RateLimitImageBurst, cfg.RateLimitExpireTime)
	cleanup := func() {
		apiRateLimiter.StopCleanup()
		imageRateLimiter.StopCleanup()
	}

	router := NewRouter(&RouterDependencies{
		Config:           cfg,
		DB:               container.GetDatabaseFactory().GetProvider(),
		ImageService:     container.ImageService,
		CacheProvider:    container.GetCache(),
		JWTService:       container.GetJWTService(),
		APIRateLimiter:   apiRateLimiter,
		ImageRateLimiter: imageRateLimiter,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, cleanup
}
