package core

import (
	"net/http"
	"time"

	"github.com/anoixa/image-api/api/common"
	handlerImages "github.com/anoixa/image-api/api/handler/images"
	"github.com/anoixa/image-api/api/middleware"
	"github.com/anoixa/image-api/cache"
	"github.com/anoixa/image-api/config"
	"github.com/anoixa/image-api/database"
	"github.com/anoixa/image-api/internal/auth"
	"github.com/anoixa/image-api/internal/image"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterDependencies 路由注册依赖
type RouterDependencies struct {
	Config           *config.Config
	DB               database.Provider
	ImageService     *image.Service
	CacheProvider    cache.Provider
	JWTService       *auth.JWTService
	APIRateLimiter   *middleware.IPRateLimiter
	ImageRateLimiter *middleware.IPRateLimiter
}

// NewRouter 创建 gin 引擎并注册全部路由
func NewRouter(deps *RouterDependencies) *gin.Engine {
	cfg := deps.Config
	router := gin.New()

	if config.IsDevelopment() {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.BaseURL()},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	_ = router.SetTrustedProxies(nil)

	router.MaxMultipartMemory = int64(cfg.UploadMaxSizeMB) << 20

	router.Use(middleware.NewConcurrencyLimiter(100).Middleware())

	// 请求体上限为批量上传总限制的 2 倍，最小 100MB
	requestBodyLimit := int64(cfg.UploadMaxBatchTotalMB) * 2 << 20
	if requestBodyLimit < 100<<20 {
		requestBodyLimit = 100 << 20
	}
	router.Use(middleware.MaxBytesReader(requestBodyLimit))
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())

	RegisterRoutes(router, deps)
	return router
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(router *gin.Engine, deps *RouterDependencies) {
	imageHandler := handlerImages.NewHandler(deps.ImageService, handlerImages.LimitsFromConfig(deps.Config))

	registerBasicRoutes(router, deps)
	registerPublicRoutes(router, deps, imageHandler)
	registerAPIRoutes(router, deps, imageHandler)
}

// registerBasicRoutes 注册运维路由
func registerBasicRoutes(router *gin.Engine, deps *RouterDependencies) {
	healthHandler := NewHealthHandler(deps.DB, deps.ImageService, deps.CacheProvider)
	router.GET("/health", healthHandler.Handle)

	router.GET("/version", func(context *gin.Context) {
		common.RespondSuccess(context, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})

	router.GET("/metrics", func(context *gin.Context) {
		context.JSON(http.StatusOK, middleware.GetMetrics())
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// registerPublicRoutes 注册公开图片访问路由
func registerPublicRoutes(router *gin.Engine, deps *RouterDependencies, h *handlerImages.Handler) {
	publicGroup := router.Group("/images")
	if deps.ImageRateLimiter != nil {
		publicGroup.Use(deps.ImageRateLimiter.Middleware())
	}
	{
		publicGroup.GET("/:folder/:ownerId/:filename", h.GetImageFile) // GET /images/{folder}/{ownerId}/{filename}
	}
}

// registerAPIRoutes 注册图片管理 API
func registerAPIRoutes(router *gin.Engine, deps *RouterDependencies, h *handlerImages.Handler) {
	apiGroup := router.Group("/api")
	apiGroup.Use(func(context *gin.Context) {
		context.Header("Cache-Control", "no-store")
		context.Next()
	})

	v1 := apiGroup.Group("/v1")
	if deps.APIRateLimiter != nil {
		v1.Use(deps.APIRateLimiter.Middleware())
	}
	v1.Use(middleware.BearerAuth(deps.JWTService))
	{
		imagesGroup := v1.Group("/images")
		{
			imagesGroup.POST("", h.UploadImages)                           // POST /api/v1/images
			imagesGroup.PUT("", h.UpdateImages)                            // PUT /api/v1/images
			imagesGroup.GET("", h.ListImages)                              // GET /api/v1/images?ownerId=&type=
			imagesGroup.DELETE("/all/:ownerId/:type", h.DeleteAllImages)   // DELETE /api/v1/images/all/{ownerId}/{type}
			imagesGroup.DELETE("/:filename/:ownerId/:type", h.DeleteImage) // DELETE /api/v1/images/{filename}/{ownerId}/{type}
		}
	}
}
