package app

import (
	"fmt"
	"log"

	"github.com/anoixa/image-api/cache"
	"github.com/anoixa/image-api/config"
	"github.com/anoixa/image-api/database"
	"github.com/anoixa/image-api/database/repo/images"
	"github.com/anoixa/image-api/internal/auth"
	"github.com/anoixa/image-api/internal/image"
	"github.com/anoixa/image-api/storage"
	"github.com/anoixa/image-api/utils"
)

// Container 依赖容器，管理所有服务的生命周期
type Container struct {
	config          *config.Config
	databaseFactory *database.Factory
	storage         storage.Provider
	cache           cache.Provider
	jwtService      *auth.JWTService

	ImagesRepo   *images.Repository
	ImageService *image.Service
}

// NewContainer 创建新的依赖容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// Init 依次初始化数据库、存储、缓存和服务
func (c *Container) Init() error {
	if err := c.InitDatabase(); err != nil {
		return err
	}
	if err := c.InitServices(); err != nil {
		return err
	}
	return nil
}

// InitDatabase 初始化数据库与仓库
func (c *Container) InitDatabase() error {
	utils.LogIfDev("Initializing container...")

	factory, err := database.NewFactory(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize database factory: %w", err)
	}
	c.databaseFactory = factory
	c.ImagesRepo = images.NewRepository(factory.GetProvider().DB())

	utils.LogIfDev("Repositories initialized")
	return nil
}

// InitServices 初始化存储、缓存和业务服务
func (c *Container) InitServices() error {
	if c.databaseFactory == nil {
		return fmt.Errorf("database must be initialized before services")
	}

	provider, err := storage.NewFactory(c.config)
	if err != nil {
		return err
	}
	c.storage = provider

	opts := image.Options{
		BaseURL:    c.config.ImageBaseURL(),
		ImagesOnly: c.config.UploadImagesOnly,
	}
	if c.config.CacheEnableListCaching {
		cacheProvider, err := cache.NewFactory(c.config)
		if err != nil {
			return err
		}
		c.cache = cacheProvider
		opts.Cache = cacheProvider
		opts.CacheTTL = c.config.ListCacheTTL()
	}
	c.ImageService = image.NewService(provider, c.ImagesRepo, opts)

	if c.config.AuthEnabled() {
		jwtService, err := auth.NewJWTService(c.config.AuthJWTSecret, c.config.AuthJWTIssuer)
		if err != nil {
			return fmt.Errorf("failed to initialize auth: %w", err)
		}
		c.jwtService = jwtService
		log.Println("[Container] API authentication enabled")
	}

	return nil
}

// GetConfig 获取配置
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetDatabaseFactory 获取数据库工厂
func (c *Container) GetDatabaseFactory() *database.Factory {
	return c.databaseFactory
}

// GetStorage 获取存储提供者
func (c *Container) GetStorage() storage.Provider {
	return c.storage
}

// GetCache 获取缓存提供者，未启用列表缓存时为 nil
func (c *Container) GetCache() cache.Provider {
	return c.cache
}

// GetJWTService 获取 JWT 服务，未启用认证时为 nil
func (c *Container) GetJWTService() *auth.JWTService {
	return c.jwtService
}

// Close 关闭所有服务
func (c *Container) Close() error {
	utils.LogIfDev("Closing container...")

	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			log.Printf("[Container] Error closing cache: %v", err)
		}
	}

	if c.databaseFactory != nil {
		if err := c.databaseFactory.Close(); err != nil {
			log.Printf("[Container] Error closing database factory: %v", err)
		}
	}

	utils.LogIfDev("Container closed")
	return nil
}
