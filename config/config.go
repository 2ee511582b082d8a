package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	globalConfig Config
	once         sync.Once
)

// Config 扁平化配置结构体
type Config struct {
	// 服务器配置
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port"`
	ServerDomain       string        `mapstructure:"server_domain"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`

	// 图片公开访问前缀，为空时使用 BaseURL() + "/images"
	PublicBaseURL string `mapstructure:"public_base_url"`

	// 数据库配置
	DBType            string `mapstructure:"db_type"`
	DBHost            string `mapstructure:"db_host"`
	DBPort            int    `mapstructure:"db_port"`
	DBUsername        string `mapstructure:"db_username"`
	DBPassword        string `mapstructure:"db_password"`
	DBName            string `mapstructure:"db_name"`
	DBFilePath        string `mapstructure:"db_file_path"`
	DBMaxOpenConns    int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime int    `mapstructure:"db_conn_max_lifetime"`

	// 存储配置
	StorageType      string `mapstructure:"storage_type"`
	StorageLocalPath string `mapstructure:"storage_local_path"`

	StorageMinioEndpoint        string `mapstructure:"storage_minio_endpoint"`
	StorageMinioAccessKeyID     string `mapstructure:"storage_minio_access_key_id"`
	StorageMinioSecretAccessKey string `mapstructure:"storage_minio_secret_access_key"`
	StorageMinioBucket          string `mapstructure:"storage_minio_bucket"`
	StorageMinioUseSSL          bool   `mapstructure:"storage_minio_use_ssl"`

	StorageWebDAVURL      string        `mapstructure:"storage_webdav_url"`
	StorageWebDAVUsername string        `mapstructure:"storage_webdav_username"`
	StorageWebDAVPassword string        `mapstructure:"storage_webdav_password"`
	StorageWebDAVRootPath string        `mapstructure:"storage_webdav_root_path"`
	StorageWebDAVTimeout  time.Duration `mapstructure:"storage_webdav_timeout"`

	// 缓存提供者配置
	CacheType              string `mapstructure:"cache_type"`
	CacheRedisAddr         string `mapstructure:"cache_redis_addr"`
	CacheRedisPassword     string `mapstructure:"cache_redis_password"`
	CacheRedisDB           int    `mapstructure:"cache_redis_db"`
	CacheEnableListCaching bool   `mapstructure:"cache_enable_list_caching"`
	CacheListTTL           int    `mapstructure:"cache_list_ttl"`

	// 限流配置
	RateLimitApiRPS     float64       `mapstructure:"rate_limit_api_rps"`
	RateLimitApiBurst   int           `mapstructure:"rate_limit_api_burst"`
	RateLimitImageRPS   float64       `mapstructure:"rate_limit_image_rps"`
	RateLimitImageBurst int           `mapstructure:"rate_limit_image_burst"`
	RateLimitExpireTime time.Duration `mapstructure:"rate_limit_expire_time"`

	// 上传配置
	UploadMaxSizeMB       int  `mapstructure:"upload_max_size_mb"`
	UploadMaxBatchTotalMB int  `mapstructure:"upload_max_batch_total_mb"`
	UploadMaxFiles        int  `mapstructure:"upload_max_files"`
	UploadImagesOnly      bool `mapstructure:"upload_images_only"`

	// 认证配置，secret 为空时不启用认证
	AuthJWTSecret string `mapstructure:"auth_jwt_secret"`
	AuthJWTIssuer string `mapstructure:"auth_jwt_issuer"`

	// 孤儿扫描配置
	OrphanScanInterval time.Duration `mapstructure:"orphan_scan_interval"`
	OrphanScanRepair   bool          `mapstructure:"orphan_scan_repair"`
}

// InitConfig Initialize configuration
func InitConfig() {
	once.Do(func() {
		loadConfig()
	})
}

func Get() *Config {
	return &globalConfig
}

// loadConfig Core configuration loading
func loadConfig() {
	setDefaults()

	configFile := viper.GetString("config_file_path")
	if configFile == "" {
		configFile = ".env"
		viper.SetConfigType("env")
	}
	viper.SetConfigFile(configFile)

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Info: %s not found, using defaults and environment variables\n", configFile)
	} else {
		fmt.Fprintf(os.Stderr, "Info: Loaded configuration from %s\n", configFile)
	}

	viper.AutomaticEnv()
	for _, key := range viper.AllKeys() {
		_ = viper.BindEnv(key)
	}

	if err := viper.Unmarshal(&globalConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: Unable to unmarshal config, %v\n", err)
		os.Exit(1)
	}
}

// setDefaults 设置默认值
func setDefaults() {
	// 服务器配置默认值
	viper.SetDefault("server_host", "127.0.0.1")
	viper.SetDefault("server_port", 8080)
	viper.SetDefault("server_domain", "")
	viper.SetDefault("server_read_timeout", "15s")
	viper.SetDefault("server_write_timeout", "30s")
	viper.SetDefault("server_idle_timeout", "120s")
	viper.SetDefault("public_base_url", "")

	// 数据库配置默认值
	viper.SetDefault("db_type", "sqlite")
	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", 5432)
	viper.SetDefault("db_username", "postgres")
	viper.SetDefault("db_password", "")
	viper.SetDefault("db_name", "image-api")
	viper.SetDefault("db_file_path", "")
	viper.SetDefault("db_max_open_conns", 100)
	viper.SetDefault("db_max_idle_conns", 25)
	viper.SetDefault("db_conn_max_lifetime", 3600)

	// 存储配置默认值
	viper.SetDefault("storage_type", "local")
	viper.SetDefault("storage_local_path", "./uploads")
	viper.SetDefault("storage_minio_endpoint", "")
	viper.SetDefault("storage_minio_access_key_id", "")
	viper.SetDefault("storage_minio_secret_access_key", "")
	viper.SetDefault("storage_minio_bucket", "images")
	viper.SetDefault("storage_minio_use_ssl", false)
	viper.SetDefault("storage_webdav_url", "")
	viper.SetDefault("storage_webdav_username", "")
	viper.SetDefault("storage_webdav_password", "")
	viper.SetDefault("storage_webdav_root_path", "")
	viper.SetDefault("storage_webdav_timeout", "30s")

	// 缓存提供者配置默认值
	viper.SetDefault("cache_type", "memory")
	viper.SetDefault("cache_redis_addr", "localhost:6379")
	viper.SetDefault("cache_redis_password", "")
	viper.SetDefault("cache_redis_db", 0)
	viper.SetDefault("cache_enable_list_caching", false)
	viper.SetDefault("cache_list_ttl", 300)

	// 限流配置默认值
	viper.SetDefault("rate_limit_api_rps", 30.0)
	viper.SetDefault("rate_limit_api_burst", 60)
	viper.SetDefault("rate_limit_image_rps", 100.0)
	viper.SetDefault("rate_limit_image_burst", 200)
	viper.SetDefault("rate_limit_expire_time", "10m")

	// 上传配置默认值
	viper.SetDefault("upload_max_size_mb", 50)
	viper.SetDefault("upload_max_batch_total_mb", 500)
	viper.SetDefault("upload_max_files", 20)
	viper.SetDefault("upload_images_only", true)

	// 认证配置默认值
	viper.SetDefault("auth_jwt_secret", "")
	viper.SetDefault("auth_jwt_issuer", "image-api")

	// 孤儿扫描默认关闭
	viper.SetDefault("orphan_scan_interval", "0s")
	viper.SetDefault("orphan_scan_repair", false)
}

// Addr 返回监听地址，格式为 "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// BaseURL 返回服务基础 URL
func (c *Config) BaseURL() string {
	if c.ServerDomain != "" {
		return strings.TrimRight(c.ServerDomain, "/")
	}
	// 默认使用 localhost
	host := c.ServerHost
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

// ImageBaseURL 返回图片公开访问前缀，用于生成 file_url
func (c *Config) ImageBaseURL() string {
	if c.PublicBaseURL != "" {
		return strings.TrimRight(c.PublicBaseURL, "/")
	}
	return c.BaseURL() + "/images"
}

// ListCacheTTL 返回列表缓存过期时间
func (c *Config) ListCacheTTL() time.Duration {
	if c.CacheListTTL <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.CacheListTTL) * time.Second
}

// AuthEnabled 是否启用 API 认证
func (c *Config) AuthEnabled() bool {
	return c.AuthJWTSecret != ""
}
