package storage

import (
	"fmt"
	"log"

	"github.com/anoixa/image-api/config"
)

// NewFactory 根据配置创建存储提供者
func NewFactory(cfg *config.Config) (Provider, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = "local"
	}

	log.Printf("[Storage] Initializing storage, type: %s", storageType)

	var (
		provider Provider
		err      error
	)
	switch storageType {
	case "local":
		provider, err = NewLocalStorage(cfg.StorageLocalPath)
	case "minio":
		provider, err = NewMinioStorage(MinioConfig{
			Endpoint:        cfg.StorageMinioEndpoint,
			AccessKeyID:     cfg.StorageMinioAccessKeyID,
			SecretAccessKey: cfg.StorageMinioSecretAccessKey,
			BucketName:      cfg.StorageMinioBucket,
			UseSSL:          cfg.StorageMinioUseSSL,
		})
	case "webdav":
		provider, err = NewWebDAVStorage(WebDAVConfig{
			URL:      cfg.StorageWebDAVURL,
			Username: cfg.StorageWebDAVUsername,
			Password: cfg.StorageWebDAVPassword,
			RootPath: cfg.StorageWebDAVRootPath,
			Timeout:  cfg.StorageWebDAVTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", storageType, err)
	}

	log.Printf("[Storage] Successfully initialized '%s' storage provider", provider.Name())
	return provider, nil
}
