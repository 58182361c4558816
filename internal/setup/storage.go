package setup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/3Eeeecho/go-testhub/internal/config"
	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/storage"
)

// InitStorage 按配置初始化附件存储服务并确保存储桶存在
func InitStorage(cfg *config.Config) (storage.StorageService, error) {
	storageService, err := storage.NewStorageService(cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化存储服务失败: %w", err)
	}

	var bucketName string
	switch cfg.Storage.Type {
	case "minio":
		bucketName = cfg.MinIO.BucketName
	case "aliyun_oss":
		bucketName = cfg.AliyunOSS.BucketName
	}

	// 为外部调用使用带超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := storageService.IsBucketExist(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶存在性失败: %w", err)
	}

	if !exists {
		logger.Info("存储桶不存在，尝试创建...", zap.String("bucketName", bucketName))
		if err := storageService.MakeBucket(ctx, bucketName); err != nil {
			return nil, fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("存储桶创建成功", zap.String("bucketName", bucketName))
	} else {
		logger.Info("存储桶已存在", zap.String("bucketName", bucketName))
	}

	return storageService, nil
}
