package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/3Eeeecho/go-testhub/internal/models"
	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/mq"
	"github.com/3Eeeecho/go-testhub/internal/pkg/storage"
	"github.com/3Eeeecho/go-testhub/internal/repositories"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CleanupWorker 消费附件清理任务:删除对象存储中的文件并物理删除记录
type CleanupWorker struct {
	mqClient       *mq.RabbitMQClient
	attachmentRepo repositories.AttachmentRepository
	tm             repositories.TransactionManager
	storageService storage.StorageService
}

func NewCleanupWorker(
	mqClient *mq.RabbitMQClient,
	attachmentRepo repositories.AttachmentRepository,
	tm repositories.TransactionManager,
	storageService storage.StorageService,
) *CleanupWorker {
	return &CleanupWorker{
		mqClient:       mqClient,
		attachmentRepo: attachmentRepo,
		tm:             tm,
		storageService: storageService,
	}
}

func (w *CleanupWorker) Start() {
	_, err := w.mqClient.DeclareQueue(mq.DeleteAttachmentQueueName)
	if err != nil {
		log.Fatalf("Failed to declare queue: %s", err)
	}
	err = w.mqClient.Consume(mq.DeleteAttachmentQueueName, w.HandleDeleteAttachment)
	if err != nil {
		log.Fatalf("Failed to start consuming from queue: %s", err)
	}

	log.Println("Cleanup worker started...")
}

func (w *CleanupWorker) HandleDeleteAttachment(msg amqp.Delivery) {
	var task models.DeleteAttachmentTask
	if err := json.Unmarshal(msg.Body, &task); err != nil {
		logger.Error("Failed to unmarshal cleanup task", zap.Error(err))
		_ = msg.Nack(false, false) // 解析失败,直接抛弃
		return
	}

	logger.Info("Received attachment cleanup task", zap.Uint64("AttachmentID", task.AttachmentID))

	ctx := context.Background()

	// 先删对象,再删记录:对象删除失败时记录仍在,任务可重试
	if err := w.storageService.RemoveObject(ctx, task.OssBucket, task.OssKey); err != nil {
		logger.Error("Failed to delete attachment from storage",
			zap.String("OssKey", task.OssKey),
			zap.Error(err))
		_ = msg.Nack(false, true) // 重新入队
		return
	}

	err := w.tm.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := w.attachmentRepo.PermanentDelete(tx, task.AttachmentID); err != nil {
			return fmt.Errorf("failed to delete attachment record: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Info("Attachment record already gone", zap.Uint64("AttachmentID", task.AttachmentID))
			_ = msg.Ack(false)
			return
		}
		logger.Error("Failed to delete attachment record in transaction",
			zap.Uint64("AttachmentID", task.AttachmentID),
			zap.Error(err))
		_ = msg.Nack(false, true) // 数据库错误,重新入队
		return
	}

	logger.Info("Successfully processed attachment cleanup task",
		zap.Uint64("AttachmentID", task.AttachmentID))
	_ = msg.Ack(false)
}
