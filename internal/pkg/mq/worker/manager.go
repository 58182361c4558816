package worker

import (
	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/mq"
	"github.com/3Eeeecho/go-testhub/internal/pkg/storage"
	"github.com/3Eeeecho/go-testhub/internal/repositories"
)

// StartAllWorkers 启动应用中所有定义的后台 Worker
func StartAllWorkers(
	mqClient *mq.RabbitMQClient,
	caseRepo repositories.TestCaseRepository,
	searchRepo repositories.TestCaseSearchRepository,
	attachmentRepo repositories.AttachmentRepository,
	tm repositories.TransactionManager,
	storageService storage.StorageService,
) {
	// --- 启动用例索引 Worker ---
	indexWorker := NewIndexWorker(mqClient, caseRepo, searchRepo)
	go indexWorker.Start()

	// --- 启动附件清理 Worker ---
	cleanupWorker := NewCleanupWorker(mqClient, attachmentRepo, tm, storageService)
	go cleanupWorker.Start()

	logger.Info("所有后台工作进程已启动。")
}
