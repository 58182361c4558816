package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/3Eeeecho/go-testhub/internal/models"
	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/mq"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-testhub/internal/repositories"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// IndexWorker 消费用例索引任务,异步同步 Elasticsearch
type IndexWorker struct {
	mqClient   *mq.RabbitMQClient
	caseRepo   repositories.TestCaseRepository
	searchRepo repositories.TestCaseSearchRepository
}

func NewIndexWorker(
	mqClient *mq.RabbitMQClient,
	caseRepo repositories.TestCaseRepository,
	searchRepo repositories.TestCaseSearchRepository,
) *IndexWorker {
	return &IndexWorker{
		mqClient:   mqClient,
		caseRepo:   caseRepo,
		searchRepo: searchRepo,
	}
}

func (w *IndexWorker) Start() {
	_, err := w.mqClient.DeclareQueue(mq.IndexCaseQueueName)
	if err != nil {
		log.Fatalf("Failed to declare queue: %s", err)
	}
	err = w.mqClient.Consume(mq.IndexCaseQueueName, w.HandleIndexTestCase)
	if err != nil {
		log.Fatalf("Failed to start consuming from queue: %s", err)
	}

	log.Println("Index worker started...")
}

func (w *IndexWorker) HandleIndexTestCase(msg amqp.Delivery) {
	var task models.IndexTestCaseTask
	if err := json.Unmarshal(msg.Body, &task); err != nil {
		logger.Error("Failed to unmarshal index task", zap.Error(err))
		_ = msg.Nack(false, false) // 解析失败,直接抛弃
		return
	}

	ctx := context.Background()

	if task.Deleted {
		if err := w.searchRepo.Remove(ctx, task.TestCaseID); err != nil {
			logger.Error("Failed to remove test case from index",
				zap.Uint64("TestCaseID", task.TestCaseID),
				zap.Error(err))
			_ = msg.Nack(false, true)
			return
		}
		logger.Info("Test case removed from index", zap.Uint64("TestCaseID", task.TestCaseID))
		_ = msg.Ack(false)
		return
	}

	testCase, err := w.caseRepo.FindByID(task.TestCaseID)
	if err != nil {
		if errors.Is(err, xerr.ErrTestCaseNotFound) {
			// 索引前用例已被删除,按删除处理
			if removeErr := w.searchRepo.Remove(ctx, task.TestCaseID); removeErr != nil {
				_ = msg.Nack(false, true)
				return
			}
			_ = msg.Ack(false)
			return
		}
		logger.Error("Failed to load test case for indexing",
			zap.Uint64("TestCaseID", task.TestCaseID),
			zap.Error(err))
		_ = msg.Nack(false, true)
		return
	}

	if err := w.searchRepo.Index(ctx, testCase); err != nil {
		logger.Error("Failed to index test case",
			zap.Uint64("TestCaseID", task.TestCaseID),
			zap.Error(err))
		_ = msg.Nack(false, true)
		return
	}

	logger.Info("Test case indexed", zap.Uint64("TestCaseID", testCase.ID), zap.Uint64("Seq", testCase.Seq))
	_ = msg.Ack(false)
}
