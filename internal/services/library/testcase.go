package library

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/3Eeeecho/go-testhub/internal/models"
	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/mq"
	"github.com/3Eeeecho/go-testhub/internal/repositories"
	"go.uber.org/zap"
)

type CreateTestCaseInput struct {
	FolderID     uint64
	Title        string
	Precondition string
	Steps        string
	Expected     string
	Priority     uint8
}

type UpdateTestCaseInput struct {
	Title        *string
	Precondition *string
	Steps        *string
	Expected     *string
	Priority     *uint8
	FolderID     *uint64
}

type TestCaseService interface {
	CreateTestCase(ctx context.Context, userID uint64, input CreateTestCaseInput) (*models.TestCase, error)
	GetTestCase(ctx context.Context, caseID uint64) (*models.TestCase, error)
	ListTestCases(ctx context.Context, folderID uint64, page, pageSize int) ([]models.TestCase, int64, error)
	UpdateTestCase(ctx context.Context, caseID uint64, input UpdateTestCaseInput) (*models.TestCase, error)
	DeleteTestCase(ctx context.Context, caseID uint64) error
	SearchTestCases(ctx context.Context, keyword string, size int) ([]repositories.TestCaseHit, error)
}

type testCaseService struct {
	caseRepo   repositories.TestCaseRepository
	folderRepo repositories.FolderRepository
	searchRepo repositories.TestCaseSearchRepository
	mqClient   *mq.RabbitMQClient
}

var _ TestCaseService = (*testCaseService)(nil)

func NewTestCaseService(
	caseRepo repositories.TestCaseRepository,
	folderRepo repositories.FolderRepository,
	searchRepo repositories.TestCaseSearchRepository,
	mqClient *mq.RabbitMQClient,
) TestCaseService {
	return &testCaseService{
		caseRepo:   caseRepo,
		folderRepo: folderRepo,
		searchRepo: searchRepo,
		mqClient:   mqClient,
	}
}

func (s *testCaseService) CreateTestCase(ctx context.Context, userID uint64, input CreateTestCaseInput) (*models.TestCase, error) {
	if _, err := s.folderRepo.FindByID(input.FolderID); err != nil {
		return nil, err
	}

	seq, err := s.caseRepo.NextSeq()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate case seq: %w", err)
	}

	priority := input.Priority
	if priority == 0 {
		priority = models.PriorityMedium
	}

	testCase := &models.TestCase{
		Seq:          seq,
		FolderID:     input.FolderID,
		Title:        input.Title,
		Precondition: input.Precondition,
		Steps:        input.Steps,
		Expected:     input.Expected,
		Priority:     priority,
		Status:       1,
		CreatedBy:    userID,
	}
	if err := s.caseRepo.Create(testCase); err != nil {
		return nil, fmt.Errorf("failed to create test case: %w", err)
	}

	s.publishIndexTask(testCase.ID, false)
	logger.Info("测试用例创建成功", zap.Uint64("case_id", testCase.ID), zap.Uint64("seq", testCase.Seq))
	return testCase, nil
}

func (s *testCaseService) GetTestCase(ctx context.Context, caseID uint64) (*models.TestCase, error) {
	return s.caseRepo.FindByID(caseID)
}

func (s *testCaseService) ListTestCases(ctx context.Context, folderID uint64, page, pageSize int) ([]models.TestCase, int64, error) {
	if _, err := s.folderRepo.FindByID(folderID); err != nil {
		return nil, 0, err
	}
	return s.caseRepo.FindByFolderID(folderID, page, pageSize)
}

func (s *testCaseService) UpdateTestCase(ctx context.Context, caseID uint64, input UpdateTestCaseInput) (*models.TestCase, error) {
	testCase, err := s.caseRepo.FindByID(caseID)
	if err != nil {
		return nil, err
	}

	if input.FolderID != nil {
		if _, err := s.folderRepo.FindByID(*input.FolderID); err != nil {
			return nil, err
		}
		testCase.FolderID = *input.FolderID
	}
	if input.Title != nil {
		testCase.Title = *input.Title
	}
	if input.Precondition != nil {
		testCase.Precondition = *input.Precondition
	}
	if input.Steps != nil {
		testCase.Steps = *input.Steps
	}
	if input.Expected != nil {
		testCase.Expected = *input.Expected
	}
	if input.Priority != nil {
		testCase.Priority = *input.Priority
	}

	if err := s.caseRepo.Update(testCase); err != nil {
		return nil, fmt.Errorf("failed to update test case: %w", err)
	}

	s.publishIndexTask(testCase.ID, false)
	return testCase, nil
}

func (s *testCaseService) DeleteTestCase(ctx context.Context, caseID uint64) error {
	if _, err := s.caseRepo.FindByID(caseID); err != nil {
		return err
	}
	if err := s.caseRepo.Delete(caseID); err != nil {
		return fmt.Errorf("failed to delete test case: %w", err)
	}

	s.publishIndexTask(caseID, true)
	logger.Info("测试用例删除成功", zap.Uint64("case_id", caseID))
	return nil
}

func (s *testCaseService) SearchTestCases(ctx context.Context, keyword string, size int) ([]repositories.TestCaseHit, error) {
	if size <= 0 || size > 100 {
		size = 20
	}
	return s.searchRepo.Search(ctx, keyword, size)
}

// publishIndexTask 投递异步索引任务,失败只记日志不阻塞主流程
func (s *testCaseService) publishIndexTask(caseID uint64, deleted bool) {
	if s.mqClient == nil {
		return
	}
	task := models.IndexTestCaseTask{TestCaseID: caseID, Deleted: deleted}
	body, err := json.Marshal(task)
	if err != nil {
		logger.Error("序列化索引任务失败", zap.Uint64("case_id", caseID), zap.Error(err))
		return
	}
	if err := s.mqClient.Publish(mq.IndexCaseQueueName, body); err != nil {
		logger.Error("投递索引任务失败", zap.Uint64("case_id", caseID), zap.Error(err))
	}
}
