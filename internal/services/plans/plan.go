package plans

import (
	"context"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-testhub/internal/models"
	"github.com/3Eeeecho/go-testhub/internal/pkg/cache"
	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-testhub/internal/repositories"
	"go.uber.org/zap"
)

// progressCacheTTL 计划进度统计缓存时长
const progressCacheTTL = 30 * time.Second

// PlanProgress 计划的执行进度汇总
type PlanProgress struct {
	PlanID   uint64 `json:"plan_id"`
	Total    int64  `json:"total"`
	Untested int64  `json:"untested"`
	Pass     int64  `json:"pass"`
	Fail     int64  `json:"fail"`
	Blocked  int64  `json:"blocked"`
	Skipped  int64  `json:"skipped"`
}

type RecordResultInput struct {
	Result  string
	Comment string
	Defects string
}

type PlanService interface {
	CreatePlan(ctx context.Context, userID uint64, name, description string) (*models.Plan, error)
	GetPlan(ctx context.Context, planID uint64) (*models.Plan, error)
	GetPlanWithItems(ctx context.Context, planID uint64) (*models.Plan, error)
	ListPlans(ctx context.Context, page, pageSize int) ([]models.Plan, int64, error)
	UpdatePlanStatus(ctx context.Context, planID uint64, status uint8) (*models.Plan, error)
	DeletePlan(ctx context.Context, planID uint64) error

	AddItem(ctx context.Context, planID, testCaseID uint64) (*models.PlanItem, error)
	RemoveItem(ctx context.Context, planID, itemID uint64) error
	ReorderItems(ctx context.Context, planID uint64, itemIDs []uint64) error
	RecordResult(ctx context.Context, planID, itemID, userID uint64, input RecordResultInput) (*models.PlanItem, error)
	GetProgress(ctx context.Context, planID uint64) (*PlanProgress, error)
}

type planService struct {
	planRepo  repositories.PlanRepository
	caseRepo  repositories.TestCaseRepository
	shareRepo repositories.ShareLinkRepository
	cache     cache.Cache
}

var _ PlanService = (*planService)(nil)

func NewPlanService(
	planRepo repositories.PlanRepository,
	caseRepo repositories.TestCaseRepository,
	shareRepo repositories.ShareLinkRepository,
	cache cache.Cache,
) PlanService {
	return &planService{
		planRepo:  planRepo,
		caseRepo:  caseRepo,
		shareRepo: shareRepo,
		cache:     cache,
	}
}

func (s *planService) CreatePlan(ctx context.Context, userID uint64, name, description string) (*models.Plan, error) {
	plan := &models.Plan{
		Name:        name,
		Description: description,
		Status:      models.PlanStatusDraft,
		CreatedBy:   userID,
	}
	if err := s.planRepo.Create(plan); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	logger.Info("测试计划创建成功", zap.Uint64("plan_id", plan.ID), zap.String("name", plan.Name))
	return plan, nil
}

func (s *planService) GetPlan(ctx context.Context, planID uint64) (*models.Plan, error) {
	return s.planRepo.FindByID(planID)
}

func (s *planService) GetPlanWithItems(ctx context.Context, planID uint64) (*models.Plan, error) {
	return s.planRepo.FindByIDWithItems(planID)
}

func (s *planService) ListPlans(ctx context.Context, page, pageSize int) ([]models.Plan, int64, error) {
	return s.planRepo.FindAll(page, pageSize)
}

func (s *planService) UpdatePlanStatus(ctx context.Context, planID uint64, status uint8) (*models.Plan, error) {
	if status > models.PlanStatusDone {
		return nil, xerr.ErrInvalidParams
	}

	plan, err := s.planRepo.FindByID(planID)
	if err != nil {
		return nil, err
	}

	plan.Status = status
	if err := s.planRepo.Update(plan); err != nil {
		return nil, fmt.Errorf("failed to update plan status: %w", err)
	}
	return plan, nil
}

func (s *planService) DeletePlan(ctx context.Context, planID uint64) error {
	if _, err := s.planRepo.FindByID(planID); err != nil {
		return err
	}

	// 存在分享链接的计划不允许删除,否则公开报告会悬空
	count, err := s.shareRepo.CountByPlanID(planID)
	if err != nil {
		return fmt.Errorf("failed to count share links: %w", err)
	}
	if count > 0 {
		return xerr.ErrPlanHasShareLinks
	}

	if err := s.planRepo.Delete(planID); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}

	s.invalidateProgressCache(ctx, planID)
	logger.Info("测试计划删除成功", zap.Uint64("plan_id", planID))
	return nil
}

func (s *planService) AddItem(ctx context.Context, planID, testCaseID uint64) (*models.PlanItem, error) {
	if _, err := s.planRepo.FindByID(planID); err != nil {
		return nil, err
	}
	if _, err := s.caseRepo.FindByID(testCaseID); err != nil {
		return nil, err
	}

	// 同一用例在计划中只允许出现一次
	existing, err := s.planRepo.FindItemByPlanAndCase(planID, testCaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check item existence: %w", err)
	}
	if existing != nil {
		return nil, xerr.ErrItemAlreadyInPlan
	}

	maxPos, err := s.planRepo.MaxItemPosition(planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get max position: %w", err)
	}

	item := &models.PlanItem{
		PlanID:     planID,
		TestCaseID: testCaseID,
		Position:   maxPos + 1,
		Result:     models.ResultUntested,
	}
	if err := s.planRepo.CreateItem(item); err != nil {
		return nil, fmt.Errorf("failed to create plan item: %w", err)
	}

	s.invalidateProgressCache(ctx, planID)
	return item, nil
}

func (s *planService) RemoveItem(ctx context.Context, planID, itemID uint64) error {
	item, err := s.planRepo.FindItemByID(itemID)
	if err != nil {
		return err
	}
	if item.PlanID != planID {
		return xerr.ErrPlanItemNotFound
	}

	if err := s.planRepo.DeleteItem(itemID); err != nil {
		return fmt.Errorf("failed to delete plan item: %w", err)
	}

	s.invalidateProgressCache(ctx, planID)
	return nil
}

// ReorderItems 按给定的条目 ID 顺序重排 position,必须覆盖计划内全部条目
func (s *planService) ReorderItems(ctx context.Context, planID uint64, itemIDs []uint64) error {
	items, err := s.planRepo.FindItemsByPlanID(planID)
	if err != nil {
		return fmt.Errorf("failed to list plan items: %w", err)
	}
	if len(itemIDs) != len(items) {
		return xerr.ErrInvalidParams
	}

	byID := make(map[uint64]*models.PlanItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	for pos, itemID := range itemIDs {
		item, ok := byID[itemID]
		if !ok {
			return xerr.ErrPlanItemNotFound
		}
		item.Position = uint(pos + 1)
		if err := s.planRepo.UpdateItem(item); err != nil {
			return fmt.Errorf("failed to update item position: %w", err)
		}
	}
	return nil
}

func (s *planService) RecordResult(ctx context.Context, planID, itemID, userID uint64, input RecordResultInput) (*models.PlanItem, error) {
	if !models.IsValidResult(input.Result) {
		return nil, xerr.ErrInvalidResult
	}

	item, err := s.planRepo.FindItemByID(itemID)
	if err != nil {
		return nil, err
	}
	if item.PlanID != planID {
		return nil, xerr.ErrPlanItemNotFound
	}

	now := time.Now()
	item.Result = input.Result
	item.Comment = input.Comment
	item.Defects = input.Defects
	item.AssigneeID = &userID
	item.ExecutedAt = &now

	if err := s.planRepo.UpdateItem(item); err != nil {
		return nil, fmt.Errorf("failed to record result: %w", err)
	}

	s.invalidateProgressCache(ctx, planID)
	logger.Info("执行结果记录成功",
		zap.Uint64("plan_id", planID),
		zap.Uint64("item_id", itemID),
		zap.String("result", input.Result))
	return item, nil
}

func (s *planService) GetProgress(ctx context.Context, planID uint64) (*PlanProgress, error) {
	cacheKey := cache.GeneratePlanProgressKey(planID)
	if s.cache != nil {
		var cached PlanProgress
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	if _, err := s.planRepo.FindByID(planID); err != nil {
		return nil, err
	}

	items, err := s.planRepo.FindItemsByPlanID(planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan items: %w", err)
	}

	progress := &PlanProgress{PlanID: planID, Total: int64(len(items))}
	for _, item := range items {
		switch item.Result {
		case models.ResultPass:
			progress.Pass++
		case models.ResultFail:
			progress.Fail++
		case models.ResultBlocked:
			progress.Blocked++
		case models.ResultSkipped:
			progress.Skipped++
		default:
			progress.Untested++
		}
	}

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, cacheKey, progress, progressCacheTTL); cacheErr != nil {
			logger.Warn("缓存计划进度失败", zap.Uint64("plan_id", planID), zap.Error(cacheErr))
		}
	}
	return progress, nil
}

func (s *planService) invalidateProgressCache(ctx context.Context, planID uint64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cache.GeneratePlanProgressKey(planID)); err != nil {
		logger.Warn("失效计划进度缓存失败", zap.Uint64("plan_id", planID), zap.Error(err))
	}
}
