package repositories

import (
	"errors"
	"fmt"

	"github.com/3Eeeecho/go-testhub/internal/models"
	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PlanRepository interface {
	Create(plan *models.Plan) error
	FindByID(id uint64) (*models.Plan, error)
	// FindByIDWithItems 加载计划及其条目，条目按 position 升序、用例 seq 升序排列
	// 并预加载每个条目的用例，报表渲染要求这个顺序在多次请求间可复现
	FindByIDWithItems(id uint64) (*models.Plan, error)
	FindAll(page, pageSize int) ([]models.Plan, int64, error)
	Update(plan *models.Plan) error
	Delete(id uint64) error // 软删除

	CreateItem(item *models.PlanItem) error
	FindItemByID(itemID uint64) (*models.PlanItem, error)
	FindItemsByPlanID(planID uint64) ([]models.PlanItem, error)
	FindItemByPlanAndCase(planID, testCaseID uint64) (*models.PlanItem, error)
	UpdateItem(item *models.PlanItem) error
	DeleteItem(itemID uint64) error
	MaxItemPosition(planID uint64) (uint, error)
}

type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository 创建新的planRepository实例
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Create(plan *models.Plan) error {
	err := r.db.Create(plan).Error
	if err != nil {
		logger.Error("Create: Failed to create plan in DB", zap.Error(err), zap.String("name", plan.Name))
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

func (r *planRepository) FindByID(id uint64) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.First(&plan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrPlanNotFound
		}
		return nil, fmt.Errorf("查询测试计划失败: %w", err)
	}
	return &plan, nil
}

func (r *planRepository) FindByIDWithItems(id uint64) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			// 计划排序字段优先，用例序号作为确定性的次级排序
			return db.Select("plan_items.*").
				Joins("LEFT JOIN test_cases ON test_cases.id = plan_items.test_case_id").
				Order("plan_items.position ASC, test_cases.seq ASC")
		}).
		Preload("Items.TestCase").
		First(&plan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrPlanNotFound
		}
		return nil, fmt.Errorf("查询测试计划及条目失败: %w", err)
	}
	return &plan, nil
}

func (r *planRepository) FindAll(page, pageSize int) ([]models.Plan, int64, error) {
	var plans []models.Plan
	var total int64

	offset := (page - 1) * pageSize
	query := r.db.Model(&models.Plan{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计计划总数失败: %w", err)
	}

	err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&plans).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询计划列表失败: %w", err)
	}
	return plans, total, nil
}

func (r *planRepository) Update(plan *models.Plan) error {
	return r.db.Save(plan).Error
}

// 软删除记录(设置deleted_at字段)
func (r *planRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Plan{}, id).Error
}

func (r *planRepository) CreateItem(item *models.PlanItem) error {
	err := r.db.Create(item).Error
	if err != nil {
		logger.Error("CreateItem: Failed to create plan item in DB", zap.Error(err), zap.Uint64("planID", item.PlanID))
		return fmt.Errorf("failed to create plan item: %w", err)
	}
	return nil
}

func (r *planRepository) FindItemByID(itemID uint64) (*models.PlanItem, error) {
	var item models.PlanItem
	err := r.db.First(&item, itemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrPlanItemNotFound
		}
		return nil, fmt.Errorf("查询计划条目失败: %w", err)
	}
	return &item, nil
}

func (r *planRepository) FindItemsByPlanID(planID uint64) ([]models.PlanItem, error) {
	var items []models.PlanItem
	err := r.db.Where("plan_id = ?", planID).Order("position ASC").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("查询计划条目列表失败: %w", err)
	}
	return items, nil
}

func (r *planRepository) FindItemByPlanAndCase(planID, testCaseID uint64) (*models.PlanItem, error) {
	var item models.PlanItem
	err := r.db.Where("plan_id = ? AND test_case_id = ?", planID, testCaseID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("查询计划条目失败: %w", err)
	}
	return &item, nil
}

func (r *planRepository) UpdateItem(item *models.PlanItem) error {
	return r.db.Save(item).Error
}

func (r *planRepository) DeleteItem(itemID uint64) error {
	return r.db.Delete(&models.PlanItem{}, itemID).Error
}

func (r *planRepository) MaxItemPosition(planID uint64) (uint, error) {
	var maxPos *uint
	err := r.db.Model(&models.PlanItem{}).Where("plan_id = ?", planID).Select("MAX(position)").Scan(&maxPos).Error
	if err != nil {
		return 0, fmt.Errorf("查询计划条目最大位置失败: %w", err)
	}
	if maxPos == nil {
		return 0, nil
	}
	return *maxPos, nil
}
