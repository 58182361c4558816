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

type TestCaseRepository interface {
	Create(tc *models.TestCase) error
	FindByID(id uint64) (*models.TestCase, error)
	FindByIDs(ids []uint64) ([]models.TestCase, error)
	FindByFolderID(folderID uint64, page, pageSize int) ([]models.TestCase, int64, error)
	Update(tc *models.TestCase) error
	Delete(id uint64) error // 软删除
	NextSeq() (uint64, error)
}

type testCaseRepository struct {
	db *gorm.DB
}

// NewTestCaseRepository 创建新的testCaseRepository实例
func NewTestCaseRepository(db *gorm.DB) TestCaseRepository {
	return &testCaseRepository{db: db}
}

func (r *testCaseRepository) Create(tc *models.TestCase) error {
	err := r.db.Create(tc).Error
	if err != nil {
		logger.Error("Create: Failed to create test case in DB", zap.Error(err), zap.String("title", tc.Title))
		return fmt.Errorf("failed to create test case: %w", err)
	}
	return nil
}

func (r *testCaseRepository) FindByID(id uint64) (*models.TestCase, error) {
	var tc models.TestCase
	err := r.db.First(&tc, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrTestCaseNotFound
		}
		return nil, fmt.Errorf("查询测试用例失败: %w", err)
	}
	return &tc, nil
}

func (r *testCaseRepository) FindByIDs(ids []uint64) ([]models.TestCase, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var cases []models.TestCase
	err := r.db.Where("id IN ?", ids).Find(&cases).Error
	if err != nil {
		return nil, fmt.Errorf("批量查询测试用例失败: %w", err)
	}
	return cases, nil
}

func (r *testCaseRepository) FindByFolderID(folderID uint64, page, pageSize int) ([]models.TestCase, int64, error) {
	var cases []models.TestCase
	var total int64

	offset := (page - 1) * pageSize
	query := r.db.Model(&models.TestCase{}).Where("folder_id = ?", folderID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计用例总数失败: %w", err)
	}

	err := query.Order("seq ASC").Offset(offset).Limit(pageSize).Find(&cases).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询用例列表失败: %w", err)
	}
	return cases, total, nil
}

func (r *testCaseRepository) Update(tc *models.TestCase) error {
	return r.db.Save(tc).Error
}

// 软删除记录(设置deleted_at字段)
func (r *testCaseRepository) Delete(id uint64) error {
	return r.db.Delete(&models.TestCase{}, id).Error
}

// NextSeq 计算下一个用例序号
// 软删除的用例也占用序号，因此用 Unscoped 查询最大值
func (r *testCaseRepository) NextSeq() (uint64, error) {
	var maxSeq *uint64
	err := r.db.Unscoped().Model(&models.TestCase{}).Select("MAX(seq)").Scan(&maxSeq).Error
	if err != nil {
		return 0, fmt.Errorf("查询最大用例序号失败: %w", err)
	}
	if maxSeq == nil {
		return 1, nil
	}
	return *maxSeq + 1, nil
}
