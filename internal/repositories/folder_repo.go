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

type FolderRepository interface {
	Create(folder *models.Folder) error
	FindByID(id uint64) (*models.Folder, error)
	FindByParentID(parentID *uint64) ([]models.Folder, error)
	Update(folder *models.Folder) error
	Delete(id uint64) error // 软删除
	CountChildren(id uint64) (int64, error)
	CountTestCases(id uint64) (int64, error)
}

type folderRepository struct {
	db *gorm.DB
}

// NewFolderRepository 创建新的folderRepository实例
func NewFolderRepository(db *gorm.DB) FolderRepository {
	return &folderRepository{db: db}
}

func (r *folderRepository) Create(folder *models.Folder) error {
	err := r.db.Create(folder).Error
	if err != nil {
		logger.Error("Create: Failed to create folder in DB", zap.Error(err), zap.String("name", folder.Name))
		return fmt.Errorf("failed to create folder: %w", err)
	}
	return nil
}

func (r *folderRepository) FindByID(id uint64) (*models.Folder, error) {
	var folder models.Folder
	err := r.db.First(&folder, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrFolderNotFound
		}
		return nil, fmt.Errorf("查询文件夹失败: %w", err)
	}
	return &folder, nil
}

func (r *folderRepository) FindByParentID(parentID *uint64) ([]models.Folder, error) {
	var folders []models.Folder
	query := r.db.Model(&models.Folder{})

	if parentID == nil {
		query = query.Where("parent_id IS NULL") // 查找根层级
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	err := query.Order("name ASC").Find(&folders).Error
	if err != nil {
		logger.Error("Error finding folders from DB", zap.Any("parentID", parentID), zap.Error(err))
		return nil, fmt.Errorf("查询子文件夹失败: %w", err)
	}
	return folders, nil
}

func (r *folderRepository) Update(folder *models.Folder) error {
	return r.db.Save(folder).Error
}

// 软删除记录(设置deleted_at字段)
func (r *folderRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Folder{}, id).Error
}

func (r *folderRepository) CountChildren(id uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Folder{}).Where("parent_id = ?", id).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("统计子文件夹数量失败: %w", err)
	}
	return count, nil
}

func (r *folderRepository) CountTestCases(id uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.TestCase{}).Where("folder_id = ?", id).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("统计文件夹内用例数量失败: %w", err)
	}
	return count, nil
}
