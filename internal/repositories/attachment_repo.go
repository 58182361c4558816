package repositories

import (
	"errors"
	"fmt"

	"github.com/3Eeeecho/go-testhub/internal/models"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"gorm.io/gorm"
)

type AttachmentRepository interface {
	Create(attachment *models.Attachment) error
	FindByID(id uint64) (*models.Attachment, error)
	FindByPlanItemID(planItemID uint64) ([]models.Attachment, error)
	FindByPlanID(planID uint64) ([]models.Attachment, error)
	Delete(id uint64) error               // 软删除
	PermanentDelete(tx *gorm.DB, id uint64) error // 物理删除，由清理 Worker 在事务中调用
}

type attachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository 创建新的attachmentRepository实例
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(attachment *models.Attachment) error {
	if err := r.db.Create(attachment).Error; err != nil {
		return fmt.Errorf("failed to create attachment: %w", err)
	}
	return nil
}

func (r *attachmentRepository) FindByID(id uint64) (*models.Attachment, error) {
	var attachment models.Attachment
	err := r.db.First(&attachment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("查询附件失败: %w", err)
	}
	return &attachment, nil
}

func (r *attachmentRepository) FindByPlanItemID(planItemID uint64) ([]models.Attachment, error) {
	var attachments []models.Attachment
	err := r.db.Where("plan_item_id = ?", planItemID).Order("created_at ASC").Find(&attachments).Error
	if err != nil {
		return nil, fmt.Errorf("查询条目附件列表失败: %w", err)
	}
	return attachments, nil
}

// FindByPlanID 查找计划下所有条目的附件，打包证据时使用
func (r *attachmentRepository) FindByPlanID(planID uint64) ([]models.Attachment, error) {
	var attachments []models.Attachment
	err := r.db.
		Select("attachments.*").
		Joins("JOIN plan_items ON plan_items.id = attachments.plan_item_id").
		Where("plan_items.plan_id = ?", planID).
		Order("plan_items.position ASC, attachments.created_at ASC").
		Find(&attachments).Error
	if err != nil {
		return nil, fmt.Errorf("查询计划附件列表失败: %w", err)
	}
	return attachments, nil
}

// 软删除记录(设置deleted_at字段)
func (r *attachmentRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Attachment{}, id).Error
}

// PermanentDelete 物理删除附件记录
func (r *attachmentRepository) PermanentDelete(tx *gorm.DB, id uint64) error {
	return tx.Unscoped().Delete(&models.Attachment{}, id).Error
}
