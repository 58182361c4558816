package repositories

import (
	"errors"
	"fmt"

	"github.com/3Eeeecho/go-testhub/internal/models"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"gorm.io/gorm"
)

// ErrTokenDuplicated 表示 token 命中了唯一索引
// 生成端概率上不会撞，但唯一性由这里的约束兜底，服务层据此重试
var ErrTokenDuplicated = errors.New("分享 token 已存在")

type ShareLinkRepository interface {
	Create(link *models.ShareLink) error
	FindByID(id uint64) (*models.ShareLink, error)
	FindByToken(token string) (*models.ShareLink, error)
	FindAllByPlanID(planID uint64) ([]models.ShareLink, error)
	CountByPlanID(planID uint64) (int64, error)
	Update(link *models.ShareLink) error
}

type shareLinkRepository struct {
	db *gorm.DB
}

// NewShareLinkRepository 创建新的shareLinkRepository实例
func NewShareLinkRepository(db *gorm.DB) ShareLinkRepository {
	return &shareLinkRepository{db: db}
}

// 创建新的数据库记录
// token 撞上唯一索引时返回 ErrTokenDuplicated，由服务层换新 token 重试
func (r *shareLinkRepository) Create(link *models.ShareLink) error {
	err := r.db.Create(link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrTokenDuplicated
		}
		return fmt.Errorf("创建分享链接记录失败: %w", err)
	}
	return nil
}

func (r *shareLinkRepository) FindByID(id uint64) (*models.ShareLink, error) {
	var link models.ShareLink
	err := r.db.First(&link, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrShareLinkNotFound
		}
		return nil, fmt.Errorf("查询分享链接失败: %w", err)
	}
	return &link, nil
}

// 根据token查找记录，不做有效性过滤
// 过期/撤销的判断属于解析层语义，404 与 410 不能在这里混为一谈
func (r *shareLinkRepository) FindByToken(token string) (*models.ShareLink, error) {
	var link models.ShareLink
	err := r.db.Where("token = ?", token).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrShareLinkNotFound
		}
		return nil, fmt.Errorf("查询分享链接失败: %w", err)
	}
	return &link, nil
}

// 查找计划的所有分享记录，新的在前
// 不按有效性过滤，创建者需要看到完整历史做审计
func (r *shareLinkRepository) FindAllByPlanID(planID uint64) ([]models.ShareLink, error) {
	var links []models.ShareLink
	err := r.db.Where("plan_id = ?", planID).Order("created_at DESC, id DESC").Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("查询分享链接列表失败: %w", err)
	}
	return links, nil
}

func (r *shareLinkRepository) CountByPlanID(planID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.ShareLink{}).Where("plan_id = ?", planID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("统计计划分享链接数量失败: %w", err)
	}
	return count, nil
}

// 更新数据库记录
func (r *shareLinkRepository) Update(link *models.ShareLink) error {
	return r.db.Save(link).Error
}
