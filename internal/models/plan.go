package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PlanStatusDraft      = 0 // 草稿
	PlanStatusInProgress = 1 // 执行中
	PlanStatusDone       = 2 // 已完成
)

// Plan 对应 plans 表，一次测试执行计划
type Plan struct {
	ID          uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Status      uint8          `gorm:"type:tinyint unsigned;not null;default:0" json:"status"`
	CreatedBy   uint64         `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// 计划内条目，按 Position 排序后加载
	Items []PlanItem `gorm:"foreignKey:PlanID" json:"items,omitempty"`
}

// TableName 指定 GORM 使用的表名
func (Plan) TableName() string {
	return "plans"
}
