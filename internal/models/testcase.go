package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

// TestCase 对应 test_cases 表
// Seq 是全局递增的用例序号（展示为 TC-123），报表排序的次级键
type TestCase struct {
	ID           uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Seq          uint64         `gorm:"not null;uniqueIndex" json:"seq"`
	FolderID     uint64         `gorm:"not null;index" json:"folder_id"`
	Title        string         `gorm:"type:varchar(255);not null" json:"title"`
	Precondition string         `gorm:"type:text" json:"precondition"`
	Steps        string         `gorm:"type:text" json:"steps"` // JSON 数组文本，步骤与预期逐条对应
	Expected     string         `gorm:"type:text" json:"expected"`
	Priority     uint8          `gorm:"type:tinyint unsigned;not null;default:2" json:"priority"`
	Status       uint8          `gorm:"type:tinyint unsigned;not null;default:1" json:"status"`
	CreatedBy    uint64         `gorm:"not null" json:"created_by"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Folder *Folder `gorm:"foreignKey:FolderID" json:"-"`
}

// TableName 指定 GORM 使用的表名
func (TestCase) TableName() string {
	return "test_cases"
}
