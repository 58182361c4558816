package models

import (
	"time"

	"gorm.io/gorm"
)

// Folder 对应 folders 表，用例目录树
// ParentID 为 nil 表示根目录下的文件夹
type Folder struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	ParentID  *uint64        `gorm:"default:null;index" json:"parent_id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	CreatedBy uint64         `gorm:"not null" json:"created_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// 自关联，获取父文件夹信息
	Parent *Folder `gorm:"foreignKey:ParentID" json:"-"`
}

// TableName 指定 GORM 使用的表名
func (Folder) TableName() string {
	return "folders"
}

// FolderNode 面包屑路径中的一级，从根到叶有序排列
type FolderNode struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}
