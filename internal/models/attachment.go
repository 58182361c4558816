package models

import (
	"time"

	"gorm.io/gorm"
)

// Attachment 对应 attachments 表，计划条目的执行证据（截图、日志等）
// 文件内容存放在对象存储，OssKey 由上传时生成的 UUID 构成
type Attachment struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	PlanItemID uint64         `gorm:"not null;index" json:"plan_item_id"`
	UUID       string         `gorm:"type:varchar(36);unique;not null" json:"uuid"`
	FileName   string         `gorm:"type:varchar(255);not null" json:"file_name"`
	Size       uint64         `gorm:"type:bigint unsigned;not null;default:0" json:"size"`
	MimeType   *string        `gorm:"type:varchar(128);default:null" json:"mime_type"`
	OssBucket  string         `gorm:"type:varchar(64);not null" json:"oss_bucket"`
	OssKey     string         `gorm:"type:varchar(255);not null" json:"oss_key"`
	UploadedBy uint64         `gorm:"not null" json:"uploaded_by"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定 GORM 使用的表名
func (Attachment) TableName() string {
	return "attachments"
}

// DeleteAttachmentTask 发往 MQ 的附件清理任务
type DeleteAttachmentTask struct {
	AttachmentID uint64 `json:"attachment_id"`
	OssBucket    string `json:"oss_bucket"`
	OssKey       string `json:"oss_key"`
}

// IndexTestCaseTask 发往 MQ 的用例索引任务
type IndexTestCaseTask struct {
	TestCaseID uint64 `json:"test_case_id"`
	Deleted    bool   `json:"deleted"` // true 表示从索引中移除
}
