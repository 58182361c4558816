package models

import (
	"time"

	"gorm.io/gorm"
)

// 计划条目执行结果
const (
	ResultUntested = "untested"
	ResultPass     = "pass"
	ResultFail     = "fail"
	ResultBlocked  = "blocked"
	ResultSkipped  = "skipped"
)

// PlanItem 对应 plan_items 表，计划内一条用例的执行记录
// Position 是计划自身的排序字段，报表按 Position 升序、用例 Seq 升序输出
type PlanItem struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	PlanID     uint64         `gorm:"not null;index" json:"plan_id"`
	TestCaseID uint64         `gorm:"not null;index" json:"test_case_id"`
	Position   uint           `gorm:"not null;default:0" json:"position"`
	Result     string         `gorm:"type:varchar(16);not null;default:'untested'" json:"result"`
	AssigneeID *uint64        `gorm:"default:null" json:"assignee_id"`
	Comment    string         `gorm:"type:text" json:"comment"`
	Defects    string         `gorm:"type:varchar(512)" json:"defects"` // 缺陷单号，逗号分隔
	ExecutedAt *time.Time     `json:"executed_at,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	TestCase *TestCase `gorm:"foreignKey:TestCaseID" json:"test_case,omitempty"`
}

// TableName 指定 GORM 使用的表名
func (PlanItem) TableName() string {
	return "plan_items"
}

// IsValidResult 检查执行结果取值是否合法
func IsValidResult(result string) bool {
	switch result {
	case ResultUntested, ResultPass, ResultFail, ResultBlocked, ResultSkipped:
		return true
	}
	return false
}
