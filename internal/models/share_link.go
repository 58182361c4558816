package models

import (
	"time"
)

// ShareLink 对应 share_links 表
// Token 是面向公网的查找键，凭持有即可只读访问报表（capability token）
// 记录只追加不物理删除：过期靠 ExpiresAt，主动失效靠 RevokedAt，二者都不可逆
type ShareLink struct {
	ID              uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Token           string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"token"`
	PlanID          uint64     `gorm:"not null;index" json:"plan_id"`
	CreatedByUserID uint64     `gorm:"not null" json:"created_by_user_id"` // 仅审计用途，公开读取时不再校验
	CreatedAt       time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	ExpiresAt       time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt       *time.Time `gorm:"default:null" json:"revoked_at"`

	// 关联计划，外键 RESTRICT：存在分享链接的计划不允许删除
	Plan *Plan `gorm:"foreignKey:PlanID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName 指定 GORM 使用的表名
func (ShareLink) TableName() string {
	return "share_links"
}

// IsLive 判断链接在 now 时刻是否有效
// 有效性只由 (now, ExpiresAt, RevokedAt) 决定
func (s *ShareLink) IsLive(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}
