package share

import (
	"context"
	"testing"
	"time"

	"github.com/3Eeeecho/go-testhub/internal/config"
	"github.com/3Eeeecho/go-testhub/internal/models"
	"github.com/3Eeeecho/go-testhub/internal/pkg/utils"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-testhub/internal/repositories"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// TranslateError 开启后,唯一索引冲突统一转换为 gorm.ErrDuplicatedKey
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库跟随连接,限制为单连接避免表丢失
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Folder{},
		&models.TestCase{},
		&models.Plan{},
		&models.PlanItem{},
		&models.ShareLink{},
		&models.Attachment{},
	))
	return db
}

func seedPlan(t *testing.T, db *gorm.DB, name string) *models.Plan {
	t.Helper()
	plan := &models.Plan{Name: name, CreatedBy: 1}
	require.NoError(t, db.Create(plan).Error)
	return plan
}

func newShareService(t *testing.T, db *gorm.DB, gen TokenGenerator, now func() time.Time) *shareLinkService {
	t.Helper()
	cfg := &config.ShareConfig{
		TTL:              7 * 24 * time.Hour,
		MaxTokenAttempts: 5,
	}
	svc := NewShareLinkService(
		repositories.NewShareLinkRepository(db),
		repositories.NewPlanRepository(db),
		gen,
		cfg,
	).(*shareLinkService)
	if now != nil {
		svc.now = now
	}
	return svc
}

func TestCreateShareLink(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "发布前回归")

	fixed := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc := newShareService(t, db, nil, func() time.Time { return fixed })

	link, err := svc.CreateShareLink(context.Background(), plan.ID, 42)
	require.NoError(t, err)

	assert.Len(t, link.Token, 43)
	assert.Equal(t, plan.ID, link.PlanID)
	assert.Equal(t, uint64(42), link.CreatedByUserID)
	assert.Nil(t, link.RevokedAt)
	// 有效期固定为创建时刻 + 7 天,不接受调用方指定
	assert.True(t, link.ExpiresAt.Equal(fixed.Add(7*24*time.Hour)),
		"expiresAt = %v, want %v", link.ExpiresAt, fixed.Add(7*24*time.Hour))

	// 落库后可按 token 查回
	stored, err := repositories.NewShareLinkRepository(db).FindByToken(link.Token)
	require.NoError(t, err)
	assert.Equal(t, link.ID, stored.ID)
}

func TestCreateShareLinkPlanMissing(t *testing.T) {
	db := newTestDB(t)
	svc := newShareService(t, db, nil, nil)

	_, err := svc.CreateShareLink(context.Background(), 999, 1)
	assert.ErrorIs(t, err, xerr.ErrPlanNotFound)
}

func TestCreateShareLinkRetriesOnCollision(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "冒烟")

	// 预置一条占用 token 的链接
	taken, err := utils.GenerateShareToken()
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.ShareLink{
		Token:     taken,
		PlanID:    plan.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)

	fresh, err := utils.GenerateShareToken()
	require.NoError(t, err)

	calls := 0
	gen := func() (string, error) {
		calls++
		if calls == 1 {
			return taken, nil // 第一次必然撞库
		}
		return fresh, nil
	}

	svc := newShareService(t, db, gen, nil)
	link, err := svc.CreateShareLink(context.Background(), plan.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, fresh, link.Token)
	assert.Equal(t, 2, calls)
}

func TestCreateShareLinkConflictExhausted(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "冒烟")

	taken, err := utils.GenerateShareToken()
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.ShareLink{
		Token:     taken,
		PlanID:    plan.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)

	calls := 0
	gen := func() (string, error) {
		calls++
		return taken, nil // 永远撞库
	}

	svc := newShareService(t, db, gen, nil)
	_, err = svc.CreateShareLink(context.Background(), plan.ID, 1)

	assert.ErrorIs(t, err, xerr.ErrTokenConflict)
	assert.Equal(t, 5, calls, "应重试到配置上限后放弃")
}

func TestRevokeShareLinkIdempotent(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "回归")

	first := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	now := first
	svc := newShareService(t, db, nil, func() time.Time { return now })

	link, err := svc.CreateShareLink(context.Background(), plan.ID, 1)
	require.NoError(t, err)

	revoked, alreadyRevoked, err := svc.RevokeShareLink(context.Background(), link.ID)
	require.NoError(t, err)
	assert.False(t, alreadyRevoked)
	require.NotNil(t, revoked.RevokedAt)
	assert.True(t, revoked.RevokedAt.Equal(first))

	// 第二次撤销:成功但标记已撤销,撤销时间保持首次的值
	now = first.Add(48 * time.Hour)
	again, alreadyRevoked, err := svc.RevokeShareLink(context.Background(), link.ID)
	require.NoError(t, err)
	assert.True(t, alreadyRevoked)
	require.NotNil(t, again.RevokedAt)
	assert.True(t, again.RevokedAt.Equal(first), "重复撤销不得改写撤销时间")
}

func TestRevokeShareLinkNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newShareService(t, db, nil, nil)

	_, _, err := svc.RevokeShareLink(context.Background(), 12345)
	assert.ErrorIs(t, err, xerr.ErrShareLinkNotFound)
}

func TestListShareLinksNewestFirstIncludingDead(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "回归")

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	now := base
	svc := newShareService(t, db, nil, func() time.Time { return now })

	var created []*models.ShareLink
	for i := 0; i < 3; i++ {
		now = base.Add(time.Duration(i) * time.Hour)
		link, err := svc.CreateShareLink(context.Background(), plan.ID, 1)
		require.NoError(t, err)
		created = append(created, link)
	}

	// 撤销最早的一条,列表仍应包含它
	_, _, err := svc.RevokeShareLink(context.Background(), created[0].ID)
	require.NoError(t, err)

	links, err := svc.ListShareLinks(context.Background(), plan.ID)
	require.NoError(t, err)
	require.Len(t, links, 3)

	assert.Equal(t, created[2].ID, links[0].ID)
	assert.Equal(t, created[1].ID, links[1].ID)
	assert.Equal(t, created[0].ID, links[2].ID)
	assert.NotNil(t, links[2].RevokedAt)
}
