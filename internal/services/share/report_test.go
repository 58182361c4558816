package share

import (
	"context"
	"testing"
	"time"

	"github.com/3Eeeecho/go-testhub/internal/models"
	"github.com/3Eeeecho/go-testhub/internal/pkg/utils"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-testhub/internal/repositories"
	"github.com/3Eeeecho/go-testhub/internal/services/library"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newReportService(t *testing.T, db *gorm.DB, now func() time.Time) *reportService {
	t.Helper()
	svc := NewReportService(
		repositories.NewShareLinkRepository(db),
		repositories.NewPlanRepository(db),
		library.NewFolderDomainService(repositories.NewFolderRepository(db), nil),
	).(*reportService)
	if now != nil {
		svc.now = now
	}
	return svc
}

func seedFolder(t *testing.T, db *gorm.DB, parentID *uint64, name string) *models.Folder {
	t.Helper()
	folder := &models.Folder{ParentID: parentID, Name: name, CreatedBy: 1}
	require.NoError(t, db.Create(folder).Error)
	return folder
}

func seedTestCase(t *testing.T, db *gorm.DB, folderID, seq uint64, title string) *models.TestCase {
	t.Helper()
	tc := &models.TestCase{Seq: seq, FolderID: folderID, Title: title, CreatedBy: 1}
	require.NoError(t, db.Create(tc).Error)
	return tc
}

func seedShareLink(t *testing.T, db *gorm.DB, planID uint64, createdAt, expiresAt time.Time) *models.ShareLink {
	t.Helper()
	token, err := utils.GenerateShareToken()
	require.NoError(t, err)
	link := &models.ShareLink{
		Token:           token,
		PlanID:          planID,
		CreatedByUserID: 1,
		CreatedAt:       createdAt,
		ExpiresAt:       expiresAt,
	}
	require.NoError(t, db.Create(link).Error)
	return link
}

func TestResolveReportUnknownToken(t *testing.T) {
	db := newTestDB(t)
	svc := newReportService(t, db, nil)

	_, err := svc.ResolveReport(context.Background(), "no-such-token")
	// 从未存在过:404 语义,绝不能与失效混同
	assert.ErrorIs(t, err, xerr.ErrShareLinkNotFound)
	assert.NotErrorIs(t, err, xerr.ErrShareLinkGone)
}

func TestResolveReportExpired(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "回归")

	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	link := seedShareLink(t, db, plan.ID, now.Add(-8*24*time.Hour), now.Add(-24*time.Hour))

	svc := newReportService(t, db, func() time.Time { return now })
	_, err := svc.ResolveReport(context.Background(), link.Token)
	assert.ErrorIs(t, err, xerr.ErrShareLinkGone)
}

func TestResolveReportRevoked(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "回归")

	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	link := seedShareLink(t, db, plan.ID, now, now.Add(24*time.Hour))
	revokedAt := now
	link.RevokedAt = &revokedAt
	require.NoError(t, db.Save(link).Error)

	svc := newReportService(t, db, func() time.Time { return now.Add(time.Minute) })
	_, err := svc.ResolveReport(context.Background(), link.Token)
	assert.ErrorIs(t, err, xerr.ErrShareLinkGone)
}

func TestResolveReportPlanDeleted(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "回归")

	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	link := seedShareLink(t, db, plan.ID, now, now.Add(24*time.Hour))

	// 计划软删除后,链接本身还在:曾经有效,现在失效
	require.NoError(t, repositories.NewPlanRepository(db).Delete(plan.ID))

	svc := newReportService(t, db, func() time.Time { return now })
	_, err := svc.ResolveReport(context.Background(), link.Token)
	assert.ErrorIs(t, err, xerr.ErrShareLinkGone)
}

func TestResolveReportPayload(t *testing.T) {
	db := newTestDB(t)

	// 目录树: 登录模块 / 异常路径
	root := seedFolder(t, db, nil, "登录模块")
	child := seedFolder(t, db, &root.ID, "异常路径")

	caseA := seedTestCase(t, db, child.ID, 10, "密码错误提示")
	caseB := seedTestCase(t, db, root.ID, 3, "正常登录")

	plan := seedPlan(t, db, "v2.0 回归")
	require.NoError(t, db.Create(&models.PlanItem{
		PlanID: plan.ID, TestCaseID: caseA.ID, Position: 2, Result: models.ResultPass,
	}).Error)
	require.NoError(t, db.Create(&models.PlanItem{
		PlanID: plan.ID, TestCaseID: caseB.ID, Position: 1, Result: models.ResultFail,
	}).Error)

	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	link := seedShareLink(t, db, plan.ID, now, now.Add(7*24*time.Hour))

	svc := newReportService(t, db, func() time.Time { return now })
	payload, err := svc.ResolveReport(context.Background(), link.Token)
	require.NoError(t, err)

	assert.Equal(t, link.ID, payload.Share.ID)
	assert.Equal(t, link.Token, payload.Share.Token)
	assert.Equal(t, plan.ID, payload.Share.PlanID)
	assert.Equal(t, "v2.0 回归", payload.Plan.Name)
	require.Len(t, payload.Plan.Items, 2)

	// 条目按计划内 Position 排序
	assert.Equal(t, uint(1), payload.Plan.Items[0].Position)
	assert.Equal(t, models.ResultFail, payload.Plan.Items[0].Result)
	assert.Equal(t, uint(2), payload.Plan.Items[1].Position)

	// 面包屑从根到叶
	require.NotNil(t, payload.Plan.Items[1].TestCase)
	path := payload.Plan.Items[1].TestCase.FolderPath
	require.Len(t, path, 2)
	assert.Equal(t, "登录模块", path[0].Name)
	assert.Equal(t, "异常路径", path[1].Name)

	// 根目录用例的路径只有一级
	require.NotNil(t, payload.Plan.Items[0].TestCase)
	require.Len(t, payload.Plan.Items[0].TestCase.FolderPath, 1)
	assert.Equal(t, "登录模块", payload.Plan.Items[0].TestCase.FolderPath[0].Name)
}

func TestResolveReportSamePositionOrderedBySeq(t *testing.T) {
	db := newTestDB(t)

	root := seedFolder(t, db, nil, "模块")
	caseHighSeq := seedTestCase(t, db, root.ID, 20, "后补的用例")
	caseLowSeq := seedTestCase(t, db, root.ID, 5, "更早的用例")

	plan := seedPlan(t, db, "并列位置")
	// 两条条目 Position 相同,次级排序按用例 Seq 升序
	require.NoError(t, db.Create(&models.PlanItem{
		PlanID: plan.ID, TestCaseID: caseHighSeq.ID, Position: 1,
	}).Error)
	require.NoError(t, db.Create(&models.PlanItem{
		PlanID: plan.ID, TestCaseID: caseLowSeq.ID, Position: 1,
	}).Error)

	now := time.Now()
	link := seedShareLink(t, db, plan.ID, now, now.Add(time.Hour))

	svc := newReportService(t, db, nil)
	payload, err := svc.ResolveReport(context.Background(), link.Token)
	require.NoError(t, err)

	require.Len(t, payload.Plan.Items, 2)
	assert.Equal(t, uint64(5), payload.Plan.Items[0].TestCase.Seq)
	assert.Equal(t, uint64(20), payload.Plan.Items[1].TestCase.Seq)
}

func TestResolveReportExactlyAtExpiry(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "边界")

	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	link := seedShareLink(t, db, plan.ID, now.Add(-7*24*time.Hour), now)

	// 恰好到期时刻视为已失效
	svc := newReportService(t, db, func() time.Time { return now })
	_, err := svc.ResolveReport(context.Background(), link.Token)
	assert.ErrorIs(t, err, xerr.ErrShareLinkGone)
}
