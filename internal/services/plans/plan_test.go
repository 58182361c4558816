package plans

import (
	"context"
	"testing"
	"time"

	"github.com/3Eeeecho/go-testhub/internal/models"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-testhub/internal/repositories"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Folder{},
		&models.TestCase{},
		&models.Plan{},
		&models.PlanItem{},
		&models.ShareLink{},
		&models.Attachment{},
	))
	return db
}

func newPlanService(db *gorm.DB) PlanService {
	return NewPlanService(
		repositories.NewPlanRepository(db),
		repositories.NewTestCaseRepository(db),
		repositories.NewShareLinkRepository(db),
		nil,
	)
}

func seedCase(t *testing.T, db *gorm.DB, seq uint64) *models.TestCase {
	t.Helper()
	folder := &models.Folder{Name: "目录", CreatedBy: 1}
	require.NoError(t, db.Create(folder).Error)
	tc := &models.TestCase{Seq: seq, FolderID: folder.ID, Title: "用例", CreatedBy: 1}
	require.NoError(t, db.Create(tc).Error)
	return tc
}

func TestDeletePlanBlockedByShareLinks(t *testing.T) {
	db := newTestDB(t)
	svc := newPlanService(db)
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, 1, "回归", "")
	require.NoError(t, err)

	// 撤销的链接同样是审计记录,依然阻止删除
	revokedAt := time.Now()
	require.NoError(t, db.Create(&models.ShareLink{
		Token:     "token-a",
		PlanID:    plan.ID,
		ExpiresAt: time.Now().Add(time.Hour),
		RevokedAt: &revokedAt,
	}).Error)

	err = svc.DeletePlan(ctx, plan.ID)
	assert.ErrorIs(t, err, xerr.ErrPlanHasShareLinks)

	// 没有链接的计划可以删除
	other, err := svc.CreatePlan(ctx, 1, "冒烟", "")
	require.NoError(t, err)
	require.NoError(t, svc.DeletePlan(ctx, other.ID))
}

func TestAddItemDuplicateRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newPlanService(db)
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, 1, "回归", "")
	require.NoError(t, err)
	tc := seedCase(t, db, 1)

	first, err := svc.AddItem(ctx, plan.ID, tc.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Position)
	assert.Equal(t, models.ResultUntested, first.Result)

	_, err = svc.AddItem(ctx, plan.ID, tc.ID)
	assert.ErrorIs(t, err, xerr.ErrItemAlreadyInPlan)
}

func TestAddItemPositionIncrements(t *testing.T) {
	db := newTestDB(t)
	svc := newPlanService(db)
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, 1, "回归", "")
	require.NoError(t, err)

	caseA := seedCase(t, db, 1)
	caseB := seedCase(t, db, 2)

	itemA, err := svc.AddItem(ctx, plan.ID, caseA.ID)
	require.NoError(t, err)
	itemB, err := svc.AddItem(ctx, plan.ID, caseB.ID)
	require.NoError(t, err)

	assert.Equal(t, uint(1), itemA.Position)
	assert.Equal(t, uint(2), itemB.Position)
}

func TestRecordResult(t *testing.T) {
	db := newTestDB(t)
	svc := newPlanService(db)
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, 1, "回归", "")
	require.NoError(t, err)
	tc := seedCase(t, db, 1)
	item, err := svc.AddItem(ctx, plan.ID, tc.ID)
	require.NoError(t, err)

	// 非法取值直接拒绝
	_, err = svc.RecordResult(ctx, plan.ID, item.ID, 7, RecordResultInput{Result: "passed"})
	assert.ErrorIs(t, err, xerr.ErrInvalidResult)

	updated, err := svc.RecordResult(ctx, plan.ID, item.ID, 7, RecordResultInput{
		Result:  models.ResultFail,
		Comment: "登录超时",
		Defects: "BUG-1024",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ResultFail, updated.Result)
	assert.Equal(t, "登录超时", updated.Comment)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, uint64(7), *updated.AssigneeID)
	assert.NotNil(t, updated.ExecutedAt)
}

func TestRecordResultWrongPlan(t *testing.T) {
	db := newTestDB(t)
	svc := newPlanService(db)
	ctx := context.Background()

	planA, err := svc.CreatePlan(ctx, 1, "A", "")
	require.NoError(t, err)
	planB, err := svc.CreatePlan(ctx, 1, "B", "")
	require.NoError(t, err)

	tc := seedCase(t, db, 1)
	item, err := svc.AddItem(ctx, planA.ID, tc.ID)
	require.NoError(t, err)

	// 条目不属于该计划时按不存在处理
	_, err = svc.RecordResult(ctx, planB.ID, item.ID, 1, RecordResultInput{Result: models.ResultPass})
	assert.ErrorIs(t, err, xerr.ErrPlanItemNotFound)
}

func TestReorderItems(t *testing.T) {
	db := newTestDB(t)
	svc := newPlanService(db)
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, 1, "回归", "")
	require.NoError(t, err)

	caseA := seedCase(t, db, 1)
	caseB := seedCase(t, db, 2)
	itemA, err := svc.AddItem(ctx, plan.ID, caseA.ID)
	require.NoError(t, err)
	itemB, err := svc.AddItem(ctx, plan.ID, caseB.ID)
	require.NoError(t, err)

	// 不完整的条目列表被拒绝
	err = svc.ReorderItems(ctx, plan.ID, []uint64{itemB.ID})
	assert.ErrorIs(t, err, xerr.ErrInvalidParams)

	require.NoError(t, svc.ReorderItems(ctx, plan.ID, []uint64{itemB.ID, itemA.ID}))

	loaded, err := svc.GetPlanWithItems(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, itemB.ID, loaded.Items[0].ID)
	assert.Equal(t, itemA.ID, loaded.Items[1].ID)
}

func TestGetProgress(t *testing.T) {
	db := newTestDB(t)
	svc := newPlanService(db)
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, 1, "回归", "")
	require.NoError(t, err)

	results := []string{models.ResultPass, models.ResultPass, models.ResultFail, models.ResultUntested}
	for i, result := range results {
		tc := seedCase(t, db, uint64(i+1))
		item, err := svc.AddItem(ctx, plan.ID, tc.ID)
		require.NoError(t, err)
		if result != models.ResultUntested {
			_, err = svc.RecordResult(ctx, plan.ID, item.ID, 1, RecordResultInput{Result: result})
			require.NoError(t, err)
		}
	}

	progress, err := svc.GetProgress(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), progress.Total)
	assert.Equal(t, int64(2), progress.Pass)
	assert.Equal(t, int64(1), progress.Fail)
	assert.Equal(t, int64(1), progress.Untested)
	assert.Equal(t, int64(0), progress.Blocked)
}
