package library

import (
	"context"
	"testing"

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
	))
	return db
}

func seedFolder(t *testing.T, db *gorm.DB, parentID *uint64, name string) *models.Folder {
	t.Helper()
	folder := &models.Folder{ParentID: parentID, Name: name, CreatedBy: 1}
	require.NoError(t, db.Create(folder).Error)
	return folder
}

func newDomainService(db *gorm.DB) FolderDomainService {
	return NewFolderDomainService(repositories.NewFolderRepository(db), nil)
}

func TestGetFolderPathRootToLeaf(t *testing.T) {
	db := newTestDB(t)
	a := seedFolder(t, db, nil, "支付")
	b := seedFolder(t, db, &a.ID, "退款")
	c := seedFolder(t, db, &b.ID, "部分退款")

	path, err := newDomainService(db).GetFolderPath(context.Background(), c.ID)
	require.NoError(t, err)

	require.Len(t, path, 3)
	assert.Equal(t, []models.FolderNode{
		{ID: a.ID, Name: "支付"},
		{ID: b.ID, Name: "退款"},
		{ID: c.ID, Name: "部分退款"},
	}, path)
}

func TestGetFolderPathTruncatedAtMissingAncestor(t *testing.T) {
	db := newTestDB(t)
	a := seedFolder(t, db, nil, "支付")
	b := seedFolder(t, db, &a.ID, "退款")
	c := seedFolder(t, db, &b.ID, "部分退款")

	// 中间目录被删除,路径在缺口处截断而不是报错
	require.NoError(t, repositories.NewFolderRepository(db).Delete(b.ID))

	path, err := newDomainService(db).GetFolderPath(context.Background(), c.ID)
	require.NoError(t, err)

	require.Len(t, path, 1)
	assert.Equal(t, c.ID, path[0].ID)
}

func TestGetFolderPathLeafMissing(t *testing.T) {
	db := newTestDB(t)

	path, err := newDomainService(db).GetFolderPath(context.Background(), 999)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestGetFolderPathCycleGuard(t *testing.T) {
	db := newTestDB(t)
	a := seedFolder(t, db, nil, "A")
	b := seedFolder(t, db, &a.ID, "B")

	// 直接构造环形 parent 链,模拟脏数据
	require.NoError(t, db.Model(&models.Folder{}).Where("id = ?", a.ID).Update("parent_id", b.ID).Error)

	_, err := newDomainService(db).GetFolderPath(context.Background(), b.ID)
	assert.ErrorIs(t, err, xerr.ErrFolderDepthExceeded)
}

func TestIsDescendant(t *testing.T) {
	db := newTestDB(t)
	a := seedFolder(t, db, nil, "A")
	b := seedFolder(t, db, &a.ID, "B")
	c := seedFolder(t, db, nil, "C")

	svc := newDomainService(db)
	ctx := context.Background()

	self, err := svc.IsDescendant(ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, self)

	child, err := svc.IsDescendant(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, child)

	sibling, err := svc.IsDescendant(ctx, a.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, sibling)
}

func TestMoveFolderIntoSubtreeRejected(t *testing.T) {
	db := newTestDB(t)
	a := seedFolder(t, db, nil, "A")
	b := seedFolder(t, db, &a.ID, "B")

	folderRepo := repositories.NewFolderRepository(db)
	svc := NewFolderService(folderRepo, newDomainService(db))
	ctx := context.Background()

	// 移动到自身
	_, err := svc.MoveFolder(ctx, a.ID, &a.ID)
	assert.ErrorIs(t, err, xerr.ErrCannotMoveIntoSubtree)

	// 移动到自己的子目录
	_, err = svc.MoveFolder(ctx, a.ID, &b.ID)
	assert.ErrorIs(t, err, xerr.ErrCannotMoveIntoSubtree)

	// 正常移动:子目录提升到根
	moved, err := svc.MoveFolder(ctx, b.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
}

func TestDeleteFolderNotEmpty(t *testing.T) {
	db := newTestDB(t)
	a := seedFolder(t, db, nil, "A")
	b := seedFolder(t, db, &a.ID, "B")

	folderRepo := repositories.NewFolderRepository(db)
	svc := NewFolderService(folderRepo, newDomainService(db))
	ctx := context.Background()

	// 有子目录不允许删除
	err := svc.DeleteFolder(ctx, a.ID)
	assert.ErrorIs(t, err, xerr.ErrFolderNotEmpty)

	// 有用例也不允许删除
	require.NoError(t, db.Create(&models.TestCase{
		Seq: 1, FolderID: b.ID, Title: "用例", CreatedBy: 1,
	}).Error)
	err = svc.DeleteFolder(ctx, b.ID)
	assert.ErrorIs(t, err, xerr.ErrFolderNotEmpty)

	// 清空后可以删除
	require.NoError(t, db.Where("folder_id = ?", b.ID).Delete(&models.TestCase{}).Error)
	require.NoError(t, svc.DeleteFolder(ctx, b.ID))
	require.NoError(t, svc.DeleteFolder(ctx, a.ID))
}
