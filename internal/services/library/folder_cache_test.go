package library

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/3Eeeecho/go-testhub/internal/models"
	"github.com/3Eeeecho/go-testhub/internal/pkg/cache"
	"github.com/3Eeeecho/go-testhub/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memoryCache 进程内 map 实现,仅供测试观察缓存读写
type memoryCache struct {
	data map[string][]byte
}

var _ cache.Cache = (*memoryCache)(nil)

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = data
	return nil
}

func (m *memoryCache) Get(_ context.Context, key string, target any) error {
	data, ok := m.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, target)
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *memoryCache) Expire(_ context.Context, _ string, _ time.Duration) error { return nil }

func (m *memoryCache) TTL(_ context.Context, _ string) (time.Duration, error) { return 0, nil }

func newCachedFolderService(db *gorm.DB, c cache.Cache) (FolderService, FolderDomainService) {
	domain := NewFolderDomainService(repositories.NewFolderRepository(db), c)
	return NewFolderService(repositories.NewFolderRepository(db), domain), domain
}

func TestRenameFolderInvalidatesOwnPathCache(t *testing.T) {
	db := newTestDB(t)
	mem := newMemoryCache()
	svc, domain := newCachedFolderService(db, mem)
	ctx := context.Background()

	folder := seedFolder(t, db, nil, "旧名")

	// 预热缓存
	path, err := domain.GetFolderPath(ctx, folder.ID)
	require.NoError(t, err)
	require.Equal(t, []models.FolderNode{{ID: folder.ID, Name: "旧名"}}, path)
	exists, err := mem.Exists(ctx, cache.GenerateFolderPathKey(folder.ID))
	require.NoError(t, err)
	require.True(t, exists)

	_, err = svc.RenameFolder(ctx, folder.ID, "新名")
	require.NoError(t, err)

	// 重命名后缓存已失效,重新读取拿到新名
	exists, err = mem.Exists(ctx, cache.GenerateFolderPathKey(folder.ID))
	require.NoError(t, err)
	assert.False(t, exists)

	path, err = domain.GetFolderPath(ctx, folder.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.FolderNode{{ID: folder.ID, Name: "新名"}}, path)
}

func TestRenameFolderDescendantPathStaleUntilExpiry(t *testing.T) {
	db := newTestDB(t)
	mem := newMemoryCache()
	svc, domain := newCachedFolderService(db, mem)
	ctx := context.Background()

	parent := seedFolder(t, db, nil, "旧名")
	child := seedFolder(t, db, &parent.ID, "子目录")

	// 预热子目录路径缓存
	path, err := domain.GetFolderPath(ctx, child.ID)
	require.NoError(t, err)
	require.Equal(t, "旧名", path[0].Name)

	_, err = svc.RenameFolder(ctx, parent.ID, "新名")
	require.NoError(t, err)

	// 子目录缓存的面包屑保留旧名直到过期
	path, err = domain.GetFolderPath(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "旧名", path[0].Name)

	// 缓存过期后读到新名
	require.NoError(t, mem.Del(ctx, cache.GenerateFolderPathKey(child.ID)))
	path, err = domain.GetFolderPath(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "新名", path[0].Name)
}
