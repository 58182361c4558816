package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-testhub/internal/models"
	"github.com/3Eeeecho/go-testhub/internal/pkg/cache"
	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-testhub/internal/repositories"
	"go.uber.org/zap"
)

// MaxFolderDepth 目录树最大深度,超过视为数据异常(可能存在环)
const MaxFolderDepth = 64

// folderPathCacheTTL 面包屑路径缓存时长
const folderPathCacheTTL = 5 * time.Minute

// FolderDomainService 封装目录树的公共领域逻辑:
// 路径解析、子树判断等,供 folder/testcase/report 多个服务复用
type FolderDomainService interface {
	// GetFolderPath 返回从根到 folderID 的路径(含自身)
	// 若某个祖先已被删除,路径在该处截断
	GetFolderPath(ctx context.Context, folderID uint64) ([]models.FolderNode, error)
	// IsDescendant 判断 candidate 是否位于 ancestor 的子树中(含自身)
	IsDescendant(ctx context.Context, ancestorID, candidateID uint64) (bool, error)
	// InvalidatePathCache 目录重命名/移动后失效缓存
	InvalidatePathCache(ctx context.Context, folderID uint64)
}

type folderDomainService struct {
	folderRepo repositories.FolderRepository
	cache      cache.Cache
}

var _ FolderDomainService = (*folderDomainService)(nil)

func NewFolderDomainService(folderRepo repositories.FolderRepository, cache cache.Cache) FolderDomainService {
	return &folderDomainService{
		folderRepo: folderRepo,
		cache:      cache,
	}
}

func (s *folderDomainService) GetFolderPath(ctx context.Context, folderID uint64) ([]models.FolderNode, error) {
	cacheKey := cache.GenerateFolderPathKey(folderID)
	if s.cache != nil {
		var cached []models.FolderNode
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	path, err := s.walkToRoot(folderID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(path) > 0 {
		if cacheErr := s.cache.Set(ctx, cacheKey, path, folderPathCacheTTL); cacheErr != nil {
			logger.Warn("缓存目录路径失败", zap.Uint64("folder_id", folderID), zap.Error(cacheErr))
		}
	}
	return path, nil
}

// walkToRoot 自叶向根迭代上溯,visited 集合与深度上限共同防御环形 parent 链
func (s *folderDomainService) walkToRoot(folderID uint64) ([]models.FolderNode, error) {
	var reversed []models.FolderNode
	visited := make(map[uint64]struct{})

	currentID := &folderID
	for depth := 0; currentID != nil; depth++ {
		if depth >= MaxFolderDepth {
			logger.Error("目录层级超出上限,疑似存在环", zap.Uint64("folder_id", folderID))
			return nil, xerr.ErrFolderDepthExceeded
		}
		if _, ok := visited[*currentID]; ok {
			logger.Error("目录 parent 链存在环", zap.Uint64("folder_id", folderID), zap.Uint64("cycle_at", *currentID))
			return nil, xerr.ErrFolderDepthExceeded
		}
		visited[*currentID] = struct{}{}

		folder, err := s.folderRepo.FindByID(*currentID)
		if err != nil {
			if errors.Is(err, xerr.ErrFolderNotFound) {
				// 祖先缺失:在此截断而不是报错,叶子缺失则返回空路径
				break
			}
			return nil, fmt.Errorf("failed to resolve folder path: %w", err)
		}
		reversed = append(reversed, models.FolderNode{ID: folder.ID, Name: folder.Name})
		currentID = folder.ParentID
	}

	// 反转为根到叶顺序
	path := make([]models.FolderNode, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	return path, nil
}

func (s *folderDomainService) IsDescendant(ctx context.Context, ancestorID, candidateID uint64) (bool, error) {
	if ancestorID == candidateID {
		return true, nil
	}
	path, err := s.walkToRoot(candidateID)
	if err != nil {
		return false, err
	}
	for _, node := range path {
		if node.ID == ancestorID {
			return true, nil
		}
	}
	return false, nil
}

func (s *folderDomainService) InvalidatePathCache(ctx context.Context, folderID uint64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cache.GenerateFolderPathKey(folderID)); err != nil {
		logger.Warn("失效目录路径缓存失败", zap.Uint64("folder_id", folderID), zap.Error(err))
	}
}
