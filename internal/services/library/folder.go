package library

import (
	"context"
	"fmt"

	"github.com/3Eeeecho/go-testhub/internal/models"
	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-testhub/internal/repositories"
	"go.uber.org/zap"
)

type FolderService interface {
	CreateFolder(ctx context.Context, userID uint64, parentID *uint64, name string) (*models.Folder, error)
	GetFolder(ctx context.Context, folderID uint64) (*models.Folder, error)
	ListChildren(ctx context.Context, parentID *uint64) ([]models.Folder, error)
	RenameFolder(ctx context.Context, folderID uint64, name string) (*models.Folder, error)
	MoveFolder(ctx context.Context, folderID uint64, newParentID *uint64) (*models.Folder, error)
	DeleteFolder(ctx context.Context, folderID uint64) error
}

type folderService struct {
	folderRepo repositories.FolderRepository
	domain     FolderDomainService
}

var _ FolderService = (*folderService)(nil)

func NewFolderService(folderRepo repositories.FolderRepository, domain FolderDomainService) FolderService {
	return &folderService{
		folderRepo: folderRepo,
		domain:     domain,
	}
}

func (s *folderService) CreateFolder(ctx context.Context, userID uint64, parentID *uint64, name string) (*models.Folder, error) {
	if parentID != nil {
		if _, err := s.folderRepo.FindByID(*parentID); err != nil {
			return nil, err
		}
		// 创建前校验父链深度,避免把树加深到超过上限
		path, err := s.domain.GetFolderPath(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if len(path) >= MaxFolderDepth {
			return nil, xerr.ErrFolderDepthExceeded
		}
	}

	folder := &models.Folder{
		ParentID:  parentID,
		Name:      name,
		CreatedBy: userID,
	}
	if err := s.folderRepo.Create(folder); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	logger.Info("目录创建成功", zap.Uint64("folder_id", folder.ID), zap.String("name", folder.Name))
	return folder, nil
}

func (s *folderService) GetFolder(ctx context.Context, folderID uint64) (*models.Folder, error) {
	return s.folderRepo.FindByID(folderID)
}

func (s *folderService) ListChildren(ctx context.Context, parentID *uint64) ([]models.Folder, error) {
	return s.folderRepo.FindByParentID(parentID)
}

func (s *folderService) RenameFolder(ctx context.Context, folderID uint64, name string) (*models.Folder, error) {
	folder, err := s.folderRepo.FindByID(folderID)
	if err != nil {
		return nil, err
	}

	folder.Name = name
	if err := s.folderRepo.Update(folder); err != nil {
		return nil, fmt.Errorf("failed to rename folder: %w", err)
	}

	// 只失效自身的路径缓存;子孙目录缓存的面包屑里仍是旧名,
	// 最长滞留一个缓存 TTL 后自然过期
	s.domain.InvalidatePathCache(ctx, folderID)
	return folder, nil
}

func (s *folderService) MoveFolder(ctx context.Context, folderID uint64, newParentID *uint64) (*models.Folder, error) {
	folder, err := s.folderRepo.FindByID(folderID)
	if err != nil {
		return nil, err
	}

	if newParentID != nil {
		if *newParentID == folderID {
			return nil, xerr.ErrCannotMoveIntoSubtree
		}
		if _, err := s.folderRepo.FindByID(*newParentID); err != nil {
			return nil, err
		}
		// 禁止移动到自身子树,否则 parent 链成环
		isDescendant, err := s.domain.IsDescendant(ctx, folderID, *newParentID)
		if err != nil {
			return nil, err
		}
		if isDescendant {
			return nil, xerr.ErrCannotMoveIntoSubtree
		}
	}

	folder.ParentID = newParentID
	if err := s.folderRepo.Update(folder); err != nil {
		return nil, fmt.Errorf("failed to move folder: %w", err)
	}

	s.domain.InvalidatePathCache(ctx, folderID)
	logger.Info("目录移动成功", zap.Uint64("folder_id", folderID))
	return folder, nil
}

func (s *folderService) DeleteFolder(ctx context.Context, folderID uint64) error {
	if _, err := s.folderRepo.FindByID(folderID); err != nil {
		return err
	}

	// 仅允许删除空目录,避免级联删除用例
	childCount, err := s.folderRepo.CountChildren(folderID)
	if err != nil {
		return fmt.Errorf("failed to count children: %w", err)
	}
	caseCount, err := s.folderRepo.CountTestCases(folderID)
	if err != nil {
		return fmt.Errorf("failed to count test cases: %w", err)
	}
	if childCount > 0 || caseCount > 0 {
		return xerr.ErrFolderNotEmpty
	}

	if err := s.folderRepo.Delete(folderID); err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}

	s.domain.InvalidatePathCache(ctx, folderID)
	logger.Info("目录删除成功", zap.Uint64("folder_id", folderID))
	return nil
}
