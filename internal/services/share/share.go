package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-testhub/internal/config"
	"github.com/3Eeeecho/go-testhub/internal/models"
	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/utils"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-testhub/internal/repositories"
	"go.uber.org/zap"
)

// TokenGenerator 生成分享 token,注入以便测试构造碰撞
type TokenGenerator func() (string, error)

type ShareLinkService interface {
	// CreateShareLink 为计划生成一条新的分享链接
	// token 撞唯一索引时重试,超过上限返回 ErrTokenConflict
	CreateShareLink(ctx context.Context, planID, userID uint64) (*models.ShareLink, error)
	// ListShareLinks 返回计划的全部分享链接(含已过期/已撤销),新的在前
	ListShareLinks(ctx context.Context, planID uint64) ([]models.ShareLink, error)
	// RevokeShareLink 撤销链接,幂等;alreadyRevoked 表示本次调用前已是撤销态
	RevokeShareLink(ctx context.Context, shareID uint64) (link *models.ShareLink, alreadyRevoked bool, err error)
}

type shareLinkService struct {
	shareRepo repositories.ShareLinkRepository
	planRepo  repositories.PlanRepository
	genToken  TokenGenerator
	cfg       *config.ShareConfig
	now       func() time.Time
}

var _ ShareLinkService = (*shareLinkService)(nil)

func NewShareLinkService(
	shareRepo repositories.ShareLinkRepository,
	planRepo repositories.PlanRepository,
	genToken TokenGenerator,
	cfg *config.ShareConfig,
) ShareLinkService {
	if genToken == nil {
		genToken = utils.GenerateShareToken
	}
	return &shareLinkService{
		shareRepo: shareRepo,
		planRepo:  planRepo,
		genToken:  genToken,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *shareLinkService) CreateShareLink(ctx context.Context, planID, userID uint64) (*models.ShareLink, error) {
	// 计划必须存在且未删除才能分享
	if _, err := s.planRepo.FindByID(planID); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.cfg.MaxTokenAttempts; attempt++ {
		token, err := s.genToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate share token: %w", err)
		}

		createdAt := s.now()
		link := &models.ShareLink{
			Token:           token,
			PlanID:          planID,
			CreatedByUserID: userID,
			CreatedAt:       createdAt,
			ExpiresAt:       createdAt.Add(s.cfg.TTL),
		}

		err = s.shareRepo.Create(link)
		if err == nil {
			logger.Info("分享链接创建成功",
				zap.Uint64("share_id", link.ID),
				zap.Uint64("plan_id", planID),
				zap.Int("attempt", attempt))
			return link, nil
		}
		if !errors.Is(err, repositories.ErrTokenDuplicated) {
			return nil, fmt.Errorf("failed to create share link: %w", err)
		}
		logger.Warn("分享 token 碰撞,重试生成",
			zap.Uint64("plan_id", planID),
			zap.Int("attempt", attempt))
	}

	logger.Error("分享 token 重试次数耗尽",
		zap.Uint64("plan_id", planID),
		zap.Int("max_attempts", s.cfg.MaxTokenAttempts))
	return nil, xerr.ErrTokenConflict
}

func (s *shareLinkService) ListShareLinks(ctx context.Context, planID uint64) ([]models.ShareLink, error) {
	if _, err := s.planRepo.FindByID(planID); err != nil {
		return nil, err
	}
	return s.shareRepo.FindAllByPlanID(planID)
}

func (s *shareLinkService) RevokeShareLink(ctx context.Context, shareID uint64) (*models.ShareLink, bool, error) {
	link, err := s.shareRepo.FindByID(shareID)
	if err != nil {
		return nil, false, err
	}

	// 已撤销的链接保持原撤销时间不变
	if link.RevokedAt != nil {
		return link, true, nil
	}

	revokedAt := s.now()
	link.RevokedAt = &revokedAt
	if err := s.shareRepo.Update(link); err != nil {
		return nil, false, fmt.Errorf("failed to revoke share link: %w", err)
	}

	logger.Info("分享链接已撤销",
		zap.Uint64("share_id", link.ID),
		zap.Uint64("plan_id", link.PlanID))
	return link, false, nil
}
