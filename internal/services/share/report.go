package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-testhub/internal/models"
	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-testhub/internal/repositories"
	"github.com/3Eeeecho/go-testhub/internal/services/library"
	"go.uber.org/zap"
)

// ShareMeta 报告中的分享链接元信息
type ShareMeta struct {
	ID        uint64     `json:"id"`
	Token     string     `json:"token"`
	PlanID    uint64     `json:"plan_id"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at"`
}

// ReportCase 报告中的用例快照
type ReportCase struct {
	ID           uint64              `json:"id"`
	Seq          uint64              `json:"seq"`
	Title        string              `json:"title"`
	Precondition string              `json:"precondition"`
	Steps        string              `json:"steps"`
	Expected     string              `json:"expected"`
	Priority     uint8               `json:"priority"`
	FolderPath   []models.FolderNode `json:"folder_path"`
}

// ReportItem 报告中的计划条目及其执行结果
type ReportItem struct {
	ID         uint64      `json:"id"`
	Position   uint        `json:"position"`
	Result     string      `json:"result"`
	Comment    string      `json:"comment,omitempty"`
	Defects    string      `json:"defects,omitempty"`
	ExecutedAt *time.Time  `json:"executed_at"`
	TestCase   *ReportCase `json:"test_case"`
}

// ReportPlan 报告中的计划信息
type ReportPlan struct {
	ID          uint64       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Status      uint8        `json:"status"`
	Items       []ReportItem `json:"items"`
}

// ReportPayload 公开报告的完整响应体
type ReportPayload struct {
	Share ShareMeta  `json:"share"`
	Plan  ReportPlan `json:"plan"`
}

// ReportService 把分享 token 解析为公开报告
// token 即能力凭证,公开路径上没有任何登录态
type ReportService interface {
	// ResolveReport 解析 token:
	// 不存在返回 ErrShareLinkNotFound;
	// 已过期/已撤销/计划已删除返回 ErrShareLinkGone
	ResolveReport(ctx context.Context, token string) (*ReportPayload, error)
}

type reportService struct {
	shareRepo repositories.ShareLinkRepository
	planRepo  repositories.PlanRepository
	domain    library.FolderDomainService
	now       func() time.Time
}

var _ ReportService = (*reportService)(nil)

func NewReportService(
	shareRepo repositories.ShareLinkRepository,
	planRepo repositories.PlanRepository,
	domain library.FolderDomainService,
) ReportService {
	return &reportService{
		shareRepo: shareRepo,
		planRepo:  planRepo,
		domain:    domain,
		now:       time.Now,
	}
}

func (s *reportService) ResolveReport(ctx context.Context, token string) (*ReportPayload, error) {
	link, err := s.shareRepo.FindByToken(token)
	if err != nil {
		// 从未存在过的 token 与失效的 token 必须区分开
		return nil, err
	}

	if !link.IsLive(s.now()) {
		return nil, xerr.ErrShareLinkGone
	}

	plan, err := s.planRepo.FindByIDWithItems(link.PlanID)
	if err != nil {
		if errors.Is(err, xerr.ErrPlanNotFound) {
			// 链接尚在但计划已删除:曾经有效,现在失效
			logger.Warn("分享链接指向的计划已删除",
				zap.Uint64("share_id", link.ID),
				zap.Uint64("plan_id", link.PlanID))
			return nil, xerr.ErrShareLinkGone
		}
		return nil, fmt.Errorf("failed to load plan for report: %w", err)
	}

	items, err := s.buildItems(ctx, plan.Items)
	if err != nil {
		return nil, err
	}

	return &ReportPayload{
		Share: ShareMeta{
			ID:        link.ID,
			Token:     link.Token,
			PlanID:    link.PlanID,
			CreatedAt: link.CreatedAt,
			ExpiresAt: link.ExpiresAt,
			RevokedAt: link.RevokedAt,
		},
		Plan: ReportPlan{
			ID:          plan.ID,
			Name:        plan.Name,
			Description: plan.Description,
			Status:      plan.Status,
			Items:       items,
		},
	}, nil
}

func (s *reportService) buildItems(ctx context.Context, planItems []models.PlanItem) ([]ReportItem, error) {
	items := make([]ReportItem, 0, len(planItems))
	// 同一目录下的用例共享路径,按目录 ID 记忆化
	pathByFolder := make(map[uint64][]models.FolderNode)

	for _, item := range planItems {
		reportItem := ReportItem{
			ID:         item.ID,
			Position:   item.Position,
			Result:     item.Result,
			Comment:    item.Comment,
			Defects:    item.Defects,
			ExecutedAt: item.ExecutedAt,
		}

		if item.TestCase != nil {
			path, ok := pathByFolder[item.TestCase.FolderID]
			if !ok {
				var err error
				path, err = s.domain.GetFolderPath(ctx, item.TestCase.FolderID)
				if err != nil {
					return nil, fmt.Errorf("failed to resolve folder path for case %d: %w", item.TestCase.ID, err)
				}
				pathByFolder[item.TestCase.FolderID] = path
			}
			reportItem.TestCase = &ReportCase{
				ID:           item.TestCase.ID,
				Seq:          item.TestCase.Seq,
				Title:        item.TestCase.Title,
				Precondition: item.TestCase.Precondition,
				Steps:        item.TestCase.Steps,
				Expected:     item.TestCase.Expected,
				Priority:     item.TestCase.Priority,
				FolderPath:   path,
			}
		}

		items = append(items, reportItem)
	}
	return items, nil
}
