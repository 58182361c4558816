package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/utils"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-testhub/internal/services/share"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ShareHandler struct {
	shareService share.ShareLinkService
}

func NewShareHandler(shareService share.ShareLinkService) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
	}
}

// CreateShareLink 为计划创建分享链接
// @Summary 创建分享链接
// @Description 为指定计划生成只读报告的分享链接，有效期固定为 7 天
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param plan_id path int true "计划 ID"
// @Success 201 {object} xerr.Response "分享链接创建成功"
// @Failure 404 {object} xerr.Response "计划不存在"
// @Failure 503 {object} xerr.Response "token 生成冲突，重试耗尽"
// @Router /api/v1/plans/{plan_id}/shares [post]
func (h *ShareHandler) CreateShareLink(c *gin.Context) {
	planID, ok := parseIDParam(c, "plan_id")
	if !ok {
		return
	}

	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	link, err := h.shareService.CreateShareLink(c.Request.Context(), planID, userID)
	if err != nil {
		if errors.Is(err, xerr.ErrPlanNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.PlanNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrTokenConflict) {
			xerr.Error(c, http.StatusServiceUnavailable, xerr.TokenConflictCode, err.Error())
		} else {
			logger.Error("CreateShareLink: 创建分享链接失败", zap.Uint64("planID", planID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "创建分享链接失败")
		}
		return
	}

	xerr.Success(c, http.StatusCreated, "分享链接创建成功", gin.H{
		"share":     link,
		"share_url": fmt.Sprintf("/share/reports/%s", link.Token),
	})
}

// ListShareLinks 列出计划的分享链接
// @Summary 列出计划的分享链接
// @Description 返回计划的全部分享链接（含已过期和已撤销的），按创建时间倒序
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param plan_id path int true "计划 ID"
// @Success 200 {object} xerr.Response "分享链接列表"
// @Failure 404 {object} xerr.Response "计划不存在"
// @Router /api/v1/plans/{plan_id}/shares [get]
func (h *ShareHandler) ListShareLinks(c *gin.Context) {
	planID, ok := parseIDParam(c, "plan_id")
	if !ok {
		return
	}

	links, err := h.shareService.ListShareLinks(c.Request.Context(), planID)
	if err != nil {
		if errors.Is(err, xerr.ErrPlanNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.PlanNotFoundCode, err.Error())
		} else {
			logger.Error("ListShareLinks: 获取分享链接列表失败", zap.Uint64("planID", planID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "获取分享链接列表失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "获取分享链接列表成功", gin.H{
		"shares": links,
	})
}

// RevokeShareLink 撤销分享链接
// @Summary 撤销分享链接
// @Description 撤销后链接立即失效且不可恢复；重复撤销返回成功并标记 already_revoked
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param share_id path int true "分享链接 ID"
// @Success 200 {object} xerr.Response "撤销成功"
// @Failure 404 {object} xerr.Response "分享链接不存在"
// @Router /api/v1/shares/{share_id}/revoke [post]
func (h *ShareHandler) RevokeShareLink(c *gin.Context) {
	shareID, ok := parseIDParam(c, "share_id")
	if !ok {
		return
	}

	link, alreadyRevoked, err := h.shareService.RevokeShareLink(c.Request.Context(), shareID)
	if err != nil {
		if errors.Is(err, xerr.ErrShareLinkNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.ShareLinkNotFoundCode, err.Error())
		} else {
			logger.Error("RevokeShareLink: 撤销分享链接失败", zap.Uint64("shareID", shareID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "撤销分享链接失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "分享链接已撤销", gin.H{
		"share":           link,
		"already_revoked": alreadyRevoked,
	})
}
