package handlers

import (
	"errors"
	"net/http"

	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-testhub/internal/services/share"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReportHandler 对外暴露公开报告,token 即访问凭证,不经过登录中间件
type ReportHandler struct {
	reportService share.ReportService
}

func NewReportHandler(reportService share.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// GetSharedReport 通过分享 token 查看只读报告
// @Summary 查看分享的测试报告
// @Description 无需登录。token 不存在返回 404；已过期、已撤销或计划已删除返回 410
// @Tags 分享
// @Produce json
// @Param token path string true "分享 token"
// @Success 200 {object} xerr.Response "报告内容"
// @Failure 404 {object} xerr.Response "分享链接不存在"
// @Failure 410 {object} xerr.Response "分享链接已失效"
// @Router /share/reports/{token} [get]
func (h *ReportHandler) GetSharedReport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "分享token不能为空")
		return
	}

	payload, err := h.reportService.ResolveReport(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, xerr.ErrShareLinkNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.ShareLinkNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrShareLinkGone) {
			xerr.Error(c, http.StatusGone, xerr.ShareLinkGoneCode, err.Error())
		} else {
			logger.Error("GetSharedReport: 解析分享报告失败", zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "获取分享报告失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "获取分享报告成功", payload)
}
