package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/utils"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-testhub/internal/services/plans"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AttachmentHandler struct {
	evidenceService plans.EvidenceService
}

func NewAttachmentHandler(evidenceService plans.EvidenceService) *AttachmentHandler {
	return &AttachmentHandler{
		evidenceService: evidenceService,
	}
}

// UploadAttachment 为计划条目上传执行证据
// @Summary 上传执行证据附件
// @Description 为计划条目上传截图、日志等附件
// @Tags 附件
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param item_id path int true "条目 ID"
// @Param file formData file true "附件文件"
// @Success 201 {object} xerr.Response "附件上传成功"
// @Failure 400 {object} xerr.Response "附件过大或参数无效"
// @Failure 404 {object} xerr.Response "条目不存在"
// @Router /api/v1/items/{item_id}/attachments [post]
func (h *AttachmentHandler) UploadAttachment(c *gin.Context) {
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}

	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "获取上传文件失败: "+err.Error())
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		logger.Error("UploadAttachment: 打开上传文件失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "读取上传文件失败")
		return
	}
	defer src.Close()

	attachment, err := h.evidenceService.UploadAttachment(c.Request.Context(), userID, plans.UploadAttachmentInput{
		PlanItemID: itemID,
		FileName:   fileHeader.Filename,
		Size:       fileHeader.Size,
		MimeType:   fileHeader.Header.Get("Content-Type"),
		Reader:     src,
	})
	if err != nil {
		if errors.Is(err, xerr.ErrPlanItemNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.PlanItemNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrAttachmentTooLarge) {
			xerr.Error(c, http.StatusBadRequest, xerr.AttachmentTooLargeCode, err.Error())
		} else {
			logger.Error("UploadAttachment: 上传附件失败", zap.Uint64("itemID", itemID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, "上传附件失败")
		}
		return
	}

	xerr.Success(c, http.StatusCreated, "附件上传成功", gin.H{
		"attachment": attachment,
	})
}

// ListAttachments 列出条目的附件
// @Summary 列出条目的附件
// @Tags 附件
// @Produce json
// @Security BearerAuth
// @Param item_id path int true "条目 ID"
// @Success 200 {object} xerr.Response "附件列表"
// @Failure 404 {object} xerr.Response "条目不存在"
// @Router /api/v1/items/{item_id}/attachments [get]
func (h *AttachmentHandler) ListAttachments(c *gin.Context) {
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}

	attachments, err := h.evidenceService.ListAttachments(c.Request.Context(), itemID)
	if err != nil {
		if errors.Is(err, xerr.ErrPlanItemNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.PlanItemNotFoundCode, err.Error())
		} else {
			logger.Error("ListAttachments: 获取附件列表失败", zap.Uint64("itemID", itemID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "获取附件列表失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "获取附件列表成功", gin.H{
		"attachments": attachments,
	})
}

// DownloadAttachment 下载附件
// @Summary 下载附件
// @Description 生成预签名 URL 并重定向
// @Tags 附件
// @Security BearerAuth
// @Param attachment_id path int true "附件 ID"
// @Success 302 "重定向到下载地址"
// @Failure 404 {object} xerr.Response "附件不存在"
// @Router /api/v1/attachments/{attachment_id}/download [get]
func (h *AttachmentHandler) DownloadAttachment(c *gin.Context) {
	attachmentID, ok := parseIDParam(c, "attachment_id")
	if !ok {
		return
	}

	downloadURL, err := h.evidenceService.GetDownloadURL(c.Request.Context(), attachmentID)
	if err != nil {
		if errors.Is(err, xerr.ErrAttachmentNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.AttachmentNotFoundCode, err.Error())
		} else {
			logger.Error("DownloadAttachment: 生成下载链接失败", zap.Uint64("attachmentID", attachmentID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, "获取下载链接失败")
		}
		return
	}

	c.Redirect(http.StatusFound, downloadURL)
}

// DeleteAttachment 删除附件
// @Summary 删除附件
// @Description 删除记录并异步清理存储对象
// @Tags 附件
// @Security BearerAuth
// @Param attachment_id path int true "附件 ID"
// @Success 204 "删除成功"
// @Failure 404 {object} xerr.Response "附件不存在"
// @Router /api/v1/attachments/{attachment_id} [delete]
func (h *AttachmentHandler) DeleteAttachment(c *gin.Context) {
	attachmentID, ok := parseIDParam(c, "attachment_id")
	if !ok {
		return
	}

	err := h.evidenceService.DeleteAttachment(c.Request.Context(), attachmentID)
	if err != nil {
		if errors.Is(err, xerr.ErrAttachmentNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.AttachmentNotFoundCode, err.Error())
		} else {
			logger.Error("DeleteAttachment: 删除附件失败", zap.Uint64("attachmentID", attachmentID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "删除附件失败")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// DownloadPlanEvidence 打包下载计划全部证据
// @Summary 打包下载计划证据
// @Description 把计划下全部附件打包为 ZIP 并流式传输
// @Tags 附件
// @Produce octet-stream
// @Security BearerAuth
// @Param plan_id path int true "计划 ID"
// @Success 200 {file} file "证据包下载成功"
// @Failure 404 {object} xerr.Response "计划不存在"
// @Router /api/v1/plans/{plan_id}/evidence [get]
func (h *AttachmentHandler) DownloadPlanEvidence(c *gin.Context) {
	planID, ok := parseIDParam(c, "plan_id")
	if !ok {
		return
	}

	fileName := fmt.Sprintf("plan_%d_evidence.zip", planID)
	encodedFileName := url.PathEscape(fileName)
	contentDisposition := fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, encodedFileName, encodedFileName)

	c.Header("Content-Disposition", contentDisposition)
	c.Header("Content-Type", "application/zip")

	if err := h.evidenceService.BundlePlanEvidence(c.Request.Context(), planID, c.Writer); err != nil {
		if errors.Is(err, xerr.ErrPlanNotFound) {
			// 响应头尚未提交时仍可返回 JSON 错误
			c.Header("Content-Disposition", "")
			c.Header("Content-Type", "")
			xerr.Error(c, http.StatusNotFound, xerr.PlanNotFoundCode, err.Error())
			return
		}
		logger.Error("DownloadPlanEvidence: 打包证据失败", zap.Uint64("planID", planID), zap.Error(err))
	}
}
