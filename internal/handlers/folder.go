package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/utils"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-testhub/internal/services/library"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FolderHandler struct {
	folderService library.FolderService
	domainService library.FolderDomainService
}

func NewFolderHandler(folderService library.FolderService, domainService library.FolderDomainService) *FolderHandler {
	return &FolderHandler{
		folderService: folderService,
		domainService: domainService,
	}
}

type CreateFolderRequest struct {
	ParentID *uint64 `json:"parent_id"` // 为空表示根目录
	Name     string  `json:"name" binding:"required,min=1,max=128"`
}

type RenameFolderRequest struct {
	Name string `json:"name" binding:"required,min=1,max=128"`
}

type MoveFolderRequest struct {
	NewParentID *uint64 `json:"new_parent_id"` // 为空表示移动到根
}

// CreateFolder 创建目录
// @Summary 创建目录
// @Tags 用例库
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateFolderRequest true "目录信息"
// @Success 201 {object} xerr.Response "目录创建成功"
// @Failure 400 {object} xerr.Response "请求参数无效"
// @Failure 404 {object} xerr.Response "父目录不存在"
// @Router /api/v1/folders [post]
func (h *FolderHandler) CreateFolder(c *gin.Context) {
	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	folder, err := h.folderService.CreateFolder(c.Request.Context(), userID, req.ParentID, req.Name)
	if err != nil {
		if errors.Is(err, xerr.ErrFolderNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.FolderNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrFolderDepthExceeded) {
			xerr.Error(c, http.StatusBadRequest, xerr.FolderDepthExceededCode, err.Error())
		} else {
			logger.Error("CreateFolder: 创建目录失败", zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "创建目录失败")
		}
		return
	}

	xerr.Success(c, http.StatusCreated, "目录创建成功", gin.H{
		"folder": folder,
	})
}

// ListFolders 列出子目录
// @Summary 列出子目录
// @Description 列出指定目录的直接子目录，未指定 parent_id 时返回根目录列表
// @Tags 用例库
// @Produce json
// @Security BearerAuth
// @Param parent_id query int false "父目录 ID"
// @Success 200 {object} xerr.Response "子目录列表"
// @Router /api/v1/folders [get]
func (h *FolderHandler) ListFolders(c *gin.Context) {
	var parentID *uint64
	if parentIDStr := c.Query("parent_id"); parentIDStr != "" {
		id, err := strconv.ParseUint(parentIDStr, 10, 64)
		if err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "父目录ID格式无效")
			return
		}
		parentID = &id
	}

	folders, err := h.folderService.ListChildren(c.Request.Context(), parentID)
	if err != nil {
		logger.Error("ListFolders: 获取目录列表失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "获取目录列表失败")
		return
	}

	xerr.Success(c, http.StatusOK, "获取目录列表成功", gin.H{
		"folders": folders,
	})
}

// GetFolderPath 获取目录面包屑路径
// @Summary 获取目录路径
// @Description 返回从根到指定目录的完整路径
// @Tags 用例库
// @Produce json
// @Security BearerAuth
// @Param folder_id path int true "目录 ID"
// @Success 200 {object} xerr.Response "目录路径"
// @Failure 404 {object} xerr.Response "目录不存在"
// @Router /api/v1/folders/{folder_id}/path [get]
func (h *FolderHandler) GetFolderPath(c *gin.Context) {
	folderID, ok := parseIDParam(c, "folder_id")
	if !ok {
		return
	}

	// 先确认目录本身存在,路径截断语义只对祖先生效
	if _, err := h.folderService.GetFolder(c.Request.Context(), folderID); err != nil {
		if errors.Is(err, xerr.ErrFolderNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.FolderNotFoundCode, err.Error())
		} else {
			logger.Error("GetFolderPath: 查询目录失败", zap.Uint64("folderID", folderID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "获取目录路径失败")
		}
		return
	}

	path, err := h.domainService.GetFolderPath(c.Request.Context(), folderID)
	if err != nil {
		logger.Error("GetFolderPath: 解析目录路径失败", zap.Uint64("folderID", folderID), zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "获取目录路径失败")
		return
	}

	xerr.Success(c, http.StatusOK, "获取目录路径成功", gin.H{
		"path": path,
	})
}

// RenameFolder 重命名目录
// @Summary 重命名目录
// @Tags 用例库
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param folder_id path int true "目录 ID"
// @Param request body RenameFolderRequest true "新名称"
// @Success 200 {object} xerr.Response "重命名成功"
// @Failure 404 {object} xerr.Response "目录不存在"
// @Router /api/v1/folders/{folder_id}/rename [post]
func (h *FolderHandler) RenameFolder(c *gin.Context) {
	folderID, ok := parseIDParam(c, "folder_id")
	if !ok {
		return
	}

	var req RenameFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	folder, err := h.folderService.RenameFolder(c.Request.Context(), folderID, req.Name)
	if err != nil {
		if errors.Is(err, xerr.ErrFolderNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.FolderNotFoundCode, err.Error())
		} else {
			logger.Error("RenameFolder: 重命名目录失败", zap.Uint64("folderID", folderID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "重命名目录失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "重命名成功", gin.H{
		"folder": folder,
	})
}

// MoveFolder 移动目录
// @Summary 移动目录
// @Description 把目录移动到新的父目录下，不允许移动到自身子树
// @Tags 用例库
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param folder_id path int true "目录 ID"
// @Param request body MoveFolderRequest true "目标父目录"
// @Success 200 {object} xerr.Response "移动成功"
// @Failure 400 {object} xerr.Response "目标位置非法"
// @Failure 404 {object} xerr.Response "目录不存在"
// @Router /api/v1/folders/{folder_id}/move [post]
func (h *FolderHandler) MoveFolder(c *gin.Context) {
	folderID, ok := parseIDParam(c, "folder_id")
	if !ok {
		return
	}

	var req MoveFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	folder, err := h.folderService.MoveFolder(c.Request.Context(), folderID, req.NewParentID)
	if err != nil {
		if errors.Is(err, xerr.ErrFolderNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.FolderNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrCannotMoveIntoSubtree) {
			xerr.Error(c, http.StatusBadRequest, xerr.CannotMoveIntoSubtreeCode, err.Error())
		} else {
			logger.Error("MoveFolder: 移动目录失败", zap.Uint64("folderID", folderID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "移动目录失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "移动成功", gin.H{
		"folder": folder,
	})
}

// DeleteFolder 删除目录
// @Summary 删除目录
// @Description 仅允许删除空目录
// @Tags 用例库
// @Security BearerAuth
// @Param folder_id path int true "目录 ID"
// @Success 204 "删除成功"
// @Failure 404 {object} xerr.Response "目录不存在"
// @Failure 409 {object} xerr.Response "目录不为空"
// @Router /api/v1/folders/{folder_id} [delete]
func (h *FolderHandler) DeleteFolder(c *gin.Context) {
	folderID, ok := parseIDParam(c, "folder_id")
	if !ok {
		return
	}

	err := h.folderService.DeleteFolder(c.Request.Context(), folderID)
	if err != nil {
		if errors.Is(err, xerr.ErrFolderNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.FolderNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrFolderNotEmpty) {
			xerr.Error(c, http.StatusConflict, xerr.FolderNotEmptyCode, err.Error())
		} else {
			logger.Error("DeleteFolder: 删除目录失败", zap.Uint64("folderID", folderID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "删除目录失败")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// parseIDParam 解析路径中的数字 ID,失败时直接写入 400 响应
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, name+"格式无效")
		return 0, false
	}
	return id, true
}
