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

type TestCaseHandler struct {
	caseService library.TestCaseService
}

func NewTestCaseHandler(caseService library.TestCaseService) *TestCaseHandler {
	return &TestCaseHandler{
		caseService: caseService,
	}
}

type CreateTestCaseRequest struct {
	FolderID     uint64 `json:"folder_id" binding:"required"`
	Title        string `json:"title" binding:"required,min=1,max=255"`
	Precondition string `json:"precondition"`
	Steps        string `json:"steps"`
	Expected     string `json:"expected"`
	Priority     uint8  `json:"priority" binding:"omitempty,oneof=1 2 3"`
}

type UpdateTestCaseRequest struct {
	FolderID     *uint64 `json:"folder_id"`
	Title        *string `json:"title"`
	Precondition *string `json:"precondition"`
	Steps        *string `json:"steps"`
	Expected     *string `json:"expected"`
	Priority     *uint8  `json:"priority"`
}

// CreateTestCase 创建测试用例
// @Summary 创建测试用例
// @Tags 用例库
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTestCaseRequest true "用例信息"
// @Success 201 {object} xerr.Response "用例创建成功"
// @Failure 400 {object} xerr.Response "请求参数无效"
// @Failure 404 {object} xerr.Response "目录不存在"
// @Router /api/v1/cases [post]
func (h *TestCaseHandler) CreateTestCase(c *gin.Context) {
	var req CreateTestCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	testCase, err := h.caseService.CreateTestCase(c.Request.Context(), userID, library.CreateTestCaseInput{
		FolderID:     req.FolderID,
		Title:        req.Title,
		Precondition: req.Precondition,
		Steps:        req.Steps,
		Expected:     req.Expected,
		Priority:     req.Priority,
	})
	if err != nil {
		if errors.Is(err, xerr.ErrFolderNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.FolderNotFoundCode, err.Error())
		} else {
			logger.Error("CreateTestCase: 创建用例失败", zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "创建用例失败")
		}
		return
	}

	xerr.Success(c, http.StatusCreated, "用例创建成功", gin.H{
		"test_case": testCase,
	})
}

// GetTestCase 查询测试用例
// @Summary 查询测试用例详情
// @Tags 用例库
// @Produce json
// @Security BearerAuth
// @Param case_id path int true "用例 ID"
// @Success 200 {object} xerr.Response "用例详情"
// @Failure 404 {object} xerr.Response "用例不存在"
// @Router /api/v1/cases/{case_id} [get]
func (h *TestCaseHandler) GetTestCase(c *gin.Context) {
	caseID, ok := parseIDParam(c, "case_id")
	if !ok {
		return
	}

	testCase, err := h.caseService.GetTestCase(c.Request.Context(), caseID)
	if err != nil {
		if errors.Is(err, xerr.ErrTestCaseNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.TestCaseNotFoundCode, err.Error())
		} else {
			logger.Error("GetTestCase: 查询用例失败", zap.Uint64("caseID", caseID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "查询用例失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "查询用例成功", gin.H{
		"test_case": testCase,
	})
}

// ListTestCases 分页列出目录下的用例
// @Summary 列出目录下的用例
// @Tags 用例库
// @Produce json
// @Security BearerAuth
// @Param folder_id query int true "目录 ID"
// @Param page query int false "页码，默认为1" default(1)
// @Param pageSize query int false "每页数量，默认为20" default(20)
// @Success 200 {object} xerr.Response "用例列表"
// @Failure 404 {object} xerr.Response "目录不存在"
// @Router /api/v1/cases [get]
func (h *TestCaseHandler) ListTestCases(c *gin.Context) {
	folderID, err := strconv.ParseUint(c.Query("folder_id"), 10, 64)
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "目录ID格式无效")
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	cases, total, err := h.caseService.ListTestCases(c.Request.Context(), folderID, page, pageSize)
	if err != nil {
		if errors.Is(err, xerr.ErrFolderNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.FolderNotFoundCode, err.Error())
		} else {
			logger.Error("ListTestCases: 获取用例列表失败", zap.Uint64("folderID", folderID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "获取用例列表失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "获取用例列表成功", gin.H{
		"test_cases": cases,
		"total":      total,
	})
}

// UpdateTestCase 更新测试用例
// @Summary 更新测试用例
// @Tags 用例库
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param case_id path int true "用例 ID"
// @Param request body UpdateTestCaseRequest true "更新字段"
// @Success 200 {object} xerr.Response "更新成功"
// @Failure 404 {object} xerr.Response "用例不存在"
// @Router /api/v1/cases/{case_id} [put]
func (h *TestCaseHandler) UpdateTestCase(c *gin.Context) {
	caseID, ok := parseIDParam(c, "case_id")
	if !ok {
		return
	}

	var req UpdateTestCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	testCase, err := h.caseService.UpdateTestCase(c.Request.Context(), caseID, library.UpdateTestCaseInput{
		FolderID:     req.FolderID,
		Title:        req.Title,
		Precondition: req.Precondition,
		Steps:        req.Steps,
		Expected:     req.Expected,
		Priority:     req.Priority,
	})
	if err != nil {
		if errors.Is(err, xerr.ErrTestCaseNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.TestCaseNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrFolderNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.FolderNotFoundCode, err.Error())
		} else {
			logger.Error("UpdateTestCase: 更新用例失败", zap.Uint64("caseID", caseID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "更新用例失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "更新用例成功", gin.H{
		"test_case": testCase,
	})
}

// DeleteTestCase 删除测试用例
// @Summary 删除测试用例
// @Tags 用例库
// @Security BearerAuth
// @Param case_id path int true "用例 ID"
// @Success 204 "删除成功"
// @Failure 404 {object} xerr.Response "用例不存在"
// @Router /api/v1/cases/{case_id} [delete]
func (h *TestCaseHandler) DeleteTestCase(c *gin.Context) {
	caseID, ok := parseIDParam(c, "case_id")
	if !ok {
		return
	}

	err := h.caseService.DeleteTestCase(c.Request.Context(), caseID)
	if err != nil {
		if errors.Is(err, xerr.ErrTestCaseNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.TestCaseNotFoundCode, err.Error())
		} else {
			logger.Error("DeleteTestCase: 删除用例失败", zap.Uint64("caseID", caseID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "删除用例失败")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// SearchTestCases 全文搜索测试用例
// @Summary 搜索测试用例
// @Description 基于 Elasticsearch 对标题、前置条件、步骤和预期结果做全文检索
// @Tags 用例库
// @Produce json
// @Security BearerAuth
// @Param q query string true "搜索关键字"
// @Param size query int false "返回条数，默认为20" default(20)
// @Success 200 {object} xerr.Response "搜索结果"
// @Router /api/v1/cases/search [get]
func (h *TestCaseHandler) SearchTestCases(c *gin.Context) {
	keyword := c.Query("q")
	if keyword == "" {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "搜索关键字不能为空")
		return
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil {
		size = 20
	}

	hits, err := h.caseService.SearchTestCases(c.Request.Context(), keyword, size)
	if err != nil {
		logger.Error("SearchTestCases: 搜索用例失败", zap.String("keyword", keyword), zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.SearchErrorCode, "搜索用例失败")
		return
	}

	xerr.Success(c, http.StatusOK, "搜索成功", gin.H{
		"hits": hits,
	})
}
