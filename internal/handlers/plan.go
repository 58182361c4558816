package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/utils"
	"github.com/3Eeeecho/go-testhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-testhub/internal/services/plans"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PlanHandler struct {
	planService plans.PlanService
}

func NewPlanHandler(planService plans.PlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
	}
}

type CreatePlanRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description"`
}

type UpdatePlanStatusRequest struct {
	Status uint8 `json:"status" binding:"oneof=0 1 2"`
}

type AddPlanItemRequest struct {
	TestCaseID uint64 `json:"test_case_id" binding:"required"`
}

type ReorderItemsRequest struct {
	ItemIDs []uint64 `json:"item_ids" binding:"required,min=1"`
}

type RecordResultRequest struct {
	Result  string `json:"result" binding:"required"`
	Comment string `json:"comment"`
	Defects string `json:"defects"`
}

// CreatePlan 创建测试计划
// @Summary 创建测试计划
// @Tags 测试计划
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePlanRequest true "计划信息"
// @Success 201 {object} xerr.Response "计划创建成功"
// @Router /api/v1/plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), userID, req.Name, req.Description)
	if err != nil {
		logger.Error("CreatePlan: 创建计划失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "创建计划失败")
		return
	}

	xerr.Success(c, http.StatusCreated, "计划创建成功", gin.H{
		"plan": plan,
	})
}

// ListPlans 分页列出测试计划
// @Summary 列出测试计划
// @Tags 测试计划
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码，默认为1" default(1)
// @Param pageSize query int false "每页数量，默认为10" default(10)
// @Success 200 {object} xerr.Response "计划列表"
// @Router /api/v1/plans [get]
func (h *PlanHandler) ListPlans(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "10"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	planList, total, err := h.planService.ListPlans(c.Request.Context(), page, pageSize)
	if err != nil {
		logger.Error("ListPlans: 获取计划列表失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "获取计划列表失败")
		return
	}

	xerr.Success(c, http.StatusOK, "获取计划列表成功", gin.H{
		"plans": planList,
		"total": total,
	})
}

// GetPlan 查询计划详情(含条目)
// @Summary 查询计划详情
// @Description 返回计划及其全部条目，条目按 position 与用例编号排序
// @Tags 测试计划
// @Produce json
// @Security BearerAuth
// @Param plan_id path int true "计划 ID"
// @Success 200 {object} xerr.Response "计划详情"
// @Failure 404 {object} xerr.Response "计划不存在"
// @Router /api/v1/plans/{plan_id} [get]
func (h *PlanHandler) GetPlan(c *gin.Context) {
	planID, ok := parseIDParam(c, "plan_id")
	if !ok {
		return
	}

	plan, err := h.planService.GetPlanWithItems(c.Request.Context(), planID)
	if err != nil {
		if errors.Is(err, xerr.ErrPlanNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.PlanNotFoundCode, err.Error())
		} else {
			logger.Error("GetPlan: 查询计划失败", zap.Uint64("planID", planID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "查询计划失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "查询计划成功", gin.H{
		"plan": plan,
	})
}

// UpdatePlanStatus 更新计划状态
// @Summary 更新计划状态
// @Tags 测试计划
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan_id path int true "计划 ID"
// @Param request body UpdatePlanStatusRequest true "新状态"
// @Success 200 {object} xerr.Response "更新成功"
// @Failure 404 {object} xerr.Response "计划不存在"
// @Router /api/v1/plans/{plan_id}/status [put]
func (h *PlanHandler) UpdatePlanStatus(c *gin.Context) {
	planID, ok := parseIDParam(c, "plan_id")
	if !ok {
		return
	}

	var req UpdatePlanStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	plan, err := h.planService.UpdatePlanStatus(c.Request.Context(), planID, req.Status)
	if err != nil {
		if errors.Is(err, xerr.ErrPlanNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.PlanNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrInvalidParams) {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
		} else {
			logger.Error("UpdatePlanStatus: 更新计划状态失败", zap.Uint64("planID", planID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "更新计划状态失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "更新计划状态成功", gin.H{
		"plan": plan,
	})
}

// DeletePlan 删除测试计划
// @Summary 删除测试计划
// @Description 存在分享链接的计划不允许删除
// @Tags 测试计划
// @Security BearerAuth
// @Param plan_id path int true "计划 ID"
// @Success 204 "删除成功"
// @Failure 404 {object} xerr.Response "计划不存在"
// @Failure 409 {object} xerr.Response "计划存在分享链接"
// @Router /api/v1/plans/{plan_id} [delete]
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	planID, ok := parseIDParam(c, "plan_id")
	if !ok {
		return
	}

	err := h.planService.DeletePlan(c.Request.Context(), planID)
	if err != nil {
		if errors.Is(err, xerr.ErrPlanNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.PlanNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrPlanHasShareLinks) {
			xerr.Error(c, http.StatusConflict, xerr.PlanHasShareLinksCode, err.Error())
		} else {
			logger.Error("DeletePlan: 删除计划失败", zap.Uint64("planID", planID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "删除计划失败")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// AddPlanItem 向计划添加用例
// @Summary 向计划添加用例
// @Tags 测试计划
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan_id path int true "计划 ID"
// @Param request body AddPlanItemRequest true "用例 ID"
// @Success 201 {object} xerr.Response "条目添加成功"
// @Failure 404 {object} xerr.Response "计划或用例不存在"
// @Failure 409 {object} xerr.Response "用例已在计划中"
// @Router /api/v1/plans/{plan_id}/items [post]
func (h *PlanHandler) AddPlanItem(c *gin.Context) {
	planID, ok := parseIDParam(c, "plan_id")
	if !ok {
		return
	}

	var req AddPlanItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	item, err := h.planService.AddItem(c.Request.Context(), planID, req.TestCaseID)
	if err != nil {
		if errors.Is(err, xerr.ErrPlanNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.PlanNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrTestCaseNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.TestCaseNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrItemAlreadyInPlan) {
			xerr.Error(c, http.StatusConflict, xerr.ItemAlreadyInPlanCode, err.Error())
		} else {
			logger.Error("AddPlanItem: 添加条目失败", zap.Uint64("planID", planID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "添加条目失败")
		}
		return
	}

	xerr.Success(c, http.StatusCreated, "条目添加成功", gin.H{
		"item": item,
	})
}

// RemovePlanItem 从计划移除条目
// @Summary 从计划移除条目
// @Tags 测试计划
// @Security BearerAuth
// @Param plan_id path int true "计划 ID"
// @Param item_id path int true "条目 ID"
// @Success 204 "移除成功"
// @Failure 404 {object} xerr.Response "条目不存在"
// @Router /api/v1/plans/{plan_id}/items/{item_id} [delete]
func (h *PlanHandler) RemovePlanItem(c *gin.Context) {
	planID, ok := parseIDParam(c, "plan_id")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}

	err := h.planService.RemoveItem(c.Request.Context(), planID, itemID)
	if err != nil {
		if errors.Is(err, xerr.ErrPlanItemNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.PlanItemNotFoundCode, err.Error())
		} else {
			logger.Error("RemovePlanItem: 移除条目失败", zap.Uint64("itemID", itemID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "移除条目失败")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// ReorderPlanItems 重排计划条目
// @Summary 重排计划条目
// @Description 按给定的条目 ID 顺序重新设置 position，必须包含计划内全部条目
// @Tags 测试计划
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan_id path int true "计划 ID"
// @Param request body ReorderItemsRequest true "条目 ID 顺序"
// @Success 200 {object} xerr.Response "重排成功"
// @Failure 400 {object} xerr.Response "条目列表不完整"
// @Router /api/v1/plans/{plan_id}/items/reorder [post]
func (h *PlanHandler) ReorderPlanItems(c *gin.Context) {
	planID, ok := parseIDParam(c, "plan_id")
	if !ok {
		return
	}

	var req ReorderItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	err := h.planService.ReorderItems(c.Request.Context(), planID, req.ItemIDs)
	if err != nil {
		if errors.Is(err, xerr.ErrInvalidParams) {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "条目列表与计划内容不一致")
		} else if errors.Is(err, xerr.ErrPlanItemNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.PlanItemNotFoundCode, err.Error())
		} else {
			logger.Error("ReorderPlanItems: 重排条目失败", zap.Uint64("planID", planID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "重排条目失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "重排成功", nil)
}

// RecordResult 记录执行结果
// @Summary 记录执行结果
// @Description 记录条目的执行结果，取值为 untested/pass/fail/blocked/skipped
// @Tags 测试计划
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan_id path int true "计划 ID"
// @Param item_id path int true "条目 ID"
// @Param request body RecordResultRequest true "执行结果"
// @Success 200 {object} xerr.Response "记录成功"
// @Failure 400 {object} xerr.Response "非法的执行结果取值"
// @Failure 404 {object} xerr.Response "条目不存在"
// @Router /api/v1/plans/{plan_id}/items/{item_id}/result [put]
func (h *PlanHandler) RecordResult(c *gin.Context) {
	planID, ok := parseIDParam(c, "plan_id")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}

	var req RecordResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	item, err := h.planService.RecordResult(c.Request.Context(), planID, itemID, userID, plans.RecordResultInput{
		Result:  req.Result,
		Comment: req.Comment,
		Defects: req.Defects,
	})
	if err != nil {
		if errors.Is(err, xerr.ErrInvalidResult) {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidResultCode, err.Error())
		} else if errors.Is(err, xerr.ErrPlanItemNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.PlanItemNotFoundCode, err.Error())
		} else {
			logger.Error("RecordResult: 记录结果失败", zap.Uint64("itemID", itemID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "记录结果失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "记录成功", gin.H{
		"item": item,
	})
}

// GetPlanProgress 查询计划进度汇总
// @Summary 查询计划进度
// @Tags 测试计划
// @Produce json
// @Security BearerAuth
// @Param plan_id path int true "计划 ID"
// @Success 200 {object} xerr.Response "进度统计"
// @Failure 404 {object} xerr.Response "计划不存在"
// @Router /api/v1/plans/{plan_id}/progress [get]
func (h *PlanHandler) GetPlanProgress(c *gin.Context) {
	planID, ok := parseIDParam(c, "plan_id")
	if !ok {
		return
	}

	progress, err := h.planService.GetProgress(c.Request.Context(), planID)
	if err != nil {
		if errors.Is(err, xerr.ErrPlanNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.PlanNotFoundCode, err.Error())
		} else {
			logger.Error("GetPlanProgress: 查询进度失败", zap.Uint64("planID", planID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "查询进度失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "查询进度成功", gin.H{
		"progress": progress,
	})
}
