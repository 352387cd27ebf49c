package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unibeninterns/server2-v2-sub000/internal/dto"
	"github.com/unibeninterns/server2-v2-sub000/internal/model"
	"github.com/unibeninterns/server2-v2-sub000/internal/service"
	"github.com/unibeninterns/server2-v2-sub000/pkg/response"
)

// ReviewHandler 评审模块 HTTP 处理器
type ReviewHandler struct {
	reviewSvc      service.ReviewService
	assignmentSvc  service.AssignmentService
	discrepancySvc service.DiscrepancyService
	calendarSvc    service.CalendarService
}

// NewReviewHandler 创建 ReviewHandler
func NewReviewHandler(
	reviewSvc service.ReviewService,
	assignmentSvc service.AssignmentService,
	discrepancySvc service.DiscrepancyService,
	calendarSvc service.CalendarService,
) *ReviewHandler {
	return &ReviewHandler{
		reviewSvc:      reviewSvc,
		assignmentSvc:  assignmentSvc,
		discrepancySvc: discrepancySvc,
		calendarSvc:    calendarSvc,
	}
}

// Submit 提交评审（评审员）
// POST /api/v1/reviews/:id/submit
func (h *ReviewHandler) Submit(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.reviewSvc.SubmitReview(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		var (
			completed *service.AlreadyCompletedError
			vErr      *service.ValidationError
		)
		switch {
		case errors.Is(err, service.ErrReviewNotFound):
			response.NotFound(c, 14004, "评审记录不存在")
		case errors.Is(err, service.ErrNotReviewOwner):
			response.Forbidden(c, 14005, "该评审记录不属于当前评审员")
		case errors.As(err, &completed):
			response.Conflict(c, 14006, "评审已完成，不可再修改")
		case errors.As(err, &vErr):
			response.BadRequest(c, 14007, vErr.Error())
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// Get 评审详情
// GET /api/v1/reviews/:id
func (h *ReviewHandler) Get(c *gin.Context) {
	result, err := h.reviewSvc.GetReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			response.NotFound(c, 14004, "评审记录不存在")
			return
		}
		response.InternalError(c)
		return
	}

	// 评审员只能查看自己的评审记录
	role, _ := MustGetRole(c)
	userID, _ := MustGetUserID(c)
	if role == model.RoleReviewer && (result.Reviewer == nil || result.Reviewer.ID != userID) {
		response.Forbidden(c, 10003, "无权限访问")
		return
	}

	response.OK(c, result)
}

// ListMine 查询我的评审任务（评审员）
// GET /api/v1/reviews?status=in_progress,overdue
func (h *ReviewHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var statuses []string
	if raw := c.Query("status"); raw != "" {
		statuses = splitCSV(raw)
	}

	result, err := h.reviewSvc.ListMyReviews(c.Request.Context(), userID, statuses)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// Reassign 改派常规评审（管理员）
// POST /api/v1/reviews/:id/reassign
func (h *ReviewHandler) Reassign(c *gin.Context) {
	var req dto.ReassignReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.assignmentSvc.ReassignRegularReview(c.Request.Context(), c.Param("id"), req.NewReviewerID)
	if err != nil {
		h.writeReassignError(c, err)
		return
	}
	response.OK(c, result)
}

// ReassignReconciliation 改派/补派调解评审（管理员）
// POST /api/v1/proposals/:id/reconciliation/reassign
func (h *ReviewHandler) ReassignReconciliation(c *gin.Context) {
	var req dto.ReassignReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.assignmentSvc.ReassignReconciliationReview(c.Request.Context(), c.Param("id"), req.NewReviewerID)
	if err != nil {
		h.writeReassignError(c, err)
		return
	}
	response.OK(c, result)
}

// CheckDiscrepancy 分歧检测（管理员）；判定成立时会创建调解评审
// POST /api/v1/proposals/:id/discrepancy-check
func (h *ReviewHandler) CheckDiscrepancy(c *gin.Context) {
	result, err := h.discrepancySvc.CheckDiscrepancy(c.Request.Context(), c.Param("id"))
	if err != nil {
		var noReviewer *service.NoReconciliationReviewerError
		switch {
		case errors.Is(err, service.ErrProposalNotFound):
			response.NotFound(c, 13001, "申请书不存在")
		case errors.Is(err, service.ErrNoCompletedReviews):
			response.Conflict(c, 14008, "该申请书暂无已完成的评审")
		case errors.As(err, &noReviewer):
			response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 14009, "无可指派的调解评审员", noReviewer.Error())
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, result)
}

// Calendar 评审截止日期 ICS 订阅（评审员）
// GET /api/v1/reviews/calendar.ics
func (h *ReviewHandler) Calendar(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	ics, err := h.calendarSvc.ReviewerCalendar(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="review_deadlines.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}

func (h *ReviewHandler) writeReassignError(c *gin.Context, err error) {
	var (
		completed    *service.AlreadyCompletedError
		invalidState *service.InvalidStateError
		noFaculty    *service.NoEligibleFacultyError
		insufficient *service.InsufficientReviewersError
		noReviewer   *service.NoReconciliationReviewerError
	)
	switch {
	case errors.Is(err, service.ErrReviewNotFound):
		response.NotFound(c, 14004, "评审记录不存在")
	case errors.Is(err, service.ErrProposalNotFound):
		response.NotFound(c, 13001, "申请书不存在")
	case errors.Is(err, service.ErrReviewerIneligible):
		response.BadRequest(c, 14010, "指定评审员不符合指派条件")
	case errors.As(err, &completed):
		response.Conflict(c, 14006, "评审已完成，不可再修改")
	case errors.As(err, &invalidState):
		response.Conflict(c, 14001, invalidState.Error())
	case errors.As(err, &noFaculty):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 14002, "无可用的同行评审学院", noFaculty.Error())
	case errors.As(err, &insufficient):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 14003, "同行学院中无符合条件的评审员", insufficient.Error())
	case errors.As(err, &noReviewer):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 14009, "无可指派的调解评审员", noReviewer.Error())
	default:
		response.InternalError(c)
	}
}

// splitCSV 切分逗号分隔的查询参数
func splitCSV(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
