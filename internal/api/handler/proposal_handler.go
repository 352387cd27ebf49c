package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unibeninterns/server2-v2-sub000/internal/dto"
	"github.com/unibeninterns/server2-v2-sub000/internal/model"
	"github.com/unibeninterns/server2-v2-sub000/internal/service"
	"github.com/unibeninterns/server2-v2-sub000/pkg/response"
)

// ProposalHandler 申请书模块 HTTP 处理器
type ProposalHandler struct {
	proposalSvc   service.ProposalService
	assignmentSvc service.AssignmentService
}

// NewProposalHandler 创建 ProposalHandler
func NewProposalHandler(proposalSvc service.ProposalService, assignmentSvc service.AssignmentService) *ProposalHandler {
	return &ProposalHandler{proposalSvc: proposalSvc, assignmentSvc: assignmentSvc}
}

// Submit 提交申请书（申请人）
// POST /api/v1/proposals
func (h *ProposalHandler) Submit(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SubmitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.proposalSvc.Submit(c.Request.Context(), userID, &req)
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			response.BadRequest(c, 13002, vErr.Error())
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 11001, "用户不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, result)
}

// Get 申请书详情
// GET /api/v1/proposals/:id
func (h *ProposalHandler) Get(c *gin.Context) {
	result, err := h.proposalSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrProposalNotFound) {
			response.NotFound(c, 13001, "申请书不存在")
			return
		}
		response.InternalError(c)
		return
	}

	// 申请人只能查看自己的申请书
	role, _ := MustGetRole(c)
	userID, _ := MustGetUserID(c)
	if role == model.RoleResearcher && result.Submitter != nil && result.Submitter.ID != userID {
		response.Forbidden(c, 10003, "无权限访问")
		return
	}

	response.OK(c, result)
}

// ListMine 查询我的申请书（申请人）
// GET /api/v1/proposals
func (h *ProposalHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.proposalSvc.ListMine(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// Archive 归档申请书（管理员）
// POST /api/v1/proposals/:id/archive
func (h *ProposalHandler) Archive(c *gin.Context) {
	if err := h.proposalSvc.Archive(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrProposalNotFound) {
			response.NotFound(c, 13001, "申请书不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// AssignReviewers 触发评审指派（管理员）
// POST /api/v1/proposals/:id/assign
func (h *ProposalHandler) AssignReviewers(c *gin.Context) {
	result, err := h.assignmentSvc.AssignReviewers(c.Request.Context(), c.Param("id"))
	if err != nil {
		var (
			noFaculty    *service.NoEligibleFacultyError
			insufficient *service.InsufficientReviewersError
			invalidState *service.InvalidStateError
		)
		switch {
		case errors.Is(err, service.ErrProposalNotFound):
			response.NotFound(c, 13001, "申请书不存在")
		case errors.As(err, &invalidState):
			response.Conflict(c, 14001, invalidState.Error())
		case errors.As(err, &noFaculty):
			response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 14002, "无可用的同行评审学院", noFaculty.Error())
		case errors.As(err, &insufficient):
			response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 14003, "同行学院中无符合条件的评审员", insufficient.Error())
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, result)
}
