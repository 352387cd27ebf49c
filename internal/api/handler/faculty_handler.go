package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/unibeninterns/server2-v2-sub000/internal/service"
	"github.com/unibeninterns/server2-v2-sub000/pkg/response"
)

// FacultyHandler 学院模块 HTTP 处理器
type FacultyHandler struct {
	facultySvc service.FacultyService
}

// NewFacultyHandler 创建 FacultyHandler
func NewFacultyHandler(facultySvc service.FacultyService) *FacultyHandler {
	return &FacultyHandler{facultySvc: facultySvc}
}

// List 学院列表
// GET /api/v1/faculties
func (h *FacultyHandler) List(c *gin.Context) {
	result, err := h.facultySvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// Get 学院详情
// GET /api/v1/faculties/:id
func (h *FacultyHandler) Get(c *gin.Context) {
	result, err := h.facultySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrFacultyNotFound) {
			response.NotFound(c, 12001, "学院不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// Peers 同行评审学院
// GET /api/v1/faculties/:id/peers
func (h *FacultyHandler) Peers(c *gin.Context) {
	result, err := h.facultySvc.Peers(c.Request.Context(), c.Param("id"))
	if err != nil {
		var noPeers *service.NoEligibleFacultyError
		switch {
		case errors.Is(err, service.ErrFacultyNotFound):
			response.NotFound(c, 12001, "学院不存在")
		case errors.As(err, &noPeers):
			response.NotFound(c, 12002, noPeers.Error())
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, result)
}
