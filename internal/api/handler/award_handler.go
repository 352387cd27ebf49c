package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/unibeninterns/server2-v2-sub000/internal/dto"
	"github.com/unibeninterns/server2-v2-sub000/internal/service"
	"github.com/unibeninterns/server2-v2-sub000/pkg/response"
)

// AwardHandler 资助模块 HTTP 处理器
type AwardHandler struct {
	awardSvc service.AwardService
}

// NewAwardHandler 创建 AwardHandler
func NewAwardHandler(awardSvc service.AwardService) *AwardHandler {
	return &AwardHandler{awardSvc: awardSvc}
}

// Get 查询申请书的资助记录
// GET /api/v1/proposals/:id/award
func (h *AwardHandler) Get(c *gin.Context) {
	result, err := h.awardSvc.GetByProposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrAwardNotFound) {
			response.NotFound(c, 15001, "资助记录不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// Decide 批准/否决资助（管理员）
// POST /api/v1/proposals/:id/award/decision
func (h *AwardHandler) Decide(c *gin.Context) {
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.DecideAwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.awardSvc.Decide(c.Request.Context(), c.Param("id"), adminID, &req)
	if err != nil {
		var invalidState *service.InvalidStateError
		switch {
		case errors.Is(err, service.ErrAwardNotFound):
			response.NotFound(c, 15001, "资助记录不存在")
		case errors.As(err, &invalidState):
			response.Conflict(c, 15002, invalidState.Error())
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, result)
}
