package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/unibeninterns/server2-v2-sub000/internal/service"
	"github.com/unibeninterns/server2-v2-sub000/pkg/response"
)

// AdminHandler 运营模块 HTTP 处理器
type AdminHandler struct {
	sweepSvc service.SweepService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(sweepSvc service.SweepService) *AdminHandler {
	return &AdminHandler{sweepSvc: sweepSvc}
}

// RunSweep 手动触发逾期/临期扫描（常规由 cron 每日执行）
// POST /api/v1/admin/sweep
func (h *AdminHandler) RunSweep(c *gin.Context) {
	result, err := h.sweepSvc.Run(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}
