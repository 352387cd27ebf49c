package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unibeninterns/server2-v2-sub000/internal/service"
	"github.com/unibeninterns/server2-v2-sub000/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ProposalReviews 导出申请书的评审明细 Excel（管理员）
// GET /api/v1/proposals/:id/export
func (h *ExportHandler) ProposalReviews(c *gin.Context) {
	data, filename, err := h.exportSvc.ExportProposalReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrProposalNotFound) {
			response.NotFound(c, 13001, "申请书不存在")
			return
		}
		response.Error(c, http.StatusInternalServerError, 16001, "导出失败")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
