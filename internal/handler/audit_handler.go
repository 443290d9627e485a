package handler

import (
	"net/http"

	"taxi/internal/service"
	"taxi/pkg/pagination"
	"taxi/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/audit-logs", h.GetAuditLogs)
}

// GetAuditLogs returns paginated activity records
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"logs":       logs,
		"pagination": params.Meta(total),
	}))
}

// actorFrom extracts the acting user for audit trails. Authentication is
// handled by the reverse proxy in front of this service; it forwards the
// user name in a header.
func actorFrom(c *gin.Context) string {
	return c.GetHeader("X-Actor")
}
