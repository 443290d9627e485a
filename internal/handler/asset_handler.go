package handler

import (
	"net/http"

	"taxi/internal/service"
	"taxi/pkg/response"

	"github.com/gin-gonic/gin"
)

// Import responses cap the warnings shown inline; the full count is always
// reported.
const maxInlineWarnings = 20

type AssetHandler struct {
	assetService service.AssetService
}

func NewAssetHandler(assetService service.AssetService) *AssetHandler {
	return &AssetHandler{assetService: assetService}
}

func (h *AssetHandler) RegisterRoutes(router *gin.RouterGroup) {
	assets := router.Group("/api/assets")
	{
		assets.GET("", h.ListAssets)
		assets.POST("", h.CreateAsset)
		assets.POST("/import", h.ImportAssets)
		assets.GET("/:id", h.GetAsset)
		assets.PUT("/:id", h.UpdateAsset)
		assets.DELETE("/:id", h.DeleteAsset)
	}
}

// ListAssets returns all assets, optionally filtered by group_id
func (h *AssetHandler) ListAssets(c *gin.Context) {
	assets := h.assetService.ListAssets(c.Request.Context(), c.Query("group_id"))
	c.JSON(http.StatusOK, response.Success(http.StatusOK, assets))
}

// GetAsset returns one asset by id
func (h *AssetHandler) GetAsset(c *gin.Context) {
	asset, err := h.assetService.GetAsset(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, asset))
}

// CreateAsset registers a new property record
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	var req service.AssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	asset, warnings, err := h.assetService.CreateAsset(c.Request.Context(), req, actorFrom(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.SuccessWithWarnings(http.StatusCreated, asset, warnings))
}

// UpdateAsset replaces an asset's fields; provided year snapshots fully
// replace the stored snapshot for the same year
func (h *AssetHandler) UpdateAsset(c *gin.Context) {
	var req service.AssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	asset, warnings, err := h.assetService.UpdateAsset(c.Request.Context(), c.Param("id"), req, actorFrom(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithWarnings(http.StatusOK, asset, warnings))
}

// DeleteAsset removes an asset; assets have no dependents so this is
// unconditional
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	if err := h.assetService.DeleteAsset(c.Request.Context(), c.Param("id"), actorFrom(c)); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted_id": c.Param("id")}))
}

// ImportAssets bulk-imports parsed Excel rows with create-or-update-by-id
// semantics
// @Summary      Bulk import assets
// @Description  Imports parsed Excel rows. Correctable problems (invalid taxation type, urban flag) become warnings and the row still imports.
// @Tags         assets
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ImportAssetsRequest  true  "Parsed rows"
// @Success      200      {object}  response.Response{data=store.ImportSummary}
// @Failure      400      {object}  response.Response
// @Router       /api/assets/import [post]
func (h *AssetHandler) ImportAssets(c *gin.Context) {
	var req service.ImportAssetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	summary, err := h.assetService.ImportAssets(c.Request.Context(), req, actorFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	warningCount := len(summary.Warnings)
	if warningCount > maxInlineWarnings {
		summary.Warnings = summary.Warnings[:maxInlineWarnings]
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"summary":       summary,
		"warning_count": warningCount,
	}))
}
