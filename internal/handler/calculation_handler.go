package handler

import (
	"net/http"
	"strconv"

	"taxi/internal/service"
	"taxi/pkg/response"

	"github.com/gin-gonic/gin"
)

type CalculationHandler struct {
	calcService service.CalculationService
}

func NewCalculationHandler(calcService service.CalculationService) *CalculationHandler {
	return &CalculationHandler{calcService: calcService}
}

func (h *CalculationHandler) RegisterRoutes(router *gin.RouterGroup) {
	calcs := router.Group("/api/calculations")
	{
		calcs.POST("/group", h.CalculateGroup)
		calcs.GET("/asset/:id", h.CalculateAsset)
		calcs.GET("/history", h.History)
		calcs.GET("/:key", h.GetResult)
		calcs.POST("/:key/finalize", h.Finalize)
	}
}

// CalculateGroup computes the tax liability for every asset in a group
// @Summary      Calculate a group's property tax
// @Description  Runs the full breakdown for every asset of the group in the given year. group_id "ALL" selects every asset. An empty selection returns a result with an error field, not an HTTP error.
// @Tags         calculations
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CalculateGroupRequest  true  "Group and year"
// @Success      200      {object}  response.Response{data=model.CalculationResult}
// @Failure      400      {object}  response.Response
// @Router       /api/calculations/group [post]
func (h *CalculationHandler) CalculateGroup(c *gin.Context) {
	var req service.CalculateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.calcService.CalculateGroup(c.Request.Context(), req, actorFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// CalculateAsset computes one asset's breakdown without saving it
func (h *CalculationHandler) CalculateAsset(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid year: "+c.Query("year")))
		return
	}

	calc, err := h.calcService.CalculateAsset(c.Request.Context(), c.Param("id"), year)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, calc))
}

// History lists saved calculation records, optionally filtered by year and
// group
func (h *CalculationHandler) History(c *gin.Context) {
	var year *int
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid year: "+raw))
			return
		}
		year = &parsed
	}

	records := h.calcService.History(c.Request.Context(), year, c.Query("group_id"))
	c.JSON(http.StatusOK, response.Success(http.StatusOK, records))
}

// GetResult returns one saved calculation record by key
func (h *CalculationHandler) GetResult(c *gin.Context) {
	result, err := h.calcService.GetResult(c.Request.Context(), c.Param("key"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Finalize reconciles a computed result against the issued tax bill
// @Summary      Finalize a calculation
// @Description  Merges the computed result with the human-supplied bill reconciliation and persists the combined record.
// @Tags         calculations
// @Accept       json
// @Produce      json
// @Param        key      path      string                           true  "Calculation key ({group}_{year})"
// @Param        payload  body      service.SaveFinalizationRequest  true  "Finalization payload"
// @Success      200      {object}  response.Response{data=model.CalculationResult}
// @Failure      400      {object}  response.Response
// @Router       /api/calculations/{key}/finalize [post]
func (h *CalculationHandler) Finalize(c *gin.Context) {
	var req service.SaveFinalizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.calcService.SaveWithFinalization(c.Request.Context(), c.Param("key"), req, actorFrom(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
