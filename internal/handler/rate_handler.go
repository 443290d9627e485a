package handler

import (
	"context"
	"net/http"
	"strconv"

	"taxi/internal/service"
	"taxi/pkg/response"

	"github.com/gin-gonic/gin"
)

type RateHandler struct {
	rateService service.RateService
}

func NewRateHandler(rateService service.RateService) *RateHandler {
	return &RateHandler{rateService: rateService}
}

func (h *RateHandler) RegisterRoutes(router *gin.RouterGroup) {
	years := router.Group("/api/years")
	{
		years.GET("", h.GetYears)
		years.POST("", h.AddYear)
		years.DELETE("/:year", h.DeleteYear)
		years.GET("/:year/rates", h.GetYearRates)
		years.PUT("/:year/rates/brackets", h.UpdateBrackets)
		years.PUT("/:year/rates/resource-brackets", h.UpdateResourceBrackets)
		years.PUT("/:year/rates/urban-area", h.UpdateUrbanAreaRate)
		years.PUT("/:year/rates/education", h.UpdateEducationRate)
		years.PUT("/:year/rates/fair-market-ratio", h.UpdateFairMarketRatio)
	}
}

func yearParam(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid year: "+c.Param("year")))
		return 0, false
	}
	return year, true
}

// GetYears lists every year with rate or asset data
// @Summary      List available years
// @Tags         years
// @Produce      json
// @Success      200  {object}  response.Response{data=[]int}
// @Router       /api/years [get]
func (h *RateHandler) GetYears(c *gin.Context) {
	years := h.rateService.AvailableYears(c.Request.Context())
	c.JSON(http.StatusOK, response.Success(http.StatusOK, years))
}

// AddYear creates rate data for a new tax year
// @Summary      Add a tax year
// @Description  Creates rate tables for a new year, copied from an existing base year or seeded with defaults.
// @Tags         years
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AddYearRequest  true  "New year payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/years [post]
func (h *RateHandler) AddYear(c *gin.Context) {
	var req service.AddYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.rateService.AddYear(c.Request.Context(), req, actorFrom(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{"year": req.Year}))
}

// DeleteYear removes a year's rate data unless something still references it
func (h *RateHandler) DeleteYear(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}

	if err := h.rateService.DeleteYear(c.Request.Context(), year, actorFrom(c)); err != nil {
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"year": year}))
}

// GetYearRates returns the complete rate set for one year
func (h *RateHandler) GetYearRates(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}

	rates, err := h.rateService.YearRates(c.Request.Context(), year)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rates))
}

// UpdateBrackets replaces the property-tax bracket list for an asset and
// taxation type
// @Summary      Update property-tax brackets
// @Tags         years
// @Accept       json
// @Produce      json
// @Param        year     path      int                            true  "Tax year"
// @Param        payload  body      service.UpdateBracketsRequest  true  "Bracket list"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/years/{year}/rates/brackets [put]
func (h *RateHandler) UpdateBrackets(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}

	var req service.UpdateBracketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.rateService.UpdateBrackets(c.Request.Context(), year, req, actorFrom(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"year": year}))
}

// UpdateResourceBrackets replaces the regional-resource-tax bracket list
func (h *RateHandler) UpdateResourceBrackets(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}

	var req service.UpdateResourceBracketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.rateService.UpdateResourceBrackets(c.Request.Context(), year, req, actorFrom(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"year": year}))
}

// UpdateUrbanAreaRate sets the urban-area surtax rate
func (h *RateHandler) UpdateUrbanAreaRate(c *gin.Context) {
	h.updateFlatRate(c, h.rateService.UpdateUrbanAreaRate)
}

// UpdateEducationRate sets the local-education surtax rate
func (h *RateHandler) UpdateEducationRate(c *gin.Context) {
	h.updateFlatRate(c, h.rateService.UpdateEducationRate)
}

func (h *RateHandler) updateFlatRate(c *gin.Context, update func(ctx context.Context, year int, req service.UpdateFlatRateRequest, actor string) error) {
	year, ok := yearParam(c)
	if !ok {
		return
	}

	var req service.UpdateFlatRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := update(c.Request.Context(), year, req, actorFrom(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"year": year}))
}

// UpdateFairMarketRatio sets the fair-market-value ratio for an asset type
func (h *RateHandler) UpdateFairMarketRatio(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}

	var req service.UpdateRatioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.rateService.UpdateFairMarketRatio(c.Request.Context(), year, req, actorFrom(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"year": year}))
}
