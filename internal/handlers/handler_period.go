package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/schoolbooks/internal/core/ports/services"
	"github.com/SscSPs/schoolbooks/internal/dto"
	"github.com/SscSPs/schoolbooks/internal/middleware"
)

// periodHandler handles accounting period lifecycle requests.
type periodHandler struct {
	periodService portssvc.PeriodSvcFacade
}

func newPeriodHandler(ps portssvc.PeriodSvcFacade) *periodHandler {
	return &periodHandler{periodService: ps}
}

// registerPeriodRoutes registers routes related to accounting periods.
func registerPeriodRoutes(rg *gin.RouterGroup, periodService portssvc.PeriodSvcFacade) {
	h := newPeriodHandler(periodService)

	periods := rg.Group("/periods")
	{
		periods.GET("", h.listPeriods)
		periods.POST("", h.createPeriod)
		periods.GET("/:periodID/status", h.getPeriodStatus)
		periods.POST("/:periodID/close", h.closePeriod)
	}
}

// listPeriods godoc
// @Summary List accounting periods
// @Tags periods
// @Produce json
// @Success 200 {array} dto.PeriodResponse
// @Security BearerAuth
// @Router /periods [get]
func (h *periodHandler) listPeriods(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	periods, err := h.periodService.ListPeriods(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "list periods")
		return
	}
	c.JSON(http.StatusOK, dto.ToPeriodResponses(periods))
}

// createPeriod godoc
// @Summary Open an accounting period
// @Tags periods
// @Accept json
// @Produce json
// @Param period body dto.CreatePeriodRequest true "Period bounds"
// @Success 201 {object} dto.PeriodResponse
// @Failure 400 {object} map[string]string "Invalid bounds"
// @Failure 409 {object} map[string]string "Overlaps an existing period"
// @Security BearerAuth
// @Router /periods [post]
func (h *periodHandler) createPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for createPeriod", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	start, err := dto.ParseDate(req.StartDate)
	if err != nil {
		respondError(c, logger, err, "create period")
		return
	}
	end, err := dto.ParseDate(req.EndDate)
	if err != nil {
		respondError(c, logger, err, "create period")
		return
	}

	period, err := h.periodService.CreatePeriod(c.Request.Context(), req.Name, start, end, userID)
	if err != nil {
		respondError(c, logger, err, "create period")
		return
	}
	c.JSON(http.StatusCreated, dto.ToPeriodResponse(*period))
}

// getPeriodStatus godoc
// @Summary Get the status of an accounting period
// @Tags periods
// @Produce json
// @Param periodID path string true "Period ID"
// @Success 200 {object} dto.PeriodStatusResponse
// @Failure 404 {object} map[string]string "Period not found"
// @Security BearerAuth
// @Router /periods/{periodID}/status [get]
func (h *periodHandler) getPeriodStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	periodID := c.Param("periodID")

	status, err := h.periodService.GetPeriodStatus(c.Request.Context(), periodID)
	if err != nil {
		respondError(c, logger.With(slog.String("period_id", periodID)), err, "get period status")
		return
	}
	c.JSON(http.StatusOK, dto.PeriodStatusResponse{PeriodID: periodID, Status: string(status)})
}

// closePeriod godoc
// @Summary Close an accounting period
// @Description Zeroes revenue and expense into retained earnings and carries permanent balances into the next period
// @Tags periods
// @Produce json
// @Param periodID path string true "Period ID"
// @Success 200 {object} dto.ClosePeriodResponse
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 409 {object} map[string]string "Already closed, being closed or earlier period open"
// @Failure 422 {object} map[string]string "Trial balance out of balance"
// @Security BearerAuth
// @Router /periods/{periodID}/close [post]
func (h *periodHandler) closePeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	periodID := c.Param("periodID")
	logger = logger.With(slog.String("period_id", periodID))

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.periodService.ClosePeriod(c.Request.Context(), periodID, userID)
	if err != nil {
		respondError(c, logger, err, "close period")
		return
	}
	c.JSON(http.StatusOK, dto.ToClosePeriodResponse(result))
}
