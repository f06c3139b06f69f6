package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Bakhromov-02/task-management/internal/core/ports"
)

type AnalyticsHandler struct {
	analyticsService ports.AnalyticsService
}

func NewAnalyticsHandler(analyticsService ports.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// Report returns analytics over all tasks. Admin only.
//
// @Summary      Task analytics
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.TaskAnalytics
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /api/analytics [get]
func (h *AnalyticsHandler) Report(c echo.Context) error {
	report, err := h.analyticsService.TaskAnalytics(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// UserStats returns statistics over the caller's own tasks.
//
// @Summary      Own task statistics
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.OwnerStats
// @Failure      401  {object}  ErrorResponse
// @Router       /api/analytics/user-stats [get]
func (h *AnalyticsHandler) UserStats(c echo.Context) error {
	id, err := scopedIdentity(c)
	if err != nil {
		return err
	}
	stats, err := h.analyticsService.UserStats(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
