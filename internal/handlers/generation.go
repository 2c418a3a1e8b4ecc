package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kasunwathsala/solar-dashboard-data-api/internal/models"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/registry"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/service"
)

const (
	statusOK        = "ok"
	statusCompleted = "completed"

	errRunInProgressMsg = "a generation run is already in progress"
	errInvalidBodyPref  = "invalid body: "
)

// Request DTO for historical generation.
type historicalRequest struct {
	Days int `json:"days" binding:"required,min=1"`
}

// GenerateHistoricalRequest is an exported model for Swagger docs of the
// historical generation payload.
type GenerateHistoricalRequest struct {
	// Number of past days (including today) to backfill
	Days int `json:"days" example:"7"`
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondRunError maps generation failures to HTTP statuses: overlap to 409,
// registry unreachability to 502, anything else to 500. The response carries
// the underlying error message.
func (h *Handler) respondRunError(c *gin.Context, logKey string, err error) {
	switch {
	case errors.Is(err, service.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": errRunInProgressMsg})
	case errors.Is(err, registry.ErrUnavailable):
		h.logAndJSONError(c, http.StatusBadGateway, err.Error(), logKey, err)
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, err.Error(), logKey, err)
	}
}

func summaryMessage(s models.RunSummary) string {
	return fmt.Sprintf("generated %d, skipped %d, failed %d of %d units; %d records inserted",
		s.Generated, s.Skipped, s.Failed, s.UnitsTotal, s.RecordsInserted)
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Generate today's data for all active units
// @Description  Idempotent: units whose day already exists are skipped
// @Tags         generation
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, message, summary"
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string  "another run is in progress"
// @Failure      502  {object}  map[string]string  "unit registry unavailable"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/generation/today [post]
// @Security     BearerAuth
func (h *Handler) generateToday(c *gin.Context) {
	ctx := c.Request.Context()
	summary, err := h.services.Generation.RunToday(ctx, models.TriggerManual)
	if err != nil {
		h.respondRunError(c, "generate_today_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  statusCompleted,
		"message": summaryMessage(summary),
		"summary": summary,
	})
}

// @Summary      Backfill historical data
// @Description  Generates the last N days (including today) for all active units; existing unit-days are skipped
// @Tags         generation
// @Accept       json
// @Produce      json
// @Param        body  body   GenerateHistoricalRequest  true  "Backfill payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/generation/historical [post]
// @Security     BearerAuth
func (h *Handler) generateHistorical(c *gin.Context) {
	var req historicalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	summary, err := h.services.Generation.Backfill(ctx, req.Days)
	if err != nil {
		h.respondRunError(c, "generate_historical_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  statusCompleted,
		"message": summaryMessage(summary),
		"summary": summary,
	})
}

// @Summary      Generation subsystem status
// @Tags         generation
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/generation/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Status.Snapshot())
}
