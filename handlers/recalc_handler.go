package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"sandscore-api/models"
	"sandscore-api/services"

	"github.com/gin-gonic/gin"
)

// RecalcHandler exposes the batch controls: full or windowed
// recalculation, reset, and operational statistics.
type RecalcHandler struct {
	recalcService *services.RecalcService
	statsService  *services.StatsService
}

func NewRecalcHandler(recalcService *services.RecalcService, statsService *services.StatsService) *RecalcHandler {
	return &RecalcHandler{recalcService: recalcService, statsService: statsService}
}

type RecalculateRequest struct {
	Start      *time.Time `json:"start,omitempty"`
	End        *time.Time `json:"end,omitempty"`
	MatchType  string     `json:"match_type,omitempty" binding:"omitempty,oneof=mens womens"`
	Iterations int        `json:"iterations,omitempty" binding:"omitempty,min=1,max=10"`
	BatchSize  int        `json:"batch_size,omitempty" binding:"omitempty,min=1,max=500"`
}

// Recalculate rebuilds ratings from the match history
// @Summary Recalculate ratings
// @Description Reset in-scope ratings and replay the match history chronologically
// @Tags ratings
// @Accept json
// @Produce json
// @Param request body RecalculateRequest false "Recalculation scope and tuning"
// @Success 200 {object} services.RecalcReport
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /recalculate [post]
func (h *RecalcHandler) Recalculate(c *gin.Context) {
	var req RecalculateRequest
	// An empty body means a full default recalculation.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.recalcService.Recalculate(c.Request.Context(), services.RecalcOptions{
		Start:      req.Start,
		End:        req.End,
		MatchType:  req.MatchType,
		Iterations: req.Iterations,
		BatchSize:  req.BatchSize,
	})
	if err != nil {
		if errors.Is(err, models.ErrRecalcInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "report": report})
		return
	}

	c.JSON(http.StatusOK, report)
}

// ResetRatings puts ratings back to defaults
// @Summary Reset ratings
// @Description Reset all in-scope ratings to defaults and purge their history
// @Tags ratings
// @Produce json
// @Param match_type query string false "Limit reset to one match type" Enums(mens,womens)
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /ratings/reset [post]
func (h *RecalcHandler) ResetRatings(c *gin.Context) {
	if err := h.recalcService.Reset(c.Query("match_type")); err != nil {
		if errors.Is(err, models.ErrRecalcInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset ratings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ratings reset to defaults"})
}

// GetStats retrieves rating-engine statistics
// @Summary Get statistics
// @Description Totals for matches, players, custom ratings, team ratings and the match date range
// @Tags stats
// @Produce json
// @Success 200 {object} models.RecalcStats
// @Failure 500 {object} map[string]string
// @Router /stats [get]
func (h *RecalcHandler) GetStats(c *gin.Context) {
	stats, err := h.statsService.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statistics"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
