package handlers

import (
	"net/http"
	"strconv"

	"sandscore-api/models"
	"sandscore-api/services"

	"github.com/gin-gonic/gin"
)

// RatingHandler serves current ratings, history and standings to the
// profile, charting and standings UIs.
type RatingHandler struct {
	store *services.RatingStore
}

func NewRatingHandler(store *services.RatingStore) *RatingHandler {
	return &RatingHandler{store: store}
}

func matchTypeParam(c *gin.Context) (string, bool) {
	matchType := c.DefaultQuery("type", models.MatchTypeMens)
	if !models.RatedMatchType(matchType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type parameter (mens or womens)"})
		return "", false
	}
	return matchType, true
}

// GetPlayerRating retrieves a player's current rating
// @Summary Get a player's current rating
// @Description Get current rating, deviation, confidence level and matches played; unseen players get defaults
// @Tags players
// @Produce json
// @Param id path string true "Player ID"
// @Param type query string false "Match type" Enums(mens,womens) default(mens)
// @Success 200 {object} models.CurrentRating
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /players/{id}/rating [get]
func (h *RatingHandler) GetPlayerRating(c *gin.Context) {
	matchType, ok := matchTypeParam(c)
	if !ok {
		return
	}

	rating, err := h.store.CurrentRating(c.Param("id"), matchType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rating"})
		return
	}

	c.JSON(http.StatusOK, rating)
}

// GetPlayerRatingHistory retrieves a player's rating trajectory
// @Summary Get a player's rating history
// @Description Chronological rating snapshots, one per processed match plus decay entries
// @Tags players
// @Produce json
// @Param id path string true "Player ID"
// @Param type query string false "Match type" Enums(mens,womens) default(mens)
// @Success 200 {array} models.RatingHistoryPoint
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /players/{id}/rating-history [get]
func (h *RatingHandler) GetPlayerRatingHistory(c *gin.Context) {
	matchType, ok := matchTypeParam(c)
	if !ok {
		return
	}

	history, err := h.store.PlayerHistory(c.Param("id"), matchType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rating history"})
		return
	}

	c.JSON(http.StatusOK, history)
}

// GetStandings retrieves the top players by rating
// @Summary Get standings
// @Description Top players for a match type ordered by current rating
// @Tags players
// @Produce json
// @Param type query string false "Match type" Enums(mens,womens) default(mens)
// @Param limit query int false "Number of players (default: 25, max: 100)"
// @Success 200 {array} models.Player
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /players/standings [get]
func (h *RatingHandler) GetStandings(c *gin.Context) {
	matchType, ok := matchTypeParam(c)
	if !ok {
		return
	}

	limitStr := c.DefaultQuery("limit", "25")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}
	if limit > 100 {
		limit = 100
	}

	players, err := h.store.Standings(matchType, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve standings"})
		return
	}

	c.JSON(http.StatusOK, players)
}

// GetTeamRating retrieves a partnership's current rating
// @Summary Get a team's current rating
// @Description Current rating for an unordered pair of players; unseen pairs get defaults
// @Tags teams
// @Produce json
// @Param player1 query string true "First player ID"
// @Param player2 query string true "Second player ID"
// @Param type query string false "Match type" Enums(mens,womens) default(mens)
// @Success 200 {object} models.CurrentRating
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /teams/rating [get]
func (h *RatingHandler) GetTeamRating(c *gin.Context) {
	matchType, ok := matchTypeParam(c)
	if !ok {
		return
	}

	player1 := c.Query("player1")
	player2 := c.Query("player2")
	if player1 == "" || player2 == "" || player1 == player2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player1 and player2 must be two distinct player IDs"})
		return
	}

	rating, err := h.store.CurrentTeamRating(player1, player2, matchType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team rating"})
		return
	}

	c.JSON(http.StatusOK, rating)
}

// GetTeamRatingHistory retrieves a partnership's rating trajectory
// @Summary Get a team's rating history
// @Description Chronological rating snapshots for an unordered pair of players
// @Tags teams
// @Produce json
// @Param player1 query string true "First player ID"
// @Param player2 query string true "Second player ID"
// @Param type query string false "Match type" Enums(mens,womens) default(mens)
// @Success 200 {array} models.RatingHistoryPoint
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /teams/rating-history [get]
func (h *RatingHandler) GetTeamRatingHistory(c *gin.Context) {
	matchType, ok := matchTypeParam(c)
	if !ok {
		return
	}

	player1 := c.Query("player1")
	player2 := c.Query("player2")
	if player1 == "" || player2 == "" || player1 == player2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player1 and player2 must be two distinct player IDs"})
		return
	}

	history, err := h.store.TeamHistory(player1, player2, matchType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team rating history"})
		return
	}

	c.JSON(http.StatusOK, history)
}
