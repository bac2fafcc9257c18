package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"sandscore-api/glicko"
	"sandscore-api/models"
	"sandscore-api/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *services.RecalcGuard) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Player{},
		&models.Match{},
		&models.TeamRating{},
		&models.PlayerRatingHistory{},
		&models.TeamRatingHistory{},
	))

	store := services.NewRatingStore(db)
	guard := services.NewRecalcGuard()
	processor := services.NewMatchProcessor(db, store, services.ModeLenient)
	matchService := services.NewMatchService(db, processor, guard)

	matchHandler := NewMatchHandler(matchService)
	ratingHandler := NewRatingHandler(store)

	r := gin.New()
	r.POST("/matches", matchHandler.SubmitMatch)
	r.GET("/matches/recent", matchHandler.GetRecentMatches)
	r.GET("/players/standings", ratingHandler.GetStandings)
	r.GET("/players/:id/rating", ratingHandler.GetPlayerRating)
	r.GET("/teams/rating", ratingHandler.GetTeamRating)
	return r, guard
}

func postMatch(t *testing.T, r *gin.Engine, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/matches", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validMatchBody() map[string]interface{} {
	return map[string]interface{}{
		"team1_player1_id": "22222222-bbbb-4bbb-8bbb-000000000001",
		"team1_player2_id": "22222222-bbbb-4bbb-8bbb-000000000002",
		"team2_player1_id": "22222222-bbbb-4bbb-8bbb-000000000003",
		"team2_player2_id": "22222222-bbbb-4bbb-8bbb-000000000004",
		"team1_score":      21,
		"team2_score":      15,
		"match_type":       "mens",
	}
}

func TestSubmitMatchEndpoint(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := postMatch(t, r, validMatchBody())
	require.Equal(t, http.StatusCreated, w.Code)

	var result models.SubmitMatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Len(t, result.UpdatedPlayers, 4)
	assert.Len(t, result.UpdatedTeamRatings, 2)
	assert.Greater(t, result.UpdatedPlayers[0].RatingAfter, glicko.DefaultRating)
}

func TestSubmitMatchEndpointRejectsInvalid(t *testing.T) {
	r, _ := setupTestRouter(t)

	tied := validMatchBody()
	tied["team2_score"] = 21
	assert.Equal(t, http.StatusBadRequest, postMatch(t, r, tied).Code)

	badType := validMatchBody()
	badType["match_type"] = "coed"
	assert.Equal(t, http.StatusBadRequest, postMatch(t, r, badType).Code)

	duplicate := validMatchBody()
	duplicate["team2_player1_id"] = duplicate["team1_player1_id"]
	assert.Equal(t, http.StatusBadRequest, postMatch(t, r, duplicate).Code)
}

func TestSubmitMatchEndpointConflictDuringRecalc(t *testing.T) {
	r, guard := setupTestRouter(t)

	require.NoError(t, guard.TryLock(models.MatchTypeMens))
	defer guard.Unlock(models.MatchTypeMens)

	w := postMatch(t, r, validMatchBody())
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetPlayerRatingDefaultsForUnknown(t *testing.T) {
	r, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/players/nobody/rating", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var rating models.CurrentRating
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rating))
	assert.Equal(t, glicko.DefaultRating, rating.Rating)
	assert.Equal(t, glicko.DefaultRD, rating.RatingDeviation)

	// An unsupported partition is rejected rather than defaulted.
	req = httptest.NewRequest(http.MethodGet, "/players/nobody/rating?type=coed", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTeamRatingRequiresDistinctPlayers(t *testing.T) {
	r, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/teams/rating?player1=a&player2=a", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/teams/rating?player1=a&player2=b", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStandingsEndpoint(t *testing.T) {
	r, _ := setupTestRouter(t)

	require.Equal(t, http.StatusCreated, postMatch(t, r, validMatchBody()).Code)

	req := httptest.NewRequest(http.MethodGet, "/players/standings?type=mens", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var players []models.Player
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &players))
	require.Len(t, players, 4)
	assert.GreaterOrEqual(t, players[0].MensRating, players[3].MensRating)
}
