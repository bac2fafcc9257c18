package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"sandscore-api/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDBSeq distinguishes databases when one test opens several; the test
// name alone would hand every call the same shared-cache database.
var testDBSeq atomic.Int64

// setupTestDB opens an isolated in-memory database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Player{},
		&models.Match{},
		&models.TeamRating{},
		&models.PlayerRatingHistory{},
		&models.TeamRatingHistory{},
	)
	require.NoError(t, err)

	return db
}

// newTestServices wires the full lenient-mode service stack on one db.
func newTestServices(db *gorm.DB) (*RatingStore, *MatchProcessor, *RecalcGuard, *MatchService) {
	store := NewRatingStore(db)
	processor := NewMatchProcessor(db, store, ModeLenient)
	guard := NewRecalcGuard()
	return store, processor, guard, NewMatchService(db, processor, guard)
}

// submitAt submits a standard 21-15 mens match between four players at a
// given time.
func submitAt(t *testing.T, svc *MatchService, ids [4]string, playedAt time.Time) *models.SubmitMatchResult {
	t.Helper()

	result, err := svc.SubmitMatch(models.CreateMatchRequest{
		Team1Player1ID: ids[0],
		Team1Player2ID: ids[1],
		Team2Player1ID: ids[2],
		Team2Player2ID: ids[3],
		Team1Score:     21,
		Team2Score:     15,
		MatchType:      models.MatchTypeMens,
		PlayedAt:       &playedAt,
	})
	require.NoError(t, err)
	return result
}
