package services

import (
	"errors"
	"testing"
	"time"

	"sandscore-api/glicko"
	"sandscore-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPlayers = [4]string{
	"11111111-aaaa-4aaa-8aaa-000000000001",
	"11111111-aaaa-4aaa-8aaa-000000000002",
	"11111111-aaaa-4aaa-8aaa-000000000003",
	"11111111-aaaa-4aaa-8aaa-000000000004",
}

func TestValidateMatch(t *testing.T) {
	valid := func() *models.Match {
		return &models.Match{
			Team1Player1ID: testPlayers[0],
			Team1Player2ID: testPlayers[1],
			Team2Player1ID: testPlayers[2],
			Team2Player2ID: testPlayers[3],
			Team1Score:     21,
			Team2Score:     15,
			WinningTeam:    1,
			MatchType:      models.MatchTypeMens,
			PlayedAt:       time.Now(),
		}
	}

	require.NoError(t, ValidateMatch(valid()))

	cases := []struct {
		name   string
		mutate func(*models.Match)
	}{
		{"unknown match type", func(m *models.Match) { m.MatchType = "coed" }},
		{"tied score", func(m *models.Match) { m.Team1Score, m.Team2Score = 18, 18 }},
		{"bad winning team", func(m *models.Match) { m.WinningTeam = 3 }},
		{"missing player", func(m *models.Match) { m.Team2Player2ID = "" }},
		{"duplicate player", func(m *models.Match) { m.Team2Player1ID = m.Team1Player1ID }},
		{"duplicate within team", func(m *models.Match) { m.Team1Player2ID = m.Team1Player1ID }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			match := valid()
			tc.mutate(match)

			err := ValidateMatch(match)
			var invalid *models.InvalidMatchError
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

func TestSubmitMatchUpdatesAllRatings(t *testing.T) {
	db := setupTestDB(t)
	_, _, _, svc := newTestServices(db)

	result := submitAt(t, svc, testPlayers, time.Now())

	require.Len(t, result.UpdatedPlayers, 4)
	require.Len(t, result.UpdatedTeamRatings, 2)

	// Winners up, losers down, starting from identical defaults the
	// moves mirror each other.
	for _, u := range result.UpdatedPlayers[:2] {
		assert.Greater(t, u.RatingAfter, glicko.DefaultRating)
		assert.Less(t, u.RatingDeviation, glicko.DefaultRD)
	}
	for _, u := range result.UpdatedPlayers[2:] {
		assert.Less(t, u.RatingAfter, glicko.DefaultRating)
	}
	assert.Equal(t, result.UpdatedPlayers[0].RatingChange, -result.UpdatedPlayers[2].RatingChange)

	// Persisted state matches the reported result.
	var winner models.Player
	require.NoError(t, db.First(&winner, "id = ?", testPlayers[0]).Error)
	assert.Equal(t, result.UpdatedPlayers[0].RatingAfter, winner.MensRating)
	assert.Equal(t, 1, winner.MensMatchesPlayed)
	require.NotNil(t, winner.MensLastPlayedAt)

	// The womens partition of the same profile stays untouched.
	assert.Equal(t, glicko.DefaultRating, winner.WomensRating)
	assert.Equal(t, 0, winner.WomensMatchesPlayed)

	// One history row per player and per team.
	var playerHistory, teamHistory int64
	require.NoError(t, db.Model(&models.PlayerRatingHistory{}).Count(&playerHistory).Error)
	require.NoError(t, db.Model(&models.TeamRatingHistory{}).Count(&teamHistory).Error)
	assert.Equal(t, int64(4), playerHistory)
	assert.Equal(t, int64(2), teamHistory)

	var teams int64
	require.NoError(t, db.Model(&models.TeamRating{}).Count(&teams).Error)
	assert.Equal(t, int64(2), teams)
}

func TestSubmitMatchRejectsTieWithoutSideEffects(t *testing.T) {
	db := setupTestDB(t)
	_, _, _, svc := newTestServices(db)

	_, err := svc.SubmitMatch(models.CreateMatchRequest{
		Team1Player1ID: testPlayers[0],
		Team1Player2ID: testPlayers[1],
		Team2Player1ID: testPlayers[2],
		Team2Player2ID: testPlayers[3],
		Team1Score:     21,
		Team2Score:     21,
		MatchType:      models.MatchTypeMens,
	})

	var invalid *models.InvalidMatchError
	require.ErrorAs(t, err, &invalid)

	var matches, players int64
	require.NoError(t, db.Model(&models.Match{}).Count(&matches).Error)
	require.NoError(t, db.Model(&models.Player{}).Count(&players).Error)
	assert.Zero(t, matches)
	assert.Zero(t, players)
}

func TestStrictModeRequiresExistingPlayers(t *testing.T) {
	db := setupTestDB(t)
	store := NewRatingStore(db)
	processor := NewMatchProcessor(db, store, ModeStrict)

	match := &models.Match{
		Team1Player1ID: testPlayers[0],
		Team1Player2ID: testPlayers[1],
		Team2Player1ID: testPlayers[2],
		Team2Player2ID: testPlayers[3],
		Team1Score:     21,
		Team2Score:     15,
		WinningTeam:    1,
		MatchType:      models.MatchTypeMens,
		PlayedAt:       time.Now(),
	}

	_, err := processor.Process(match, LiveProcessOptions())
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "player", notFound.Entity)
}

func TestBiggerMarginMovesRatingsMore(t *testing.T) {
	narrowDB := setupTestDB(t)
	_, _, _, narrowSvc := newTestServices(narrowDB)
	blowoutDB := setupTestDB(t)
	_, _, _, blowoutSvc := newTestServices(blowoutDB)

	narrow, err := narrowSvc.SubmitMatch(models.CreateMatchRequest{
		Team1Player1ID: testPlayers[0], Team1Player2ID: testPlayers[1],
		Team2Player1ID: testPlayers[2], Team2Player2ID: testPlayers[3],
		Team1Score: 21, Team2Score: 19, MatchType: models.MatchTypeMens,
	})
	require.NoError(t, err)

	blowout, err := blowoutSvc.SubmitMatch(models.CreateMatchRequest{
		Team1Player1ID: testPlayers[0], Team1Player2ID: testPlayers[1],
		Team2Player1ID: testPlayers[2], Team2Player2ID: testPlayers[3],
		Team1Score: 21, Team2Score: 5, MatchType: models.MatchTypeMens,
	})
	require.NoError(t, err)

	assert.Greater(t, blowout.UpdatedPlayers[0].RatingChange, narrow.UpdatedPlayers[0].RatingChange)
}

func TestProcessRollsBackOnHistoryFailure(t *testing.T) {
	db := setupTestDB(t)
	_, _, _, svc := newTestServices(db)

	// Breaking the history table mid-transaction must abort the whole
	// submission, including the auto-created player profiles.
	require.NoError(t, db.Migrator().DropTable(&models.PlayerRatingHistory{}))

	_, err := svc.SubmitMatch(models.CreateMatchRequest{
		Team1Player1ID: testPlayers[0],
		Team1Player2ID: testPlayers[1],
		Team2Player1ID: testPlayers[2],
		Team2Player2ID: testPlayers[3],
		Team1Score:     21,
		Team2Score:     15,
		MatchType:      models.MatchTypeMens,
	})
	require.Error(t, err)

	var matches, players, teams int64
	require.NoError(t, db.Model(&models.Match{}).Count(&matches).Error)
	require.NoError(t, db.Model(&models.Player{}).Count(&players).Error)
	require.NoError(t, db.Model(&models.TeamRating{}).Count(&teams).Error)
	assert.Zero(t, matches)
	assert.Zero(t, players)
	assert.Zero(t, teams)
}

func TestTimeWeightedReplayDampensOldMatches(t *testing.T) {
	now := time.Now()

	freshDB := setupTestDB(t)
	freshStore := NewRatingStore(freshDB)
	freshProc := NewMatchProcessor(freshDB, freshStore, ModeLenient)

	oldDB := setupTestDB(t)
	oldStore := NewRatingStore(oldDB)
	oldProc := NewMatchProcessor(oldDB, oldStore, ModeLenient)

	makeMatch := func(playedAt time.Time) *models.Match {
		return &models.Match{
			Team1Player1ID: testPlayers[0], Team1Player2ID: testPlayers[1],
			Team2Player1ID: testPlayers[2], Team2Player2ID: testPlayers[3],
			Team1Score: 21, Team2Score: 15, WinningTeam: 1,
			MatchType: models.MatchTypeMens, PlayedAt: playedAt,
		}
	}
	opts := ProcessOptions{
		Now:           now,
		TimeWeighted:  true,
		HalfLifeDays:  DefaultHalfLifeDays,
		MinTimeWeight: DefaultMinTimeWeight,
	}

	fresh, err := freshProc.Process(makeMatch(now), opts)
	require.NoError(t, err)
	old, err := oldProc.Process(makeMatch(now.AddDate(-2, 0, 0)), opts)
	require.NoError(t, err)

	assert.Greater(t, fresh.UpdatedPlayers[0].RatingChange, old.UpdatedPlayers[0].RatingChange)
}

func TestSubmitMatchBlockedDuringRecalculation(t *testing.T) {
	db := setupTestDB(t)
	_, _, guard, svc := newTestServices(db)

	require.NoError(t, guard.TryLock(models.MatchTypeMens))
	defer guard.Unlock(models.MatchTypeMens)

	_, err := svc.SubmitMatch(models.CreateMatchRequest{
		Team1Player1ID: testPlayers[0],
		Team1Player2ID: testPlayers[1],
		Team2Player1ID: testPlayers[2],
		Team2Player2ID: testPlayers[3],
		Team1Score:     21,
		Team2Score:     15,
		MatchType:      models.MatchTypeMens,
	})
	assert.True(t, errors.Is(err, models.ErrRecalcInProgress))

	// The womens scope is independent and stays open.
	_, err = svc.SubmitMatch(models.CreateMatchRequest{
		Team1Player1ID: testPlayers[0],
		Team1Player2ID: testPlayers[1],
		Team2Player1ID: testPlayers[2],
		Team2Player2ID: testPlayers[3],
		Team1Score:     21,
		Team2Score:     15,
		MatchType:      models.MatchTypeWomens,
	})
	assert.NoError(t, err)
}
