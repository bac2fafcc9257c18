package services

import (
	"errors"
	"strings"
	"time"

	"sandscore-api/glicko"
	"sandscore-api/models"

	"gorm.io/gorm"
)

// decayPeriod is how long an entity can sit idle before its RD starts
// inflating (one month, matching the decay rate's unit).
const decayPeriod = 30 * 24 * time.Hour

// RatingStore owns the persisted rating state: player profiles with
// embedded per-match-type ratings, team-key ratings, and the append-only
// history tables.
type RatingStore struct {
	db *gorm.DB
}

func NewRatingStore(db *gorm.DB) *RatingStore {
	return &RatingStore{db: db}
}

// GetOrCreatePlayer loads a player's profile inside tx. When lenient,
// an unknown player is created with default ratings so new players are
// playable immediately; otherwise the lookup is strict.
func (s *RatingStore) GetOrCreatePlayer(tx *gorm.DB, playerID string, lenient bool) (*models.Player, error) {
	var player models.Player

	err := tx.First(&player, "id = ?", playerID).Error
	if err == nil {
		return &player, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wrapStorageError(err)
	}
	if !lenient {
		return nil, &models.NotFoundError{Entity: "player", ID: playerID}
	}

	player = models.Player{
		ID:                    playerID,
		Username:              "player_" + shortID(playerID),
		IsActive:              true,
		MensRating:            glicko.DefaultRating,
		MensRatingDeviation:   glicko.DefaultRD,
		MensVolatility:        glicko.DefaultVolatility,
		WomensRating:          glicko.DefaultRating,
		WomensRatingDeviation: glicko.DefaultRD,
		WomensVolatility:      glicko.DefaultVolatility,
	}
	if err := tx.Create(&player).Error; err != nil {
		return nil, wrapStorageError(err)
	}
	return &player, nil
}

// SavePlayer persists an updated profile inside tx.
func (s *RatingStore) SavePlayer(tx *gorm.DB, player *models.Player) error {
	if err := tx.Save(player).Error; err != nil {
		return wrapStorageError(err)
	}
	return nil
}

// GetOrCreateTeamRating loads the partnership row for the pair, creating
// it at defaults on first sight. Team rows are always lazily materialized;
// no collaborator pre-creates them.
func (s *RatingStore) GetOrCreateTeamRating(tx *gorm.DB, playerA, playerB, matchType string) (*models.TeamRating, error) {
	key := models.TeamKey(playerA, playerB)

	var team models.TeamRating
	err := tx.Where("team_key = ? AND match_type = ?", key, matchType).First(&team).Error
	if err == nil {
		return &team, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wrapStorageError(err)
	}

	p1, p2 := playerA, playerB
	if strings.Compare(p1, p2) > 0 {
		p1, p2 = p2, p1
	}
	team = models.TeamRating{
		TeamKey:         key,
		MatchType:       matchType,
		Player1ID:       p1,
		Player2ID:       p2,
		Rating:          glicko.DefaultRating,
		RatingDeviation: glicko.DefaultRD,
		Volatility:      glicko.DefaultVolatility,
	}
	if err := tx.Create(&team).Error; err != nil {
		return nil, wrapStorageError(err)
	}
	return &team, nil
}

// SaveTeamRating persists an updated team row inside tx.
func (s *RatingStore) SaveTeamRating(tx *gorm.DB, team *models.TeamRating) error {
	if err := tx.Save(team).Error; err != nil {
		return wrapStorageError(err)
	}
	return nil
}

// AppendPlayerHistory and AppendTeamHistory add audit rows; history is
// append-only and never updated.
func (s *RatingStore) AppendPlayerHistory(tx *gorm.DB, entry *models.PlayerRatingHistory) error {
	if err := tx.Create(entry).Error; err != nil {
		return wrapStorageError(err)
	}
	return nil
}

func (s *RatingStore) AppendTeamHistory(tx *gorm.DB, entry *models.TeamRatingHistory) error {
	if err := tx.Create(entry).Error; err != nil {
		return wrapStorageError(err)
	}
	return nil
}

// CurrentRating returns a player's rating for one match type. Unseen
// players get the default snapshot rather than an error, so profile
// pages work before a first match.
func (s *RatingStore) CurrentRating(playerID, matchType string) (*models.CurrentRating, error) {
	var player models.Player

	err := s.db.First(&player, "id = ?", playerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaultCurrentRating(), nil
	}
	if err != nil {
		return nil, wrapStorageError(err)
	}

	state := player.RatingFor(matchType)
	return &models.CurrentRating{
		Rating:          state.Rating,
		RatingDeviation: state.RatingDeviation,
		ConfidenceLevel: glicko.ConfidenceLevel(state.RatingDeviation),
		MatchesPlayed:   state.MatchesPlayed,
	}, nil
}

// CurrentTeamRating is the team-key analogue of CurrentRating.
func (s *RatingStore) CurrentTeamRating(playerA, playerB, matchType string) (*models.CurrentRating, error) {
	key := models.TeamKey(playerA, playerB)

	var team models.TeamRating
	err := s.db.Where("team_key = ? AND match_type = ?", key, matchType).First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaultCurrentRating(), nil
	}
	if err != nil {
		return nil, wrapStorageError(err)
	}

	return &models.CurrentRating{
		Rating:          team.Rating,
		RatingDeviation: team.RatingDeviation,
		ConfidenceLevel: glicko.ConfidenceLevel(team.RatingDeviation),
		MatchesPlayed:   team.MatchesPlayed,
	}, nil
}

// PlayerHistory returns a player's rating trajectory in chronological
// order. The read is pure: restartable, no cursor state.
func (s *RatingStore) PlayerHistory(playerID, matchType string) ([]models.RatingHistoryPoint, error) {
	var entries []models.PlayerRatingHistory

	err := s.db.Where("player_id = ? AND match_type = ?", playerID, matchType).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, wrapStorageError(err)
	}

	points := make([]models.RatingHistoryPoint, 0, len(entries))
	for _, e := range entries {
		points = append(points, models.RatingHistoryPoint{
			Date:            e.CreatedAt,
			Rating:          e.RatingAfter,
			RatingDeviation: e.RatingDeviation,
			ConfidenceLevel: e.ConfidenceLevel,
			MatchID:         e.MatchID,
			EntryType:       e.EntryType,
		})
	}
	return points, nil
}

// TeamHistory returns a partnership's rating trajectory.
func (s *RatingStore) TeamHistory(playerA, playerB, matchType string) ([]models.RatingHistoryPoint, error) {
	key := models.TeamKey(playerA, playerB)

	var entries []models.TeamRatingHistory
	err := s.db.Where("team_key = ? AND match_type = ?", key, matchType).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, wrapStorageError(err)
	}

	points := make([]models.RatingHistoryPoint, 0, len(entries))
	for _, e := range entries {
		points = append(points, models.RatingHistoryPoint{
			Date:            e.CreatedAt,
			Rating:          e.RatingAfter,
			RatingDeviation: e.RatingDeviation,
			ConfidenceLevel: e.ConfidenceLevel,
			MatchID:         e.MatchID,
			EntryType:       e.EntryType,
		})
	}
	return points, nil
}

// Standings lists the top players for a match type by current rating.
func (s *RatingStore) Standings(matchType string, limit int) ([]models.Player, error) {
	column := "mens_rating"
	if matchType == models.MatchTypeWomens {
		column = "womens_rating"
	}

	var players []models.Player
	err := s.db.Where("is_active = ?", true).
		Order(column + " DESC, id ASC").
		Limit(limit).
		Find(&players).Error
	if err != nil {
		return nil, wrapStorageError(err)
	}
	return players, nil
}

// ResetRatings puts every in-scope rating back to the canonical defaults
// and purges the in-scope history, so a recalculation rebuilds from a
// clean slate instead of layering onto stale state. matchType "" resets
// both partitions.
func (s *RatingStore) ResetRatings(matchType string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		scopes := scopeMatchTypes(matchType)

		for _, mt := range scopes {
			updates := map[string]interface{}{}
			if mt == models.MatchTypeMens {
				updates["mens_rating"] = glicko.DefaultRating
				updates["mens_rating_deviation"] = glicko.DefaultRD
				updates["mens_volatility"] = glicko.DefaultVolatility
				updates["mens_matches_played"] = 0
				updates["mens_last_played_at"] = nil
			} else {
				updates["womens_rating"] = glicko.DefaultRating
				updates["womens_rating_deviation"] = glicko.DefaultRD
				updates["womens_volatility"] = glicko.DefaultVolatility
				updates["womens_matches_played"] = 0
				updates["womens_last_played_at"] = nil
			}
			if err := tx.Model(&models.Player{}).Where("1 = 1").Updates(updates).Error; err != nil {
				return wrapStorageError(err)
			}

			// Team rows are lazily recreated, so a hard delete is the reset.
			if err := tx.Unscoped().Where("match_type = ?", mt).Delete(&models.TeamRating{}).Error; err != nil {
				return wrapStorageError(err)
			}
			if err := tx.Unscoped().Where("match_type = ?", mt).Delete(&models.PlayerRatingHistory{}).Error; err != nil {
				return wrapStorageError(err)
			}
			if err := tx.Unscoped().Where("match_type = ?", mt).Delete(&models.TeamRatingHistory{}).Error; err != nil {
				return wrapStorageError(err)
			}
		}
		return nil
	})
}

// DecayInactive inflates the RD of every in-scope player and team whose
// last match is older than one decay period, appending a decay snapshot
// to the history so charts show the widening uncertainty. Returns how
// many entities were touched.
func (s *RatingStore) DecayInactive(matchType string, now time.Time) (int, error) {
	decayed := 0
	cutoff := now.Add(-decayPeriod)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, mt := range scopeMatchTypes(matchType) {
			var players []models.Player
			if err := tx.Find(&players).Error; err != nil {
				return wrapStorageError(err)
			}

			for i := range players {
				player := &players[i]
				state := player.RatingFor(mt)
				if state.LastPlayedAt == nil || !state.LastPlayedAt.Before(cutoff) {
					continue
				}

				newRD := glicko.DecayRD(state.RatingDeviation, *state.LastPlayedAt, now)
				if newRD == state.RatingDeviation {
					continue
				}

				state.RatingDeviation = newRD
				player.SetRatingFor(mt, state)
				if err := s.SavePlayer(tx, player); err != nil {
					return err
				}
				entry := &models.PlayerRatingHistory{
					PlayerID:        player.ID,
					MatchType:       mt,
					EntryType:       models.HistoryEntryDecay,
					RatingBefore:    state.Rating,
					RatingAfter:     state.Rating,
					RatingChange:    0,
					RatingDeviation: newRD,
					ConfidenceLevel: glicko.ConfidenceLevel(newRD),
				}
				if err := s.AppendPlayerHistory(tx, entry); err != nil {
					return err
				}
				decayed++
			}

			var teams []models.TeamRating
			if err := tx.Where("match_type = ?", mt).Find(&teams).Error; err != nil {
				return wrapStorageError(err)
			}
			for i := range teams {
				team := &teams[i]
				if team.LastPlayedAt == nil || !team.LastPlayedAt.Before(cutoff) {
					continue
				}

				newRD := glicko.DecayRD(team.RatingDeviation, *team.LastPlayedAt, now)
				if newRD == team.RatingDeviation {
					continue
				}

				team.RatingDeviation = newRD
				if err := s.SaveTeamRating(tx, team); err != nil {
					return err
				}
				entry := &models.TeamRatingHistory{
					TeamKey:         team.TeamKey,
					MatchType:       mt,
					EntryType:       models.HistoryEntryDecay,
					RatingBefore:    team.Rating,
					RatingAfter:     team.Rating,
					RatingChange:    0,
					RatingDeviation: newRD,
					ConfidenceLevel: glicko.ConfidenceLevel(newRD),
				}
				if err := s.AppendTeamHistory(tx, entry); err != nil {
					return err
				}
				decayed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return decayed, nil
}

func defaultCurrentRating() *models.CurrentRating {
	return &models.CurrentRating{
		Rating:          glicko.DefaultRating,
		RatingDeviation: glicko.DefaultRD,
		ConfidenceLevel: glicko.ConfidenceLevel(glicko.DefaultRD),
		MatchesPlayed:   0,
	}
}

func scopeMatchTypes(matchType string) []string {
	if models.RatedMatchType(matchType) {
		return []string{matchType}
	}
	return []string{models.MatchTypeMens, models.MatchTypeWomens}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// wrapStorageError classifies driver errors worth retrying. Anything that
// smells like a timeout, deadlock or dropped connection becomes a
// TransientStorageError so the batch recalculator backs off and retries
// instead of recording a permanent failure.
func wrapStorageError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"deadlock", "timeout", "timed out", "connection refused", "connection reset", "broken pipe", "too many connections"} {
		if strings.Contains(msg, marker) {
			return &models.TransientStorageError{Err: err}
		}
	}
	return err
}
