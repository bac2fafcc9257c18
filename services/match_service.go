package services

import (
	"errors"
	"time"

	"sandscore-api/models"

	"gorm.io/gorm"
)

// MatchService owns match intake and queries. Submitting a match stores
// it and rates it synchronously in one transaction, so the caller sees a
// single success or failure, never a partially rated match.
type MatchService struct {
	db        *gorm.DB
	processor *MatchProcessor
	guard     *RecalcGuard
}

func NewMatchService(db *gorm.DB, processor *MatchProcessor, guard *RecalcGuard) *MatchService {
	return &MatchService{db: db, processor: processor, guard: guard}
}

// SubmitMatch records a match and applies it to all affected ratings.
func (s *MatchService) SubmitMatch(req models.CreateMatchRequest) (*models.SubmitMatchResult, error) {
	playedAt := time.Now()
	if req.PlayedAt != nil {
		playedAt = *req.PlayedAt
	}

	winningTeam := 1
	if req.Team2Score > req.Team1Score {
		winningTeam = 2
	}

	match := &models.Match{
		Team1Player1ID: req.Team1Player1ID,
		Team1Player2ID: req.Team1Player2ID,
		Team2Player1ID: req.Team2Player1ID,
		Team2Player2ID: req.Team2Player2ID,
		Team1Score:     req.Team1Score,
		Team2Score:     req.Team2Score,
		WinningTeam:    winningTeam,
		MatchType:      req.MatchType,
		PlayedAt:       playedAt,
	}

	if err := ValidateMatch(match); err != nil {
		return nil, err
	}

	// A live write landing mid-recalculation would be erased by the
	// reset, so it is rejected as retryable instead. The shared claim is
	// held until the transaction commits so a recalculation cannot
	// start underneath it.
	if err := s.guard.Acquire(match.MatchType); err != nil {
		return nil, err
	}
	defer s.guard.Release(match.MatchType)

	var result *models.SubmitMatchResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(match).Error; err != nil {
			return wrapStorageError(err)
		}
		var txErr error
		result, txErr = s.processor.ProcessInTx(tx, match, LiveProcessOptions())
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetRecentMatches returns the newest matches by play date.
func (s *MatchService) GetRecentMatches(limit int) ([]models.Match, error) {
	var matches []models.Match

	result := s.db.Order("played_at DESC, id DESC").
		Limit(limit).
		Find(&matches)
	if result.Error != nil {
		return nil, result.Error
	}
	return matches, nil
}

// MatchFilters narrows a paginated match listing.
type MatchFilters struct {
	PlayerID  *string    `json:"player_id,omitempty"`
	MatchType *string    `json:"match_type,omitempty"`
	DateFrom  *time.Time `json:"date_from,omitempty"`
	DateTo    *time.Time `json:"date_to,omitempty"`
	Page      int        `json:"page"`
	PerPage   int        `json:"per_page"`
}

// GetMatches returns matches with pagination and filters.
func (s *MatchService) GetMatches(filters MatchFilters) (*models.PaginatedMatchResponse, error) {
	var matches []models.Match
	var total int64

	query := s.db.Model(&models.Match{})

	if filters.PlayerID != nil {
		id := *filters.PlayerID
		query = query.Where(
			"team1_player1_id = ? OR team1_player2_id = ? OR team2_player1_id = ? OR team2_player2_id = ?",
			id, id, id, id,
		)
	}
	if filters.MatchType != nil {
		query = query.Where("match_type = ?", *filters.MatchType)
	}
	if filters.DateFrom != nil {
		query = query.Where("played_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		dateTo := filters.DateTo.Add(24 * time.Hour)
		query = query.Where("played_at < ?", dateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (filters.Page - 1) * filters.PerPage

	result := query.
		Offset(offset).
		Limit(filters.PerPage).
		Order("played_at DESC, id DESC").
		Find(&matches)
	if result.Error != nil {
		return nil, result.Error
	}

	totalPages := int((total + int64(filters.PerPage) - 1) / int64(filters.PerPage))

	return &models.PaginatedMatchResponse{
		Data:       matches,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PerPage,
		TotalPages: totalPages,
	}, nil
}

// DeleteMatch soft-deletes a match. Ratings already derived from it stay
// until the next recalculation replays the history without it.
func (s *MatchService) DeleteMatch(matchID uint) error {
	result := s.db.Delete(&models.Match{}, matchID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("match not found")
	}
	return nil
}
