package services

import (
	"time"

	"sandscore-api/glicko"
	"sandscore-api/models"

	"gorm.io/gorm"
)

type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// GetStats reports the operational snapshot the recalculation tooling and
// the dashboard consume.
func (s *StatsService) GetStats() (*models.RecalcStats, error) {
	stats := &models.RecalcStats{}

	if err := s.db.Model(&models.Player{}).Count(&stats.TotalPlayers).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Match{}).Count(&stats.TotalMatches).Error; err != nil {
		return nil, err
	}

	// A player has custom ratings once either partition moved off the
	// default.
	if err := s.db.Model(&models.Player{}).
		Where("mens_rating <> ? OR womens_rating <> ?", glicko.DefaultRating, glicko.DefaultRating).
		Count(&stats.PlayersWithCustomRatings).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.TeamRating{}).Count(&stats.TeamsWithRatings).Error; err != nil {
		return nil, err
	}

	var earliest, latest models.Match
	if err := s.db.Order("played_at ASC").First(&earliest).Error; err == nil {
		stats.EarliestMatch = &earliest.PlayedAt
	}
	if err := s.db.Order("played_at DESC").First(&latest).Error; err == nil {
		stats.LatestMatch = &latest.PlayedAt
	}

	now := time.Now()
	last7DaysStart := now.AddDate(0, 0, -7)
	previous7DaysStart := now.AddDate(0, 0, -14)

	if err := s.db.Model(&models.Match{}).
		Where("played_at >= ?", last7DaysStart).
		Count(&stats.MatchesLast7Days).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Match{}).
		Where("played_at >= ? AND played_at < ?", previous7DaysStart, last7DaysStart).
		Count(&stats.MatchesPrevious7Days).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
