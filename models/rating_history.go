package models

import (
	"time"

	"gorm.io/gorm"
)

// History entry kinds. Decay snapshots have no match attached.
const (
	HistoryEntryMatch = "match"
	HistoryEntryDecay = "decay"
)

// PlayerRatingHistory is an append-only snapshot of a player's rating
// right after a match (or a decay-only pass). It is never mutated; it is
// the audit trail a recalculation must reproduce.
type PlayerRatingHistory struct {
	ID              uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID        string  `gorm:"type:uuid;not null;index" json:"player_id"`
	MatchID         *uint   `gorm:"index" json:"match_id"`
	MatchType       string  `gorm:"size:10;not null" json:"match_type"`
	EntryType       string  `gorm:"size:10;not null;default:match" json:"entry_type"`
	RatingBefore    float64 `gorm:"not null" json:"rating_before"`
	RatingAfter     float64 `gorm:"not null" json:"rating_after"`
	RatingChange    float64 `gorm:"not null" json:"rating_change"`
	RatingDeviation float64 `gorm:"not null" json:"rating_deviation"`
	ConfidenceLevel float64 `gorm:"not null" json:"confidence_level"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Player Player `gorm:"foreignKey:PlayerID;references:ID" json:"player,omitempty"`
	Match  *Match `gorm:"foreignKey:MatchID;references:ID" json:"match,omitempty"`
}

func (PlayerRatingHistory) TableName() string {
	return "player_rating_history"
}

// TeamRatingHistory mirrors PlayerRatingHistory for partnership ratings.
type TeamRatingHistory struct {
	ID              uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	TeamKey         string  `gorm:"size:80;not null;index" json:"team_key"`
	MatchID         *uint   `gorm:"index" json:"match_id"`
	MatchType       string  `gorm:"size:10;not null" json:"match_type"`
	EntryType       string  `gorm:"size:10;not null;default:match" json:"entry_type"`
	RatingBefore    float64 `gorm:"not null" json:"rating_before"`
	RatingAfter     float64 `gorm:"not null" json:"rating_after"`
	RatingChange    float64 `gorm:"not null" json:"rating_change"`
	RatingDeviation float64 `gorm:"not null" json:"rating_deviation"`
	ConfidenceLevel float64 `gorm:"not null" json:"confidence_level"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Match *Match `gorm:"foreignKey:MatchID;references:ID" json:"match,omitempty"`
}

func (TeamRatingHistory) TableName() string {
	return "team_rating_history"
}

// RatingHistoryPoint is the chart-friendly shape for the history read API.
type RatingHistoryPoint struct {
	Date            time.Time `json:"date"`
	Rating          float64   `json:"rating"`
	RatingDeviation float64   `json:"rating_deviation"`
	ConfidenceLevel float64   `json:"confidence_level"`
	MatchID         *uint     `json:"match_id"`
	EntryType       string    `json:"entry_type"`
}
