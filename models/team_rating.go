package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// TeamRating tracks how a specific pair performs together, independently
// of the players' individual ratings. SynergyBonus is carried in the
// schema for partnership-chemistry adjustments; the simplified calculator
// does not feed it yet.
type TeamRating struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	TeamKey   string `gorm:"size:80;not null;uniqueIndex:idx_team_key_match_type,priority:1" json:"team_key"`
	MatchType string `gorm:"size:10;not null;uniqueIndex:idx_team_key_match_type,priority:2" json:"match_type"`
	Player1ID string `gorm:"type:uuid;not null" json:"player1_id"`
	Player2ID string `gorm:"type:uuid;not null" json:"player2_id"`

	Rating          float64    `gorm:"default:1500" json:"rating"`
	RatingDeviation float64    `gorm:"default:350" json:"rating_deviation"`
	Volatility      float64    `gorm:"default:0.06" json:"volatility"`
	SynergyBonus    float64    `gorm:"default:0" json:"synergy_bonus"`
	MatchesPlayed   int        `gorm:"default:0" json:"matches_played"`
	LastPlayedAt    *time.Time `json:"last_played_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TeamRating) TableName() string {
	return "team_ratings"
}

// TeamKey builds the order-independent key for a pair of players, so the
// same partnership always maps to the same row regardless of which player
// is listed first.
func TeamKey(playerA, playerB string) string {
	if strings.Compare(playerA, playerB) > 0 {
		playerA, playerB = playerB, playerA
	}
	return playerA + "_" + playerB
}
