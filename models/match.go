package models

import (
	"time"

	"gorm.io/gorm"
)

// Match is an immutable 2v2 result. The engine never rewrites it; edits
// come from the match-entry collaborator, after which a recalculation
// rebuilds the ratings.
type Match struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Team1Player1ID  string    `gorm:"type:uuid;not null" json:"team1_player1_id"`
	Team1Player2ID  string    `gorm:"type:uuid;not null" json:"team1_player2_id"`
	Team2Player1ID  string    `gorm:"type:uuid;not null" json:"team2_player1_id"`
	Team2Player2ID  string    `gorm:"type:uuid;not null" json:"team2_player2_id"`
	Team1Score      int       `gorm:"not null" json:"team1_score"`
	Team2Score      int       `gorm:"not null" json:"team2_score"`
	WinningTeam     int       `gorm:"not null" json:"winning_team"` // 1 or 2
	MatchType       string    `gorm:"size:10;not null;index" json:"match_type"`
	PlayedAt        time.Time `gorm:"not null;index" json:"played_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Match) TableName() string {
	return "matches"
}

// Team1PlayerIDs and Team2PlayerIDs return each side's pair.
func (m *Match) Team1PlayerIDs() (string, string) {
	return m.Team1Player1ID, m.Team1Player2ID
}

func (m *Match) Team2PlayerIDs() (string, string) {
	return m.Team2Player1ID, m.Team2Player2ID
}

// PlayerIDs lists all four player ids, team 1 first.
func (m *Match) PlayerIDs() []string {
	return []string{m.Team1Player1ID, m.Team1Player2ID, m.Team2Player1ID, m.Team2Player2ID}
}

// Margin is the absolute point differential.
func (m *Match) Margin() int {
	margin := m.Team1Score - m.Team2Score
	if margin < 0 {
		margin = -margin
	}
	return margin
}

type CreateMatchRequest struct {
	Team1Player1ID string     `json:"team1_player1_id" binding:"required"`
	Team1Player2ID string     `json:"team1_player2_id" binding:"required"`
	Team2Player1ID string     `json:"team2_player1_id" binding:"required"`
	Team2Player2ID string     `json:"team2_player2_id" binding:"required"`
	Team1Score     int        `json:"team1_score" binding:"min=0"`
	Team2Score     int        `json:"team2_score" binding:"min=0"`
	MatchType      string     `json:"match_type" binding:"required,oneof=mens womens"`
	PlayedAt       *time.Time `json:"played_at,omitempty"`
}

type PaginatedMatchResponse struct {
	Data       []Match `json:"data"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	TotalPages int     `json:"totalPages"`
}
