package models

import (
	"time"

	"gorm.io/gorm"
)

// Match types with rating state. Coed is reserved in the domain but has
// no rating columns yet.
const (
	MatchTypeMens   = "mens"
	MatchTypeWomens = "womens"
	MatchTypeCoed   = "coed"
)

// Player is a profile row with the per-match-type rating state embedded,
// one block per rated match type.
type Player struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	Username string `gorm:"size:255;not null" json:"username"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	MensRating          float64    `gorm:"default:1500" json:"mens_rating"`
	MensRatingDeviation float64    `gorm:"default:350" json:"mens_rating_deviation"`
	MensVolatility      float64    `gorm:"default:0.06" json:"mens_volatility"`
	MensMatchesPlayed   int        `gorm:"default:0" json:"mens_matches_played"`
	MensLastPlayedAt    *time.Time `json:"mens_last_played_at"`

	WomensRating          float64    `gorm:"default:1500" json:"womens_rating"`
	WomensRatingDeviation float64    `gorm:"default:350" json:"womens_rating_deviation"`
	WomensVolatility      float64    `gorm:"default:0.06" json:"womens_volatility"`
	WomensMatchesPlayed   int        `gorm:"default:0" json:"womens_matches_played"`
	WomensLastPlayedAt    *time.Time `json:"womens_last_played_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Player) TableName() string {
	return "players"
}

// RatingState is the mutable rating block for one (player, match type).
type RatingState struct {
	Rating          float64
	RatingDeviation float64
	Volatility      float64
	MatchesPlayed   int
	LastPlayedAt    *time.Time
}

// RatingFor returns the rating block for the given match type.
func (p *Player) RatingFor(matchType string) RatingState {
	if matchType == MatchTypeWomens {
		return RatingState{
			Rating:          p.WomensRating,
			RatingDeviation: p.WomensRatingDeviation,
			Volatility:      p.WomensVolatility,
			MatchesPlayed:   p.WomensMatchesPlayed,
			LastPlayedAt:    p.WomensLastPlayedAt,
		}
	}
	return RatingState{
		Rating:          p.MensRating,
		RatingDeviation: p.MensRatingDeviation,
		Volatility:      p.MensVolatility,
		MatchesPlayed:   p.MensMatchesPlayed,
		LastPlayedAt:    p.MensLastPlayedAt,
	}
}

// SetRatingFor writes a rating block back onto the profile fields for the
// given match type.
func (p *Player) SetRatingFor(matchType string, state RatingState) {
	if matchType == MatchTypeWomens {
		p.WomensRating = state.Rating
		p.WomensRatingDeviation = state.RatingDeviation
		p.WomensVolatility = state.Volatility
		p.WomensMatchesPlayed = state.MatchesPlayed
		p.WomensLastPlayedAt = state.LastPlayedAt
		return
	}
	p.MensRating = state.Rating
	p.MensRatingDeviation = state.RatingDeviation
	p.MensVolatility = state.Volatility
	p.MensMatchesPlayed = state.MatchesPlayed
	p.MensLastPlayedAt = state.LastPlayedAt
}

// RatedMatchType reports whether matchType carries rating state.
func RatedMatchType(matchType string) bool {
	return matchType == MatchTypeMens || matchType == MatchTypeWomens
}

type PaginatedPlayersResponse struct {
	Data       []Player `json:"data"`
	Total      int64    `json:"total"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	TotalPages int      `json:"totalPages"`
}
