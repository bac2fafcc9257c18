package models

import "time"

// RecalcStats is the operational snapshot the batch tooling prints before
// and after a recalculation run.
type RecalcStats struct {
	TotalMatches             int64      `json:"total_matches"`
	TotalPlayers             int64      `json:"total_players"`
	PlayersWithCustomRatings int64      `json:"players_with_custom_ratings"`
	TeamsWithRatings         int64      `json:"teams_with_ratings"`
	EarliestMatch            *time.Time `json:"earliest_match"`
	LatestMatch              *time.Time `json:"latest_match"`
	MatchesLast7Days         int64      `json:"matches_last_7_days"`
	MatchesPrevious7Days     int64      `json:"matches_previous_7_days"`
}

// CurrentRating is the query shape served to profile and standings UIs.
type CurrentRating struct {
	Rating          float64 `json:"rating"`
	RatingDeviation float64 `json:"rating_deviation"`
	ConfidenceLevel float64 `json:"confidence_level"`
	MatchesPlayed   int     `json:"matches_played"`
}

// UpdatedRating is one entity's before/after pair returned from a
// processed match.
type UpdatedRating struct {
	PlayerID        string  `json:"player_id,omitempty"`
	TeamKey         string  `json:"team_key,omitempty"`
	RatingBefore    float64 `json:"rating_before"`
	RatingAfter     float64 `json:"rating_after"`
	RatingChange    float64 `json:"rating_change"`
	RatingDeviation float64 `json:"rating_deviation"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

// SubmitMatchResult is the ingest response: the stored match plus every
// rating the processor updated.
type SubmitMatchResult struct {
	Match              *Match          `json:"match"`
	UpdatedPlayers     []UpdatedRating `json:"updated_players"`
	UpdatedTeamRatings []UpdatedRating `json:"updated_team_ratings"`
}
