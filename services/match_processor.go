package services

import (
	"time"

	"sandscore-api/glicko"
	"sandscore-api/models"

	"gorm.io/gorm"
)

// ProcessorMode controls how a missing player profile is handled.
type ProcessorMode int

const (
	// ModeLenient creates default-rated profiles on the fly so new
	// players can be rated from their first match.
	ModeLenient ProcessorMode = iota
	// ModeStrict requires every referenced player to exist already.
	ModeStrict
)

// ProcessOptions tunes a single match application.
type ProcessOptions struct {
	// Now anchors time weighting; zero means time.Now().
	Now time.Time
	// TimeWeighted dampens the outcome of old matches during history
	// replay. Live submissions leave it off.
	TimeWeighted  bool
	HalfLifeDays  int
	MinTimeWeight float64
	// Provisional applies only the rating and RD moves: no history rows,
	// no matches_played increment, no last_played_at update. Convergence
	// iterations before the final one run provisionally so each
	// (entity, match) pair keeps exactly one history row and the
	// counters reflect the real match count.
	Provisional bool
}

// LiveProcessOptions are the settings for a live match submission.
func LiveProcessOptions() ProcessOptions {
	return ProcessOptions{Now: time.Now()}
}

// MatchProcessor applies one 2v2 result to the four players' ratings and
// the two partnership ratings, atomically.
type MatchProcessor struct {
	db    *gorm.DB
	store *RatingStore
	mode  ProcessorMode
}

func NewMatchProcessor(db *gorm.DB, store *RatingStore, mode ProcessorMode) *MatchProcessor {
	return &MatchProcessor{db: db, store: store, mode: mode}
}

// ValidateMatch rejects matches that can never be rated.
func ValidateMatch(match *models.Match) error {
	if !models.RatedMatchType(match.MatchType) {
		return &models.InvalidMatchError{Reason: "match type must be mens or womens"}
	}
	if match.Team1Score == match.Team2Score {
		return &models.InvalidMatchError{Reason: "tied scores cannot be rated"}
	}
	if match.WinningTeam != 1 && match.WinningTeam != 2 {
		return &models.InvalidMatchError{Reason: "winning team must be 1 or 2"}
	}

	seen := map[string]bool{}
	for _, id := range match.PlayerIDs() {
		if id == "" {
			return &models.InvalidMatchError{Reason: "missing player id"}
		}
		if seen[id] {
			return &models.InvalidMatchError{Reason: "players must be distinct across both teams"}
		}
		seen[id] = true
	}
	return nil
}

// Process validates the match and applies it inside its own transaction:
// all four player updates, both team updates and every history row commit
// together or not at all.
func (p *MatchProcessor) Process(match *models.Match, opts ProcessOptions) (*models.SubmitMatchResult, error) {
	if err := ValidateMatch(match); err != nil {
		return nil, err
	}

	var result *models.SubmitMatchResult
	err := p.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = p.ProcessInTx(tx, match, opts)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ProcessInTx applies the match inside a caller-supplied transaction.
// The caller is responsible for prior validation when bypassing Process.
func (p *MatchProcessor) ProcessInTx(tx *gorm.DB, match *models.Match, opts ProcessOptions) (*models.SubmitMatchResult, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	lenient := p.mode == ModeLenient
	players := make([]*models.Player, 0, 4)
	for _, id := range match.PlayerIDs() {
		player, err := p.store.GetOrCreatePlayer(tx, id, lenient)
		if err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	p1, p2, p3, p4 := players[0], players[1], players[2], players[3]

	mt := match.MatchType
	s1 := p1.RatingFor(mt)
	s2 := p2.RatingFor(mt)
	s3 := p3.RatingFor(mt)
	s4 := p4.RatingFor(mt)

	// Read all four ratings before writing any: the team averages below
	// must come from one consistent snapshot.
	team1Avg, team1RD := glicko.TeamAverage(s1.Rating, s1.RatingDeviation, s2.Rating, s2.RatingDeviation)
	team2Avg, team2RD := glicko.TeamAverage(s3.Rating, s3.RatingDeviation, s4.Rating, s4.RatingDeviation)

	margin := glicko.MarginMultiplier(match.Margin())

	team1Score, team2Score := 1.0, 0.0
	if match.WinningTeam == 2 {
		team1Score, team2Score = 0.0, 1.0
	}
	if opts.TimeWeighted {
		weight := glicko.TimeWeight(match.PlayedAt, now, opts.HalfLifeDays, opts.MinTimeWeight)
		team1Score = glicko.WeightedScore(team1Score, weight)
		team2Score = glicko.WeightedScore(team2Score, weight)
	}

	result := &models.SubmitMatchResult{Match: match}

	type playerUpdate struct {
		player *models.Player
		state  models.RatingState
		oppAvg float64
		oppRD  float64
		score  float64
	}
	updates := []playerUpdate{
		{p1, s1, team2Avg, team2RD, team1Score},
		{p2, s2, team2Avg, team2RD, team1Score},
		{p3, s3, team1Avg, team1RD, team2Score},
		{p4, s4, team1Avg, team1RD, team2Score},
	}

	for _, u := range updates {
		newRating, newRD, err := glicko.CalculateRating(
			u.state.Rating, u.state.RatingDeviation, u.state.Volatility,
			u.oppAvg, u.oppRD, u.score, margin,
		)
		if err != nil {
			return nil, err
		}

		before := u.state.Rating
		u.state.Rating = newRating
		u.state.RatingDeviation = newRD
		if !opts.Provisional {
			playedAt := match.PlayedAt
			u.state.MatchesPlayed++
			u.state.LastPlayedAt = &playedAt
		}
		u.player.SetRatingFor(mt, u.state)

		if err := p.store.SavePlayer(tx, u.player); err != nil {
			return nil, err
		}
		if !opts.Provisional {
			entry := &models.PlayerRatingHistory{
				PlayerID:        u.player.ID,
				MatchID:         &match.ID,
				MatchType:       mt,
				EntryType:       models.HistoryEntryMatch,
				RatingBefore:    before,
				RatingAfter:     newRating,
				RatingChange:    newRating - before,
				RatingDeviation: newRD,
				ConfidenceLevel: glicko.ConfidenceLevel(newRD),
			}
			if err := p.store.AppendPlayerHistory(tx, entry); err != nil {
				return nil, err
			}
		}

		result.UpdatedPlayers = append(result.UpdatedPlayers, models.UpdatedRating{
			PlayerID:        u.player.ID,
			RatingBefore:    before,
			RatingAfter:     newRating,
			RatingChange:    newRating - before,
			RatingDeviation: newRD,
			ConfidenceLevel: glicko.ConfidenceLevel(newRD),
		})
	}

	if err := p.updateTeamRatings(tx, match, team1Score, team2Score, margin, opts, result); err != nil {
		return nil, err
	}

	return result, nil
}

// updateTeamRatings applies the same outcome to the two partnership rows.
// Team ratings track how the pair performs together and are not derived
// from the individual ratings, so each side is rated against the opposing
// pair's own team rating.
func (p *MatchProcessor) updateTeamRatings(tx *gorm.DB, match *models.Match, team1Score, team2Score, margin float64, opts ProcessOptions, result *models.SubmitMatchResult) error {
	team1, err := p.store.GetOrCreateTeamRating(tx, match.Team1Player1ID, match.Team1Player2ID, match.MatchType)
	if err != nil {
		return err
	}
	team2, err := p.store.GetOrCreateTeamRating(tx, match.Team2Player1ID, match.Team2Player2ID, match.MatchType)
	if err != nil {
		return err
	}

	// Snapshot both sides before either update.
	t1Rating, t1RD := team1.Rating, team1.RatingDeviation
	t2Rating, t2RD := team2.Rating, team2.RatingDeviation

	type teamUpdate struct {
		team   *models.TeamRating
		oppR   float64
		oppRD  float64
		score  float64
		before float64
	}
	updates := []teamUpdate{
		{team1, t2Rating, t2RD, team1Score, t1Rating},
		{team2, t1Rating, t1RD, team2Score, t2Rating},
	}

	for _, u := range updates {
		newRating, newRD, err := glicko.CalculateRating(
			u.team.Rating, u.team.RatingDeviation, u.team.Volatility,
			u.oppR, u.oppRD, u.score, margin,
		)
		if err != nil {
			return err
		}

		u.team.Rating = newRating
		u.team.RatingDeviation = newRD
		if !opts.Provisional {
			playedAt := match.PlayedAt
			u.team.MatchesPlayed++
			u.team.LastPlayedAt = &playedAt
		}

		if err := p.store.SaveTeamRating(tx, u.team); err != nil {
			return err
		}
		if !opts.Provisional {
			entry := &models.TeamRatingHistory{
				TeamKey:         u.team.TeamKey,
				MatchID:         &match.ID,
				MatchType:       match.MatchType,
				EntryType:       models.HistoryEntryMatch,
				RatingBefore:    u.before,
				RatingAfter:     newRating,
				RatingChange:    newRating - u.before,
				RatingDeviation: newRD,
				ConfidenceLevel: glicko.ConfidenceLevel(newRD),
			}
			if err := p.store.AppendTeamHistory(tx, entry); err != nil {
				return err
			}
		}

		result.UpdatedTeamRatings = append(result.UpdatedTeamRatings, models.UpdatedRating{
			TeamKey:         u.team.TeamKey,
			RatingBefore:    u.before,
			RatingAfter:     newRating,
			RatingChange:    newRating - u.before,
			RatingDeviation: newRD,
			ConfidenceLevel: glicko.ConfidenceLevel(newRD),
		})
	}
	return nil
}
