package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"sandscore-api/models"

	"gorm.io/gorm"
)

// RecalcState is where a recalculation run currently stands.
type RecalcState string

const (
	StateIdle       RecalcState = "idle"
	StateResetting  RecalcState = "resetting"
	StateProcessing RecalcState = "processing"
	StateVerifying  RecalcState = "verifying"
	StateDone       RecalcState = "done"
	StateFailed     RecalcState = "failed"
)

// Recalculation defaults, carried over from the operational scripts this
// service consolidates.
const (
	DefaultBatchSize      = 50
	DefaultBatchDelay     = 100 * time.Millisecond
	DefaultIterations     = 1
	DefaultMaxRetries     = 3
	DefaultRetryBaseDelay = time.Second
	DefaultHalfLifeDays   = 180
	DefaultMinTimeWeight  = 0.1
)

// RecalcOptions configures a recalculation run.
type RecalcOptions struct {
	// Start/End bound the replayed window; nil means the full history.
	Start *time.Time
	End   *time.Time
	// MatchType restricts the run to one partition; "" runs both.
	MatchType string
	// Iterations replays the whole window this many times; passes after
	// the first are seeded by the previous pass so the rating graph
	// converges.
	Iterations int
	BatchSize  int
	BatchDelay time.Duration
	// Transient storage errors are retried this many times with
	// exponential backoff before counting as a per-match failure.
	MaxRetries     int
	RetryBaseDelay time.Duration
	// Time weighting of old matches relative to Now.
	TimeWeighted  bool
	HalfLifeDays  int
	MinTimeWeight float64
	// Now anchors time weighting and the decay pass; zero means
	// time.Now().
	Now time.Time
}

func (o *RecalcOptions) applyDefaults() {
	if o.Iterations <= 0 {
		o.Iterations = DefaultIterations
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.BatchDelay < 0 {
		o.BatchDelay = DefaultBatchDelay
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.RetryBaseDelay <= 0 {
		o.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if o.HalfLifeDays <= 0 {
		o.HalfLifeDays = DefaultHalfLifeDays
	}
	if o.MinTimeWeight <= 0 {
		o.MinTimeWeight = DefaultMinTimeWeight
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
}

// RecalcError records one match that could not be processed.
type RecalcError struct {
	MatchID uint   `json:"match_id"`
	Error   string `json:"error"`
}

// RecalcReport summarizes a finished (or failed) run.
type RecalcReport struct {
	State            RecalcState   `json:"state"`
	TotalMatches     int           `json:"total_matches"`
	ProcessedMatches int           `json:"processed_matches"`
	UpdatedPlayers   int64         `json:"updated_players"`
	UpdatedTeams     int64         `json:"updated_teams"`
	DecayedEntities  int           `json:"decayed_entities"`
	Errors           []RecalcError `json:"errors"`
	Duration         time.Duration `json:"duration"`
}

// RecalcService rebuilds rating state by replaying the match history in
// chronological order from a clean default slate. Running it twice over
// the same history yields identical ratings, because every run starts
// from the same reset.
type RecalcService struct {
	db        *gorm.DB
	store     *RatingStore
	processor *MatchProcessor
	guard     *RecalcGuard

	sleep func(time.Duration) // replaceable pacing for tests
}

func NewRecalcService(db *gorm.DB, store *RatingStore, processor *MatchProcessor, guard *RecalcGuard) *RecalcService {
	return &RecalcService{
		db:        db,
		store:     store,
		processor: processor,
		guard:     guard,
		sleep:     time.Sleep,
	}
}

// Recalculate runs the full state machine:
// Resetting -> Processing -> Verifying -> Done.
// A single bad match never aborts the run; it is logged, counted and
// skipped. Cancellation is honored between batches, never mid-match, so
// an aborted run leaves a consistent prefix behind.
func (s *RecalcService) Recalculate(ctx context.Context, opts RecalcOptions) (*RecalcReport, error) {
	opts.applyDefaults()
	started := time.Now()

	scopes := scopeMatchTypes(opts.MatchType)
	if err := s.guard.TryLock(scopes...); err != nil {
		return nil, err
	}
	defer s.guard.Unlock(scopes...)

	report := &RecalcReport{State: StateResetting}

	log.Printf("Recalculation starting (scopes=%v iterations=%d batch=%d)", scopes, opts.Iterations, opts.BatchSize)

	for _, scope := range scopes {
		if err := s.store.ResetRatings(scope); err != nil {
			report.State = StateFailed
			return report, fmt.Errorf("reset failed for %s: %w", scope, err)
		}
	}

	matches, err := s.loadMatches(scopes, opts)
	if err != nil {
		report.State = StateFailed
		return report, err
	}
	report.TotalMatches = len(matches)
	log.Printf("Found %d matches to process", len(matches))

	report.State = StateProcessing
	if err := s.processAll(ctx, matches, opts, report); err != nil {
		report.State = StateFailed
		return report, err
	}

	report.State = StateVerifying
	for _, scope := range scopes {
		decayed, err := s.store.DecayInactive(scope, opts.Now)
		if err != nil {
			report.State = StateFailed
			return report, fmt.Errorf("decay pass failed for %s: %w", scope, err)
		}
		report.DecayedEntities += decayed
	}

	if err := s.fillCounts(scopes, report); err != nil {
		report.State = StateFailed
		return report, err
	}

	report.State = StateDone
	report.Duration = time.Since(started)
	log.Printf("Recalculation complete: %d/%d matches processed, %d errors, %d entities decayed (%s)",
		report.ProcessedMatches, report.TotalMatches, len(report.Errors), report.DecayedEntities, report.Duration)
	return report, nil
}

// Reset puts the in-scope ratings back to defaults without replaying
// anything.
func (s *RecalcService) Reset(matchType string) error {
	scopes := scopeMatchTypes(matchType)
	if err := s.guard.TryLock(scopes...); err != nil {
		return err
	}
	defer s.guard.Unlock(scopes...)

	for _, scope := range scopes {
		if err := s.store.ResetRatings(scope); err != nil {
			return err
		}
	}
	return nil
}

func (s *RecalcService) loadMatches(scopes []string, opts RecalcOptions) ([]models.Match, error) {
	var matches []models.Match

	// The id tiebreak keeps replay order deterministic when timestamps
	// collide.
	query := s.db.Where("match_type IN ?", scopes).
		Order("played_at ASC, id ASC")
	if opts.Start != nil {
		query = query.Where("played_at >= ?", *opts.Start)
	}
	if opts.End != nil {
		query = query.Where("played_at <= ?", *opts.End)
	}

	if err := query.Find(&matches).Error; err != nil {
		return nil, wrapStorageError(err)
	}
	return matches, nil
}

func (s *RecalcService) processAll(ctx context.Context, matches []models.Match, opts RecalcOptions, report *RecalcReport) error {
	totalBatches := (len(matches) + opts.BatchSize - 1) / opts.BatchSize

	for iteration := 1; iteration <= opts.Iterations; iteration++ {
		// Passes before the last run provisionally: only ratings move,
		// so history stays at one row per (entity, match) pair and
		// matches_played counts each match once.
		finalPass := iteration == opts.Iterations
		if finalPass {
			report.ProcessedMatches = 0
			report.Errors = nil
		}

		procOpts := ProcessOptions{
			Now:           opts.Now,
			TimeWeighted:  opts.TimeWeighted,
			HalfLifeDays:  opts.HalfLifeDays,
			MinTimeWeight: opts.MinTimeWeight,
			Provisional:   !finalPass,
		}

		for batch := 0; batch < totalBatches; batch++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			start := batch * opts.BatchSize
			end := start + opts.BatchSize
			if end > len(matches) {
				end = len(matches)
			}

			for i := start; i < end; i++ {
				match := matches[i]
				if err := s.processWithRetry(&match, procOpts, opts); err != nil {
					log.Printf("Match %d failed during recalculation: %v", match.ID, err)
					report.Errors = append(report.Errors, RecalcError{MatchID: match.ID, Error: err.Error()})
					continue
				}
				report.ProcessedMatches++
			}

			log.Printf("Iteration %d/%d: batch %d/%d complete", iteration, opts.Iterations, batch+1, totalBatches)

			// Pacing between batches keeps the store responsive for
			// readers; it is cooperative throttling, not correctness.
			if batch < totalBatches-1 && opts.BatchDelay > 0 {
				s.sleep(opts.BatchDelay)
			}
		}
	}
	return nil
}

func (s *RecalcService) processWithRetry(match *models.Match, procOpts ProcessOptions, opts RecalcOptions) error {
	var err error
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		_, err = s.processor.Process(match, procOpts)
		if err == nil {
			return nil
		}
		if !models.IsTransient(err) {
			return err
		}
		if attempt < opts.MaxRetries {
			backoff := opts.RetryBaseDelay * time.Duration(1<<(attempt-1))
			log.Printf("Transient error on match %d (attempt %d/%d), retrying in %s: %v",
				match.ID, attempt, opts.MaxRetries, backoff, err)
			s.sleep(backoff)
		}
	}
	return err
}

func (s *RecalcService) fillCounts(scopes []string, report *RecalcReport) error {
	for _, scope := range scopes {
		column := "mens_matches_played"
		if scope == models.MatchTypeWomens {
			column = "womens_matches_played"
		}

		var players int64
		if err := s.db.Model(&models.Player{}).Where(column+" > 0").Count(&players).Error; err != nil {
			return wrapStorageError(err)
		}
		report.UpdatedPlayers += players

		var teams int64
		if err := s.db.Model(&models.TeamRating{}).Where("match_type = ?", scope).Count(&teams).Error; err != nil {
			return wrapStorageError(err)
		}
		report.UpdatedTeams += teams
	}
	return nil
}
