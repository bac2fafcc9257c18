package glicko

import (
	"fmt"
	"math"
	"time"
)

// Glicko-2 system constants and the rating bounds enforced on output.
const (
	Scale = 173.7178 // conversion factor between display scale and mu/phi

	DefaultRating     = 1500.0
	DefaultRD         = 350.0
	DefaultVolatility = 0.06

	MinRating = 100.0
	MaxRating = 3000.0
	MinRD     = 30.0
	MaxRD     = 350.0

	// epsilon guards E*(1-E) against near-certain outcomes blowing up
	// the variance term.
	epsilon = 1e-6

	// RD grows by this fraction per month of inactivity.
	decayRatePerMonth = 0.10
)

// ToGlicko2 converts display-scale rating and RD to the internal mu/phi scale.
func ToGlicko2(rating, rd float64) (mu, phi float64) {
	return (rating - DefaultRating) / Scale, rd / Scale
}

// FromGlicko2 converts mu/phi back to the display scale, clamping to the
// allowed ranges and rounding to whole numbers (ratings are stored as
// integers in this system).
func FromGlicko2(mu, phi float64) (rating, rd float64) {
	rating = mu*Scale + DefaultRating
	rd = phi * Scale

	rating = math.Round(math.Max(MinRating, math.Min(MaxRating, rating)))
	rd = math.Round(math.Max(MinRD, math.Min(MaxRD, rd)))

	return rating, rd
}

// G is the Glicko-2 g(phi) weighting function. It de-weights results
// against uncertain opponents: g approaches 1 as phi approaches 0 and
// decreases toward 0 as phi grows.
func G(phi float64) float64 {
	return 1.0 / math.Sqrt(1.0+3.0*phi*phi/(math.Pi*math.Pi))
}

// ExpectedScore is E(s|mu, mu_j, phi_j), the win probability of a player
// at mu against an opponent at mu_j with deviation phi_j.
func ExpectedScore(mu, muOpp, phiOpp float64) float64 {
	return 1.0 / (1.0 + math.Exp(-G(phiOpp)*(mu-muOpp)))
}

// Variance is the estimated variance of the rating based on a single
// opponent's g and expected score. E is clamped away from 0 and 1 so a
// near-certain outcome cannot divide by zero.
func Variance(g, e float64) float64 {
	e = math.Max(epsilon, math.Min(1.0-epsilon, e))
	return 1.0 / (g * g * e * (1.0 - e))
}

// Delta is the estimated rating improvement from a single result.
func Delta(v, g, score, e float64) float64 {
	return v * g * (score - e)
}

// CalculateRating applies the simplified single-opponent Glicko-2 update:
// volatility is held fixed (the full sigma iteration is intentionally not
// performed) and the opponent is a single entity, which for team play is
// the opposing pair collapsed into one virtual opponent.
//
// score is 1 for a win and 0 for a loss; time-weighted replays may pass
// intermediate values in [0,1]. marginMultiplier scales the effective
// score surprise before it folds into the rating move; pass 1.0 for no
// margin amplification.
//
// Invalid numeric input is a data-integrity bug upstream, not a runtime
// condition, so it is reported as an error rather than clamped.
func CalculateRating(rating, rd, volatility, oppRating, oppRD, score, marginMultiplier float64) (newRating, newRD float64, err error) {
	if !isFinite(rating) || !isFinite(oppRating) {
		return 0, 0, fmt.Errorf("glicko: non-finite rating input (%v vs %v)", rating, oppRating)
	}
	if rd <= 0 || oppRD <= 0 {
		return 0, 0, fmt.Errorf("glicko: rating deviation must be positive (got %v and %v)", rd, oppRD)
	}
	if score < 0 || score > 1 || !isFinite(score) {
		return 0, 0, fmt.Errorf("glicko: score %v outside [0,1]", score)
	}
	if marginMultiplier < 1 || !isFinite(marginMultiplier) {
		return 0, 0, fmt.Errorf("glicko: margin multiplier %v below 1", marginMultiplier)
	}

	mu, phi := ToGlicko2(rating, rd)
	muOpp, phiOpp := ToGlicko2(oppRating, oppRD)

	g := G(phiOpp)
	e := ExpectedScore(mu, muOpp, phiOpp)
	v := Variance(g, e)

	// Pre-inflate phi for the passage of uncertainty, then shrink it with
	// the information from this result.
	phiStar := math.Sqrt(phi*phi + volatility*volatility)
	phiNew := 1.0 / math.Sqrt(1.0/(phiStar*phiStar)+1.0/v)

	muNew := mu + phiNew*phiNew*g*(score-e)*marginMultiplier

	newRating, newRD = FromGlicko2(muNew, phiNew)
	return newRating, newRD, nil
}

// MarginMultiplier amplifies rating change for lopsided scores. It is 1.0
// for a minimal-margin win, increases smoothly with the point
// differential, and approaches (never reaches) 1.5 so blowouts cannot
// dominate the rating.
func MarginMultiplier(margin int) float64 {
	if margin < 0 {
		margin = -margin
	}
	return 1.0 + 0.5*math.Tanh(float64(margin)/10.0)
}

// DecayRD inflates a rating deviation for inactivity: +10% per 30-day
// month elapsed between lastPlayed and now, capped at the maximum RD.
// Zero (or negative) elapsed time leaves the RD unchanged.
func DecayRD(rd float64, lastPlayed, now time.Time) float64 {
	elapsed := now.Sub(lastPlayed)
	if elapsed <= 0 {
		return rd
	}
	months := elapsed.Hours() / (24 * 30)
	return math.Min(MaxRD, rd*(1.0+decayRatePerMonth*months))
}

// TimeWeight returns the replay weight of a match played at playedAt when
// recalculating at now: exponential decay with the given half-life, so a
// match halfLifeDays old contributes at 50%. The weight is floored at
// minWeight so old history is dampened, never erased.
func TimeWeight(playedAt, now time.Time, halfLifeDays int, minWeight float64) float64 {
	if halfLifeDays <= 0 {
		return 1.0
	}
	days := now.Sub(playedAt).Hours() / 24
	if days <= 0 {
		return 1.0
	}
	weight := math.Pow(0.5, days/float64(halfLifeDays))
	return math.Max(weight, minWeight)
}

// WeightedScore folds a time weight into a raw 0/1 outcome by pulling it
// toward the uninformative 0.5, so older matches move ratings less.
func WeightedScore(score, weight float64) float64 {
	return 0.5 + (score-0.5)*weight
}

// TeamAverage collapses a pair of players into a single virtual opponent:
// the plain average of the two ratings, and the root-mean-square of the
// two deviations so either player's uncertainty raises the pair's.
func TeamAverage(rating1, rd1, rating2, rd2 float64) (rating, rd float64) {
	rating = (rating1 + rating2) / 2.0
	rd = math.Sqrt((rd1*rd1 + rd2*rd2) / 2.0)
	return rating, rd
}

// ConfidenceLevel derives the user-facing reliability percentage from an
// RD: 100 at the minimum conceivable uncertainty, 0 at the maximum.
func ConfidenceLevel(rd float64) float64 {
	return 100.0 * (1.0 - rd/MaxRD)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
