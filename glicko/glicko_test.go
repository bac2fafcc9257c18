package glicko

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleConversionRoundTrip(t *testing.T) {
	mu, phi := ToGlicko2(1500, 350)
	assert.InDelta(t, 0.0, mu, 1e-9)
	assert.InDelta(t, 350.0/Scale, phi, 1e-9)

	rating, rd := FromGlicko2(mu, phi)
	assert.Equal(t, 1500.0, rating)
	assert.Equal(t, 350.0, rd)
}

func TestFromGlicko2Clamps(t *testing.T) {
	// Above the ceiling.
	rating, rd := FromGlicko2((3500.0-DefaultRating)/Scale, 400.0/Scale)
	assert.Equal(t, MaxRating, rating)
	assert.Equal(t, MaxRD, rd)

	// Below the floor.
	rating, rd = FromGlicko2((50.0-DefaultRating)/Scale, 10.0/Scale)
	assert.Equal(t, MinRating, rating)
	assert.Equal(t, MinRD, rd)
}

func TestG(t *testing.T) {
	_, phiMax := ToGlicko2(1500, 350)
	_, phiLow := ToGlicko2(1500, 50)

	assert.InDelta(t, 0.669, G(phiMax), 0.001)
	assert.InDelta(t, 0.988, G(phiLow), 0.001)

	// g shrinks as uncertainty grows and tends to 1 as it vanishes.
	assert.Greater(t, G(phiLow), G(phiMax))
	assert.InDelta(t, 1.0, G(0), 1e-9)
	for phi := 0.0; phi < 3.0; phi += 0.1 {
		g := G(phi)
		assert.Greater(t, g, 0.0)
		assert.LessOrEqual(t, g, 1.0)
	}
}

func TestExpectedScore(t *testing.T) {
	// Equal players are a coin flip.
	assert.InDelta(t, 0.5, ExpectedScore(0, 0, 350.0/Scale), 1e-9)

	// The stronger side is favored, and a noisier opponent pulls the
	// estimate back toward 0.5.
	stronger := ExpectedScore(1.0, 0, 50.0/Scale)
	assert.Greater(t, stronger, 0.5)
	weaker := ExpectedScore(-1.0, 0, 50.0/Scale)
	assert.Less(t, weaker, 0.5)
	assert.InDelta(t, 1.0, stronger+weaker, 1e-9)

	noisy := ExpectedScore(1.0, 0, 350.0/Scale)
	assert.Less(t, noisy, stronger)
}

func TestVarianceClampsCertainOutcomes(t *testing.T) {
	// An expected score of exactly 0 or 1 must not divide by zero.
	assert.False(t, math.IsInf(Variance(1.0, 0.0), 0))
	assert.False(t, math.IsInf(Variance(1.0, 1.0), 0))
	assert.Greater(t, Variance(1.0, 0.0), Variance(1.0, 0.5))
}

func TestCalculateRatingWinAndLoss(t *testing.T) {
	winRating, winRD, err := CalculateRating(1500, 350, DefaultVolatility, 1500, 350, 1, 1.0)
	require.NoError(t, err)
	lossRating, lossRD, err := CalculateRating(1500, 350, DefaultVolatility, 1500, 350, 0, 1.0)
	require.NoError(t, err)

	assert.Greater(t, winRating, 1500.0)
	assert.Less(t, lossRating, 1500.0)

	// Between equal players the winner's gain mirrors the loser's loss.
	assert.Equal(t, winRating-1500.0, 1500.0-lossRating)

	// A result always adds information, so RD shrinks on both sides.
	assert.Less(t, winRD, 350.0)
	assert.Less(t, lossRD, 350.0)
}

func TestCalculateRatingUpsetMovesMore(t *testing.T) {
	upset, _, err := CalculateRating(1400, 100, DefaultVolatility, 1700, 100, 1, 1.0)
	require.NoError(t, err)
	expected, _, err := CalculateRating(1400, 100, DefaultVolatility, 1300, 100, 1, 1.0)
	require.NoError(t, err)

	assert.Greater(t, upset-1400.0, expected-1400.0)
}

func TestCalculateRatingMarginAmplifies(t *testing.T) {
	narrow, _, err := CalculateRating(1500, 200, DefaultVolatility, 1500, 200, 1, MarginMultiplier(2))
	require.NoError(t, err)
	blowout, _, err := CalculateRating(1500, 200, DefaultVolatility, 1500, 200, 1, MarginMultiplier(15))
	require.NoError(t, err)

	assert.Greater(t, blowout, narrow)
}

func TestCalculateRatingRejectsBadInput(t *testing.T) {
	cases := []struct {
		name                                                 string
		rating, rd, vol, oppRating, oppRD, score, multiplier float64
	}{
		{"nan rating", math.NaN(), 350, 0.06, 1500, 350, 1, 1},
		{"inf opponent", 1500, 350, 0.06, math.Inf(1), 350, 1, 1},
		{"zero rd", 1500, 0, 0.06, 1500, 350, 1, 1},
		{"negative opp rd", 1500, 350, 0.06, 1500, -10, 1, 1},
		{"score above one", 1500, 350, 0.06, 1500, 350, 1.5, 1},
		{"negative score", 1500, 350, 0.06, 1500, 350, -0.1, 1},
		{"multiplier below one", 1500, 350, 0.06, 1500, 350, 1, 0.9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := CalculateRating(tc.rating, tc.rd, tc.vol, tc.oppRating, tc.oppRD, tc.score, tc.multiplier)
			assert.Error(t, err)
		})
	}
}

func TestMarginMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, MarginMultiplier(0))
	assert.InDelta(t, 1.0+0.5*math.Tanh(1.0), MarginMultiplier(10), 1e-9)

	// Monotonic in the margin, symmetric in sign, bounded below 1.5.
	assert.Less(t, MarginMultiplier(2), MarginMultiplier(10))
	assert.Less(t, MarginMultiplier(10), MarginMultiplier(16))
	assert.Less(t, MarginMultiplier(16), 1.5)
	assert.Less(t, MarginMultiplier(100), 1.5)
	assert.Equal(t, MarginMultiplier(7), MarginMultiplier(-7))
}

func TestDecayRD(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// No elapsed time, no decay. Same for a last-played in the future.
	assert.Equal(t, 100.0, DecayRD(100, now, now))
	assert.Equal(t, 100.0, DecayRD(100, now.Add(time.Hour), now))

	// One 30-day month adds 10%.
	oneMonthAgo := now.Add(-30 * 24 * time.Hour)
	assert.InDelta(t, 110.0, DecayRD(100, oneMonthAgo, now), 1e-9)

	// Long inactivity is capped at the maximum RD.
	yearsAgo := now.AddDate(-5, 0, 0)
	assert.Equal(t, MaxRD, DecayRD(300, yearsAgo, now))
}

func TestTimeWeight(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 1.0, TimeWeight(now, now, 180, 0.1))
	assert.Equal(t, 1.0, TimeWeight(now.Add(time.Hour), now, 180, 0.1))

	halfLifeAgo := now.AddDate(0, 0, -180)
	assert.InDelta(t, 0.5, TimeWeight(halfLifeAgo, now, 180, 0.1), 1e-9)

	ancient := now.AddDate(-10, 0, 0)
	assert.Equal(t, 0.1, TimeWeight(ancient, now, 180, 0.1))

	// Disabled half-life means full weight regardless of age.
	assert.Equal(t, 1.0, TimeWeight(ancient, now, 0, 0.1))
}

func TestWeightedScore(t *testing.T) {
	assert.Equal(t, 1.0, WeightedScore(1, 1))
	assert.Equal(t, 0.0, WeightedScore(0, 1))
	assert.Equal(t, 0.75, WeightedScore(1, 0.5))
	assert.Equal(t, 0.25, WeightedScore(0, 0.5))
	// Zero weight collapses everything to the uninformative midpoint.
	assert.Equal(t, 0.5, WeightedScore(1, 0))
}

func TestTeamAverage(t *testing.T) {
	rating, rd := TeamAverage(1500, 350, 1500, 350)
	assert.Equal(t, 1500.0, rating)
	assert.InDelta(t, 350.0, rd, 1e-9)

	rating, rd = TeamAverage(1400, 100, 1600, 200)
	assert.Equal(t, 1500.0, rating)
	assert.InDelta(t, math.Sqrt(25000), rd, 1e-9)

	// RMS weights the noisier partner harder than a plain average would.
	assert.Greater(t, rd, 150.0)
}

func TestConfidenceLevel(t *testing.T) {
	assert.Equal(t, 0.0, ConfidenceLevel(350))
	assert.Equal(t, 50.0, ConfidenceLevel(175))
	assert.InDelta(t, 91.43, ConfidenceLevel(30), 0.01)
}
