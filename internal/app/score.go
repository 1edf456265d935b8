package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/repledger/internal/domain"
)

// DefaultDecayLambda halves an evaluation's weight roughly every 182 days (ln 2 / 0.0038).
const DefaultDecayLambda = 0.0038

const secondsPerDay = 86400

// DecayPolicy controls how evaluation age and display precision shape a score.
type DecayPolicy struct {
	Lambda float64
	Scale  float64
}

func DefaultDecayPolicy() DecayPolicy {
	return DecayPolicy{Lambda: DefaultDecayLambda, Scale: 10}
}

// Weight returns exp(-lambda * ageDays). Evaluations from the future weigh 1.
func (p DecayPolicy) Weight(createdAt, now time.Time) float64 {
	ageDays := now.Sub(createdAt).Seconds() / secondsPerDay
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Exp(-p.Lambda * ageDays)
}

// ComputeScore folds a target's evaluation history into a decayed score at now.
func ComputeScore(stamps []domain.EvaluationStamp, now time.Time, p DecayPolicy) domain.Score {
	var s domain.Score
	for _, st := range stamps {
		w := p.Weight(st.CreatedAt, now)
		switch st.Type {
		case domain.VoteRecommend:
			s.WeightedRecommend += w
			s.RecommendCount++
		case domain.VoteWarn:
			s.WeightedWarn += w
			s.WarnCount++
		}
	}
	s.Score = int(math.Ceil((s.WeightedRecommend - s.WeightedWarn) * p.Scale))
	return s
}

type evaluationHistory interface {
	StampsForTarget(ctx context.Context, targetID int64) ([]domain.EvaluationStamp, error)
}

type favoriteCounter interface {
	CountOwnersOf(ctx context.Context, targetID int64) (int, error)
}

// ScoreCalculator computes reputation on demand from the full ledger history.
type ScoreCalculator struct {
	history   evaluationHistory
	favorites favoriteCounter
	policy    DecayPolicy
	clock     clockwork.Clock
}

func NewScoreCalculator(history evaluationHistory, favorites favoriteCounter, policy DecayPolicy, clock clockwork.Clock) *ScoreCalculator {
	return &ScoreCalculator{
		history:   history,
		favorites: favorites,
		policy:    policy,
		clock:     clock,
	}
}

// Score returns the target's decayed score, raw counts and favorite count.
// A target without evaluations scores zero.
func (c *ScoreCalculator) Score(ctx context.Context, targetID int64) (domain.Score, error) {
	stamps, err := c.history.StampsForTarget(ctx, targetID)
	if err != nil {
		return domain.Score{}, fmt.Errorf("failed to load evaluation history: %w", err)
	}

	favorites, err := c.favorites.CountOwnersOf(ctx, targetID)
	if err != nil {
		return domain.Score{}, fmt.Errorf("failed to count favorites: %w", err)
	}

	score := ComputeScore(stamps, c.clock.Now(), c.policy)
	score.TargetID = targetID
	score.FavoriteCount = favorites
	return score, nil
}
