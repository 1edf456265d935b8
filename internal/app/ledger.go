package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/repledger/internal/domain"
	"github.com/pscheid92/repledger/internal/metrics"
)

type cacheInvalidator interface {
	InvalidateAll()
}

// Ledger is the inbound facade used by the chat glue: it records evaluations,
// answers profile queries, performs bulk erasure and manages favorites.
type Ledger struct {
	users       domain.UserRepository
	evaluations domain.EvaluationRepository
	favorites   domain.FavoriteRepository
	cache       cacheInvalidator
	peers       domain.InvalidationPublisher
	clock       clockwork.Clock
	metrics     *metrics.LedgerMetrics
}

// NewLedger creates the ledger service. peers may be nil for single-instance deployments.
func NewLedger(users domain.UserRepository, evaluations domain.EvaluationRepository, favorites domain.FavoriteRepository, cache cacheInvalidator, peers domain.InvalidationPublisher, clock clockwork.Clock, m *metrics.LedgerMetrics) *Ledger {
	return &Ledger{
		users:       users,
		evaluations: evaluations,
		favorites:   favorites,
		cache:       cache,
		peers:       peers,
		clock:       clock,
		metrics:     m,
	}
}

// RecordEvaluation appends an evaluation and clears the leaderboard caches.
func (l *Ledger) RecordEvaluation(ctx context.Context, evaluatorID, targetID, tagID int64) (*domain.Evaluation, error) {
	if evaluatorID == targetID {
		l.metrics.Recorded(domain.ErrSelfEvaluation)
		return nil, domain.ErrSelfEvaluation
	}

	evaluation, err := l.evaluations.Insert(ctx, evaluatorID, targetID, tagID, l.clock.Now())
	l.metrics.Recorded(err)
	if err != nil {
		return nil, fmt.Errorf("failed to record evaluation: %w", err)
	}

	l.invalidate(ctx)

	slog.DebugContext(ctx, "Evaluation recorded",
		"evaluation_id", evaluation.ID,
		"evaluator_id", evaluatorID,
		"target_id", targetID,
		"tag_id", tagID,
		"type", evaluation.Type)
	return evaluation, nil
}

// CountsForTarget returns undecayed recommend/warn counts for a profile card.
func (l *Ledger) CountsForTarget(ctx context.Context, targetID int64) (*domain.TargetCounts, error) {
	counts, err := l.evaluations.CountsForTarget(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to count evaluations: %w", err)
	}
	return counts, nil
}

// DeleteEvaluationsBy erases every evaluation the user gave. Idempotent.
func (l *Ledger) DeleteEvaluationsBy(ctx context.Context, evaluatorID int64) (int64, error) {
	n, err := l.evaluations.DeleteByEvaluator(ctx, evaluatorID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete evaluations by evaluator: %w", err)
	}
	l.invalidate(ctx)
	slog.InfoContext(ctx, "Erased evaluations given by user", "user_id", evaluatorID, "deleted", n)
	return n, nil
}

// DeleteEvaluationsFor erases every evaluation the user received. Idempotent.
func (l *Ledger) DeleteEvaluationsFor(ctx context.Context, targetID int64) (int64, error) {
	n, err := l.evaluations.DeleteByTarget(ctx, targetID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete evaluations for target: %w", err)
	}
	l.invalidate(ctx)
	slog.InfoContext(ctx, "Erased evaluations received by user", "user_id", targetID, "deleted", n)
	return n, nil
}

// RegisterUser creates the user or updates their handle.
func (l *Ledger) RegisterUser(ctx context.Context, userID int64, handle string) (*domain.User, error) {
	user, err := l.users.Upsert(ctx, userID, handle)
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// GetUser returns ErrNotFound for users the system has never seen.
func (l *Ledger) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return l.users.GetByID(ctx, userID)
}

// AddFavorite puts target on owner's watch list. Adding twice is a no-op.
func (l *Ledger) AddFavorite(ctx context.Context, ownerID, targetID int64) error {
	if ownerID == targetID {
		return domain.ErrSelfFavorite
	}
	if err := l.favorites.Add(ctx, ownerID, targetID, l.clock.Now()); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite removes target from owner's watch list. Removing a missing edge is a no-op.
func (l *Ledger) RemoveFavorite(ctx context.Context, ownerID, targetID int64) error {
	if err := l.favorites.Remove(ctx, ownerID, targetID); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// ListFavorites returns one page of owner's watch list ordered by target handle.
// Pages are clamped like leaderboard pages; an unknown owner yields an empty page.
func (l *Ledger) ListFavorites(ctx context.Context, ownerID int64, page, pageSize int) (*domain.FavoritePage, error) {
	if !domain.ValidPage(page, pageSize) {
		return nil, domain.ErrInvalidPage
	}

	total, err := l.favorites.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count favorites: %w", err)
	}

	totalPages, page := clampPage(total, page, pageSize)
	result := &domain.FavoritePage{
		OwnerID:    ownerID,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Edges:      []domain.FavoriteEdge{},
	}
	if total == 0 {
		return result, nil
	}

	edges, err := l.favorites.ListByOwner(ctx, ownerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	result.Edges = edges
	return result, nil
}

func (l *Ledger) invalidate(ctx context.Context) {
	l.cache.InvalidateAll()

	if l.peers == nil {
		return
	}
	if err := l.peers.PublishInvalidation(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to broadcast leaderboard invalidation", "error", err)
	}
}

// clampPage returns the page count for total items and the requested page
// clamped into [1, totalPages].
func clampPage(total, page, pageSize int) (totalPages, clamped int) {
	totalPages = total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}
	clamped = min(page, totalPages)
	return totalPages, max(clamped, 1)
}

// SetHidden hides the user from (or restores them to) every leaderboard.
func (l *Ledger) SetHidden(ctx context.Context, userID int64, hidden bool) error {
	if err := l.users.SetHidden(ctx, userID, hidden); err != nil {
		return fmt.Errorf("failed to update user visibility: %w", err)
	}
	l.invalidate(ctx)
	return nil
}
