package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pscheid92/repledger/internal/domain"
)

// --- Mock implementations ---

type mockUserRepo struct {
	getByIDFn   func(ctx context.Context, userID int64) (*domain.User, error)
	upsertFn    func(ctx context.Context, userID int64, handle string) (*domain.User, error)
	setHiddenFn func(ctx context.Context, userID int64, hidden bool) error
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, userID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockUserRepo) Upsert(ctx context.Context, userID int64, handle string) (*domain.User, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, userID, handle)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockUserRepo) SetHidden(ctx context.Context, userID int64, hidden bool) error {
	if m.setHiddenFn != nil {
		return m.setHiddenFn(ctx, userID, hidden)
	}
	return nil
}

type mockEvaluationRepo struct {
	insertFn            func(ctx context.Context, evaluatorID, targetID, tagID int64, createdAt time.Time) (*domain.Evaluation, error)
	countsForTargetFn   func(ctx context.Context, targetID int64) (*domain.TargetCounts, error)
	stampsForTargetFn   func(ctx context.Context, targetID int64) ([]domain.EvaluationStamp, error)
	deleteByEvaluatorFn func(ctx context.Context, evaluatorID int64) (int64, error)
	deleteByTargetFn    func(ctx context.Context, targetID int64) (int64, error)
}

func (m *mockEvaluationRepo) Insert(ctx context.Context, evaluatorID, targetID, tagID int64, createdAt time.Time) (*domain.Evaluation, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, evaluatorID, targetID, tagID, createdAt)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockEvaluationRepo) CountsForTarget(ctx context.Context, targetID int64) (*domain.TargetCounts, error) {
	if m.countsForTargetFn != nil {
		return m.countsForTargetFn(ctx, targetID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockEvaluationRepo) StampsForTarget(ctx context.Context, targetID int64) ([]domain.EvaluationStamp, error) {
	if m.stampsForTargetFn != nil {
		return m.stampsForTargetFn(ctx, targetID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockEvaluationRepo) DeleteByEvaluator(ctx context.Context, evaluatorID int64) (int64, error) {
	if m.deleteByEvaluatorFn != nil {
		return m.deleteByEvaluatorFn(ctx, evaluatorID)
	}
	return 0, fmt.Errorf("not implemented")
}

func (m *mockEvaluationRepo) DeleteByTarget(ctx context.Context, targetID int64) (int64, error) {
	if m.deleteByTargetFn != nil {
		return m.deleteByTargetFn(ctx, targetID)
	}
	return 0, fmt.Errorf("not implemented")
}

type mockFavoriteRepo struct {
	addFn           func(ctx context.Context, ownerID, targetID int64, createdAt time.Time) error
	removeFn        func(ctx context.Context, ownerID, targetID int64) error
	countByOwnerFn  func(ctx context.Context, ownerID int64) (int, error)
	listByOwnerFn   func(ctx context.Context, ownerID int64, limit, offset int) ([]domain.FavoriteEdge, error)
	countOwnersOfFn func(ctx context.Context, targetID int64) (int, error)
}

func (m *mockFavoriteRepo) Add(ctx context.Context, ownerID, targetID int64, createdAt time.Time) error {
	if m.addFn != nil {
		return m.addFn(ctx, ownerID, targetID, createdAt)
	}
	return nil
}

func (m *mockFavoriteRepo) Remove(ctx context.Context, ownerID, targetID int64) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, ownerID, targetID)
	}
	return nil
}

func (m *mockFavoriteRepo) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	if m.countByOwnerFn != nil {
		return m.countByOwnerFn(ctx, ownerID)
	}
	return 0, nil
}

func (m *mockFavoriteRepo) ListByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]domain.FavoriteEdge, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID, limit, offset)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockFavoriteRepo) CountOwnersOf(ctx context.Context, targetID int64) (int, error) {
	if m.countOwnersOfFn != nil {
		return m.countOwnersOfFn(ctx, targetID)
	}
	return 0, nil
}

type mockTagRepo struct {
	createFn    func(ctx context.Context, name string, tagType domain.TagType) (*domain.Tag, error)
	listFn      func(ctx context.Context, activeOnly bool) ([]domain.Tag, error)
	renameFn    func(ctx context.Context, tagID int64, name string) error
	setActiveFn func(ctx context.Context, tagID int64, active bool) error
}

func (m *mockTagRepo) Create(ctx context.Context, name string, tagType domain.TagType) (*domain.Tag, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name, tagType)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockTagRepo) GetByID(_ context.Context, _ int64) (*domain.Tag, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockTagRepo) List(ctx context.Context, activeOnly bool) ([]domain.Tag, error) {
	if m.listFn != nil {
		return m.listFn(ctx, activeOnly)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockTagRepo) Rename(ctx context.Context, tagID int64, name string) error {
	if m.renameFn != nil {
		return m.renameFn(ctx, tagID, name)
	}
	return nil
}

func (m *mockTagRepo) SetActive(ctx context.Context, tagID int64, active bool) error {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, tagID, active)
	}
	return nil
}

type mockSettingsRepo struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
	setErr error
}

func (m *mockSettingsRepo) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (m *mockSettingsRepo) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

// mockRanking serves a fixed, already ordered ranking and counts store round trips.
type mockRanking struct {
	mu      sync.Mutex
	rows    []domain.RankedUser
	err     error
	calls   atomic.Int32
	blockCh chan struct{}
}

func (m *mockRanking) setRows(rows []domain.RankedUser) {
	m.mu.Lock()
	m.rows = rows
	m.mu.Unlock()
}

func (m *mockRanking) CountRankedTargets(_ context.Context, _ int64, _ domain.VoteType) (int, error) {
	m.calls.Add(1)
	if m.blockCh != nil {
		<-m.blockCh
	}
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

func (m *mockRanking) RankTargets(_ context.Context, _ int64, _ domain.VoteType, limit, offset int) ([]domain.RankedUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset >= len(m.rows) {
		return []domain.RankedUser{}, nil
	}
	end := min(offset+limit, len(m.rows))
	out := make([]domain.RankedUser, end-offset)
	copy(out, m.rows[offset:end])
	return out, nil
}

type staticTTL time.Duration

func (s staticTTL) LeaderboardTTL() time.Duration { return time.Duration(s) }

type mockInvalidator struct {
	calls atomic.Int32
}

func (m *mockInvalidator) InvalidateAll() { m.calls.Add(1) }

type mockPublisher struct {
	calls atomic.Int32
	err   error
}

func (m *mockPublisher) PublishInvalidation(_ context.Context) error {
	m.calls.Add(1)
	return m.err
}

func (m *mockPublisher) PublishSettingsChanged(_ context.Context) error {
	m.calls.Add(1)
	return m.err
}

type mockScanner struct {
	shillingFn func(ctx context.Context, since time.Time, threshold int) ([]domain.ShillingFinding, error)
	revengeFn  func(ctx context.Context, since time.Time, window time.Duration) ([]domain.RevengeFinding, error)
}

func (m *mockScanner) FindShilling(ctx context.Context, since time.Time, threshold int) ([]domain.ShillingFinding, error) {
	if m.shillingFn != nil {
		return m.shillingFn(ctx, since, threshold)
	}
	return nil, nil
}

func (m *mockScanner) FindRevengeDownvotes(ctx context.Context, since time.Time, window time.Duration) ([]domain.RevengeFinding, error) {
	if m.revengeFn != nil {
		return m.revengeFn(ctx, since, window)
	}
	return nil, nil
}

type reportedAnomaly struct {
	Kind    domain.AnomalyKind
	Details domain.AnomalyDetails
}

type mockSink struct {
	mu      sync.Mutex
	reports []reportedAnomaly
	err     error
}

func (m *mockSink) ReportAnomaly(_ context.Context, kind domain.AnomalyKind, details domain.AnomalyDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, reportedAnomaly{Kind: kind, Details: details})
	return m.err
}

func (m *mockSink) getReports() []reportedAnomaly {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]reportedAnomaly(nil), m.reports...)
}

type mockLease struct {
	acquired bool
	err      error
	released atomic.Int32
}

func (m *mockLease) TryAcquire(_ context.Context) (bool, error) {
	return m.acquired, m.err
}

func (m *mockLease) Release(_ context.Context) error {
	m.released.Add(1)
	return nil
}
