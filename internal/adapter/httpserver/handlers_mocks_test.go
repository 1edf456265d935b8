package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/repledger/internal/domain"
	"github.com/pscheid92/repledger/internal/platform/config"
)

const testToken = "test-api-token-0123456789"

var testEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// --- Mock implementations ---

type mockLedger struct {
	registerUserFn   func(ctx context.Context, userID int64, handle string) (*domain.User, error)
	getUserFn        func(ctx context.Context, userID int64) (*domain.User, error)
	setHiddenFn      func(ctx context.Context, userID int64, hidden bool) error
	recordFn         func(ctx context.Context, evaluatorID, targetID, tagID int64) (*domain.Evaluation, error)
	countsFn         func(ctx context.Context, targetID int64) (*domain.TargetCounts, error)
	deleteByFn       func(ctx context.Context, evaluatorID int64) (int64, error)
	deleteForFn      func(ctx context.Context, targetID int64) (int64, error)
	addFavoriteFn    func(ctx context.Context, ownerID, targetID int64) error
	removeFavoriteFn func(ctx context.Context, ownerID, targetID int64) error
	listFavoritesFn  func(ctx context.Context, ownerID int64, page, pageSize int) (*domain.FavoritePage, error)
}

var errNotImplemented = errors.New("not implemented")

func (m *mockLedger) RegisterUser(ctx context.Context, userID int64, handle string) (*domain.User, error) {
	if m.registerUserFn != nil {
		return m.registerUserFn(ctx, userID, handle)
	}
	return nil, errNotImplemented
}

func (m *mockLedger) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, userID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockLedger) SetHidden(ctx context.Context, userID int64, hidden bool) error {
	if m.setHiddenFn != nil {
		return m.setHiddenFn(ctx, userID, hidden)
	}
	return nil
}

func (m *mockLedger) RecordEvaluation(ctx context.Context, evaluatorID, targetID, tagID int64) (*domain.Evaluation, error) {
	if m.recordFn != nil {
		return m.recordFn(ctx, evaluatorID, targetID, tagID)
	}
	return nil, errNotImplemented
}

func (m *mockLedger) CountsForTarget(ctx context.Context, targetID int64) (*domain.TargetCounts, error) {
	if m.countsFn != nil {
		return m.countsFn(ctx, targetID)
	}
	return &domain.TargetCounts{TargetID: targetID}, nil
}

func (m *mockLedger) DeleteEvaluationsBy(ctx context.Context, evaluatorID int64) (int64, error) {
	if m.deleteByFn != nil {
		return m.deleteByFn(ctx, evaluatorID)
	}
	return 0, nil
}

func (m *mockLedger) DeleteEvaluationsFor(ctx context.Context, targetID int64) (int64, error) {
	if m.deleteForFn != nil {
		return m.deleteForFn(ctx, targetID)
	}
	return 0, nil
}

func (m *mockLedger) AddFavorite(ctx context.Context, ownerID, targetID int64) error {
	if m.addFavoriteFn != nil {
		return m.addFavoriteFn(ctx, ownerID, targetID)
	}
	return nil
}

func (m *mockLedger) RemoveFavorite(ctx context.Context, ownerID, targetID int64) error {
	if m.removeFavoriteFn != nil {
		return m.removeFavoriteFn(ctx, ownerID, targetID)
	}
	return nil
}

func (m *mockLedger) ListFavorites(ctx context.Context, ownerID int64, page, pageSize int) (*domain.FavoritePage, error) {
	if m.listFavoritesFn != nil {
		return m.listFavoritesFn(ctx, ownerID, page, pageSize)
	}
	return &domain.FavoritePage{OwnerID: ownerID, Page: page, PageSize: pageSize}, nil
}

type mockScores struct {
	scoreFn func(ctx context.Context, targetID int64) (domain.Score, error)
}

func (m *mockScores) Score(ctx context.Context, targetID int64) (domain.Score, error) {
	if m.scoreFn != nil {
		return m.scoreFn(ctx, targetID)
	}
	return domain.Score{TargetID: targetID}, nil
}

type mockLeaderboard struct {
	getPageFn func(ctx context.Context, tagID int64, voteType domain.VoteType, page, pageSize int) (domain.LeaderboardPage, error)
}

func (m *mockLeaderboard) GetPage(ctx context.Context, tagID int64, voteType domain.VoteType, page, pageSize int) (domain.LeaderboardPage, error) {
	if m.getPageFn != nil {
		return m.getPageFn(ctx, tagID, voteType, page, pageSize)
	}
	return domain.LeaderboardPage{TagID: tagID, VoteType: voteType, Page: page, PageSize: pageSize}, nil
}

type mockCatalog struct {
	createFn    func(ctx context.Context, name string, tagType domain.TagType) (*domain.Tag, error)
	listFn      func(ctx context.Context, activeOnly bool) ([]domain.Tag, error)
	renameFn    func(ctx context.Context, tagID int64, name string) error
	setActiveFn func(ctx context.Context, tagID int64, active bool) error
}

func (m *mockCatalog) CreateTag(ctx context.Context, name string, tagType domain.TagType) (*domain.Tag, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name, tagType)
	}
	return nil, errNotImplemented
}

func (m *mockCatalog) ListTags(ctx context.Context, activeOnly bool) ([]domain.Tag, error) {
	if m.listFn != nil {
		return m.listFn(ctx, activeOnly)
	}
	return nil, nil
}

func (m *mockCatalog) RenameTag(ctx context.Context, tagID int64, name string) error {
	if m.renameFn != nil {
		return m.renameFn(ctx, tagID, name)
	}
	return nil
}

func (m *mockCatalog) SetTagActive(ctx context.Context, tagID int64, active bool) error {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, tagID, active)
	}
	return nil
}

type mockSettings struct {
	ttl   time.Duration
	setFn func(ctx context.Context, seconds int) (time.Duration, error)
}

func (m *mockSettings) SetLeaderboardTTL(ctx context.Context, seconds int) (time.Duration, error) {
	if m.setFn != nil {
		return m.setFn(ctx, seconds)
	}
	m.ttl = time.Duration(seconds) * time.Second
	return m.ttl, nil
}

func (m *mockSettings) LeaderboardTTL() time.Duration {
	if m.ttl == 0 {
		return 5 * time.Minute
	}
	return m.ttl
}

// --- Test helpers ---

type testServerOption func(*Services, *[]HealthCheck)

func withLedger(l ledgerService) testServerOption {
	return func(s *Services, _ *[]HealthCheck) { s.Ledger = l }
}

func withScores(sc scoreService) testServerOption {
	return func(s *Services, _ *[]HealthCheck) { s.Scores = sc }
}

func withLeaderboard(lb leaderboardService) testServerOption {
	return func(s *Services, _ *[]HealthCheck) { s.Leaderboard = lb }
}

func withCatalog(c tagCatalog) testServerOption {
	return func(s *Services, _ *[]HealthCheck) { s.Catalog = c }
}

func withSettings(st settingsService) testServerOption {
	return func(s *Services, _ *[]HealthCheck) { s.Settings = st }
}

func withHealthChecks(checks ...HealthCheck) testServerOption {
	return func(_ *Services, hc *[]HealthCheck) { *hc = checks }
}

func newTestServer(t *testing.T, opts ...testServerOption) *Server {
	t.Helper()

	services := Services{
		Ledger:      &mockLedger{},
		Scores:      &mockScores{},
		Leaderboard: &mockLeaderboard{},
		Catalog:     &mockCatalog{},
		Settings:    &mockSettings{},
	}
	var checks []HealthCheck
	for _, opt := range opts {
		opt(&services, &checks)
	}

	cfg := &config.Config{
		Port:         "0",
		APIToken:     testToken,
		APIRateLimit: 1000,
		APIRateBurst: 1000,
	}
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	return NewServer(cfg, services, checks, metricsHandler, nil, clockwork.NewFakeClockAt(testEpoch))
}

// do sends an authenticated request through the full middleware chain.
func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}
