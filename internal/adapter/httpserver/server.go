package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/repledger/internal/domain"
	"github.com/pscheid92/repledger/internal/metrics"
	"github.com/pscheid92/repledger/internal/platform/config"
)

type ledgerService interface {
	RegisterUser(ctx context.Context, userID int64, handle string) (*domain.User, error)
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	SetHidden(ctx context.Context, userID int64, hidden bool) error
	RecordEvaluation(ctx context.Context, evaluatorID, targetID, tagID int64) (*domain.Evaluation, error)
	CountsForTarget(ctx context.Context, targetID int64) (*domain.TargetCounts, error)
	DeleteEvaluationsBy(ctx context.Context, evaluatorID int64) (int64, error)
	DeleteEvaluationsFor(ctx context.Context, targetID int64) (int64, error)
	AddFavorite(ctx context.Context, ownerID, targetID int64) error
	RemoveFavorite(ctx context.Context, ownerID, targetID int64) error
	ListFavorites(ctx context.Context, ownerID int64, page, pageSize int) (*domain.FavoritePage, error)
}

type scoreService interface {
	Score(ctx context.Context, targetID int64) (domain.Score, error)
}

type leaderboardService interface {
	GetPage(ctx context.Context, tagID int64, voteType domain.VoteType, page, pageSize int) (domain.LeaderboardPage, error)
}

type tagCatalog interface {
	CreateTag(ctx context.Context, name string, tagType domain.TagType) (*domain.Tag, error)
	ListTags(ctx context.Context, activeOnly bool) ([]domain.Tag, error)
	RenameTag(ctx context.Context, tagID int64, name string) error
	SetTagActive(ctx context.Context, tagID int64, active bool) error
}

type settingsService interface {
	SetLeaderboardTTL(ctx context.Context, seconds int) (time.Duration, error)
	LeaderboardTTL() time.Duration
}

// Services are the application operations exposed over HTTP.
type Services struct {
	Ledger      ledgerService
	Scores      scoreService
	Leaderboard leaderboardService
	Catalog     tagCatalog
	Settings    settingsService
}

type Server struct {
	echo   *echo.Echo
	config *config.Config
	clock  clockwork.Clock

	ledger      ledgerService
	scores      scoreService
	leaderboard leaderboardService
	catalog     tagCatalog
	settings    settingsService

	metricsHandler http.Handler
	httpMetrics    *metrics.HTTPMetrics
	healthChecks   []HealthCheck
	startTime      time.Time
}

func NewServer(cfg *config.Config, services Services, healthChecks []HealthCheck, metricsHandler http.Handler, httpMetrics *metrics.HTTPMetrics, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		clock:          clock,
		ledger:         services.Ledger,
		scores:         services.Scores,
		leaderboard:    services.Leaderboard,
		catalog:        services.Catalog,
		settings:       services.Settings,
		metricsHandler: metricsHandler,
		httpMetrics:    httpMetrics,
		healthChecks:   healthChecks,
		startTime:      clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP lets tests drive the full middleware chain.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
