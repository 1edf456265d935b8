package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/repledger/internal/domain"
)

func (s *Server) registerLeaderboardRoutes(api *echo.Group) {
	api.GET("/leaderboard", s.handleLeaderboard)
}

// handleLeaderboard serves GET /api/leaderboard?type=recommend&tag_id=3&page=1&page_size=10.
// Omitting tag_id ranks across every tag of the type.
func (s *Server) handleLeaderboard(c echo.Context) error {
	voteType, ok := domain.ParseVoteType(c.QueryParam("type"))
	if !ok {
		return validationf("type must be %q or %q", domain.VoteRecommend, domain.VoteWarn)
	}

	tagID := domain.AllTags
	if err := echo.QueryParamsBinder(c).Int64("tag_id", &tagID).BindError(); err != nil || tagID < 0 {
		return validationf("tag_id must be a non-negative integer")
	}

	page, pageSize, err := pageParams(c)
	if err != nil {
		return err
	}

	lb, err := s.leaderboard.GetPage(c.Request().Context(), tagID, voteType, page, pageSize)
	if err != nil {
		return fmt.Errorf("leaderboard tag %d %s page %d: %w", tagID, voteType, page, err)
	}
	return c.JSON(http.StatusOK, newLeaderboardResponse(lb))
}
