package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/repledger/internal/domain"
)

func (s *Server) registerAdminRoutes(api *echo.Group) {
	api.GET("/tags", s.handleListTags)
	api.POST("/tags", s.handleCreateTag)
	api.PATCH("/tags/:id", s.handleUpdateTag)
	api.GET("/settings/leaderboard-cache-ttl", s.handleGetTTL)
	api.PUT("/settings/leaderboard-cache-ttl", s.handleSetTTL)
}

// handleListTags lists active tags unless ?all=true.
func (s *Server) handleListTags(c echo.Context) error {
	all := false
	if err := echo.QueryParamsBinder(c).Bool("all", &all).BindError(); err != nil {
		return validationf("all must be a boolean")
	}

	tags, err := s.catalog.ListTags(c.Request().Context(), !all)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}

	resp := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		resp = append(resp, tagResponse(t))
	}
	return c.JSON(http.StatusOK, resp)
}

type createTagRequest struct {
	Name string         `json:"name"`
	Type domain.TagType `json:"type"`
}

func (s *Server) handleCreateTag(c echo.Context) error {
	var req createTagRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	tag, err := s.catalog.CreateTag(c.Request().Context(), req.Name, req.Type)
	if err != nil {
		return fmt.Errorf("create tag %q: %w", req.Name, err)
	}
	return c.JSON(http.StatusCreated, tagResponse(*tag))
}

// updateTagRequest has no type field: a tag's type is fixed at creation.
type updateTagRequest struct {
	Name   *string `json:"name"`
	Active *bool   `json:"active"`
}

func (s *Server) handleUpdateTag(c echo.Context) error {
	tagID, err := tagIDParam(c)
	if err != nil {
		return err
	}
	var req updateTagRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if req.Name == nil && req.Active == nil {
		return validationf("name or active is required")
	}

	ctx := c.Request().Context()
	if req.Name != nil {
		if err := s.catalog.RenameTag(ctx, tagID, *req.Name); err != nil {
			return fmt.Errorf("rename tag %d: %w", tagID, err)
		}
	}
	if req.Active != nil {
		if err := s.catalog.SetTagActive(ctx, tagID, *req.Active); err != nil {
			return fmt.Errorf("set tag %d active: %w", tagID, err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

type ttlResponse struct {
	Seconds int `json:"seconds"`
}

type setTTLRequest struct {
	Seconds int `json:"seconds"`
}

func (s *Server) handleGetTTL(c echo.Context) error {
	return c.JSON(http.StatusOK, ttlResponse{Seconds: int(s.settings.LeaderboardTTL().Seconds())})
}

// handleSetTTL persists the TTL and tells peers; every instance applies it on its next lookup.
func (s *Server) handleSetTTL(c echo.Context) error {
	var req setTTLRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ttl, err := s.settings.SetLeaderboardTTL(c.Request().Context(), req.Seconds)
	if err != nil {
		return fmt.Errorf("set leaderboard ttl: %w", err)
	}
	return c.JSON(http.StatusOK, ttlResponse{Seconds: int(ttl.Seconds())})
}
