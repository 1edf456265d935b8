package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) registerUserRoutes(api *echo.Group) {
	api.PUT("/users/:id", s.handleRegisterUser)
	api.GET("/users/:id", s.handleGetUser)
	api.PUT("/users/:id/hidden", s.handleSetHidden)
	api.GET("/users/:id/counts", s.handleCounts)
	api.GET("/users/:id/score", s.handleScore)
}

type registerUserRequest struct {
	Handle string `json:"handle"`
}

// handleRegisterUser records a user or a handle change. An empty handle keeps the known one.
func (s *Server) handleRegisterUser(c echo.Context) error {
	userID, err := userIDParam(c, "id")
	if err != nil {
		return err
	}
	var req registerUserRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	user, err := s.ledger.RegisterUser(c.Request().Context(), userID, req.Handle)
	if err != nil {
		return fmt.Errorf("register user %d: %w", userID, err)
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}

func (s *Server) handleGetUser(c echo.Context) error {
	userID, err := userIDParam(c, "id")
	if err != nil {
		return err
	}

	user, err := s.ledger.GetUser(c.Request().Context(), userID)
	if err != nil {
		return fmt.Errorf("get user %d: %w", userID, err)
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}

type setHiddenRequest struct {
	Hidden *bool `json:"hidden"`
}

func (s *Server) handleSetHidden(c echo.Context) error {
	userID, err := userIDParam(c, "id")
	if err != nil {
		return err
	}
	var req setHiddenRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if req.Hidden == nil {
		return validationf("hidden is required")
	}

	if err := s.ledger.SetHidden(c.Request().Context(), userID, *req.Hidden); err != nil {
		return fmt.Errorf("set hidden for user %d: %w", userID, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleCounts(c echo.Context) error {
	userID, err := userIDParam(c, "id")
	if err != nil {
		return err
	}

	counts, err := s.ledger.CountsForTarget(c.Request().Context(), userID)
	if err != nil {
		return fmt.Errorf("counts for user %d: %w", userID, err)
	}
	return c.JSON(http.StatusOK, newCountsResponse(counts))
}

func (s *Server) handleScore(c echo.Context) error {
	userID, err := userIDParam(c, "id")
	if err != nil {
		return err
	}

	score, err := s.scores.Score(c.Request().Context(), userID)
	if err != nil {
		return fmt.Errorf("score for user %d: %w", userID, err)
	}
	return c.JSON(http.StatusOK, scoreResponse(score))
}
