package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/repledger/internal/platform/errors"
)

func (s *Server) registerEvaluationRoutes(api *echo.Group) {
	api.POST("/evaluations", s.handleRecordEvaluation)
	api.DELETE("/users/:id/evaluations/given", s.handleDeleteGiven)
	api.DELETE("/users/:id/evaluations/received", s.handleDeleteReceived)
}

type recordEvaluationRequest struct {
	EvaluatorID int64 `json:"evaluator_id"`
	TargetID    int64 `json:"target_id"`
	TagID       int64 `json:"tag_id"`
}

func (s *Server) handleRecordEvaluation(c echo.Context) error {
	var req recordEvaluationRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if req.EvaluatorID <= 0 || req.TargetID <= 0 || req.TagID <= 0 {
		return validationf("evaluator_id, target_id and tag_id must be positive")
	}

	evaluation, err := s.ledger.RecordEvaluation(c.Request().Context(), req.EvaluatorID, req.TargetID, req.TagID)
	if err != nil {
		return fmt.Errorf("record evaluation %d->%d tag %d: %w", req.EvaluatorID, req.TargetID, req.TagID, err)
	}
	return c.JSON(http.StatusCreated, newEvaluationResponse(evaluation))
}

type deletedResponse struct {
	Deleted int64 `json:"deleted"`
}

func (s *Server) handleDeleteGiven(c echo.Context) error {
	userID, err := userIDParam(c, "id")
	if err != nil {
		return err
	}

	n, err := s.ledger.DeleteEvaluationsBy(c.Request().Context(), userID)
	if err != nil {
		return fmt.Errorf("delete evaluations by %d: %w", userID, err)
	}
	return c.JSON(http.StatusOK, deletedResponse{Deleted: n})
}

func (s *Server) handleDeleteReceived(c echo.Context) error {
	userID, err := userIDParam(c, "id")
	if err != nil {
		return err
	}

	n, err := s.ledger.DeleteEvaluationsFor(c.Request().Context(), userID)
	if err != nil {
		return fmt.Errorf("delete evaluations for %d: %w", userID, err)
	}
	return c.JSON(http.StatusOK, deletedResponse{Deleted: n})
}

func validationf(format string, args ...any) error {
	return apperrors.ValidationError(fmt.Sprintf(format, args...))
}
