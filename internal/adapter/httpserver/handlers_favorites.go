package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) registerFavoriteRoutes(api *echo.Group) {
	api.GET("/users/:id/favorites", s.handleListFavorites)
	api.PUT("/users/:id/favorites/:target", s.handleAddFavorite)
	api.DELETE("/users/:id/favorites/:target", s.handleRemoveFavorite)
}

func favoriteParams(c echo.Context) (ownerID, targetID int64, err error) {
	if ownerID, err = userIDParam(c, "id"); err != nil {
		return 0, 0, err
	}
	if targetID, err = userIDParam(c, "target"); err != nil {
		return 0, 0, err
	}
	return ownerID, targetID, nil
}

func (s *Server) handleAddFavorite(c echo.Context) error {
	ownerID, targetID, err := favoriteParams(c)
	if err != nil {
		return err
	}

	if err := s.ledger.AddFavorite(c.Request().Context(), ownerID, targetID); err != nil {
		return fmt.Errorf("add favorite %d->%d: %w", ownerID, targetID, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleRemoveFavorite(c echo.Context) error {
	ownerID, targetID, err := favoriteParams(c)
	if err != nil {
		return err
	}

	if err := s.ledger.RemoveFavorite(c.Request().Context(), ownerID, targetID); err != nil {
		return fmt.Errorf("remove favorite %d->%d: %w", ownerID, targetID, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleListFavorites(c echo.Context) error {
	ownerID, err := userIDParam(c, "id")
	if err != nil {
		return err
	}
	page, pageSize, err := pageParams(c)
	if err != nil {
		return err
	}

	favorites, err := s.ledger.ListFavorites(c.Request().Context(), ownerID, page, pageSize)
	if err != nil {
		return fmt.Errorf("list favorites of %d: %w", ownerID, err)
	}
	return c.JSON(http.StatusOK, newFavoritePageResponse(favorites))
}
