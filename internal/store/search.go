package store

import (
	"context"
	"fmt"

	"walkcanvas/internal/models"
)

// SearchQuery selects routes by tags, optionally restricted to the caller's favorites.
type SearchQuery struct {
	Filters       Filters
	OnlyFavorites bool
	CallerID      string
}

// SearchRoutes returns every route matching q. An empty result is ErrNotFound.
func (s *Store) SearchRoutes(ctx context.Context, q SearchQuery) ([]RouteView, error) {
	if q.OnlyFavorites && q.CallerID == "" {
		return nil, fmt.Errorf("%w: user_id is required with onlyFavorites", ErrBadRequest)
	}
	db := s.session(ctx)

	query := q.Filters.apply(db.Model(&models.Route{}))
	if q.OnlyFavorites {
		mine := db.Model(&models.Favorite{}).Select("route_id").Where("account_id = ?", q.CallerID)
		query = query.Where("routes.id IN (?)", mine)
	}

	var routes []models.Route
	if err := query.Order("routes.id").Find(&routes).Error; err != nil {
		return nil, fmt.Errorf("store: SearchRoutes: %w", err)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("%w: no route matches the filters", ErrNotFound)
	}

	views, err := annotate(db, routes, q.CallerID)
	if err != nil {
		return nil, fmt.Errorf("store: SearchRoutes: %w", err)
	}
	return views, nil
}
