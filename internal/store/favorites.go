package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"walkcanvas/internal/events"
	"walkcanvas/internal/models"
)

// FavoriteState is the outcome of ToggleFavorite.
type FavoriteState struct {
	IsFavorite    bool
	FavoriteCount int64
}

// ToggleFavorite flips whether accountID favorites routeID and returns the new state
// with a freshly aggregated count. When two toggles race towards the same state the
// loser's insert is absorbed by the unique index and reported as already favorited.
func (s *Store) ToggleFavorite(ctx context.Context, accountID string, routeID uint) (FavoriteState, error) {
	if accountID == "" || routeID == 0 {
		return FavoriteState{}, fmt.Errorf("%w: user_id and route_id are required", ErrBadRequest)
	}

	var state FavoriteState
	err := s.session(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Route{}, routeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: route %d", ErrNotFound, routeID)
			}
			return err
		}
		account, err := s.findAccount(tx, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return fmt.Errorf("%w: account %q", ErrNotFound, accountID)
		}

		res := tx.Where("account_id = ? AND route_id = ?", accountID, routeID).Delete(&models.Favorite{})
		if res.Error != nil {
			return fmt.Errorf("remove favorite: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			fav := models.Favorite{AccountID: accountID, RouteID: routeID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error; err != nil {
				return fmt.Errorf("add favorite: %w", err)
			}
			state.IsFavorite = true
		}

		return tx.Model(&models.Favorite{}).Where("route_id = ?", routeID).Count(&state.FavoriteCount).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return FavoriteState{}, err
		}
		return FavoriteState{}, fmt.Errorf("store: ToggleFavorite: %w", err)
	}

	kind := events.FavoriteRemoved
	if state.IsFavorite {
		kind = events.FavoriteAdded
	}
	count := state.FavoriteCount
	s.publish(ctx, events.Event{Type: kind, AccountID: accountID, RouteID: routeID, FavoriteCount: &count})
	return state, nil
}

// IsFavorite reports whether accountID favorited a route, identified either by id or by
// its path. Exactly one of routeID and routePath must be given. Paths match when their
// decoded points are structurally equal with exact coordinate values.
func (s *Store) IsFavorite(ctx context.Context, accountID string, routeID *uint, routePath models.Path) (bool, error) {
	if accountID == "" {
		return false, fmt.Errorf("%w: user_id is required", ErrBadRequest)
	}
	if (routeID == nil) == (routePath == nil) {
		return false, fmt.Errorf("%w: exactly one of route_id or route_path must be provided", ErrBadRequest)
	}
	if routePath != nil && len(routePath) == 0 {
		return false, fmt.Errorf("%w: route_path must not be empty", ErrBadRequest)
	}
	db := s.session(ctx)

	if routeID != nil {
		var n int64
		err := db.Model(&models.Favorite{}).Where("account_id = ? AND route_id = ?", accountID, *routeID).Count(&n).Error
		if err != nil {
			return false, fmt.Errorf("store: IsFavorite: %w", err)
		}
		return n > 0, nil
	}

	var routes []models.Route
	err := db.Select("routes.id", "routes.route_path").
		Joins("JOIN favorites ON favorites.route_id = routes.id").
		Where("favorites.account_id = ?", accountID).
		Find(&routes).Error
	if err != nil {
		return false, fmt.Errorf("store: IsFavorite: %w", err)
	}
	for _, r := range routes {
		if r.DecodedPath().Equal(routePath) {
			return true, nil
		}
	}
	return false, nil
}

// ListFavorites returns the routes accountID favorited that match f, in the order they
// were favorited.
func (s *Store) ListFavorites(ctx context.Context, accountID string, f Filters) ([]RouteView, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrBadRequest)
	}
	db := s.session(ctx)

	var routes []models.Route
	q := db.Model(&models.Route{}).
		Select("routes.*").
		Joins("JOIN favorites ON favorites.route_id = routes.id").
		Where("favorites.account_id = ?", accountID)
	if err := f.apply(q).Order("favorites.id").Find(&routes).Error; err != nil {
		return nil, fmt.Errorf("store: ListFavorites: %w", err)
	}

	views, err := annotate(db, routes, accountID)
	if err != nil {
		return nil, fmt.Errorf("store: ListFavorites: %w", err)
	}
	return views, nil
}
