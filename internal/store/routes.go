package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"walkcanvas/internal/events"
	"walkcanvas/internal/models"
)

// NewRoute is the payload of AddRoute. Tag fields accept JSON strings or numbers;
// Category is the deprecated single-field form, used only for tags left unset.
type NewRoute struct {
	OwnerID   string
	Name      string
	Path      json.RawMessage
	Region    json.RawMessage
	RoadType  json.RawMessage
	Transport json.RawMessage
	Category  json.RawMessage
}

// RouteView is a route annotated for listing.
type RouteView struct {
	Route         models.Route
	Path          models.Path
	Nickname      string
	IsFavorite    bool
	FavoriteCount int64
}

// AddRoute validates and stores a new route.
func (s *Store) AddRoute(ctx context.Context, in NewRoute) (*models.Route, error) {
	path, err := models.ParsePath(in.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if in.OwnerID == "" || in.Name == "" || len(path) == 0 {
		return nil, fmt.Errorf("%w: user_id, route_name and route_path are required", ErrBadRequest)
	}

	tags, err := parseTags(in)
	if err != nil {
		return nil, err
	}

	encoded, err := path.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	route := models.Route{
		OwnerID:     in.OwnerID,
		Name:        in.Name,
		Path:        encoded,
		RegionID:    tags.Region,
		RoadTypeID:  tags.RoadType,
		TransportID: tags.Transport,
	}
	err = s.session(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&route).Error
	})
	if err != nil {
		return nil, fmt.Errorf("store: AddRoute: %w", err)
	}

	s.publish(ctx, events.Event{Type: events.RouteCreated, AccountID: route.OwnerID, RouteID: route.ID})
	return &route, nil
}

func parseTags(in NewRoute) (models.Tags, error) {
	var (
		tags models.Tags
		err  error
	)
	if tags.Region, err = models.ParseTag(in.Region); err != nil {
		return tags, fmt.Errorf("%w: region_id: %v", ErrInvalidFormat, err)
	}
	if tags.RoadType, err = models.ParseTag(in.RoadType); err != nil {
		return tags, fmt.Errorf("%w: road_type_id: %v", ErrInvalidFormat, err)
	}
	if tags.Transport, err = models.ParseTag(in.Transport); err != nil {
		return tags, fmt.Errorf("%w: transport_id: %v", ErrInvalidFormat, err)
	}
	legacy, err := models.ParseLegacyCategory(in.Category)
	if err != nil {
		return tags, fmt.Errorf("%w: category: %v", ErrInvalidFormat, err)
	}
	return tags.Merge(legacy), nil
}

// GetRoutesForOwner lists the routes of ownerID, each annotated with whether the owner
// favorited it and its total favorite count.
func (s *Store) GetRoutesForOwner(ctx context.Context, ownerID string) ([]RouteView, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrBadRequest)
	}
	db := s.session(ctx)

	var routes []models.Route
	if err := db.Where("owner_id = ?", ownerID).Order("id").Find(&routes).Error; err != nil {
		return nil, fmt.Errorf("store: GetRoutesForOwner: %w", err)
	}
	views, err := annotate(db, routes, ownerID)
	if err != nil {
		return nil, fmt.Errorf("store: GetRoutesForOwner: %w", err)
	}
	return views, nil
}

// GetMostRecentRouteForOwner returns the route of ownerID with the highest id.
func (s *Store) GetMostRecentRouteForOwner(ctx context.Context, ownerID string) (*RouteView, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrBadRequest)
	}
	db := s.session(ctx)

	var route models.Route
	err := db.Where("owner_id = ?", ownerID).Order("id DESC").First(&route).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no routes for %q", ErrNotFound, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("store: GetMostRecentRouteForOwner: %w", err)
	}
	return annotateOne(db, route, ownerID)
}

// DeleteRoute removes a route and every favorite that references it in one transaction.
func (s *Store) DeleteRoute(ctx context.Context, routeID uint) error {
	var route models.Route
	err := s.session(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&route, routeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: route %d", ErrNotFound, routeID)
			}
			return err
		}
		if err := tx.Where("route_id = ?", routeID).Delete(&models.Favorite{}).Error; err != nil {
			return fmt.Errorf("delete favorites: %w", err)
		}
		if err := tx.Delete(&models.Route{}, routeID).Error; err != nil {
			return fmt.Errorf("delete route: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("store: DeleteRoute: %w", err)
	}

	s.publish(ctx, events.Event{Type: events.RouteDeleted, AccountID: route.OwnerID, RouteID: routeID})
	return nil
}

// RandomRouteMatching picks one route uniformly among those matching f.
func (s *Store) RandomRouteMatching(ctx context.Context, f Filters) (*RouteView, error) {
	db := s.session(ctx)

	var ids []uint
	if err := f.apply(db.Model(&models.Route{})).Order("routes.id").Pluck("routes.id", &ids).Error; err != nil {
		return nil, fmt.Errorf("store: RandomRouteMatching: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no route matches the filters", ErrNotFound)
	}

	var route models.Route
	err := db.First(&route, ids[s.pick(len(ids))]).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no route matches the filters", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: RandomRouteMatching: %w", err)
	}
	return annotateOne(db, route, "")
}

func annotateOne(db *gorm.DB, route models.Route, callerID string) (*RouteView, error) {
	views, err := annotate(db, []models.Route{route}, callerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// annotate decorates routes with the owner nickname (owner id when the account is
// missing), the global favorite count and whether callerID favorited each route.
func annotate(db *gorm.DB, routes []models.Route, callerID string) ([]RouteView, error) {
	views := make([]RouteView, 0, len(routes))
	if len(routes) == 0 {
		return views, nil
	}

	ids := make([]uint, 0, len(routes))
	owners := make([]string, 0, len(routes))
	for _, r := range routes {
		ids = append(ids, r.ID)
		owners = append(owners, r.OwnerID)
	}

	counts, err := favoriteCounts(db, ids)
	if err != nil {
		return nil, err
	}
	favorited, err := favoritedBy(db, callerID, ids)
	if err != nil {
		return nil, err
	}
	names, err := nicknames(db, owners)
	if err != nil {
		return nil, err
	}

	for _, r := range routes {
		nickname, ok := names[r.OwnerID]
		if !ok {
			nickname = r.OwnerID
		}
		views = append(views, RouteView{
			Route:         r,
			Path:          r.DecodedPath(),
			Nickname:      nickname,
			IsFavorite:    favorited[r.ID],
			FavoriteCount: counts[r.ID],
		})
	}
	return views, nil
}

// favoriteCounts groups favorites by route. Routes without favorites are absent (zero).
func favoriteCounts(db *gorm.DB, routeIDs []uint) (map[uint]int64, error) {
	var rows []struct {
		RouteID uint
		Count   int64
	}
	err := db.Model(&models.Favorite{}).
		Select("route_id, COUNT(*) AS count").
		Where("route_id IN ?", routeIDs).
		Group("route_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count favorites: %w", err)
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.RouteID] = row.Count
	}
	return counts, nil
}

func favoritedBy(db *gorm.DB, accountID string, routeIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool)
	if accountID == "" {
		return set, nil
	}
	var ids []uint
	err := db.Model(&models.Favorite{}).
		Where("account_id = ? AND route_id IN ?", accountID, routeIDs).
		Pluck("route_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("load favorites of %q: %w", accountID, err)
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func nicknames(db *gorm.DB, accountIDs []string) (map[string]string, error) {
	var accounts []models.Account
	if err := db.Select("account_id", "nickname").Where("account_id IN ?", accountIDs).Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("load nicknames: %w", err)
	}
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.AccountID] = a.Nickname
	}
	return names, nil
}
