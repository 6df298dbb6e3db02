package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"walkcanvas/internal/models"
	"walkcanvas/internal/store"
)

// RouteResponse is the API shape of a route. Polyline repeats route_path for older clients;
// geometry and bounds are present only when the points carry coordinates.
type RouteResponse struct {
	ID            uint            `json:"id"`
	OwnerID       string          `json:"user_id"`
	Name          string          `json:"route_name"`
	Nickname      string          `json:"nickname"`
	RoutePath     models.Path     `json:"route_path"`
	Polyline      models.Path     `json:"polyline"`
	RegionID      *string         `json:"region_id"`
	RoadTypeID    *string         `json:"road_type_id"`
	TransportID   *string         `json:"transport_id"`
	IsFavorite    bool            `json:"is_favorite"`
	FavoriteCount int64           `json:"favorite_count"`
	Geometry      json.RawMessage `json:"geometry,omitempty"`
	Bounds        *models.Bounds  `json:"bounds,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// toRouteResponse converts an annotated route to a RouteResponse
func toRouteResponse(v store.RouteView) RouteResponse {
	return RouteResponse{
		ID:            v.Route.ID,
		OwnerID:       v.Route.OwnerID,
		Name:          v.Route.Name,
		Nickname:      v.Nickname,
		RoutePath:     v.Path,
		Polyline:      v.Path,
		RegionID:      v.Route.RegionID,
		RoadTypeID:    v.Route.RoadTypeID,
		TransportID:   v.Route.TransportID,
		IsFavorite:    v.IsFavorite,
		FavoriteCount: v.FavoriteCount,
		Geometry:      v.Path.GeoJSON(),
		Bounds:        v.Path.Bounds(),
		CreatedAt:     v.Route.CreatedAt,
	}
}

func toRouteResponses(views []store.RouteView) []RouteResponse {
	out := make([]RouteResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toRouteResponse(v))
	}
	return out
}

type addRouteInput struct {
	UserID    flexString      `json:"user_id"`
	RouteName string          `json:"route_name"`
	RoutePath json.RawMessage `json:"route_path"`
	Region    json.RawMessage `json:"region_id"`
	RoadType  json.RawMessage `json:"road_type_id"`
	Transport json.RawMessage `json:"transport_id"`
	Category  json.RawMessage `json:"category"`
}

// AddRoute stores a drawn route. route_path may be a JSON list or a string holding one.
func (ctl *Controller) AddRoute(c *gin.Context) {
	var input addRouteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("AddRoute: invalid input payload")
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	route, err := ctl.store.AddRoute(c.Request.Context(), store.NewRoute{
		OwnerID:   strings.TrimSpace(string(input.UserID)),
		Name:      strings.TrimSpace(input.RouteName),
		Path:      input.RoutePath,
		Region:    input.Region,
		RoadType:  input.RoadType,
		Transport: input.Transport,
		Category:  input.Category,
	})
	if err != nil {
		respondError(c, "add route", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "route saved",
		"route_id":   route.ID,
		"route_name": route.Name,
	})
}

// DeleteRoute removes a route and its favorites.
func (ctl *Controller) DeleteRoute(c *gin.Context) {
	rID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || rID == 0 {
		badRequest(c, "invalid route ID")
		return
	}

	if err := ctl.store.DeleteRoute(c.Request.Context(), uint(rID)); err != nil {
		respondError(c, "delete route", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "route deleted"})
}

// ListRoutes returns every route owned by user_id.
func (ctl *Controller) ListRoutes(c *gin.Context) {
	views, err := ctl.store.GetRoutesForOwner(c.Request.Context(), strings.TrimSpace(c.Query("user_id")))
	if err != nil {
		respondError(c, "list routes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": toRouteResponses(views)})
}

// RecentRoute returns the newest route of user_id.
func (ctl *Controller) RecentRoute(c *gin.Context) {
	view, err := ctl.store.GetMostRecentRouteForOwner(c.Request.Context(), strings.TrimSpace(c.Query("user_id")))
	if err != nil {
		respondError(c, "recent route", err)
		return
	}
	c.JSON(http.StatusOK, toRouteResponse(*view))
}

// SaveRecentRoute accepts and discards the body; recent routes are derived from ids.
func (ctl *Controller) SaveRecentRoute(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RandomRoute returns one route picked uniformly among those matching the tag filters.
func (ctl *Controller) RandomRoute(c *gin.Context) {
	view, err := ctl.store.RandomRouteMatching(c.Request.Context(), filtersFromQuery(c))
	if err != nil {
		respondError(c, "random route", err)
		return
	}
	c.JSON(http.StatusOK, toRouteResponse(*view))
}

type searchInput struct {
	Categories    json.RawMessage `json:"categories"`
	OnlyFavorites bool            `json:"onlyFavorites"`
	UserID        flexString      `json:"user_id"`
}

// SearchRoutes answers POST /search_routes.
func (ctl *Controller) SearchRoutes(c *gin.Context) {
	var input searchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	raw := bytes.TrimSpace(input.Categories)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		badRequest(c, "categories is required")
		return
	}
	var categories map[string]json.RawMessage
	if err := json.Unmarshal(raw, &categories); err != nil {
		badRequest(c, "categories must be an object")
		return
	}
	filters, err := filtersFromCategories(categories)
	if err != nil {
		respondError(c, "search routes", err)
		return
	}

	views, err := ctl.store.SearchRoutes(c.Request.Context(), store.SearchQuery{
		Filters:       filters,
		OnlyFavorites: input.OnlyFavorites,
		CallerID:      strings.TrimSpace(string(input.UserID)),
	})
	if err != nil {
		respondError(c, "search routes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": toRouteResponses(views)})
}
