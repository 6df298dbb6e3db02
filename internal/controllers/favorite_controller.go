package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"walkcanvas/internal/models"
	"walkcanvas/internal/store"
)

type toggleFavoriteInput struct {
	UserID  flexString `json:"user_id"`
	RouteID flexID     `json:"route_id"`
}

type isFavoriteInput struct {
	UserID    flexString      `json:"user_id"`
	RouteID   flexID          `json:"route_id"`
	RoutePath json.RawMessage `json:"route_path"`
}

// ToggleFavorite flips whether user_id favorites route_id and returns the new count.
func (ctl *Controller) ToggleFavorite(c *gin.Context) {
	var input toggleFavoriteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	userID := strings.TrimSpace(string(input.UserID))
	if userID == "" || !input.RouteID.Set {
		badRequest(c, "user_id and route_id are required")
		return
	}

	state, err := ctl.store.ToggleFavorite(c.Request.Context(), userID, input.RouteID.Value)
	if err != nil {
		respondError(c, "toggle favorite", err)
		return
	}

	message := "removed from favorites"
	if state.IsFavorite {
		message = "added to favorites"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        message,
		"is_favorite":    state.IsFavorite,
		"favorite_count": state.FavoriteCount,
	})
}

// ListFavorites returns the routes user_id favorited, filtered by the tag query parameters.
func (ctl *Controller) ListFavorites(c *gin.Context) {
	views, err := ctl.store.ListFavorites(c.Request.Context(), strings.TrimSpace(c.Query("user_id")), filtersFromQuery(c))
	if err != nil {
		respondError(c, "list favorites", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": toRouteResponses(views)})
}

// IsFavorite reports whether user_id favorited the route given by route_id or route_path.
func (ctl *Controller) IsFavorite(c *gin.Context) {
	var input isFavoriteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	path, err := models.ParsePath(input.RoutePath)
	if err != nil {
		respondError(c, "is favorite", fmt.Errorf("%w: %v", store.ErrInvalidFormat, err))
		return
	}
	var routeID *uint
	if input.RouteID.Set {
		routeID = &input.RouteID.Value
	}

	fav, err := ctl.store.IsFavorite(c.Request.Context(), strings.TrimSpace(string(input.UserID)), routeID, path)
	if err != nil {
		respondError(c, "is favorite", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_favorite": fav})
}
