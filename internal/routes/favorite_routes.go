package routes

import (
	"github.com/gin-gonic/gin"

	"walkcanvas/internal/controllers"
)

func FavoriteRoutes(r *gin.Engine, ctl *controllers.Controller) {
	r.POST("/toggle_favorite", ctl.ToggleFavorite)
	r.GET("/favorites", ctl.ListFavorites)
	r.POST("/is_favorite", ctl.IsFavorite)
}
