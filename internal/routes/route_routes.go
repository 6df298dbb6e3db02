package routes

import (
	"github.com/gin-gonic/gin"

	"walkcanvas/internal/controllers"
)

func RouteRoutes(r *gin.Engine, ctl *controllers.Controller) {
	r.POST("/add_route", ctl.AddRoute)
	r.DELETE("/delete_route/:id", ctl.DeleteRoute)
	r.GET("/routes", ctl.ListRoutes)
	r.GET("/recent_route", ctl.RecentRoute)
	r.POST("/save_recent_route", ctl.SaveRecentRoute)
	r.GET("/random_user_route", ctl.RandomRoute)
	r.POST("/search_routes", ctl.SearchRoutes)
}
