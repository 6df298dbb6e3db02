package routes

import (
	"github.com/gin-gonic/gin"

	"walkcanvas/internal/controllers"
)

func AuthRoutes(r *gin.Engine, ctl *controllers.Controller) {
	r.GET("/check-id", ctl.CheckID)
	r.POST("/check-id", ctl.CheckIDLegacy)
	r.GET("/check-nickname", ctl.CheckNickname)
	r.POST("/register", ctl.Register)
	r.POST("/login", ctl.Login)
	r.POST("/change", ctl.ChangeAccount)
}
