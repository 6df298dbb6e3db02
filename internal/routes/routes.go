package routes

import (
	"io"
	"time"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"walkcanvas/internal/controllers"
	"walkcanvas/internal/middleware"
)

// Options tune the engine built by SetupRouter.
type Options struct {
	AccessLog      io.Writer // access log destination; nil disables access logging
	RequestTimeout time.Duration
}

// SetupRouter builds the engine with every endpoint registered.
func SetupRouter(ctl *controllers.Controller, opts Options) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	if opts.AccessLog != nil {
		r.Use(ginlog.SetLogger(
			ginlog.WithWriter(opts.AccessLog),
			ginlog.WithUTC(true),
			ginlog.WithSkipPath([]string{"/healthz"}),
		))
	}
	r.Use(gin.Recovery(), middleware.CORS(), middleware.Timeout(opts.RequestTimeout))

	r.GET("/healthz", ctl.Health)
	AuthRoutes(r, ctl)
	RouteRoutes(r, ctl)
	FavoriteRoutes(r, ctl)

	return r
}
