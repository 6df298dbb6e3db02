package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Health reports whether the database answers.
func (ctl *Controller) Health(c *gin.Context) {
	if err := ctl.store.Ping(c.Request.Context()); err != nil {
		logrus.WithError(err).Error("Health: database unreachable")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "fail"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
