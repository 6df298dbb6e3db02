package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"walkcanvas/internal/middleware"
	"walkcanvas/internal/store"
)

// Controller serves the HTTP endpoints over a Store.
type Controller struct {
	store *store.Store
}

// New creates a Controller.
func New(s *store.Store) *Controller {
	return &Controller{store: s}
}

// statusFor maps the store error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrBadRequest), errors.Is(err, store.ErrInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, store.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"message": ...}. Internal errors are logged with the request id.
func respondError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"op":         op,
			"request_id": middleware.GetRequestID(c),
		}).Error("request failed")
		c.JSON(status, gin.H{"message": op + " failed: internal server error"})
		return
	}
	logrus.WithError(err).WithField("op", op).Debug("request rejected")
	c.JSON(status, gin.H{"message": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}
