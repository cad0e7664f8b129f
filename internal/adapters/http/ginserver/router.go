package ginserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the collector engine. Middlewares run after recovery in the given order.
func NewRouter(h *Handler, middlewares ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RemoveExtraSlash = true
	r.HandleMethodNotAllowed = true

	r.Use(append([]gin.HandlerFunc{gin.Recovery()}, middlewares...)...)
	r.NoMethod(func(c *gin.Context) {
		c.String(http.StatusMethodNotAllowed, "method not allowed")
	})

	r.GET("/ping", h.Ping)
	r.GET("/", h.Index)
	r.POST("/", h.Ingest)

	ev := r.Group("/events")
	ev.GET("", h.ListEvents)
	ev.POST("", h.Ingest)
	ev.POST("/", h.Ingest)

	r.GET("/counters/aggregate", h.AggregateCounter)
	return r
}
