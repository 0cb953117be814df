package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Shine-Infosolutions/eventbackend/internal/handler"
	"github.com/Shine-Infosolutions/eventbackend/internal/middleware"
)

// RegisterEntry registers the gate desk endpoints under /v1/entry.  They
// require a valid JWT and share the gate rate limiter; the tracker decides
// which roles may use each one.
func RegisterEntry(e *echo.Echo, h *handler.EntryHandler, jwtSecret string, gateLimit echo.MiddlewareFunc) {
	g := e.Group("/v1/entry",
		middleware.JWTAuth(jwtSecret),
		gateLimit,
	)
	g.GET("/bookings", h.Bookings)
	g.POST("/search", h.Search)
	g.POST("/scan", h.Scan)
	g.POST("/checkin", h.CheckIn)
	g.GET("/logs", h.Logs)
}
