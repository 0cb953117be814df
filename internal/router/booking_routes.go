package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/Shine-Infosolutions/eventbackend/internal/handler"
	"github.com/Shine-Infosolutions/eventbackend/internal/middleware"
)

// RegisterPassTypes registers the catalog under /v1/pass-types.  Reads are
// open to every staff role and the list goes through the response cache;
// writes are checked for Admin by the catalog itself.
func RegisterPassTypes(e *echo.Echo, h *handler.PassTypeHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/pass-types", middleware.JWTAuth(jwtSecret))
	g.GET("", h.List, cache)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// RegisterBookings registers the booking ledger under /v1/bookings.  The
// pass page and the PDF pass are public so that dispatched links open
// without a login; everything else needs a staff token.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	e.GET("/v1/bookings/:id/public", h.Public)
	e.GET("/v1/bookings/:id/pass.pdf", h.PassPDF)

	g := e.Group("/v1/bookings", middleware.JWTAuth(jwtSecret))
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/next-number", h.NextNumber)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PUT("/:id/payment", h.UpdatePayment)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/resend", h.Resend)
}
