package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/Shine-Infosolutions/eventbackend/internal/handler"    // HTTP handlers
	"github.com/Shine-Infosolutions/eventbackend/internal/middleware" // JWT authentication and role gate
	"github.com/Shine-Infosolutions/eventbackend/internal/model"      // staff roles
)

// RegisterRoutes registers routes that do not require authentication: the
// root status document and the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/", handler.Root)
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication and staff account routes.  Login
// is wrapped by loginLimit; the session endpoints live under /v1/auth and
// the account endpoints under /v1/users behind the Admin gate.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, loginLimit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register-admin", a.RegisterAdmin)
	g.POST("/login", a.Login, loginLimit)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, middleware.JWTAuth(jwtSecret))

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))

	users := e.Group("/v1/users",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	users.GET("", a.ListUsers)
	users.POST("", a.CreateUser)
	users.GET("/:id", a.GetUser)
	users.PUT("/:id", a.UpdateUser)
	users.DELETE("/:id", a.DeleteUser)
}
