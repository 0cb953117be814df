package middleware

// identity.go defines helpers shared across middleware files and handlers
// for reading the caller that JWTAuth stored in the Echo context.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Shine-Infosolutions/eventbackend/internal/model"
	"github.com/Shine-Infosolutions/eventbackend/internal/service"
)

// CurrentActor returns the authenticated staff member.  ok is false on
// routes that JWTAuth does not guard.
func CurrentActor(c echo.Context) (service.Actor, bool) {
	id, ok := c.Get("user_id").(uint64)
	if !ok || id == 0 {
		return service.Actor{}, false
	}
	role, _ := c.Get("role").(string)
	name, _ := c.Get("name").(string)
	return service.Actor{UserID: id, Name: name, Role: model.Role(role)}, true
}

// userID renders the caller id for rate limit keys.  It returns "anon"
// when no user is authenticated.
func userID(c echo.Context) string {
	if a, ok := CurrentActor(c); ok {
		return strconv.FormatUint(a.UserID, 10)
	}
	return "anon"
}
