package handler // declare the package name; contains HTTP handlers

import (
	"net/http" // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Root answers GET / with a small status document, the way the front
// desk app probes the API before logging in.
func Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Event pass back office API",
		"status":  "OK",
	})
}

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems.  It returns a plain text "ok" with a 200.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
