package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Shine-Infosolutions/eventbackend/internal/logger"
)

// RequestLogger logs every served request once the handler returns.  Errors
// handed to Echo's error handler are logged as well, since the status is
// only final after that handler runs.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			log.LogHTTPRequest(c, time.Since(start))
			return nil
		}
	}
}
