package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Shine-Infosolutions/eventbackend/internal/domain"
	"github.com/Shine-Infosolutions/eventbackend/internal/logger"
)

// respondError writes err as {"error", "code"} with the status of its kind.
// Unknown errors are logged and reported as a bare 500.
func respondError(c echo.Context, log *logger.Logger, err error) error {
	var (
		validation domain.ValidationError
		authz      domain.AuthorizationError
		notFound   domain.NotFoundError
		conflict   domain.ConflictError
		capacity   domain.CapacityError
		dependency domain.DependencyError
	)
	switch {
	case errors.As(err, &validation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": validation.Error(), "code": "validation", "field": validation.Field})
	case errors.As(err, &authz):
		return c.JSON(http.StatusForbidden, echo.Map{"error": authz.Error(), "code": "forbidden"})
	case errors.As(err, &notFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": notFound.Error(), "code": "not_found"})
	case errors.As(err, &conflict):
		body := echo.Map{"error": conflict.Error(), "code": "conflict"}
		if conflict.Details != nil {
			body["details"] = conflict.Details
		}
		return c.JSON(http.StatusConflict, body)
	case errors.As(err, &capacity):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":     capacity.Error(),
			"code":      "capacity_exceeded",
			"remaining": capacity.Total - capacity.Entered,
		})
	case errors.As(err, &dependency):
		log.WithError(err).Warn("dependency failure", "dependency", dependency.Dependency)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": dependency.Error(), "code": "dependency_unavailable"})
	}
	log.WithError(err).Error("request failed", "method", c.Request().Method, "path", c.Path())
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error", "code": "internal"})
}
