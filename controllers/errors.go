package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/restopilot/platform/services"
	"github.com/restopilot/platform/utils"
)

// ErrNoPermission is returned when the caller's role does not allow the
// operation.
var ErrNoPermission = &CustomError{"You do not have permission"}

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}

var errInternal = errors.New("internal server error")

// respondServiceError maps the service error taxonomy onto HTTP codes.
// Unexpected errors are logged with context and surfaced generically.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var quotaErr *services.QuotaExceededError
	var transitionErr *services.InvalidTransitionError
	var slugErr *services.SlugChangeLimitError

	switch {
	case errors.As(err, &validationErr):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.As(err, &quotaErr), errors.As(err, &slugErr):
		utils.RespondError(c, http.StatusForbidden, err)
	case errors.As(err, &transitionErr):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrTenantNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrMenuItemNotFound),
		errors.Is(err, services.ErrCategoryNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrSlugTaken):
		utils.RespondError(c, http.StatusConflict, err)
	default:
		utils.ErrorLogger.Printf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		utils.RespondError(c, http.StatusInternalServerError, errInternal)
	}
}
