package handler

import (
	"errors"
	"net/http"

	"depot-backend/internal/service"
	"depot-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP status codes. Anything unrecognized
// is treated as an internal error.
func statusFor(err error) int {
	var locked *service.AccountLockedError

	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrSaleNotFound),
		errors.Is(err, service.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrProductNameTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrNegativeStock),
		errors.Is(err, service.ErrInvalidProduct),
		errors.Is(err, service.ErrSaleAlreadyPaid),
		errors.Is(err, service.ErrNoOtp),
		errors.Is(err, service.ErrOtpExpired),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrRoleNotAllowed):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrOtpMismatch):
		return http.StatusUnauthorized
	case errors.As(err, &locked):
		return http.StatusForbidden
	case errors.Is(err, service.ErrDeliveryFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the standard error envelope for a service error.
func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	c.JSON(status, response.Error(status, err.Error()))
}
