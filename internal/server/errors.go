package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/groundplan/groundplan/internal/billing/domain"
	cashflowdomain "github.com/groundplan/groundplan/internal/cashflow/domain"
	expensedomain "github.com/groundplan/groundplan/internal/expense/domain"
	fundingdomain "github.com/groundplan/groundplan/internal/funding/domain"
	projectdomain "github.com/groundplan/groundplan/internal/project/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInternal       = errors.New("internal_error")
)

// ErrorHandlingMiddleware turns errors recorded on the gin context into a
// JSON error response. Handlers call AbortWithError and return; the mapping
// lives in one place.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isNotFoundError(err error) bool {
	return errors.Is(err, projectdomain.ErrNotFound) ||
		errors.Is(err, fundingdomain.ErrNotFound) ||
		errors.Is(err, expensedomain.ErrNotFound) ||
		errors.Is(err, billingdomain.ErrNotFound) ||
		errors.Is(err, gorm.ErrRecordNotFound)
}

func isValidationError(err error) bool {
	validationErrs := []error{
		ErrInvalidRequest,
		projectdomain.ErrInvalidID,
		projectdomain.ErrInvalidStatus,
		cashflowdomain.ErrInvalidDateRange,
		cashflowdomain.ErrInvalidPeriodType,
		cashflowdomain.ErrInvalidMonth,
		cashflowdomain.ErrInvalidWeekStart,
		fundingdomain.ErrInvalidID,
		fundingdomain.ErrInvalidProject,
		fundingdomain.ErrInvalidAmount,
		fundingdomain.ErrInvalidFundingType,
		fundingdomain.ErrInvalidStatus,
		fundingdomain.ErrMissingReceiveDate,
		expensedomain.ErrInvalidID,
		expensedomain.ErrInvalidProject,
		expensedomain.ErrInvalidAmount,
		expensedomain.ErrMissingPaidDate,
		billingdomain.ErrInvalidID,
	}
	for _, target := range validationErrs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
