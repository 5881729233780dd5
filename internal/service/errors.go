package service

import (
	"fmt"

	"library-service/internal/models"

	"github.com/pkg/errors"
)

// errorReason maps a domain error to a metric label
func errorReason(err error) string {
	switch {
	case errors.Is(err, models.ErrLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, models.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, models.ErrValidation):
		return "validation"
	default:
		return "storage_error"
	}
}

func formatFineMessage(amount float64) string {
	return fmt.Sprintf("Book returned with fine: $%.2f", amount)
}
