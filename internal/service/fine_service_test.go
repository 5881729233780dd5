package service

import (
	"testing"

	"library-service/internal/models"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidateFineStatus(t *testing.T) {
	assert.NoError(t, validateFineStatus(""))
	assert.NoError(t, validateFineStatus(models.FineStatusPending))
	assert.NoError(t, validateFineStatus(models.FineStatusPaid))
	assert.NoError(t, validateFineStatus(models.FineStatusWaived))

	err := validateFineStatus("overdue")
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestPayThenWaiveLifecycle(t *testing.T) {
	// Paid and waived are terminal; PayFineTx/WaiveFineTx reject anything
	// not pending. Covered against the store in internal/store.
	t.Skip("Integration test - requires database")
}
