package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"library-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", errors.Wrap(models.ErrNotFound, "book 9"), http.StatusNotFound},
		{"validation", models.ErrValidation, http.StatusBadRequest},
		{"unavailable", models.ErrUnavailable, http.StatusConflict},
		{"limit exceeded", models.ErrLimitExceeded, http.StatusConflict},
		{"invalid state", models.ErrInvalidState, http.StatusConflict},
		{"storage", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tc.err)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestPathID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "42"}}

	id, ok := pathID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	_, ok = pathID(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
