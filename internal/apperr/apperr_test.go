package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name    string
		err     error
		kind    Kind
		status  int
		message string
	}{
		{"validation", Validation("Name and price are required"), KindValidation, http.StatusBadRequest, "Name and price are required"},
		{"not found", NotFound("Food not found"), KindNotFound, http.StatusNotFound, "Food not found"},
		{"upstream", Upstream(cause), KindUpstream, http.StatusInternalServerError, "Image host request failed"},
		{"storage", Storage(cause, "Failed to fetch foods"), KindStorage, http.StatusInternalServerError, "Failed to fetch foods"},
		{"wrapped", fmt.Errorf("handler: %w", NotFound("Order not found")), KindNotFound, http.StatusNotFound, "Order not found"},
		{"plain", cause, KindInternal, http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			assert.Equal(t, tt.message, Message(tt.err))
		})
	}
}

func TestCauseIsReachable(t *testing.T) {
	err := Storage(ErrNotFound, "lookup")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "record not found")
}

func TestValidationf(t *testing.T) {
	err := Validationf("%s is required", "tableNumber")
	assert.Equal(t, "tableNumber is required", Message(err))
}
