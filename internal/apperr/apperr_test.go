package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfAndHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
	}{
		{"validation", Validationf("bad %s", "input"), KindValidation, http.StatusBadRequest},
		{"not found", NotFoundf("missing"), KindNotFound, http.StatusNotFound},
		{"authorization", Authorizationf("not yours"), KindAuthorization, http.StatusForbidden},
		{"invalid state", InvalidStatef("already done"), KindInvalidState, http.StatusConflict},
		{"plain error", errors.New("boom"), Kind(""), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("context: %w", NotFoundf("missing")), KindNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestIsKind(t *testing.T) {
	err := Validationf("points must be positive")
	assert.True(t, IsKind(err, KindValidation))
	assert.False(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(errors.New("boom"), KindValidation))
	assert.Equal(t, "points must be positive", err.Error())
}
