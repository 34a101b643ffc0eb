package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"taskboard/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindValidation, http.StatusBadRequest},
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindForbidden, http.StatusForbidden},
		{apperr.KindConflict, http.StatusConflict},
		{apperr.KindTransaction, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, apperr.Status(apperr.New(tc.kind, "x")))
	}
	assert.Equal(t, http.StatusInternalServerError, apperr.Status(errors.New("raw")))
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := apperr.New(apperr.KindConflict, "member already exists")
	wrapped := fmt.Errorf("apply mutation: %w", inner)

	assert.Equal(t, apperr.KindConflict, apperr.KindOf(wrapped))
	assert.True(t, apperr.IsDomain(wrapped))
	assert.Equal(t, "member already exists", apperr.Message(wrapped))
}

func TestUntypedErrorsAreOpaque(t *testing.T) {
	err := errors.New("pq: deadlock detected")

	assert.False(t, apperr.IsDomain(err))
	assert.Equal(t, "internal server error", apperr.Message(err))
}
