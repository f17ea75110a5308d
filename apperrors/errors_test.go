package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapsKinds(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrUnauthenticated, http.StatusUnauthorized},
		{New(ErrUnauthenticated, "invalid credentials"), http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{New(ErrNotFound, "user does not have a shopping cart"), http.StatusNotFound},
		{Invalid("unknown sort column %q", "id; DROP TABLE"), http.StatusBadRequest},
		{New(ErrAlreadyExists, "product already exists"), http.StatusUnprocessableEntity},
		{ErrConflict, http.StatusUnprocessableEntity},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func TestDomainErrorsStayIdentifiableWhenWrapped(t *testing.T) {
	noCart := New(ErrNotFound, "user does not have a shopping cart")
	wrapped := fmt.Errorf("add item: %w", noCart)

	assert.ErrorIs(t, wrapped, noCart)
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, wrapped, ErrForbidden)
}

func TestMessageHidesInternalErrors(t *testing.T) {
	assert.Equal(t, InternalMessage, Message(errors.New("SQLSTATE 08006: password authentication failed")))
	assert.Equal(t, "product already exists", Message(New(ErrAlreadyExists, "product already exists")))
}
