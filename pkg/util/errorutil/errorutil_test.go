package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCycleErrorCarriesChain(t *testing.T) {
	err := NewCycleError("employee_manager", []string{"a", "c", "b", "a"})

	de := ToDomainError(err)
	assert.Equal(t, CodeCycle, de.Code)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
	assert.Equal(t, "employee_manager change would create a cycle: a -> c -> b -> a", de.Message)
	assert.Equal(t, []string{"a", "c", "b", "a"}, de.Details["chain"])
}

func TestIsCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("promote: %w", NewInvariantViolation("the CEO cannot be deleted", nil))
	assert.True(t, IsCode(err, CodeInvariant))
	assert.False(t, IsCode(err, CodeValidation))
	assert.False(t, IsCode(errors.New("plain"), CodeInvariant))
}

func TestToDomainErrorWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection reset")
	de := ToDomainError(cause)
	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.ErrorIs(t, de, cause)

	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
}

func TestStatusCodes(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		CodeValidation:   {NewValidationError("bad", nil), http.StatusBadRequest},
		CodeNotFound:     {NewNotFound("employee", nil), http.StatusNotFound},
		CodeDuplicate:    {NewDuplicate("taken", nil), http.StatusConflict},
		CodeUnauthorized: {NewUnauthorized("no token"), http.StatusUnauthorized},
		CodeForbidden:    {NewForbidden("no"), http.StatusForbidden},
		CodeInternal:     {NewInternalError(errors.New("x")), http.StatusInternalServerError},
	}
	for code, tc := range cases {
		de := ToDomainError(tc.err)
		assert.Equal(t, code, de.Code)
		assert.Equal(t, tc.status, de.HTTPStatus, code)
	}
	assert.Equal(t, "employee not found", NewNotFound("employee", nil).Error())
}
