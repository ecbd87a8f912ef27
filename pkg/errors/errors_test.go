package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMessage(t *testing.T) {
	cause := stderrors.New("connection refused")

	assert.Equal(t, "service unavailable: connection refused", Unavailable(cause).Error())
	assert.Equal(t, "invalid credentials", InvalidCredentials().Error())
	assert.Equal(t, "patient not found", NotFound("patient", nil).Error())
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Unavailable(cause)

	assert.True(t, stderrors.Is(err, cause))
}

func TestCodeOf(t *testing.T) {
	cause := stderrors.New("boom")

	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"not found", NotFound("patient", nil), ErrNotFound},
		{"validation", Validation("name is required"), ErrValidation},
		{"already registered", AlreadyRegistered("a@b.com"), ErrAlreadyRegistered},
		{"invalid credentials", InvalidCredentials(), ErrInvalidCredentials},
		{"not verified", NotVerified(), ErrNotVerified},
		{"conflict", Conflict("already in consultation"), ErrConflict},
		{"unavailable", Unavailable(cause), ErrUnavailable},
		{"partial completion", PartialCompletion("prescription", cause), ErrPartialCompletion},
		{"unauthorized", Unauthorized(nil), ErrUnauthorized},
		{"forbidden", Forbidden("doctors only"), ErrForbidden},
		{"internal", Internal(cause), ErrInternal},
		{"wrapped", fmt.Errorf("handler: %w", Conflict("busy")), ErrConflict},
		{"plain error", cause, ErrInternal},
		{"nil", nil, ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestPartialCompletionNamesCommittedStep(t *testing.T) {
	err := PartialCompletion("prescription", stderrors.New("history insert failed"))

	assert.Contains(t, err.Error(), "last committed step: prescription")
	assert.Contains(t, err.Error(), "reconciliation required")
}
