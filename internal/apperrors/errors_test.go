package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMatchesByCode(t *testing.T) {
	custom := &AppError{Code: CodeGameNotFound, Message: "no such game", Status: http.StatusNotFound}

	assert.True(t, errors.Is(custom, ErrGameNotFound))
	assert.False(t, errors.Is(custom, ErrGameNotActive))
	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", ErrMustCapture), ErrMustCapture))
}

func TestAppErrorString(t *testing.T) {
	assert.Equal(t, "[MUST_CAPTURE] Must capture", ErrMustCapture.Error())
	assert.Equal(t, "[VALIDATION_ERROR] bad input: player_id required",
		Validation("bad input", "player_id required").Error())
}

func TestPersistenceUnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Persistence(cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodePersistence, CodeOf(err))
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Equal(t, "disk full", err.Details)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInvalidOperation, CodeOf(Rejected("Draw already offered")))
	assert.Equal(t, CodeForbidden, CodeOf(fmt.Errorf("ctx: %w", Forbidden("Only creator can start tournament"))))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
}
