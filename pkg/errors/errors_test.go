package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrShortfall, "class 10A1 is short")
	assert.True(t, errors.Is(err, ErrShortfall))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "class 10A1 is short", err.Error())
	assert.Equal(t, "schedule does not cover the curriculum", ErrShortfall.Message)
}

func TestWrapUnwraps(t *testing.T) {
	err := Wrap(sql.ErrNoRows, ErrNotFound.Code, http.StatusNotFound, "term not found")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "term not found: sql: no rows in result set", err.Error())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("commit: %w", Clone(ErrTimeout, "generation timed out"))
	appErr := FromError(wrapped)
	assert.Equal(t, http.StatusGatewayTimeout, appErr.Status)
	assert.Equal(t, "generation timed out", appErr.Message)

	appErr = FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.EqualError(t, appErr, "internal server error: boom")
}
