package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCursorRoundTrip(t *testing.T) {
	id := uuid.MustParse("01890a5d-ac96-774b-bcce-b302099a8057")
	raw := EncodeCursor(1700000000123, id)

	cursor, err := ParseCursor(raw)
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Equal(t, int64(1700000000123), cursor.CreatedAt)
	assert.Equal(t, id, cursor.ID)
}

func TestParseCursorEmptyMeansTop(t *testing.T) {
	cursor, err := ParseCursor("")
	require.NoError(t, err)
	assert.Nil(t, cursor)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"abc", "12:", "12:xyz", ":42", "12:-5", "nope:1"} {
		_, err := ParseCursor(raw)
		assert.Error(t, err, "cursor %q should be rejected", raw)
	}
}

func TestCursorBefore(t *testing.T) {
	older := uuid.MustParse("00000000-0000-7000-8000-000000000001")
	newer := uuid.MustParse("00000000-0000-7000-8000-000000000002")
	cursor := &Cursor{CreatedAt: 100, ID: newer}

	assert.True(t, cursor.Before(99, newer))
	assert.True(t, cursor.Before(100, older))
	assert.False(t, cursor.Before(100, newer))
	assert.False(t, cursor.Before(101, older))

	var top *Cursor
	assert.True(t, top.Before(100, newer))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultPageSize, ClampLimit(0))
	assert.Equal(t, DefaultPageSize, ClampLimit(-3))
	assert.Equal(t, 1, ClampLimit(1))
	assert.Equal(t, MaxPageSize, ClampLimit(500))
}
