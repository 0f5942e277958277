package pagination_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelmates/reelmates/internal/utils/pagination"
)

func TestRoundTrip(t *testing.T) {
	token, err := pagination.Encode(pagination.Cursor{RoomID: 42, UpdatedUnix: 1700000000000})
	require.NoError(t, err)

	got, err := pagination.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.RoomID)
	assert.Equal(t, int64(1700000000000), got.UpdatedUnix)
}

func TestEmptyTokenIsFirstPage(t *testing.T) {
	got, err := pagination.Decode("")
	require.NoError(t, err)
	assert.Zero(t, got.RoomID)
}

func TestGarbageTokens(t *testing.T) {
	_, err := pagination.Decode("not base64!!")
	assert.Error(t, err)

	// valid base64, invalid payload
	_, err = pagination.Decode("bm90IGpzb24=")
	assert.Error(t, err)
}
