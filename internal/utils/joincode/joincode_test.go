package joincode_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelmates/reelmates/internal/utils/joincode"
)

func TestNewProducesValidCodes(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := joincode.New()
		require.NoError(t, err)
		assert.True(t, joincode.Valid(code), code)
		assert.Len(t, code, joincode.Length)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190, "codes should hardly ever collide")
}

func TestNoAmbiguousCharacters(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := joincode.New()
		require.NoError(t, err)
		assert.False(t, strings.ContainsAny(code, "01IOL"), code)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, joincode.Valid("ABC234"))
	assert.False(t, joincode.Valid(""))
	assert.False(t, joincode.Valid("ABC23"))    // short
	assert.False(t, joincode.Valid("ABC2345"))  // long
	assert.False(t, joincode.Valid("abc234"))   // lower case
	assert.False(t, joincode.Valid("ABC23O"))   // ambiguous letter
	assert.False(t, joincode.Valid("ABC-34"))   // punctuation
}
