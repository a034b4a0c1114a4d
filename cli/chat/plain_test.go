package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuickSuggestion(t *testing.T) {
	suggestions := []string{"a", "b", "c"}

	got, ok := quickSuggestion("/2", suggestions)
	assert.True(t, ok)
	assert.Equal(t, "b", got)

	for _, line := range []string{"/0", "/4", "2", "/x", "/product 1"} {
		_, ok := quickSuggestion(line, suggestions)
		assert.False(t, ok, line)
	}
}
