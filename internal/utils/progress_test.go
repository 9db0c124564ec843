package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProgressBar(t *testing.T) {
	t.Run("known total", func(t *testing.T) {
		var buf bytes.Buffer
		bar := NewProgressBar(3, DescAdding, &buf)
		require.NotNil(t, bar)

		require.NoError(t, bar.Add(1))
		require.NoError(t, bar.Add(2))
		require.NoError(t, bar.Finish())

		assert.Contains(t, buf.String(), DescAdding)
		assert.Contains(t, buf.String(), "3/3")
	})

	t.Run("unknown total", func(t *testing.T) {
		var buf bytes.Buffer
		bar := NewProgressBar(-1, DescNotifying, &buf)
		require.NotNil(t, bar)
		require.NoError(t, bar.Add(1))
		assert.Contains(t, buf.String(), DescNotifying)
	})
}
