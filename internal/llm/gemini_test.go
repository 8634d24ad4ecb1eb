package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/homewatch/internal/config"
	"github.com/your-org/homewatch/internal/models"
)

func TestUnconfiguredClient(t *testing.T) {
	c, err := NewClient(context.Background(), config.GeminiConfig{Model: "gemini-1.5-flash"})
	require.NoError(t, err)
	assert.False(t, c.Configured())

	t.Run("generate fails with sentinel", func(t *testing.T) {
		_, err := c.Generate(context.Background(), "prompt", nil)
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("classify degrades without error", func(t *testing.T) {
		intent, err := c.ClassifyIntent(context.Background(), "how are things?")
		require.NoError(t, err)
		assert.Equal(t, models.IntentUnknown, intent)
	})
}
