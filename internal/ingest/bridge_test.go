package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceFromTopic(t *testing.T) {
	b := NewBridge(nil, nil, nil, nil, "homewatch/cameras")

	t.Run("valid scene topic", func(t *testing.T) {
		device, err := b.deviceFromTopic("homewatch/cameras/front_door/scene")
		require.NoError(t, err)
		assert.Equal(t, "front_door", device)
	})

	t.Run("trailing slash on base is trimmed", func(t *testing.T) {
		b := NewBridge(nil, nil, nil, nil, "homewatch/cameras/")
		device, err := b.deviceFromTopic("homewatch/cameras/cam1/scene")
		require.NoError(t, err)
		assert.Equal(t, "cam1", device)
	})

	t.Run("outside base topic", func(t *testing.T) {
		_, err := b.deviceFromTopic("other/cam1/scene")
		assert.Error(t, err)
	})

	t.Run("wrong suffix", func(t *testing.T) {
		_, err := b.deviceFromTopic("homewatch/cameras/cam1/status")
		assert.Error(t, err)
	})

	t.Run("missing device segment", func(t *testing.T) {
		_, err := b.deviceFromTopic("homewatch/cameras//scene")
		assert.Error(t, err)
	})
}
