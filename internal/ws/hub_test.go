package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()

	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.Equal(t, 0, hub.GetConnectedClients())
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	client := &Client{device: "cam-1"}

	require.NoError(t, hub.Register(client))
	assert.True(t, hub.IsActive("cam-1"))
	assert.Equal(t, 1, hub.GetConnectedClients())

	hub.Unregister(client)
	assert.False(t, hub.IsActive("cam-1"))
	assert.Equal(t, 0, hub.GetConnectedClients())
}

func TestHub_OneSessionPerDevice(t *testing.T) {
	hub := NewHub()
	first := &Client{device: "cam-1"}
	second := &Client{device: "cam-1"}
	other := &Client{device: "cam-2"}

	require.NoError(t, hub.Register(first))

	err := hub.Register(second)
	assert.ErrorIs(t, err, domain.ErrSessionActive)

	require.NoError(t, hub.Register(other))
	assert.Equal(t, 2, hub.GetConnectedClients())

	// a refused client must not release the owner's device
	hub.Unregister(second)
	assert.True(t, hub.IsActive("cam-1"))

	hub.Unregister(first)
	require.NoError(t, hub.Register(second))
}
