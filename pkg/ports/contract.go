package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStorageDriverContract runs a suite of tests to verify that a StorageDriver implementation
// adheres to the defined interface contract.
func RunStorageDriverContract(t *testing.T, driver StorageDriver) {
	ctx := context.Background()
	sessionID := "contract" + time.Now().Format("20060102150405")

	require.NoError(t, driver.Setup(ctx), "Setup should not return error")
	require.NoError(t, driver.Setup(ctx), "Setup must be idempotent")

	t.Run("Open and Close", func(t *testing.T) {
		assert.NoError(t, driver.Open(ctx, "", "SATCHEL"))
		assert.NoError(t, driver.Close(ctx))
		assert.NoError(t, driver.Close(ctx), "double Close must be safe")
	})

	t.Run("Write and Read", func(t *testing.T) {
		payload := []byte(`{"APP":{"user":1}}`)

		err := driver.Write(ctx, sessionID, payload)
		require.NoError(t, err, "Write should not return error")

		got, err := driver.Read(ctx, sessionID)
		require.NoError(t, err, "Read should not return error")
		assert.Equal(t, payload, got)
	})

	t.Run("Write replaces", func(t *testing.T) {
		id := sessionID + "replace"
		require.NoError(t, driver.Write(ctx, id, []byte("first-and-longer")))
		require.NoError(t, driver.Write(ctx, id, []byte("second")))

		got, err := driver.Read(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "second", string(got))
		_ = driver.Destroy(ctx, id)
	})

	t.Run("Read Non-Existent", func(t *testing.T) {
		got, err := driver.Read(ctx, "missing"+sessionID)
		assert.NoError(t, err, "absence is not an error")
		assert.Empty(t, got)
	})

	t.Run("Destroy Non-Existent", func(t *testing.T) {
		assert.NoError(t, driver.Destroy(ctx, "missing"+sessionID))
		assert.NoError(t, driver.Destroy(ctx, "missing"+sessionID), "double Destroy must be safe")
	})

	t.Run("Destroy", func(t *testing.T) {
		require.NoError(t, driver.Write(ctx, sessionID, []byte("data")))

		err := driver.Destroy(ctx, sessionID)
		require.NoError(t, err, "Destroy should not return error")

		got, err := driver.Read(ctx, sessionID)
		assert.NoError(t, err)
		assert.Empty(t, got, "Read after Destroy should return an empty payload")
	})

	t.Run("Binary payload", func(t *testing.T) {
		id := sessionID + "bin"
		payload := []byte{0x00, 0xff, 0x10, '\n', 0x00}
		require.NoError(t, driver.Write(ctx, id, payload))

		got, err := driver.Read(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
		_ = driver.Destroy(ctx, id)
	})
}
