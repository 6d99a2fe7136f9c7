package wallet

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeystoreManager_SaveLoad(t *testing.T) {
	km, err := NewKeystoreManager(t.TempDir(), WithLightScrypt())
	require.NoError(t, err)

	w, err := NewWallet()
	require.NoError(t, err)

	path, err := km.Save(w, "correct horse")
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := km.Load(w.Address(), "correct horse")
	require.NoError(t, err)
	assert.Equal(t, w.Address(), loaded.Address())

	_, err = km.Load(w.Address(), "wrong")
	assert.Error(t, err)
}
