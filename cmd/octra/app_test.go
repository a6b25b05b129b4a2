package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woonieit/octra/pkg/wallet"
)

func TestAppNodeURL(t *testing.T) {
	_, flags := setupWallet(t, wallet.DefaultRPC+"/")
	dir := flags[1]

	t.Run("Wallet node", func(t *testing.T) {
		app, err := NewApp(Flags{ConfigDir: dir, Wallet: flags[3]}, io.Discard)
		require.NoError(t, err)
		defer app.Close()

		assert.Empty(t, app.NodeURL())
		require.NoError(t, app.OpenWallet())
		assert.Equal(t, wallet.DefaultRPC, app.NodeURL())
	})

	t.Run("Flag node with trailing slash", func(t *testing.T) {
		app, err := NewApp(Flags{ConfigDir: dir, Wallet: flags[3], RPC: "http://127.0.0.1:8080/"}, io.Discard)
		require.NoError(t, err)
		defer app.Close()

		require.NoError(t, app.OpenWallet())
		assert.Equal(t, "http://127.0.0.1:8080", app.NodeURL())

		nodes, err := app.store.GetNodes()
		require.NoError(t, err)
		urls := make([]string, 0, len(nodes))
		for _, n := range nodes {
			urls = append(urls, n.URL)
		}
		assert.Contains(t, urls, app.NodeURL())
	})
}
