package storage

import (
	"encoding/base64"
	"path/filepath"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "octra.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedKey(b byte) string {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = b
	}
	return base64.StdEncoding.EncodeToString(seed)
}

func TestWallets(t *testing.T) {
	s := setupStorage(t)

	main, err := s.AddWallet("main", seedKey(1), "https://octra.network")
	require.NoError(t, err)
	assert.Len(t, main.Address, 47)

	_, err = s.AddWallet("alt", seedKey(2), "http://localhost:8080")
	require.NoError(t, err)

	t.Run("Rejects bad input", func(t *testing.T) {
		_, err := s.AddWallet("bad", "not-base64", "")
		assert.Error(t, err)

		_, err = s.AddWallet("", seedKey(3), "")
		assert.Error(t, err)

		_, err = s.AddWallet("main", seedKey(4), "")
		assert.Error(t, err, "duplicate name")

		_, err = s.AddWallet("copy", seedKey(1), "")
		assert.Error(t, err, "duplicate key")
	})

	wallets, err := s.GetWallets()
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, "alt", wallets[0].Name)
	assert.Equal(t, "main", wallets[1].Name)

	got, err := s.GetWalletByName("main")
	require.NoError(t, err)
	assert.Equal(t, *main, *got)

	require.NoError(t, s.DeleteWallet("main"))
	_, err = s.GetWalletByName("main")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteWallet("main"), ErrNotFound)
}

func TestHistory(t *testing.T) {
	s := setupStorage(t)
	base := time.Unix(1700000000, 0).UTC()

	entries := []HistoryEntryDTO{
		{Owner: "me", Hash: "a", Time: base, Amount: decimal.RequireFromString("1.5"), Peer: "p", Direction: "out", OK: true, Nonce: 1},
		{Owner: "me", Hash: "b", Time: base.Add(time.Minute), Amount: decimal.NewFromInt(2), Peer: "p", Direction: "in", OK: true, Epoch: 7},
		{Owner: "other", Hash: "a", Time: base, Amount: decimal.NewFromInt(3), Peer: "p", Direction: "in", OK: true},
	}
	require.NoError(t, s.SaveHistory(entries...))
	require.NoError(t, s.SaveHistory())

	got, err := s.GetHistory("me", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Hash)
	assert.Equal(t, uint64(7), got[0].Epoch)
	assert.Equal(t, "a", got[1].Hash)
	assert.True(t, decimal.RequireFromString("1.5").Equal(got[1].Amount))

	t.Run("Upsert", func(t *testing.T) {
		updated := entries[0]
		updated.Epoch = 9
		require.NoError(t, s.SaveHistory(updated))

		got, err := s.GetHistory("me", 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "b", got[0].Hash)

		got, err = s.GetHistory("me", 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, uint64(9), got[1].Epoch)
	})

	require.NoError(t, s.DeleteHistory("me"))
	got, err = s.GetHistory("me", 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.GetHistory("other", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestNodes(t *testing.T) {
	s := setupStorage(t)

	require.NoError(t, s.TouchNode("https://octra.network"))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.TouchNode("http://localhost:8080"))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.TouchNode("https://octra.network"))
	assert.Error(t, s.TouchNode(""))

	nodes, err := s.GetNodes()
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "https://octra.network", nodes[0].URL)
	assert.Equal(t, "http://localhost:8080", nodes[1].URL)
}

func TestMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "octra.db")

	s, err := NewStorage(path)
	require.NoError(t, err)
	_, err = s.AddWallet("main", seedKey(1), "https://octra.network")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening applies nothing new and keeps the data.
	s, err = NewStorage(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	sqlDB, err := s.db.DB()
	require.NoError(t, err)
	version, err := goose.GetDBVersion(sqlDB)
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)

	wallets, err := s.GetWallets()
	require.NoError(t, err)
	assert.Len(t, wallets, 1)
}
