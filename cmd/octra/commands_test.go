package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woonieit/octra/pkg/wallet"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// setupWallet writes a wallet for node into a fresh config directory and
// returns the global flags selecting it.
func setupWallet(t *testing.T, node string) (*wallet.Generated, []string) {
	t.Helper()

	dir := t.TempDir()
	t.Setenv(logOutputEnv, filepath.Join(dir, "test.log"))

	g, err := wallet.FromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	path := filepath.Join(dir, "wallet.json")
	require.NoError(t, wallet.Save(path, g.File(node)))

	return g, []string{"--config-dir", dir, "--wallet", path}
}

type fakeNode struct {
	balance string
	reject  atomic.Bool
	sent    atomic.Int32
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasPrefix(r.URL.Path, "/balance/"):
		_, _ = w.Write([]byte(`{"balance":"` + n.balance + `","nonce":4}`))
	case r.URL.Path == "/staging":
		_, _ = w.Write([]byte(`{"staged_transactions":[]}`))
	case r.URL.Path == "/send-tx" && r.Method == http.MethodPost:
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if n.reject.Load() {
			http.Error(w, "duplicate nonce", http.StatusBadRequest)
			return
		}
		seq := n.sent.Add(1)
		_, _ = fmt.Fprintf(w, `{"status":"accepted","tx_hash":"hash%d","pool_info":{"total_pool_size":%d}}`, seq, seq)
	default:
		http.NotFound(w, r)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "octra dev\n", out)
}

func TestGenerateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.json")

	out, err := executeCommand(t, "", "generate", "--words", "24", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "mnemonic")
	assert.Contains(t, out, "wallet saved to")

	w, err := wallet.Load(path)
	require.NoError(t, err)
	assert.Contains(t, out, w.Address)
	assert.Equal(t, wallet.DefaultRPC, w.RPCURL)
	assert.False(t, w.AddressMismatch)

	t.Run("Refuses to overwrite", func(t *testing.T) {
		_, err := executeCommand(t, "", "generate", "--out", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--force")

		_, err = executeCommand(t, "", "generate", "--out", path, "--force")
		require.NoError(t, err)
	})

	t.Run("Invalid word count", func(t *testing.T) {
		_, err := executeCommand(t, "", "generate", "--words", "13")
		require.Error(t, err)
	})
}

func TestExportCommand(t *testing.T) {
	g, flags := setupWallet(t, wallet.DefaultRPC)

	t.Run("Address only", func(t *testing.T) {
		out, err := executeCommand(t, "", append(flags, "export")...)
		require.NoError(t, err)
		assert.Contains(t, out, g.Address)
		assert.NotContains(t, out, g.PrivateKey)
	})

	t.Run("Private key", func(t *testing.T) {
		out, err := executeCommand(t, "", append(flags, "export", "--show-private")...)
		require.NoError(t, err)
		assert.Contains(t, out, g.PrivateKey[:32])
		assert.Contains(t, out, g.PublicKey)
	})

	t.Run("File", func(t *testing.T) {
		dir := t.TempDir()
		out, err := executeCommand(t, "", append(flags, "export", "--file", "--dir", dir)...)
		require.NoError(t, err)
		assert.Contains(t, out, "saved to")

		matches, err := filepath.Glob(filepath.Join(dir, "octra_wallet_*.json"))
		require.NoError(t, err)
		require.Len(t, matches, 1)

		w, err := wallet.Load(matches[0])
		require.NoError(t, err)
		assert.Equal(t, g.Address, w.Address)
	})

	t.Run("Clipboard fallback", func(t *testing.T) {
		orig := writeClipboard
		t.Cleanup(func() { writeClipboard = orig })
		writeClipboard = func(string) error { return errors.New("no clipboard") }

		out, err := executeCommand(t, "", append(flags, "export", "--copy")...)
		require.NoError(t, err)
		assert.Contains(t, out, "clipboard not available")
		assert.Contains(t, out, g.Address)
	})

	t.Run("Missing wallet", func(t *testing.T) {
		_, err := executeCommand(t, "", "--config-dir", t.TempDir(), "--wallet", filepath.Join(t.TempDir(), "none.json"), "export")
		require.Error(t, err)
	})
}

func TestSendCommand(t *testing.T) {
	node := &fakeNode{balance: "100"}
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)

	_, flags := setupWallet(t, srv.URL)
	peer, err := wallet.Generate(128)
	require.NoError(t, err)

	t.Run("Accepted", func(t *testing.T) {
		out, err := executeCommand(t, "", append(flags, "send", peer.Address, "1.5", "--yes")...)
		require.NoError(t, err)
		assert.Contains(t, out, "transaction accepted")
		assert.Contains(t, out, "hash: hash1")
		assert.Contains(t, out, "nonce: 5")
		assert.EqualValues(t, 1, node.sent.Load())
	})

	t.Run("Declined", func(t *testing.T) {
		before := node.sent.Load()
		out, err := executeCommand(t, "n\n", append(flags, "send", peer.Address, "1")...)
		require.NoError(t, err)
		assert.NotContains(t, out, "transaction accepted")
		assert.Equal(t, before, node.sent.Load())
	})

	t.Run("Invalid address", func(t *testing.T) {
		_, err := executeCommand(t, "", append(flags, "send", "oct123", "1", "--yes")...)
		require.Error(t, err)
	})

	t.Run("Insufficient balance", func(t *testing.T) {
		_, err := executeCommand(t, "", append(flags, "send", peer.Address, "1000", "--yes")...)
		require.Error(t, err)
	})

	t.Run("Rejected", func(t *testing.T) {
		node.reject.Store(true)
		t.Cleanup(func() { node.reject.Store(false) })

		out, err := executeCommand(t, "", append(flags, "send", peer.Address, "1", "--yes")...)
		require.ErrorIs(t, err, errTransactionRejected)
		assert.Contains(t, out, "transaction failed")
		assert.Equal(t, 1, strings.Count(out, "duplicate nonce"))
	})
}

func TestMultiSendCommand(t *testing.T) {
	node := &fakeNode{balance: "100"}
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)

	_, flags := setupWallet(t, srv.URL)

	var lines []string
	for i := 0; i < 3; i++ {
		peer, err := wallet.Generate(128)
		require.NoError(t, err)
		lines = append(lines, peer.Address+" 2")
	}
	lines = append(lines, "not-an-address 1")

	path := filepath.Join(t.TempDir(), "recipients.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))

	out, err := executeCommand(t, "", append(flags, "multisend", path, "--yes")...)
	require.NoError(t, err)
	assert.Contains(t, out, "line 4")
	assert.Contains(t, out, "[3/3]")
	assert.Contains(t, out, "completed: 3 success, 0 failed")
	assert.EqualValues(t, 3, node.sent.Load())

	t.Run("Stdin needs --yes", func(t *testing.T) {
		_, err := executeCommand(t, lines[0]+"\n", append(flags, "multisend", "-")...)
		require.Error(t, err)
	})
}

func TestBalanceCommand(t *testing.T) {
	srv := httptest.NewServer(&fakeNode{balance: "12.5"})
	t.Cleanup(srv.Close)

	g, flags := setupWallet(t, srv.URL)

	out, err := executeCommand(t, "", append(flags, "balance")...)
	require.NoError(t, err)
	assert.Contains(t, out, g.Address)
	assert.Contains(t, out, "12.500000 oct")
	assert.Contains(t, out, g.PublicKey)
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, confirm(strings.NewReader("y\n"), &out, "go?"))
	assert.True(t, confirm(strings.NewReader("Y"), &out, "go?"))
	assert.False(t, confirm(strings.NewReader("yes\n"), &out, "go?"))
	assert.False(t, confirm(strings.NewReader(""), &out, "go?"))
}
