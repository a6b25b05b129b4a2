package wallet

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woonieit/octra/pkg/sign"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestFromMnemonic(t *testing.T) {
	g, err := FromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	assert.Equal(t, testMnemonic, g.Mnemonic)
	assert.Len(t, g.Seed, 64)
	assert.True(t, sign.IsValidAddress(g.Address), g.Address)

	seed, err := base64.StdEncoding.DecodeString(g.PrivateKey)
	require.NoError(t, err)
	assert.Len(t, seed, 32)
	assert.Equal(t, deriveMaster(g.Seed)[:32], seed)

	signer, err := sign.NewEd25519Signer(g.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, g.Address, signer.PublicKey().Address().String())
	assert.Equal(t, g.PublicKey, base64.StdEncoding.EncodeToString(signer.PublicKey().Bytes()))

	t.Run("Deterministic and whitespace tolerant", func(t *testing.T) {
		again, err := FromMnemonic("  "+strings.ReplaceAll(testMnemonic, " ", "   ")+"\n", "")
		require.NoError(t, err)
		assert.Equal(t, g.Address, again.Address)
		assert.Equal(t, g.PrivateKey, again.PrivateKey)
	})

	t.Run("Passphrase changes the wallet", func(t *testing.T) {
		other, err := FromMnemonic(testMnemonic, "TREZOR")
		require.NoError(t, err)
		assert.NotEqual(t, g.Address, other.Address)
	})

	t.Run("Rejects invalid phrases", func(t *testing.T) {
		_, err := FromMnemonic("abandon abandon abandon", "")
		assert.ErrorIs(t, err, ErrInvalidMnemonic)

		_, err = FromMnemonic(strings.Repeat("abandon ", 12), "")
		assert.ErrorIs(t, err, ErrInvalidMnemonic)
	})
}

func TestGenerate(t *testing.T) {
	for _, bits := range []int{128, 256} {
		g, err := Generate(bits)
		require.NoError(t, err)
		assert.Len(t, strings.Fields(g.Mnemonic), bits/32*3)

		f := g.File("")
		assert.Equal(t, DefaultRPC, f.RPC)
		require.NoError(t, f.Validate())

		w, err := FromFile(f)
		require.NoError(t, err)
		assert.False(t, w.AddressMismatch)
	}

	_, err := Generate(100)
	assert.Error(t, err)
}
