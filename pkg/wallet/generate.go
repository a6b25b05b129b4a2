package wallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"github.com/woonieit/octra/pkg/sign"
)

// masterKeySalt is the HMAC key used to turn a BIP-39 seed into the Octra
// master key.
const masterKeySalt = "Octra seed"

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// Generated is a freshly created wallet together with its recovery phrase.
type Generated struct {
	Mnemonic   string
	Seed       []byte
	PrivateKey string
	PublicKey  string
	Address    string
}

// File returns the generated wallet as a wallet file for the given node.
func (g Generated) File(rpc string) File {
	if rpc == "" {
		rpc = DefaultRPC
	}
	return File{Priv: g.PrivateKey, Addr: g.Address, RPC: rpc}
}

// Generate creates a new mnemonic with the given entropy and derives a wallet
// from it. Valid sizes are 128 to 256 bits in steps of 32.
func Generate(entropyBits int) (*Generated, error) {
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to create entropy: %w", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to create mnemonic: %w", err)
	}
	return FromMnemonic(mnemonic, "")
}

// FromMnemonic restores the wallet for a mnemonic and optional passphrase.
func FromMnemonic(mnemonic, passphrase string) (*Generated, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(mnemonic, passphrase)
	master := deriveMaster(seed)

	signer, err := sign.NewEd25519SignerFromSeed(master[:32])
	if err != nil {
		return nil, err
	}

	pub := signer.PublicKey()
	return &Generated{
		Mnemonic:   mnemonic,
		Seed:       seed,
		PrivateKey: base64.StdEncoding.EncodeToString(master[:32]),
		PublicKey:  base64.StdEncoding.EncodeToString(pub.Bytes()),
		Address:    pub.Address().String(),
	}, nil
}

func deriveMaster(seed []byte) []byte {
	mac := hmac.New(sha512.New, []byte(masterKeySalt))
	mac.Write(seed)
	return mac.Sum(nil)
}
