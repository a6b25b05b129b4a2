// Package wallet reads and writes Octra wallet files and derives wallets
// from BIP-39 mnemonics.
package wallet

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/woonieit/octra/pkg/sign"
)

// DefaultRPC is the node used when a wallet file does not name one.
const DefaultRPC = "https://octra.network"

var ErrInvalidWallet = errors.New("invalid wallet file")

// File is the on-disk wallet.json layout.
type File struct {
	Priv string `json:"priv" validate:"required,base64"`
	Addr string `json:"addr" validate:"required,startswith=oct"`
	RPC  string `json:"rpc,omitempty" validate:"omitempty,url"`
}

// Wallet is a loaded wallet ready for signing.
type Wallet struct {
	Signer        sign.Signer
	Address       string
	RPCURL        string
	PrivateKeyB64 string
	PublicKeyB64  string

	// AddressMismatch is set when the stored address differs from the one
	// derived from the key. The stored address is still used as the sender.
	AddressMismatch bool
}

var validate = validator.New()

// Validate checks that the file holds a private key and an Octra address.
// The address is not checked against the canonical form: files written by
// other tools may carry an unpadded address, which Load reports through
// Wallet.AddressMismatch instead.
func (f File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidWallet, err.Error())
	}
	return nil
}

// Load reads a wallet file and builds its signer.
func Load(path string) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWallet, err.Error())
	}
	return FromFile(f)
}

// FromFile builds a wallet from already decoded file contents.
func FromFile(f File) (*Wallet, error) {
	f.Priv = strings.TrimSpace(f.Priv)
	f.Addr = strings.TrimSpace(f.Addr)
	if f.RPC == "" {
		f.RPC = DefaultRPC
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	signer, err := sign.NewEd25519Signer(f.Priv)
	if err != nil {
		return nil, err
	}

	pub := signer.PublicKey()
	return &Wallet{
		Signer:          signer,
		Address:         f.Addr,
		RPCURL:          strings.TrimRight(f.RPC, "/"),
		PrivateKeyB64:   f.Priv,
		PublicKeyB64:    base64.StdEncoding.EncodeToString(pub.Bytes()),
		AddressMismatch: pub.Address().String() != f.Addr,
	}, nil
}

// File returns the wallet in its on-disk form.
func (w *Wallet) File() File {
	return File{Priv: w.PrivateKeyB64, Addr: w.Address, RPC: w.RPCURL}
}

// Save writes the wallet file with owner-only permissions.
func Save(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode wallet: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create wallet directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write wallet file: %w", err)
	}
	return nil
}

// ExportFileName is the name of a wallet backup created at now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("octra_wallet_%d.json", now.Unix())
}
