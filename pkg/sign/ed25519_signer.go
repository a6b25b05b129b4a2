package sign

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// Ensure our types implement the interfaces at compile time.
var _ Signer = (*Ed25519Signer)(nil)
var _ PublicKey = (*Ed25519PublicKey)(nil)
var _ Address = (*OctraAddress)(nil)

// AddressPrefix starts every Octra account address.
const AddressPrefix = "oct"

const addressBodyLen = 44

var addressPattern = regexp.MustCompile(`^oct[1-9A-HJ-NP-Za-km-z]{44}$`)

// OctraAddress implements the Address interface for Octra accounts.
type OctraAddress string

func (a OctraAddress) String() string { return string(a) }

// Equals returns true if this address equals the other address.
func (a OctraAddress) Equals(other Address) bool {
	if other == nil {
		return false
	}
	return a.String() == other.String()
}

// Valid reports whether the address has the "oct" prefix followed by 44 base58 characters.
func (a OctraAddress) Valid() bool {
	return addressPattern.MatchString(string(a))
}

// IsValidAddress reports whether s is a well formed Octra address.
func IsValidAddress(s string) bool {
	return OctraAddress(s).Valid()
}

// AddressFromPublicKey derives the account address of an Ed25519 public key.
// Digests that encode to fewer than 44 base58 characters are left padded
// with the base58 zero digit so every address has the same length.
func AddressFromPublicKey(pub ed25519.PublicKey) OctraAddress {
	sum := sha256.Sum256(pub)
	encoded := base58.Encode(sum[:])
	if n := addressBodyLen - len(encoded); n > 0 {
		encoded = strings.Repeat("1", n) + encoded
	}
	return OctraAddress(AddressPrefix + encoded)
}

// Ed25519PublicKey implements the PublicKey interface.
type Ed25519PublicKey struct{ ed25519.PublicKey }

func (p Ed25519PublicKey) Address() Address { return AddressFromPublicKey(p.PublicKey) }
func (p Ed25519PublicKey) Bytes() []byte    { return []byte(p.PublicKey) }

// Base64 returns the key in the encoding used by the "public_key" transaction field.
func (p Ed25519PublicKey) Base64() string {
	return base64.StdEncoding.EncodeToString(p.PublicKey)
}

// Ed25519Signer is the Ed25519 implementation of the Signer interface.
type Ed25519Signer struct {
	privateKey ed25519.PrivateKey
	publicKey  Ed25519PublicKey
}

func (s *Ed25519Signer) PublicKey() PublicKey { return s.publicKey }

// Sign signs the raw message. Ed25519 hashes internally, so callers pass the
// message itself rather than a digest.
func (s *Ed25519Signer) Sign(data []byte) (Signature, error) {
	return Signature(ed25519.Sign(s.privateKey, data)), nil
}

// NewEd25519SignerFromSeed creates a signer from a 32 byte seed.
func NewEd25519SignerFromSeed(seed []byte) (*Ed25519Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d bytes, got %d", ErrInvalidKey, ed25519.SeedSize, len(seed))
	}
	key := ed25519.NewKeyFromSeed(seed)
	return &Ed25519Signer{
		privateKey: key,
		publicKey:  Ed25519PublicKey{key.Public().(ed25519.PublicKey)},
	}, nil
}

// NewEd25519Signer creates a signer from a base64 encoded private key. Both
// the 32 byte seed stored in wallet files and the 64 byte expanded form are
// accepted.
func NewEd25519Signer(privB64 string) (*Ed25519Signer, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(privB64))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err.Error())
	}

	switch len(raw) {
	case ed25519.SeedSize:
		return NewEd25519SignerFromSeed(raw)
	case ed25519.PrivateKeySize:
		return NewEd25519SignerFromSeed(raw[:ed25519.SeedSize])
	default:
		return nil, fmt.Errorf("%w: unexpected key length %d", ErrInvalidKey, len(raw))
	}
}

// Verify checks an Ed25519 signature against the given public key.
func Verify(pub []byte, data []byte, sig Signature) bool {
	if len(pub) != ed25519.PublicKeySize || sig.Type() != TypeEd25519 {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), data, sig)
}
