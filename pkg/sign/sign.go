package sign

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidKey is returned when private key material cannot be decoded.
var ErrInvalidKey = errors.New("invalid private key")

// Signer is an interface for a signer that never exposes its private key.
type Signer interface {
	PublicKey() PublicKey                // Public key associated with this signer.
	Sign(data []byte) (Signature, error) // Sign generates a signature over the raw data.
}

// PublicKey is an interface for a public key.
type PublicKey interface {
	Address() Address
	Bytes() []byte
}

// Address is an interface for an account address.
type Address interface {
	fmt.Stringer

	// Equals returns true if this address equals the other address.
	Equals(other Address) bool
}

// Signature is a raw signature. Its text form is standard base64, which is
// what the Octra node expects in the "signature" field.
type Signature []byte

// Type represents the signature scheme detected from a signature.
type Type uint8

const (
	TypeEd25519 Type = iota
	TypeUnknown      = 255
)

// String returns the string representation of the algorithm.
func (t Type) String() string {
	switch t {
	case TypeEd25519:
		return "Ed25519"
	default:
		return "Unknown"
	}
}

// Type returns the signature type for this signature based on its length.
func (s Signature) Type() Type {
	if len(s) == 64 {
		return TypeEd25519
	}
	return TypeUnknown
}

// MarshalJSON encodes the signature as a base64 string.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var b64 string
	if err := json.Unmarshal(data, &b64); err != nil {
		return err
	}
	decoded, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", err)
	}
	*s = decoded
	return nil
}

// String implements the fmt.Stringer interface
func (s Signature) String() string {
	return base64.StdEncoding.EncodeToString(s)
}
