package tx

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/woonieit/octra/pkg/sign"
)

// Transaction is a transfer as submitted to POST /send-tx. The field order
// matters: the signature covers the compact JSON encoding of the first six
// fields exactly as declared here.
type Transaction struct {
	From      string    `json:"from"`
	To        string    `json:"to_"`
	Amount    string    `json:"amount"`
	Nonce     uint64    `json:"nonce"`
	OU        string    `json:"ou"`
	Timestamp Timestamp `json:"timestamp"`

	Signature string `json:"signature,omitempty"`
	PublicKey string `json:"public_key,omitempty"`
}

// Timestamp is a unix time in fractional seconds. It encodes in the shortest
// form that round-trips, without exponent.
type Timestamp float64

func (t Timestamp) MarshalJSON() ([]byte, error) {
	s := strconv.FormatFloat(float64(t), 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return []byte(s), nil
}

// Time converts the timestamp back to a time.Time.
func (t Timestamp) Time() time.Time {
	sec := int64(t)
	nsec := int64((float64(t) - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

// NewTimestamp converts a time into a Timestamp with microsecond precision.
func NewTimestamp(now time.Time) Timestamp {
	return Timestamp(float64(now.UnixMicro()) / 1e6)
}

// Build creates an unsigned transfer of amount OCT from one address to
// another. A sub 10ms jitter is added to the timestamp so that transfers
// built in the same instant still hash differently.
func Build(from, to string, amount decimal.Decimal, nonce uint64, now time.Time) (Transaction, error) {
	if err := ValidateAddress(to); err != nil {
		return Transaction{}, err
	}
	if err := ValidateAmount(amount); err != nil {
		return Transaction{}, err
	}

	jitter := time.Duration(rand.Int64N(int64(10 * time.Millisecond)))
	return Transaction{
		From:      from,
		To:        to,
		Amount:    strconv.FormatInt(ToMicro(amount), 10),
		Nonce:     nonce,
		OU:        OU(amount),
		Timestamp: NewTimestamp(now.Add(jitter)),
	}, nil
}

// SigningBody returns the exact bytes that are signed and hashed.
func (t Transaction) SigningBody() ([]byte, error) {
	unsigned := t
	unsigned.Signature = ""
	unsigned.PublicKey = ""
	return json.Marshal(unsigned)
}

// Hash returns the hex encoded sha256 of the signing body.
func (t Transaction) Hash() (string, error) {
	body, err := t.SigningBody()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

// AmountOCT returns the transferred amount in OCT.
func (t Transaction) AmountOCT() decimal.Decimal {
	micro, err := strconv.ParseInt(t.Amount, 10, 64)
	if err != nil {
		return decimal.Zero
	}
	return FromMicro(micro)
}

// Signed is a transaction ready to be submitted together with its hash.
type Signed struct {
	Transaction
	Hash string `json:"-"`
}

// Sign signs the transaction body and attaches the signature and the
// signer's base64 public key.
func Sign(t Transaction, signer sign.Signer) (Signed, error) {
	body, err := t.SigningBody()
	if err != nil {
		return Signed{}, fmt.Errorf("failed to encode transaction: %w", err)
	}

	sig, err := signer.Sign(body)
	if err != nil {
		return Signed{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sum := sha256.Sum256(body)
	t.Signature = sig.String()
	t.PublicKey = encodePublicKey(signer.PublicKey())

	return Signed{Transaction: t, Hash: hex.EncodeToString(sum[:])}, nil
}

func encodePublicKey(pub sign.PublicKey) string {
	return base64.StdEncoding.EncodeToString(pub.Bytes())
}

// Verify checks the attached signature against the attached public key.
func (s Signed) Verify() bool {
	pub, err := base64.StdEncoding.DecodeString(s.PublicKey)
	if err != nil {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(s.Signature)
	if err != nil {
		return false
	}
	body, err := s.SigningBody()
	if err != nil {
		return false
	}
	return sign.Verify(pub, body, sign.Signature(sig))
}
