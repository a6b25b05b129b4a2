package sign

import (
	"fmt"
	"sync"
)

var _ Signer = (*MockSigner)(nil)

// MockSigner signs by appending "-signed-by-<address>" to the payload and
// remembers every payload it was asked to sign. Setting Err makes Sign fail.
type MockSigner struct {
	publicKey *MockPublicKey
	Err       error

	mu       sync.Mutex
	payloads [][]byte
}

// NewMockSigner creates a MockSigner whose address is address.
func NewMockSigner(address string) *MockSigner {
	return &MockSigner{publicKey: NewMockPublicKey(address)}
}

func (m *MockSigner) Sign(data []byte) (Signature, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	m.payloads = append(m.payloads, append([]byte(nil), data...))
	m.mu.Unlock()

	return Signature(fmt.Appendf(append([]byte(nil), data...), "-signed-by-%s", m.publicKey.address)), nil
}

func (m *MockSigner) PublicKey() PublicKey {
	return m.publicKey
}

// Payloads returns copies of the payloads signed so far, in order.
func (m *MockSigner) Payloads() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.payloads...)
}

var _ PublicKey = (*MockPublicKey)(nil)

// MockPublicKey uses the address text as its key bytes.
type MockPublicKey struct {
	address OctraAddress
}

func NewMockPublicKey(address string) *MockPublicKey {
	return &MockPublicKey{address: OctraAddress(address)}
}

func (m *MockPublicKey) Address() Address { return m.address }

func (m *MockPublicKey) Bytes() []byte { return []byte(m.address) }
