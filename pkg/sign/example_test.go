package sign_test

import (
	"encoding/base64"
	"fmt"
	"log"

	"github.com/woonieit/octra/pkg/sign"
)

// ExampleNewEd25519Signer demonstrates creating a signer and signing a message.
func ExampleNewEd25519Signer() {
	seed := make([]byte, 32)
	signer, err := sign.NewEd25519Signer(base64.StdEncoding.EncodeToString(seed))
	if err != nil {
		log.Fatal(err)
	}

	message := []byte(`{"from":"oct..."}`)
	signature, err := signer.Sign(message)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Signature length:", len(signature))
	fmt.Println("Verified:", sign.Verify(signer.PublicKey().Bytes(), message, signature))
	// Output:
	// Signature length: 64
	// Verified: true
}

// ExampleSignature_String demonstrates the base64 form of a Signature.
func ExampleSignature_String() {
	sig := sign.Signature([]byte{0x01, 0x02, 0x03, 0x04})
	fmt.Println(sig.String())
	// Output:
	// AQIDBA==
}
