// Package sign provides the signing interfaces used by the octra client.
//
// The interfaces keep private key material out of the rest of the code base:
// callers get a Signer that can produce signatures and expose its PublicKey,
// and nothing else.
//
//   - Signer: signs raw message bytes
//   - PublicKey: exposes the key bytes and the derived Address
//   - Address: an Octra account address ("oct" + base58(sha256(pubkey)))
//
// Usage
//
//	signer, err := sign.NewEd25519Signer(privB64)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sig, err := signer.Sign([]byte(`{"from":"oct..."}`))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Address:", signer.PublicKey().Address())
//	fmt.Println("Signature:", sig) // base64
package sign
