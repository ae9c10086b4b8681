package signature_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/startrail/starregistry/foundation/ledger/signature"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	from     = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	message := "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4:1700000000:starRegistry"

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig, err := signature.Sign(message, pk)
	if err != nil {
		t.Fatalf("Should be able to sign the message: %s", err)
	}

	if err := signature.VerifySignature(sig); err != nil {
		t.Fatalf("Should be able to verify the signature: %s", err)
	}

	addr, err := signature.FromAddress(message, sig)
	if err != nil {
		t.Fatalf("Should be able to recover the from address: %s", err)
	}

	if from != addr {
		t.Logf("got: %s", addr)
		t.Logf("exp: %s", from)
		t.Fatalf("Should get back the right address.")
	}
}

func Test_WrongMessage(t *testing.T) {
	message := "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4:1700000000:starRegistry"

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig, err := signature.Sign(message, pk)
	if err != nil {
		t.Fatalf("Should be able to sign the message: %s", err)
	}

	addr, err := signature.FromAddress(message+"tampered", sig)
	if err != nil {
		t.Fatalf("Should be able to run address recovery: %s", err)
	}

	if from == addr {
		t.Fatalf("Should not recover the signer address from a tampered message.")
	}
}

func Test_Hash(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}
	hash := "0x0f6887ac85101d6d6425a617edf35bd721b5f619fb92c36c3d2224e3bdb0ee5a"

	h := signature.Hash(value)
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the right hash: %s", h[:6])
	}

	h = signature.Hash(value)
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the same hash twice.")
	}
}
