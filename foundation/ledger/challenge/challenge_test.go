package challenge_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/startrail/starregistry/foundation/ledger/challenge"
	"github.com/startrail/starregistry/foundation/ledger/database"
	"github.com/startrail/starregistry/foundation/ledger/signature"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	account  = database.AccountID("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
)

const window = 300 * time.Second

// =============================================================================

func Test_Issue(t *testing.T) {
	t.Log("Given the need to issue a challenge message.")
	{
		message := challenge.Issue(account)

		parts := strings.Split(message, ":")
		if len(parts) != 3 {
			t.Fatalf("\t%s\tShould issue a three part message: got %q", failed, message)
		}
		t.Logf("\t%s\tShould issue a three part message.", success)

		if parts[0] != string(account) || parts[2] != "starRegistry" {
			t.Fatalf("\t%s\tShould carry the account and the registry marker: got %q", failed, message)
		}
		t.Logf("\t%s\tShould carry the account and the registry marker.", success)

		issuedAt, err := challenge.IssuedAt(message)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse the issuance time: %s", failed, err)
		}
		if d := time.Since(issuedAt); d < 0 || d > time.Minute {
			t.Fatalf("\t%s\tShould carry the current time: got %v ago", failed, d)
		}
		t.Logf("\t%s\tShould carry the current time.", success)
	}
}

func Test_Verify(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	t.Log("Given the need to verify a signed challenge.")
	{
		message := challenge.Issue(account)

		sig, err := signature.Sign(message, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the message: %s", failed, err)
		}

		if err := challenge.Verify(account, message, sig, window); err != nil {
			t.Fatalf("\t%s\tShould accept a valid signature inside the window: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept a valid signature inside the window.", success)
	}
}

func Test_VerifyRejections(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	t.Log("Given the need to reject bad submissions.")
	{
		// Malformed message.
		err := challenge.Verify(account, "nonsense", "0x00", window)
		if !errors.Is(err, challenge.ErrMalformedMessage) {
			t.Fatalf("\t%s\tShould reject a malformed message: got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a malformed message.", success)

		// Message with a non numeric timestamp.
		err = challenge.Verify(account, fmt.Sprintf("%s:abc:starRegistry", account), "0x00", window)
		if !errors.Is(err, challenge.ErrMalformedMessage) {
			t.Fatalf("\t%s\tShould reject a non numeric timestamp: got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a non numeric timestamp.", success)

		// Message issued past the validity window.
		expired := fmt.Sprintf("%s:%d:starRegistry", account, time.Now().Add(-400*time.Second).Unix())
		sig, err := signature.Sign(expired, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the message: %s", failed, err)
		}
		err = challenge.Verify(account, expired, sig, window)
		if !errors.Is(err, challenge.ErrExpired) {
			t.Fatalf("\t%s\tShould reject an expired challenge: got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an expired challenge.", success)

		// Signature produced by a different key.
		otherPK, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a key: %s", failed, err)
		}
		message := challenge.Issue(account)
		sig, err = signature.Sign(message, otherPK)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the message: %s", failed, err)
		}
		err = challenge.Verify(account, message, sig, window)
		if !errors.Is(err, challenge.ErrInvalidSignature) {
			t.Fatalf("\t%s\tShould reject a signature from another account: got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a signature from another account.", success)

		// Tampered signature bytes.
		sig, err = signature.Sign(message, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the message: %s", failed, err)
		}
		tampered := []byte(sig)
		if tampered[5] == 'a' {
			tampered[5] = 'b'
		} else {
			tampered[5] = 'a'
		}
		err = challenge.Verify(account, message, string(tampered), window)
		if !errors.Is(err, challenge.ErrInvalidSignature) {
			t.Fatalf("\t%s\tShould reject a tampered signature: got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a tampered signature.", success)
	}
}
