package state_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/startrail/starregistry/foundation/ledger/challenge"
	"github.com/startrail/starregistry/foundation/ledger/database"
	"github.com/startrail/starregistry/foundation/ledger/database/storage/memory"
	"github.com/startrail/starregistry/foundation/ledger/genesis"
	"github.com/startrail/starregistry/foundation/ledger/signature"
	"github.com/startrail/starregistry/foundation/ledger/state"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

var gen = genesis.Genesis{
	ChainID:         1,
	ChallengeWindow: 300,
	Data:            "Genesis Block",
}

// =============================================================================

func Test_SubmitStar(t *testing.T) {
	st := newState(t)
	defer st.Shutdown()

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}
	account := database.PublicKeyToAccountID(pk.PublicKey)

	t.Log("Given the need to submit a star through the ownership gate.")
	{
		message := st.RequestChallenge(account)

		sig, err := signature.Sign(message, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the challenge: %s", failed, err)
		}

		star := database.Star{RA: "16h 29m 1.0s", Dec: "-26° 29' 24.9", Story: "Found my star"}

		before := st.Height()
		block, err := st.SubmitStar(account, message, sig, star)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to submit a valid star: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to submit a valid star.", success)

		if block.Header.Number != before+1 {
			t.Fatalf("\t%s\tShould commit at the next height: got %d, exp %d", failed, block.Header.Number, before+1)
		}
		t.Logf("\t%s\tShould commit at the next height.", success)

		payload, err := block.DecodePayload()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to decode the committed payload: %s", failed, err)
		}
		if payload.Owner != account {
			t.Fatalf("\t%s\tShould record the submitting account as owner: got %s", failed, payload.Owner)
		}
		t.Logf("\t%s\tShould record the submitting account as owner.", success)

		if errs := st.ValidateChain(); len(errs) != 0 {
			t.Fatalf("\t%s\tShould have a valid chain after the submission: got %d errors", failed, len(errs))
		}
		t.Logf("\t%s\tShould have a valid chain after the submission.", success)

		stars, err := st.QueryStarsByOwner(account)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to query the owner's stars: %s", failed, err)
		}
		if len(stars) != 1 || stars[0].Story != star.Story {
			t.Fatalf("\t%s\tShould find the submitted star for the owner: got %d", failed, len(stars))
		}
		t.Logf("\t%s\tShould find the submitted star for the owner.", success)

		// The same signed challenge must not authorize a second submission.
		if _, err := st.SubmitStar(account, message, sig, star); !errors.Is(err, state.ErrReplayed) {
			t.Fatalf("\t%s\tShould reject a replayed challenge: got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a replayed challenge.", success)
	}
}

func Test_SubmitStarRejections(t *testing.T) {
	st := newState(t)
	defer st.Shutdown()

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}
	account := database.PublicKeyToAccountID(pk.PublicKey)
	star := database.Star{RA: "1h", Dec: "2d", Story: "rejected"}

	t.Log("Given the need to reject submissions that fail the ownership gate.")
	{
		// Challenge issued past the validity window.
		expired := fmt.Sprintf("%s:%d:starRegistry", account, time.Now().Add(-400*time.Second).Unix())
		sig, err := signature.Sign(expired, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the challenge: %s", failed, err)
		}

		before := st.Height()
		if _, err := st.SubmitStar(account, expired, sig, star); !errors.Is(err, challenge.ErrExpired) {
			t.Fatalf("\t%s\tShould reject an expired challenge: got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an expired challenge.", success)

		// Signature produced by a different key.
		otherPK, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a key: %s", failed, err)
		}
		message := st.RequestChallenge(account)
		sig, err = signature.Sign(message, otherPK)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the challenge: %s", failed, err)
		}
		if _, err := st.SubmitStar(account, message, sig, star); !errors.Is(err, challenge.ErrInvalidSignature) {
			t.Fatalf("\t%s\tShould reject a foreign signature: got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a foreign signature.", success)

		if h := st.Height(); h != before {
			t.Fatalf("\t%s\tShould leave the chain height unchanged: got %d, exp %d", failed, h, before)
		}
		t.Logf("\t%s\tShould leave the chain height unchanged.", success)
	}
}

func Test_ConcurrentSubmissions(t *testing.T) {
	st := newState(t)
	defer st.Shutdown()

	const submissions = 25

	t.Log("Given the need to serialize concurrent submissions.")
	{
		var wg sync.WaitGroup
		wg.Add(submissions)

		errCh := make(chan error, submissions)

		for i := 0; i < submissions; i++ {
			go func(i int) {
				defer wg.Done()

				pk, err := crypto.GenerateKey()
				if err != nil {
					errCh <- err
					return
				}
				account := database.PublicKeyToAccountID(pk.PublicKey)

				message := st.RequestChallenge(account)
				sig, err := signature.Sign(message, pk)
				if err != nil {
					errCh <- err
					return
				}

				star := database.Star{RA: "1h", Dec: "2d", Story: fmt.Sprintf("star %d", i)}
				if _, err := st.SubmitStar(account, message, sig, star); err != nil {
					errCh <- err
				}
			}(i)
		}

		wg.Wait()
		close(errCh)

		for err := range errCh {
			t.Fatalf("\t%s\tShould be able to submit concurrently: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to submit concurrently.", success)

		if h := st.Height(); h != submissions {
			t.Fatalf("\t%s\tShould commit one block per submission: got height %d, exp %d", failed, h, submissions)
		}
		t.Logf("\t%s\tShould commit one block per submission.", success)

		for num := uint64(0); num <= st.Height(); num++ {
			block, err := st.QueryBlockByNumber(num)
			if err != nil {
				t.Fatalf("\t%s\tShould have contiguous block numbers: missing %d: %s", failed, num, err)
			}
			if block.Header.Number != num {
				t.Fatalf("\t%s\tShould have contiguous block numbers: got %d at %d", failed, block.Header.Number, num)
			}
		}
		t.Logf("\t%s\tShould have contiguous block numbers.", success)

		if errs := st.ValidateChain(); len(errs) != 0 {
			t.Fatalf("\t%s\tShould have a fully valid chain afterwards: got %d errors", failed, len(errs))
		}
		t.Logf("\t%s\tShould have a fully valid chain afterwards.", success)
	}
}

// =============================================================================

func newState(t *testing.T) *state.State {
	t.Helper()

	strg, err := memory.New()
	if err != nil {
		t.Fatalf("Should be able to construct storage: %s", err)
	}

	st, err := state.New(state.Config{
		Genesis: gen,
		Storage: strg,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}

	return st
}
