package database_test

import (
	"errors"
	"testing"

	"github.com/startrail/starregistry/foundation/ledger/database"
	"github.com/startrail/starregistry/foundation/ledger/database/storage/memory"
	"github.com/startrail/starregistry/foundation/ledger/genesis"
	"github.com/startrail/starregistry/foundation/ledger/signature"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const owner = database.AccountID("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")

var gen = genesis.Genesis{
	ChainID: 1,
	Data:    "Genesis Block",
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to initialize a fresh chain.")
	{
		db := newDatabase(t)

		if h := db.Height(); h != 0 {
			t.Fatalf("\t%s\tShould have height 0 after initialization: got %d", failed, h)
		}
		t.Logf("\t%s\tShould have height 0 after initialization.", success)

		block := db.LatestBlock()
		if block.Header.PrevBlockHash != signature.ZeroHash {
			t.Fatalf("\t%s\tShould have the zero hash as the genesis parent: got %s", failed, block.Header.PrevBlockHash)
		}
		t.Logf("\t%s\tShould have the zero hash as the genesis parent.", success)

		payload, err := block.DecodePayload()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to decode the genesis payload: %s", failed, err)
		}
		if payload.Data != "Genesis Block" {
			t.Fatalf("\t%s\tShould carry the genesis marker: got %q", failed, payload.Data)
		}
		t.Logf("\t%s\tShould carry the genesis marker.", success)

		if errs := db.Validate(); len(errs) != 0 {
			t.Fatalf("\t%s\tShould validate clean after initialization: got %d errors", failed, len(errs))
		}
		t.Logf("\t%s\tShould validate clean after initialization.", success)
	}
}

func Test_GenesisIdempotent(t *testing.T) {
	t.Log("Given the need to reconstruct the database over existing storage.")
	{
		strg, err := memory.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct storage: %s", failed, err)
		}

		db, err := database.New(gen, strg, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the database: %s", failed, err)
		}

		appendStar(t, db, "Orion story")

		db2, err := database.New(gen, strg, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to reconstruct the database: %s", failed, err)
		}

		if h := db2.Height(); h != 1 {
			t.Fatalf("\t%s\tShould keep the existing chain, no second genesis: got height %d", failed, h)
		}
		t.Logf("\t%s\tShould keep the existing chain, no second genesis.", success)

		if errs := db2.Validate(); len(errs) != 0 {
			t.Fatalf("\t%s\tShould validate clean after reconstruction: got %d errors", failed, len(errs))
		}
		t.Logf("\t%s\tShould validate clean after reconstruction.", success)
	}
}

func Test_AppendAndLookup(t *testing.T) {
	t.Log("Given the need to append star blocks and look them up.")
	{
		db := newDatabase(t)

		stories := []string{"first star", "second star", "third star"}
		for _, story := range stories {
			appendStar(t, db, story)

			if errs := db.Validate(); len(errs) != 0 {
				t.Fatalf("\t%s\tShould validate clean after every append: got %d errors", failed, len(errs))
			}
		}
		t.Logf("\t%s\tShould validate clean after every append.", success)

		if h := db.Height(); h != uint64(len(stories)) {
			t.Fatalf("\t%s\tShould have one block per append: got height %d", failed, h)
		}
		t.Logf("\t%s\tShould have one block per append.", success)

		for num := uint64(0); num <= db.Height(); num++ {
			byNum, err := db.GetBlock(num)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to get block %d by number: %s", failed, num, err)
			}

			byHash, err := db.GetBlockByHash(byNum.Hash)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to get block %d by hash: %s", failed, num, err)
			}

			if byNum != byHash {
				t.Fatalf("\t%s\tShould get the identical block by number and by hash for block %d.", failed, num)
			}
		}
		t.Logf("\t%s\tShould get the identical block by number and by hash.", success)

		if _, err := db.GetBlock(db.Height() + 1); !errors.Is(err, database.ErrNotFound) {
			t.Fatalf("\t%s\tShould get not found past the chain height: got %v", failed, err)
		}
		t.Logf("\t%s\tShould get not found past the chain height.", success)

		if _, err := db.GetBlockByHash(signature.ZeroHash); !errors.Is(err, database.ErrNotFound) {
			t.Fatalf("\t%s\tShould get not found for an unknown hash: got %v", failed, err)
		}
		t.Logf("\t%s\tShould get not found for an unknown hash.", success)
	}
}

func Test_TamperDetection(t *testing.T) {
	t.Log("Given the need to detect a mutated committed block.")
	{
		db := newDatabase(t)
		appendStar(t, db, "first star")
		appendStar(t, db, "second star")

		blocks := db.CopyBlocks()

		// Flip one byte of the payload of block 1.
		body := []byte(blocks[1].Body)
		last := len(body) - 1
		if body[last] == 'a' {
			body[last] = 'b'
		} else {
			body[last] = 'a'
		}
		blocks[1].Body = string(body)

		errs := database.ValidateBlocks(blocks)
		if len(errs) != 1 {
			t.Fatalf("\t%s\tShould report exactly one error for one mutated field: got %d", failed, len(errs))
		}
		t.Logf("\t%s\tShould report exactly one error for one mutated field.", success)

		if errs[0].Number != 1 {
			t.Fatalf("\t%s\tShould identify the mutated block's number: got %d", failed, errs[0].Number)
		}
		t.Logf("\t%s\tShould identify the mutated block's number.", success)

		if errs := db.Validate(); len(errs) != 0 {
			t.Fatalf("\t%s\tShould leave the committed chain untouched: got %d errors", failed, len(errs))
		}
		t.Logf("\t%s\tShould leave the committed chain untouched.", success)
	}
}

func Test_StarsByOwner(t *testing.T) {
	t.Log("Given the need to query stars by owner.")
	{
		db := newDatabase(t)

		stars, err := db.StarsByOwner(owner)
		if err != nil {
			t.Fatalf("\t%s\tShould not error when no stars match: %s", failed, err)
		}
		if len(stars) != 0 {
			t.Fatalf("\t%s\tShould get an empty sequence when no stars match: got %d", failed, len(stars))
		}
		t.Logf("\t%s\tShould get an empty sequence when no stars match.", success)

		appendStar(t, db, "mine")

		other := database.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
		block, err := database.NewBlock(database.NewStarPayload(other, database.Star{RA: "1h", Dec: "2d", Story: "theirs"}))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a block: %s", failed, err)
		}
		if _, err := db.Append(block); err != nil {
			t.Fatalf("\t%s\tShould be able to append a block: %s", failed, err)
		}

		stars, err = db.StarsByOwner(owner)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to query stars by owner: %s", failed, err)
		}
		if len(stars) != 1 || stars[0].Story != "mine" {
			t.Fatalf("\t%s\tShould get back only the owner's stars: got %d", failed, len(stars))
		}
		t.Logf("\t%s\tShould get back only the owner's stars.", success)
	}
}

func Test_PayloadDecodeError(t *testing.T) {
	t.Log("Given the need to reject a corrupted block body.")
	{
		block := database.Block{Body: "not hex at all"}

		if _, err := block.DecodePayload(); !errors.Is(err, database.ErrDecode) {
			t.Fatalf("\t%s\tShould get a decode error for a corrupted body: got %v", failed, err)
		}
		t.Logf("\t%s\tShould get a decode error for a corrupted body.", success)
	}
}

// =============================================================================

func newDatabase(t *testing.T) *database.Database {
	t.Helper()

	strg, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct storage: %s", failed, err)
	}

	db, err := database.New(gen, strg, nil)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the database: %s", failed, err)
	}

	return db
}

func appendStar(t *testing.T, db *database.Database, story string) database.Block {
	t.Helper()

	star := database.Star{
		RA:    "16h 29m 1.0s",
		Dec:   "-26° 29' 24.9",
		Story: story,
	}

	block, err := database.NewBlock(database.NewStarPayload(owner, star))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a block: %s", failed, err)
	}

	block, err = db.Append(block)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to append a block: %s", failed, err)
	}

	return block
}
