package database

import (
	"fmt"

	"github.com/startrail/starregistry/foundation/ledger/signature"
)

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number        uint64 `json:"number"`          // Position of the block in the chain. Zero is genesis.
	TimeStamp     uint64 `json:"timestamp"`       // Time the block was committed, in unix seconds.
	PrevBlockHash string `json:"prev_block_hash"` // Hash of the previous block in the chain.
}

// Block represents a single record in the chain. The header fields and hash
// are assigned by the chain at commit time, never by the caller. This keeps
// the hash computation over chain-assigned context that can't be forged.
type Block struct {
	Header BlockHeader `json:"header"`
	Hash   string      `json:"hash"` // Content hash, assigned at commit time.
	Body   string      `json:"body"` // Hex encoded JSON payload.
}

// NewBlock constructs a block holding the specified payload. The header and
// hash are left at their zero values for the chain to assign.
func NewBlock(payload Payload) (Block, error) {
	body, err := encodePayload(payload)
	if err != nil {
		return Block{}, err
	}

	return Block{
		Body: body,
	}, nil
}

// blockContent is the canonical serialized form the content hash covers.
// The stored hash itself is explicitly excluded.
type blockContent struct {
	Number        uint64 `json:"number"`
	TimeStamp     uint64 `json:"timestamp"`
	PrevBlockHash string `json:"prev_block_hash"`
	Body          string `json:"body"`
}

// ContentHash returns the deterministic hash over the block's header fields
// and body. The function is pure so validation can recompute it at any time.
func (b Block) ContentHash() string {
	return signature.Hash(blockContent{
		Number:        b.Header.Number,
		TimeStamp:     b.Header.TimeStamp,
		PrevBlockHash: b.Header.PrevBlockHash,
		Body:          b.Body,
	})
}

// DecodePayload returns the structured payload stored in the block body.
func (b Block) DecodePayload() (Payload, error) {
	return decodePayload(b.Body)
}

// ValidateBlock takes a block and validates it to be included into the
// chain directly after the specified previous block.
func (b Block) ValidateBlock(prevBlock Block) error {
	if b.Hash == "" || b.Hash == signature.ZeroHash {
		return fmt.Errorf("block has no content hash assigned")
	}

	if hash := b.ContentHash(); b.Hash != hash {
		return fmt.Errorf("block hash doesn't match block content, got %s, exp %s", b.Hash, hash)
	}

	if b.Header.Number == 0 {
		if b.Header.PrevBlockHash != signature.ZeroHash {
			return fmt.Errorf("genesis block must link to the zero hash, got %s", b.Header.PrevBlockHash)
		}
		return nil
	}

	if nextNumber := prevBlock.Header.Number + 1; b.Header.Number != nextNumber {
		return fmt.Errorf("this block is not the next number, got %d, exp %d", b.Header.Number, nextNumber)
	}

	if b.Header.PrevBlockHash != prevBlock.Hash {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.Header.PrevBlockHash, prevBlock.Hash)
	}

	return nil
}
