// Package database owns the hash-linked chain of blocks: the append
// protocol, chain-wide validation, and read access by number, hash and
// owner. The chain itself lives in memory with the storage interface
// isolated so a durable implementation can be swapped in.
package database

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/startrail/starregistry/foundation/ledger/genesis"
	"github.com/startrail/starregistry/foundation/ledger/signature"
)

// ErrNotFound is returned from the lookup operations when no block matches.
var ErrNotFound = errors.New("block not found")

// ErrValidationFailed is returned from Append when the candidate block does
// not extend the chain consistently. The chain is left unmodified.
var ErrValidationFailed = errors.New("chain validation failed")

// =============================================================================

// Storage interface represents the behavior required to be implemented by
// any package providing support for storing and reading the chain.
type Storage interface {
	Write(block Block) error
	GetBlock(num uint64) (Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by
// any package providing support to iterate over the stored blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// =============================================================================

// ValidateError reports a single chain inconsistency tagged with the number
// of the offending block.
type ValidateError struct {
	Number uint64
	Err    error
}

// Error implements the error interface.
func (ve ValidateError) Error() string {
	return fmt.Sprintf("block %d: %s", ve.Number, ve.Err)
}

// =============================================================================

// Database manages the ordered, append-only sequence of blocks.
type Database struct {
	mu        sync.RWMutex
	genesis   genesis.Genesis
	blocks    []Block
	byHash    map[string]uint64
	storage   Storage
	evHandler func(v string, args ...any)
}

// New constructs the database, reads any blocks already held by the storage
// and commits the genesis block when the chain is empty. Construction is
// idempotent with respect to genesis: a populated chain is left untouched.
func New(gen genesis.Genesis, storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	db := Database{
		genesis:   gen,
		byHash:    make(map[string]uint64),
		storage:   storage,
		evHandler: func(v string, args ...any) {},
	}
	if evHandler != nil {
		db.evHandler = evHandler
	}

	// Load all existing blocks from storage into memory for processing.
	iter := storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		var prevBlock Block
		if len(db.blocks) > 0 {
			prevBlock = db.blocks[len(db.blocks)-1]
		}

		if err := block.ValidateBlock(prevBlock); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err)
		}

		db.blocks = append(db.blocks, block)
		db.byHash[block.Hash] = block.Header.Number
	}

	// A chain is never empty after construction.
	if len(db.blocks) == 0 {
		block, err := NewBlock(NewGenesisPayload(gen.Data))
		if err != nil {
			return nil, err
		}

		if _, err := db.Append(block); err != nil {
			return nil, err
		}

		db.evHandler("database: New: genesis block committed")
	}

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() {
	db.storage.Close()
}

// Height returns the number of the last block in the chain.
func (db *Database) Height() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return uint64(len(db.blocks)) - 1
}

// LatestBlock returns the current tail of the chain.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.blocks[len(db.blocks)-1]
}

// Append assigns the chain context to the candidate block (number,
// timestamp, previous hash, content hash), validates the result and commits
// it. The whole sequence runs under the write lock so two concurrent appends
// can't both read the same tail. On any failure the chain is unmodified.
func (db *Database) Append(block Block) (Block, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var prevBlock Block
	block.Header.PrevBlockHash = signature.ZeroHash
	if len(db.blocks) > 0 {
		prevBlock = db.blocks[len(db.blocks)-1]
		block.Header.PrevBlockHash = prevBlock.Hash
	}

	block.Header.Number = uint64(len(db.blocks))
	block.Header.TimeStamp = uint64(time.Now().UTC().Unix())
	block.Hash = block.ContentHash()

	if err := block.ValidateBlock(prevBlock); err != nil {
		return Block{}, fmt.Errorf("%w: %s", ErrValidationFailed, err)
	}

	// The storage write happens before the in-memory commit so a storage
	// failure can't leave the two views out of sync.
	if err := db.storage.Write(block); err != nil {
		return Block{}, err
	}

	db.blocks = append(db.blocks, block)
	db.byHash[block.Hash] = block.Header.Number

	db.evHandler("database: Append: blk[%d]: hash[%s]", block.Header.Number, block.Hash)

	return block, nil
}

// Validate recomputes every block's content hash and checks every link in
// the chain, aggregating one error per inconsistency. An empty result means
// the chain is valid. This is a pure read and safe to run concurrently with
// other reads.
func (db *Database) Validate() []ValidateError {
	return ValidateBlocks(db.CopyBlocks())
}

// CopyBlocks returns a copy of the current chain.
func (db *Database) CopyBlocks() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocks := make([]Block, len(db.blocks))
	copy(blocks, db.blocks)

	return blocks
}

// GetBlock returns the block at the specified number.
func (db *Database) GetBlock(num uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if num >= uint64(len(db.blocks)) {
		return Block{}, ErrNotFound
	}

	return db.blocks[num], nil
}

// GetBlockByHash returns the unique block whose content hash matches the
// argument.
func (db *Database) GetBlockByHash(hash string) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	num, exists := db.byHash[hash]
	if !exists {
		return Block{}, ErrNotFound
	}

	return db.blocks[num], nil
}

// StarsByOwner decodes every block payload and collects the stars claimed
// by the specified account. The genesis block carries no owner and is
// skipped. No matches yields an empty slice, not an error.
func (db *Database) StarsByOwner(owner AccountID) ([]Star, error) {
	blocks := db.CopyBlocks()

	stars := []Star{}
	for _, block := range blocks[1:] {
		payload, err := block.DecodePayload()
		if err != nil {
			return nil, err
		}

		if payload.Star != nil && payload.Owner == owner {
			stars = append(stars, *payload.Star)
		}
	}

	return stars, nil
}

// =============================================================================

// ValidateBlocks runs the full chain validation over the specified sequence
// of blocks. Every inconsistency is reported, never just the first. Each
// block contributes at most one error so a single tampered field points at
// exactly one block number.
func ValidateBlocks(blocks []Block) []ValidateError {
	var errs []ValidateError

	for i, block := range blocks {
		if hash := block.ContentHash(); block.Hash != hash {
			errs = append(errs, ValidateError{
				Number: block.Header.Number,
				Err:    fmt.Errorf("stored hash doesn't match block content, got %s, exp %s", block.Hash, hash),
			})
			continue
		}

		if i == 0 {
			if block.Header.PrevBlockHash != signature.ZeroHash {
				errs = append(errs, ValidateError{
					Number: block.Header.Number,
					Err:    fmt.Errorf("genesis block must link to the zero hash, got %s", block.Header.PrevBlockHash),
				})
			}
			continue
		}

		if block.Header.PrevBlockHash != blocks[i-1].Hash {
			errs = append(errs, ValidateError{
				Number: block.Header.Number,
				Err:    fmt.Errorf("link to previous block is broken, got %s, exp %s", block.Header.PrevBlockHash, blocks[i-1].Hash),
			})
		}
	}

	return errs
}
