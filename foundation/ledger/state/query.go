package state

import (
	"github.com/startrail/starregistry/foundation/ledger/database"
)

// Height returns the number of the latest block in the chain.
func (s *State) Height() uint64 {
	return s.db.Height()
}

// LatestBlock returns a copy of the current tail of the chain.
func (s *State) LatestBlock() database.Block {
	return s.db.LatestBlock()
}

// QueryBlockByNumber returns the block at the specified number or
// database.ErrNotFound when the number is past the chain height.
func (s *State) QueryBlockByNumber(num uint64) (database.Block, error) {
	return s.db.GetBlock(num)
}

// QueryBlockByHash returns the block whose content hash matches the
// argument or database.ErrNotFound when no block matches.
func (s *State) QueryBlockByHash(hash string) (database.Block, error) {
	return s.db.GetBlockByHash(hash)
}

// QueryStarsByOwner returns the stars claimed by the specified account.
// No claims yields an empty slice, not an error.
func (s *State) QueryStarsByOwner(account database.AccountID) ([]database.Star, error) {
	return s.db.StarsByOwner(account)
}

// ValidateChain runs the full chain validation and returns every
// inconsistency found. An empty result means the chain is valid.
func (s *State) ValidateChain() []database.ValidateError {
	return s.db.Validate()
}
