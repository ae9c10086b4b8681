package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/startrail/starregistry/foundation/ledger/challenge"
	"github.com/startrail/starregistry/foundation/ledger/database"
)

// ErrReplayed is returned when a signed challenge that already authorized a
// submission is presented again inside its validity window.
var ErrReplayed = errors.New("challenge already used")

// RequestChallenge issues a fresh ownership challenge message for the
// specified account. Nothing is recorded; the message carries its own
// issuance time and is re-verified at submission.
func (s *State) RequestChallenge(account database.AccountID) string {
	message := challenge.Issue(account)
	s.evHandler("state: RequestChallenge: account[%s]", account)

	return message
}

// SubmitStar runs the ownership gate over the submission and, when it
// passes, appends a new block claiming the star for the account. The
// signature check runs before the chain lock is ever taken.
func (s *State) SubmitStar(account database.AccountID, message string, sig string, star database.Star) (database.Block, error) {
	if err := challenge.Verify(account, message, sig, s.genesis.Window()); err != nil {
		s.evHandler("state: SubmitStar: account[%s]: rejected: %s", account, err)
		return database.Block{}, err
	}

	if err := s.consumeChallenge(account, message); err != nil {
		s.evHandler("state: SubmitStar: account[%s]: rejected: %s", account, err)
		return database.Block{}, err
	}

	block, err := database.NewBlock(database.NewStarPayload(account, star))
	if err != nil {
		return database.Block{}, err
	}

	block, err = s.db.Append(block)
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: SubmitStar: account[%s]: blk[%d]: hash[%s]", account, block.Header.Number, block.Hash)

	return block, nil
}

// consumeChallenge marks the signed challenge as used so it authorizes
// exactly one submission. Entries age out once they are past the validity
// window and could no longer verify anyway.
func (s *State) consumeChallenge(account database.AccountID, message string) error {
	issuedAt, err := challenge.IssuedAt(message)
	if err != nil {
		return err
	}

	window := s.genesis.Window()
	if window <= 0 {
		window = challenge.DefaultWindow
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, issued := range s.consumed {
		if time.Since(issued) > window {
			delete(s.consumed, key)
		}
	}

	key := fmt.Sprintf("%s:%d", account, issuedAt.Unix())
	if _, exists := s.consumed[key]; exists {
		return ErrReplayed
	}
	s.consumed[key] = issuedAt

	return nil
}
