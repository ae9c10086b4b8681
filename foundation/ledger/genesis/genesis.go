// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date            time.Time `json:"date"`
	ChainID         uint16    `json:"chain_id"`         // The chain id represents an unique id for this running instance.
	ChallengeWindow uint16    `json:"challenge_window"` // Seconds a signed ownership challenge stays valid.
	Data            string    `json:"data"`             // The payload text recorded in the genesis block.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load() (Genesis, error) {
	path := "zblock/genesis.json"
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Window returns the challenge validity window as a duration.
func (g Genesis) Window() time.Duration {
	return time.Duration(g.ChallengeWindow) * time.Second
}
