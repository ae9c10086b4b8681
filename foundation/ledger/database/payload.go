package database

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrDecode is returned when a block body can't be decoded back into its
// structured payload form.
var ErrDecode = errors.New("payload decode failure")

// Star represents the star coordinates and story being claimed.
type Star struct {
	RA    string `json:"ra"`            // Right ascension, e.g. "16h 29m 1.0s".
	Dec   string `json:"dec"`           // Declination, e.g. "-26° 29' 24.9".
	Mag   string `json:"mag,omitempty"` // Apparent magnitude.
	Cen   string `json:"cen,omitempty"` // Centaurus constellation reference.
	Story string `json:"story"`
}

// Payload is the structured form of a block body. Exactly one of the two
// shapes is present: the genesis marker text or an owned star claim.
type Payload struct {
	Data  string    `json:"data,omitempty"`  // Set only on the genesis block.
	Owner AccountID `json:"owner,omitempty"` // Set only on star claims.
	Star  *Star     `json:"star,omitempty"`  // Set only on star claims.
}

// NewGenesisPayload constructs the payload recorded in the genesis block.
func NewGenesisPayload(data string) Payload {
	return Payload{
		Data: data,
	}
}

// NewStarPayload constructs the payload for a star claim owned by the
// specified account.
func NewStarPayload(owner AccountID, star Star) Payload {
	return Payload{
		Owner: owner,
		Star:  &star,
	}
}

// IsGenesis reports whether the payload is the genesis marker.
func (p Payload) IsGenesis() bool {
	return p.Owner == "" && p.Star == nil
}

// =============================================================================

// encodePayload stores the payload as hex encoded JSON so the block body is
// an opaque byte sequence that can be decoded back to structured form.
func encodePayload(payload Payload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrDecode, err)
	}

	return hexutil.Encode(data), nil
}

// decodePayload reverses the storage encoding of a block body.
func decodePayload(body string) (Payload, error) {
	data, err := hexutil.Decode(body)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %s", ErrDecode, err)
	}

	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Payload{}, fmt.Errorf("%w: %s", ErrDecode, err)
	}

	return payload, nil
}
