// Package signature provides helper functions for hashing ledger content and
// for signing and verifying ownership challenge messages.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// registryID is an arbitrary number added to the recovery id when signing
// messages. This makes it clear a signature was produced for the star
// registry. Ethereum and Bitcoin do the same thing with the value of 27.
const registryID = 31

// =============================================================================

// Hash returns a unique string for the value.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// Sign uses the specified private key to sign the challenge message and
// returns the signature as a hex encoded string.
func Sign(message string, privateKey *ecdsa.PrivateKey) (string, error) {

	// Prepare the message for signing.
	data := stamp(message)

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", err
	}

	// Extract the public key from the data and the signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	// Check the public key extracted from the data and signature.
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return "", errors.New("invalid signature produced")
	}

	// Brand the recovery id with the registry id before encoding.
	sig[crypto.RecoveryIDOffset] += registryID

	return hexutil.Encode(sig), nil
}

// VerifySignature verifies the signature conforms to our standards.
func VerifySignature(sigStr string) error {
	sig, err := toSignatureBytes(sigStr)
	if err != nil {
		return err
	}

	// Check the recovery id is either 0 or 1.
	v := sig[crypto.RecoveryIDOffset]
	if v != 0 && v != 1 {
		return errors.New("invalid recovery id")
	}

	// Check the signature values are valid.
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(v, r, s, false) {
		return errors.New("invalid signature values")
	}

	return nil
}

// FromAddress extracts the address for the account that signed the message.
func FromAddress(message string, sigStr string) (string, error) {

	// NOTE: If the exact message for the given signature is not provided we
	// will recover the wrong address. There is no way to detect this since
	// the public key is being extracted from the message and signature.

	sig, err := toSignatureBytes(sigStr)
	if err != nil {
		return "", err
	}

	// Prepare the message for public key extraction.
	data := stamp(message)

	// Capture the public key associated with this message and signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	// Extract the account address from the public key.
	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents the message with the
// registry stamp embedded into the final hash.
func stamp(message string) []byte {

	// Hash the message into a 32 byte array. This provides a data length
	// consistency for all messages.
	msgHash := crypto.Keccak256([]byte(message))

	// This stamp is used so signatures produced when signing messages are
	// always unique to the star registry.
	stamp := []byte("\x19Star Registry Signed Message:\n32")

	// Hash the stamp and the message hash together in a final 32 byte
	// array that represents the message.
	return crypto.Keccak256(stamp, msgHash)
}

// toSignatureBytes decodes the hex signature and converts the recovery id
// back to the raw 0 or 1 value.
func toSignatureBytes(sigStr string) ([]byte, error) {
	if !strings.HasPrefix(sigStr, "0x") {
		return nil, errors.New("signature is missing the 0x prefix")
	}

	sig, err := hex.DecodeString(sigStr[2:])
	if err != nil {
		return nil, err
	}

	if len(sig) != crypto.SignatureLength {
		return nil, errors.New("signature has the wrong length")
	}

	if sig[crypto.RecoveryIDOffset] < registryID {
		return nil, errors.New("signature is missing the registry id")
	}
	sig[crypto.RecoveryIDOffset] -= registryID

	return sig, nil
}
