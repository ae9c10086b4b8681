// Package challenge implements the time-boxed ownership challenge a wallet
// holder must sign before a star submission is authorized. The challenge
// message is self-describing so nothing is stored at issue time; timing and
// signature are re-verified at submission.
package challenge

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/startrail/starregistry/foundation/ledger/database"
	"github.com/startrail/starregistry/foundation/ledger/signature"
)

// DefaultWindow is how long a signed challenge stays valid when no window
// is configured.
const DefaultWindow = 5 * time.Minute

// suffix marks challenge messages as belonging to the star registry.
const suffix = "starRegistry"

// Set of errors the verification can reject a submission with.
var (
	ErrMalformedMessage = errors.New("challenge message is malformed")
	ErrExpired          = errors.New("challenge has expired")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Issue generates the challenge message for the specified account. Aside
// from reading the clock the function is pure; the issuance time travels
// inside the message itself.
func Issue(account database.AccountID) string {
	return fmt.Sprintf("%s:%d:%s", account, time.Now().UTC().Unix(), suffix)
}

// IssuedAt parses the issuance time out of a challenge message.
func IssuedAt(message string) (time.Time, error) {
	parts := strings.Split(message, ":")
	if len(parts) != 3 || parts[2] != suffix {
		return time.Time{}, ErrMalformedMessage
	}

	seconds, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, ErrMalformedMessage
	}

	return time.Unix(seconds, 0), nil
}

// Verify checks the challenge message was issued inside the validity window
// and that the signature over the message recovers to the claimed account.
// On success the caller may proceed to append a star block for the account.
func Verify(account database.AccountID, message string, sig string, window time.Duration) error {
	issuedAt, err := IssuedAt(message)
	if err != nil {
		return err
	}

	if window <= 0 {
		window = DefaultWindow
	}

	if elapsed := time.Since(issuedAt); elapsed > window {
		return fmt.Errorf("%w: issued %v ago", ErrExpired, elapsed.Truncate(time.Second))
	}

	if err := signature.VerifySignature(sig); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	from, err := signature.FromAddress(message, sig)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	if !strings.EqualFold(from, string(account)) {
		return fmt.Errorf("%w: signed by %s", ErrInvalidSignature, from)
	}

	return nil
}
