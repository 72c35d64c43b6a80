package crypto

import "errors"

// Contract-violation errors of the signature engine. These indicate misuse
// (bad encodings, wrong scheme for a key) and are not retryable: the same
// input can never start succeeding.
var (
	ErrUnsupportedScheme = errors.New("unsupported signature scheme")
	ErrKeyDecode         = errors.New("cannot decode key")
	ErrInvalidKey        = errors.New("invalid key for scheme")
	ErrEmptyPayload      = errors.New("empty payload")
	ErrEmptySignature    = errors.New("empty signature")
	ErrSchemeMismatch    = errors.New("key scheme does not match metadata scheme")
	ErrKeyMismatch       = errors.New("public key does not match envelope metadata")
)

// ErrVerificationFailed reports a well-formed signature that does not match.
// It is kept distinct from the malformed-input errors above so that "did not
// match" is never confused with "could not attempt verification".
var ErrVerificationFailed = errors.New("signature verification failed")
