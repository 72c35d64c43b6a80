package schemes

import (
	"fmt"

	"github.com/iykyk-syn/restate/crypto"
)

// Sign produces a signature over payload with the key's scheme.
// The engine never retains the private key beyond the call.
func Sign(priv crypto.PrivKey, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, crypto.ErrEmptyPayload
	}
	if !Supported(priv.Type()) {
		return nil, fmt.Errorf("%w: %q", crypto.ErrUnsupportedScheme, priv.Type())
	}
	return priv.Sign(payload)
}

// SignAs is Sign restricted to the named scheme: it fails with
// ErrSchemeMismatch when the key belongs to a different scheme instead of
// silently using the key's own.
func SignAs(codeName string, priv crypto.PrivKey, payload []byte) ([]byte, error) {
	if !Supported(codeName) {
		return nil, fmt.Errorf("%w: %q", crypto.ErrUnsupportedScheme, codeName)
	}
	if priv.Type() != codeName {
		return nil, fmt.Errorf("%w: key is %s, requested %s", crypto.ErrSchemeMismatch, priv.Type(), codeName)
	}
	return Sign(priv, payload)
}

// Verify is the boolean verification entry point: it returns false on a
// well-formed signature that does not match and reserves errors for inputs
// verification could not even be attempted on (empty payload or signature,
// unregistered scheme). Callers that must not ignore a mismatch use
// VerifyStrict instead.
func Verify(pub crypto.PubKey, sig []byte, payload []byte) (bool, error) {
	if err := checkVerifyInputs(pub, sig, payload); err != nil {
		return false, err
	}
	return pub.VerifySignature(payload, sig), nil
}

// VerifyStrict verifies and fails loudly: any mismatch surfaces as
// ErrVerificationFailed, while malformed input keeps its own error identity.
func VerifyStrict(pub crypto.PubKey, sig []byte, payload []byte) error {
	if err := checkVerifyInputs(pub, sig, payload); err != nil {
		return err
	}
	if !pub.VerifySignature(payload, sig) {
		return fmt.Errorf("%w: scheme %s", crypto.ErrVerificationFailed, pub.Type())
	}
	return nil
}

func checkVerifyInputs(pub crypto.PubKey, sig []byte, payload []byte) error {
	if len(payload) == 0 {
		return crypto.ErrEmptyPayload
	}
	if len(sig) == 0 {
		return crypto.ErrEmptySignature
	}
	if !Supported(pub.Type()) {
		return fmt.Errorf("%w: %q", crypto.ErrUnsupportedScheme, pub.Type())
	}
	return nil
}

// SignEnvelope signs the canonical bytes of meta and returns them bound
// together. The scheme implied by the key must equal the scheme the metadata
// declares; a mismatch is a contract violation, not a soft failure.
func SignEnvelope(priv crypto.PrivKey, meta crypto.MetaData) (crypto.SignatureEnvelope, error) {
	if meta.SchemeCodeName != priv.Type() {
		return crypto.SignatureEnvelope{}, fmt.Errorf(
			"%w: metadata declares %s, key is %s", crypto.ErrSchemeMismatch, meta.SchemeCodeName, priv.Type())
	}
	sig, err := Sign(priv, meta.Bytes())
	if err != nil {
		return crypto.SignatureEnvelope{}, err
	}
	return crypto.SignatureEnvelope{Meta: meta, Sig: sig}, nil
}

// VerifyEnvelope strictly verifies an envelope against the given public key.
// The key must be the one the metadata was produced for.
func VerifyEnvelope(pub crypto.PubKey, env crypto.SignatureEnvelope) error {
	if !pub.Equals(env.Meta.PubKey) {
		return crypto.ErrKeyMismatch
	}
	if env.Meta.SchemeCodeName != pub.Type() {
		return fmt.Errorf(
			"%w: metadata declares %s, key is %s", crypto.ErrSchemeMismatch, env.Meta.SchemeCodeName, pub.Type())
	}
	return VerifyStrict(pub, env.Sig, env.Meta.Bytes())
}
