package schemes

import (
	"fmt"

	"github.com/iykyk-syn/restate/crypto"
)

// DecodePrivateKey parses a PKCS#8 container without knowing its scheme: every
// registered factory is tried in registration order until one accepts the
// bytes. This is a deliberate, bounded fallback across the fixed scheme table,
// not error recovery.
func DecodePrivateKey(der []byte) (crypto.PrivKey, error) {
	for _, e := range registry {
		key, err := e.factory.DecodePrivateKey(der)
		if err == nil {
			return key, nil
		}
	}
	return nil, fmt.Errorf("%w: no registered scheme accepts the private key bytes", crypto.ErrKeyDecode)
}

// DecodePrivateKeyAs parses a PKCS#8 container under the named scheme only.
// It never falls back to a different scheme than requested.
func DecodePrivateKeyAs(codeName string, der []byte) (crypto.PrivKey, error) {
	factory, err := factoryFor(codeName)
	if err != nil {
		return nil, err
	}
	return factory.DecodePrivateKey(der)
}

// DecodePublicKey parses a SubjectPublicKeyInfo container by ordered trial
// across every registered scheme.
func DecodePublicKey(der []byte) (crypto.PubKey, error) {
	for _, e := range registry {
		key, err := e.factory.DecodePublicKey(der)
		if err == nil {
			return key, nil
		}
	}
	return nil, fmt.Errorf("%w: no registered scheme accepts the public key bytes", crypto.ErrKeyDecode)
}

// DecodePublicKeyAs parses a SubjectPublicKeyInfo container under the named
// scheme only.
func DecodePublicKeyAs(codeName string, der []byte) (crypto.PubKey, error) {
	factory, err := factoryFor(codeName)
	if err != nil {
		return nil, err
	}
	return factory.DecodePublicKey(der)
}

// EncodePrivateKey produces the PKCS#8 encoding of the key.
func EncodePrivateKey(key crypto.PrivKey) ([]byte, error) {
	factory, err := factoryFor(key.Type())
	if err != nil {
		return nil, err
	}
	return factory.EncodePrivateKey(key)
}

// EncodePublicKey produces the SubjectPublicKeyInfo encoding of the key.
func EncodePublicKey(key crypto.PubKey) ([]byte, error) {
	factory, err := factoryFor(key.Type())
	if err != nil {
		return nil, err
	}
	return factory.EncodePublicKey(key)
}
