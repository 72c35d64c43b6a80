// Package schemes is the process-wide catalogue of supported signature
// schemes and the engine operating across them.
//
// The catalogue is populated exactly once at init with a fixed, versioned list
// and is read-only afterwards: there is no runtime registration API, and a
// duplicate code name in the table is treated as tampering with the provider
// table and panics before anything else can run.
package schemes

import (
	"fmt"

	"github.com/iykyk-syn/restate/crypto"
	"github.com/iykyk-syn/restate/crypto/ed25519"
	"github.com/iykyk-syn/restate/crypto/nistp256"
	"github.com/iykyk-syn/restate/crypto/rsa"
	"github.com/iykyk-syn/restate/crypto/secp256k1"
	"github.com/iykyk-syn/restate/crypto/sphincs"
)

// DefaultCodeName is the scheme used when the caller does not pick one.
const DefaultCodeName = ed25519.CodeName

type entry struct {
	scheme  crypto.Scheme
	factory crypto.KeyFactory
}

// registry keeps registration order: scheme-unspecified key decoding walks it
// front to back.
var registry []entry

var byName = map[string]entry{}

func init() {
	register(rsa.Scheme, rsa.Factory)
	register(secp256k1.Scheme, secp256k1.Factory)
	register(nistp256.Scheme, nistp256.Factory)
	register(ed25519.Scheme, ed25519.Factory)
	register(sphincs.Scheme, sphincs.Factory)
}

func register(s crypto.Scheme, f crypto.KeyFactory) {
	if _, ok := byName[s.CodeName]; ok {
		panic("schemes: duplicate registration of " + s.CodeName)
	}
	e := entry{scheme: s, factory: f}
	registry = append(registry, e)
	byName[s.CodeName] = e
}

// List returns the registered schemes in registration order.
func List() []crypto.Scheme {
	out := make([]crypto.Scheme, len(registry))
	for i, e := range registry {
		out[i] = e.scheme
	}
	return out
}

// ByName looks a scheme up by its code name.
func ByName(codeName string) (crypto.Scheme, error) {
	e, ok := byName[codeName]
	if !ok {
		return crypto.Scheme{}, fmt.Errorf("%w: %q", crypto.ErrUnsupportedScheme, codeName)
	}
	return e.scheme, nil
}

// ByKey infers the scheme a key was generated under.
func ByKey(key crypto.Key) (crypto.Scheme, error) {
	return ByName(key.Type())
}

// Supported reports whether codeName names a registered scheme. Never fails.
func Supported(codeName string) bool {
	_, ok := byName[codeName]
	return ok
}

// Default returns the default scheme.
func Default() crypto.Scheme {
	return byName[DefaultCodeName].scheme
}

// Generate produces a fresh key pair under the default scheme.
func Generate() (crypto.KeyPair, error) {
	return GenerateKeys(DefaultCodeName)
}

// GenerateKeys produces a fresh key pair under the named scheme.
func GenerateKeys(codeName string) (crypto.KeyPair, error) {
	e, ok := byName[codeName]
	if !ok {
		return crypto.KeyPair{}, fmt.Errorf("%w: %q", crypto.ErrUnsupportedScheme, codeName)
	}
	pub, priv, err := e.factory.GenerateKeys()
	if err != nil {
		return crypto.KeyPair{}, fmt.Errorf("generating %s keys: %w", codeName, err)
	}
	return crypto.KeyPair{Public: pub, Private: priv}, nil
}

func factoryFor(codeName string) (crypto.KeyFactory, error) {
	e, ok := byName[codeName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", crypto.ErrUnsupportedScheme, codeName)
	}
	return e.factory, nil
}
