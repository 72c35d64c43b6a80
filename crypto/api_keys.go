package crypto

// Key is the behaviour shared by public and private keys. Every key belongs
// to exactly one registered signature scheme, reported by Type.
type Key interface {
	// Bytes returns the raw scheme-specific key material.
	Bytes() []byte
	Equals([]byte) bool
	// Type returns the code name of the scheme the key was generated under.
	Type() string
}

type PubKey interface {
	Key
	VerifySignature(msg []byte, sig []byte) bool
}

// PrivKey is a private key. Implementations must not expose key material
// through String or any other diagnostic output.
type PrivKey interface {
	Key
	Sign(msg []byte) ([]byte, error)
	PubKey() PubKey
}

// KeyPair couples a private key with its public counterpart under one scheme.
type KeyPair struct {
	Public  PubKey
	Private PrivKey
}
