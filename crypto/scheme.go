package crypto

import "encoding/asn1"

// Scheme is an immutable descriptor of one supported signature algorithm
// configuration. Identity is the CodeName; descriptors are registered once at
// process start and never mutated.
type Scheme struct {
	// ID is a stable numeric identifier of the scheme.
	ID uint8
	// CodeName uniquely identifies the scheme and must be bit-exact across
	// implementations, e.g. "EDDSA_ED25519_SHA512".
	CodeName string
	// OID is the object identifier of the signature algorithm.
	OID asn1.ObjectIdentifier
	// Provider names the library backing the scheme.
	Provider      string
	AlgorithmName string
	SignatureName string
	// Curve names the algorithm-specific parameter set, when the algorithm
	// family needs one to disambiguate (the two elliptic curve schemes).
	Curve string
	// MinKeySize and KeySize are the minimum and recommended key sizes in bits.
	MinKeySize int
	KeySize    int
	Description string
}

func (s Scheme) String() string {
	return s.CodeName
}

// KeyFactory generates and translates keys of one scheme. Factories must
// reject key material that belongs to any other scheme, including keys of the
// same algorithm family with different parameters.
type KeyFactory interface {
	GenerateKeys() (PubKey, PrivKey, error)

	// DecodePrivateKey parses a PKCS#8 container. It fails with ErrKeyDecode
	// when the bytes do not hold a key of this scheme.
	DecodePrivateKey(der []byte) (PrivKey, error)
	// DecodePublicKey parses an X.509 SubjectPublicKeyInfo container.
	DecodePublicKey(der []byte) (PubKey, error)

	// EncodePrivateKey produces the PKCS#8 encoding of the key.
	EncodePrivateKey(PrivKey) ([]byte, error)
	// EncodePublicKey produces the SubjectPublicKeyInfo encoding of the key.
	EncodePublicKey(PubKey) ([]byte, error)
}
