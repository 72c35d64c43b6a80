package crypto

// Signature is a tuple containing signature body and reference to the signing
// identity.
type Signature struct {
	// Body of the signature.
	Body []byte `codec:"body"`
	// Signer identity that produced the signature: the SubjectPublicKeyInfo
	// encoding of the signing public key, which also pins the scheme.
	Signer []byte `codec:"signer"`
}

// Signer encapsulates and separates the asymmetric cryptographic scheme out of
// the replacement protocol logic together with private key management.
type Signer interface {
	// ID returns the signer identity: the SubjectPublicKeyInfo encoding of its
	// public key.
	ID() []byte
	// Sign produces a cryptographic Signature over the given data with the
	// internally managed identity.
	Sign([]byte) (Signature, error)
	// Verify performs strict cryptographic verification of a Signature
	// produced by any registered scheme.
	Verify([]byte, Signature) error
}
