package ed25519

import (
	stdcrypto "crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/asn1"
	"fmt"

	"github.com/iykyk-syn/restate/crypto"
)

// CodeName is the interoperable identifier of this scheme.
const CodeName = "EDDSA_ED25519_SHA512"

// Scheme describes EdDSA over edwards25519. This is the default scheme.
var Scheme = crypto.Scheme{
	ID:            4,
	CodeName:      CodeName,
	OID:           asn1.ObjectIdentifier{1, 3, 101, 112},
	Provider:      "stdlib",
	AlgorithmName: "Ed25519",
	SignatureName: "Ed25519",
	MinKeySize:    256,
	KeySize:       256,
	Description:   "EdDSA signature scheme using the ed25519 twisted Edwards curve",
}

type PublicKey []byte

func (pubKey PublicKey) VerifySignature(msg []byte, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pubKey), msg, sig)
}

func (pubKey PublicKey) Equals(other []byte) bool {
	if len(other) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.PublicKey(pubKey).Equal(ed25519.PublicKey(other))
}

func (pubKey PublicKey) Bytes() []byte {
	return pubKey
}

func (pubKey PublicKey) Type() string {
	return CodeName
}

type PrivateKey []byte

func (privKey PrivateKey) Sign(msg []byte) ([]byte, error) {
	if len(privKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: bad ed25519 private key length %d", crypto.ErrInvalidKey, len(privKey))
	}
	return ed25519.PrivateKey(privKey).Sign(rand.Reader, msg, stdcrypto.Hash(0))
}

func (privKey PrivateKey) PubKey() crypto.PubKey {
	public := ed25519.PrivateKey(privKey).Public().(ed25519.PublicKey)
	key := make(PublicKey, ed25519.PublicKeySize)
	copy(key, public)
	return key
}

func (privKey PrivateKey) Equals(other []byte) bool {
	if len(other) != ed25519.PrivateKeySize {
		return false
	}
	return ed25519.PrivateKey(privKey).Equal(ed25519.PrivateKey(other))
}

func (privKey PrivateKey) Bytes() []byte {
	return privKey
}

func (privKey PrivateKey) Type() string {
	return CodeName
}

// String redacts the key material.
func (privKey PrivateKey) String() string {
	return "PrivateKey{" + CodeName + "}"
}

func GenKeys() (PublicKey, PrivateKey, error) {
	pubK, privK, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	public := make(PublicKey, ed25519.PublicKeySize)
	copy(public, pubK)
	private := make(PrivateKey, ed25519.PrivateKeySize)
	copy(private, privK)

	return public, private, nil
}

// Factory translates Ed25519 keys to and from the standard containers.
var Factory crypto.KeyFactory = factory{}

type factory struct{}

func (factory) GenerateKeys() (crypto.PubKey, crypto.PrivKey, error) {
	return GenKeys()
}

func (factory) DecodePrivateKey(der []byte) (crypto.PrivKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", crypto.ErrKeyDecode, CodeName, err)
	}
	edKey, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s: not an Ed25519 key", crypto.ErrKeyDecode, CodeName)
	}
	private := make(PrivateKey, ed25519.PrivateKeySize)
	copy(private, edKey)
	return private, nil
}

func (factory) DecodePublicKey(der []byte) (crypto.PubKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", crypto.ErrKeyDecode, CodeName, err)
	}
	edKey, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s: not an Ed25519 key", crypto.ErrKeyDecode, CodeName)
	}
	public := make(PublicKey, ed25519.PublicKeySize)
	copy(public, edKey)
	return public, nil
}

func (factory) EncodePrivateKey(key crypto.PrivKey) ([]byte, error) {
	private, ok := key.(PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s: foreign private key %T", crypto.ErrInvalidKey, CodeName, key)
	}
	return x509.MarshalPKCS8PrivateKey(ed25519.PrivateKey(private))
}

func (factory) EncodePublicKey(key crypto.PubKey) ([]byte, error) {
	public, ok := key.(PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s: foreign public key %T", crypto.ErrInvalidKey, CodeName, key)
	}
	return x509.MarshalPKIXPublicKey(ed25519.PublicKey(public))
}
