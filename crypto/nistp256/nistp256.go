// Package nistp256 implements the ECDSA scheme over the NIST P-256
// (secp256r1) curve with SHA-256 digests.
package nistp256

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"fmt"

	"github.com/iykyk-syn/restate/crypto"
)

const CodeName = "ECDSA_SECP256R1_SHA256"

var Scheme = crypto.Scheme{
	ID:            3,
	CodeName:      CodeName,
	OID:           asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2},
	Provider:      "stdlib",
	AlgorithmName: "ECDSA",
	SignatureName: "SHA256withECDSA",
	Curve:         "secp256r1",
	MinKeySize:    256,
	KeySize:       256,
	Description:   "ECDSA signature scheme using the secp256r1 (NIST P-256) curve",
}

type PublicKey struct {
	key *ecdsa.PublicKey
}

func (pubKey PublicKey) VerifySignature(msg []byte, sig []byte) bool {
	digest := sha256.Sum256(msg)
	return ecdsa.VerifyASN1(pubKey.key, digest[:], sig)
}

func (pubKey PublicKey) Bytes() []byte {
	return elliptic.Marshal(elliptic.P256(), pubKey.key.X, pubKey.key.Y)
}

func (pubKey PublicKey) Equals(other []byte) bool {
	return bytes.Equal(pubKey.Bytes(), other)
}

func (pubKey PublicKey) Type() string {
	return CodeName
}

type PrivateKey struct {
	key *ecdsa.PrivateKey
}

func (privKey PrivateKey) Sign(msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	sig, err := ecdsa.SignASN1(rand.Reader, privKey.key, digest[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", crypto.ErrInvalidKey, CodeName, err)
	}
	return sig, nil
}

func (privKey PrivateKey) PubKey() crypto.PubKey {
	return PublicKey{key: &privKey.key.PublicKey}
}

func (privKey PrivateKey) Bytes() []byte {
	return privKey.key.D.FillBytes(make([]byte, 32))
}

func (privKey PrivateKey) Equals(other []byte) bool {
	return bytes.Equal(privKey.Bytes(), other)
}

func (privKey PrivateKey) Type() string {
	return CodeName
}

// String redacts the key material.
func (privKey PrivateKey) String() string {
	return "PrivateKey{" + CodeName + "}"
}

func GenKeys() (PublicKey, PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return PublicKey{}, PrivateKey{}, err
	}
	return PublicKey{key: &key.PublicKey}, PrivateKey{key: key}, nil
}

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
	ecKey, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s: not an ECDSA key", crypto.ErrKeyDecode, CodeName)
	}
	// reject keys of the same algorithm family on a different curve
	if ecKey.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: %s: foreign curve", crypto.ErrKeyDecode, CodeName)
	}
	return PrivateKey{key: ecKey}, nil
}

func (factory) DecodePublicKey(der []byte) (crypto.PubKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", crypto.ErrKeyDecode, CodeName, err)
	}
	ecKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s: not an ECDSA key", crypto.ErrKeyDecode, CodeName)
	}
	if ecKey.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: %s: foreign curve", crypto.ErrKeyDecode, CodeName)
	}
	return PublicKey{key: ecKey}, nil
}

func (factory) EncodePrivateKey(key crypto.PrivKey) ([]byte, error) {
	private, ok := key.(PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s: foreign private key %T", crypto.ErrInvalidKey, CodeName, key)
	}
	return x509.MarshalPKCS8PrivateKey(private.key)
}

func (factory) EncodePublicKey(key crypto.PubKey) ([]byte, error) {
	public, ok := key.(PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s: foreign public key %T", crypto.ErrInvalidKey, CodeName, key)
	}
	return x509.MarshalPKIXPublicKey(public.key)
}
