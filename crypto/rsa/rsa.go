// Package rsa implements the RSASSA-PKCS1-v1_5 scheme with SHA-256 digests.
package rsa

import (
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"fmt"

	"github.com/iykyk-syn/restate/crypto"
)

const CodeName = "RSA_SHA256"

// keyBits is the recommended modulus size used for generation.
const keyBits = 3072

var Scheme = crypto.Scheme{
	ID:            1,
	CodeName:      CodeName,
	OID:           asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11},
	Provider:      "stdlib",
	AlgorithmName: "RSA",
	SignatureName: "SHA256withRSA",
	MinKeySize:    2048,
	KeySize:       keyBits,
	Description:   "RSA PKCS#1 v1.5 signature scheme with SHA-256",
}

type PublicKey struct {
	key *rsa.PublicKey
}

func (pubKey PublicKey) VerifySignature(msg []byte, sig []byte) bool {
	digest := sha256.Sum256(msg)
	return rsa.VerifyPKCS1v15(pubKey.key, stdcrypto.SHA256, digest[:], sig) == nil
}

func (pubKey PublicKey) Bytes() []byte {
	return x509.MarshalPKCS1PublicKey(pubKey.key)
}

func (pubKey PublicKey) Equals(other []byte) bool {
	otherKey, err := x509.ParsePKCS1PublicKey(other)
	if err != nil {
		return false
	}
	return pubKey.key.Equal(otherKey)
}

func (pubKey PublicKey) Type() string {
	return CodeName
}

type PrivateKey struct {
	key *rsa.PrivateKey
}

func (privKey PrivateKey) Sign(msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	sig, err := rsa.SignPKCS1v15(rand.Reader, privKey.key, stdcrypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", crypto.ErrInvalidKey, CodeName, err)
	}
	return sig, nil
}

func (privKey PrivateKey) PubKey() crypto.PubKey {
	return PublicKey{key: &privKey.key.PublicKey}
}

func (privKey PrivateKey) Bytes() []byte {
	return x509.MarshalPKCS1PrivateKey(privKey.key)
}

func (privKey PrivateKey) Equals(other []byte) bool {
	otherKey, err := x509.ParsePKCS1PrivateKey(other)
	if err != nil {
		return false
	}
	return privKey.key.Equal(otherKey)
}

func (privKey PrivateKey) Type() string {
	return CodeName
}

// String redacts the key material.
func (privKey PrivateKey) String() string {
	return "PrivateKey{" + CodeName + "}"
}

func GenKeys() (PublicKey, PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
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
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s: not an RSA key", crypto.ErrKeyDecode, CodeName)
	}
	if rsaKey.N.BitLen() < Scheme.MinKeySize {
		return nil, fmt.Errorf("%w: %s: modulus below %d bits", crypto.ErrKeyDecode, CodeName, Scheme.MinKeySize)
	}
	return PrivateKey{key: rsaKey}, nil
}

func (factory) DecodePublicKey(der []byte) (crypto.PubKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", crypto.ErrKeyDecode, CodeName, err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s: not an RSA key", crypto.ErrKeyDecode, CodeName)
	}
	return PublicKey{key: rsaKey}, nil
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
