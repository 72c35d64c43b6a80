// Package secp256k1 implements the ECDSA scheme over the secp256k1 curve with
// SHA-256 digests, backed by the decred implementation.
//
// The Go standard library cannot express secp256k1 inside PKCS#8 or
// SubjectPublicKeyInfo containers, so this package carries its own ASN.1
// plumbing for the standard EC key structures (RFC 5915, RFC 5958).
package secp256k1

import (
	"bytes"
	"crypto/sha256"
	"encoding/asn1"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/iykyk-syn/restate/crypto"
)

const CodeName = "ECDSA_SECP256K1_SHA256"

var Scheme = crypto.Scheme{
	ID:            2,
	CodeName:      CodeName,
	OID:           asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2},
	Provider:      "decred",
	AlgorithmName: "ECDSA",
	SignatureName: "SHA256withECDSA",
	Curve:         "secp256k1",
	MinKeySize:    256,
	KeySize:       256,
	Description:   "ECDSA signature scheme using the secp256k1 (Koblitz) curve",
}

var (
	oidECPublicKey = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidSecp256k1   = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

type PublicKey struct {
	key *secp256k1.PublicKey
}

func (pubKey PublicKey) VerifySignature(msg []byte, sig []byte) bool {
	parsed, err := secpecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(msg)
	return parsed.Verify(digest[:], pubKey.key)
}

func (pubKey PublicKey) Bytes() []byte {
	return pubKey.key.SerializeUncompressed()
}

func (pubKey PublicKey) Equals(other []byte) bool {
	return bytes.Equal(pubKey.Bytes(), other)
}

func (pubKey PublicKey) Type() string {
	return CodeName
}

type PrivateKey struct {
	key *secp256k1.PrivateKey
}

func (privKey PrivateKey) Sign(msg []byte) ([]byte, error) {
	if privKey.key == nil {
		return nil, fmt.Errorf("%w: %s: nil key", crypto.ErrInvalidKey, CodeName)
	}
	digest := sha256.Sum256(msg)
	return secpecdsa.Sign(privKey.key, digest[:]).Serialize(), nil
}

func (privKey PrivateKey) PubKey() crypto.PubKey {
	return PublicKey{key: privKey.key.PubKey()}
}

func (privKey PrivateKey) Bytes() []byte {
	return privKey.key.Serialize()
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
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return PublicKey{}, PrivateKey{}, err
	}
	return PublicKey{key: key.PubKey()}, PrivateKey{key: key}, nil
}

var Factory crypto.KeyFactory = factory{}

type factory struct{}

func (factory) GenerateKeys() (crypto.PubKey, crypto.PrivKey, error) {
	return GenKeys()
}

// pkcs8 mirrors the OneAsymmetricKey structure of RFC 5958.
type pkcs8 struct {
	Version    int
	Algo       algorithmIdentifier
	PrivateKey []byte
}

type algorithmIdentifier struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.RawValue `asn1:"optional"`
}

// ecPrivateKey mirrors the ECPrivateKey structure of RFC 5915.
type ecPrivateKey struct {
	Version       int
	PrivateKey    []byte
	NamedCurveOID asn1.ObjectIdentifier `asn1:"optional,explicit,tag:0"`
	PublicKey     asn1.BitString        `asn1:"optional,explicit,tag:1"`
}

type subjectPublicKeyInfo struct {
	Algo      algorithmIdentifier
	PublicKey asn1.BitString
}

func (factory) DecodePrivateKey(der []byte) (crypto.PrivKey, error) {
	var container pkcs8
	if rest, err := asn1.Unmarshal(der, &container); err != nil || len(rest) != 0 {
		return nil, fmt.Errorf("%w: %s: not a PKCS#8 container", crypto.ErrKeyDecode, CodeName)
	}
	if err := checkAlgorithm(container.Algo); err != nil {
		return nil, err
	}

	var ecKey ecPrivateKey
	if _, err := asn1.Unmarshal(container.PrivateKey, &ecKey); err != nil {
		return nil, fmt.Errorf("%w: %s: bad EC private key structure: %v", crypto.ErrKeyDecode, CodeName, err)
	}
	if len(ecKey.NamedCurveOID) != 0 && !ecKey.NamedCurveOID.Equal(oidSecp256k1) {
		return nil, fmt.Errorf("%w: %s: foreign curve", crypto.ErrKeyDecode, CodeName)
	}
	if new(big.Int).SetBytes(ecKey.PrivateKey).Sign() == 0 {
		return nil, fmt.Errorf("%w: %s: zero scalar", crypto.ErrKeyDecode, CodeName)
	}
	return PrivateKey{key: secp256k1.PrivKeyFromBytes(ecKey.PrivateKey)}, nil
}

func (factory) DecodePublicKey(der []byte) (crypto.PubKey, error) {
	var container subjectPublicKeyInfo
	if rest, err := asn1.Unmarshal(der, &container); err != nil || len(rest) != 0 {
		return nil, fmt.Errorf("%w: %s: not a SubjectPublicKeyInfo container", crypto.ErrKeyDecode, CodeName)
	}
	if err := checkAlgorithm(container.Algo); err != nil {
		return nil, err
	}
	key, err := secp256k1.ParsePubKey(container.PublicKey.RightAlign())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", crypto.ErrKeyDecode, CodeName, err)
	}
	return PublicKey{key: key}, nil
}

// checkAlgorithm requires the id-ecPublicKey algorithm with the secp256k1
// named curve parameter. This is where the curve disambiguation against the
// other elliptic curve scheme happens.
func checkAlgorithm(algo algorithmIdentifier) error {
	if !algo.Algorithm.Equal(oidECPublicKey) {
		return fmt.Errorf("%w: %s: not an EC key", crypto.ErrKeyDecode, CodeName)
	}
	var curve asn1.ObjectIdentifier
	if _, err := asn1.Unmarshal(algo.Parameters.FullBytes, &curve); err != nil {
		return fmt.Errorf("%w: %s: unreadable curve parameter", crypto.ErrKeyDecode, CodeName)
	}
	if !curve.Equal(oidSecp256k1) {
		return fmt.Errorf("%w: %s: foreign curve %v", crypto.ErrKeyDecode, CodeName, curve)
	}
	return nil
}

func (factory) EncodePrivateKey(key crypto.PrivKey) ([]byte, error) {
	private, ok := key.(PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s: foreign private key %T", crypto.ErrInvalidKey, CodeName, key)
	}

	curveDER, err := asn1.Marshal(oidSecp256k1)
	if err != nil {
		return nil, err
	}
	point := private.key.PubKey().SerializeUncompressed()
	inner, err := asn1.Marshal(ecPrivateKey{
		Version:       1,
		PrivateKey:    private.key.Serialize(),
		NamedCurveOID: oidSecp256k1,
		PublicKey:     asn1.BitString{Bytes: point, BitLength: len(point) * 8},
	})
	if err != nil {
		return nil, err
	}
	return asn1.Marshal(pkcs8{
		Version: 0,
		Algo: algorithmIdentifier{
			Algorithm:  oidECPublicKey,
			Parameters: asn1.RawValue{FullBytes: curveDER},
		},
		PrivateKey: inner,
	})
}

func (factory) EncodePublicKey(key crypto.PubKey) ([]byte, error) {
	public, ok := key.(PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s: foreign public key %T", crypto.ErrInvalidKey, CodeName, key)
	}

	curveDER, err := asn1.Marshal(oidSecp256k1)
	if err != nil {
		return nil, err
	}
	point := public.key.SerializeUncompressed()
	return asn1.Marshal(subjectPublicKeyInfo{
		Algo: algorithmIdentifier{
			Algorithm:  oidECPublicKey,
			Parameters: asn1.RawValue{FullBytes: curveDER},
		},
		PublicKey: asn1.BitString{Bytes: point, BitLength: len(point) * 8},
	})
}
