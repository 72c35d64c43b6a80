// Package sphincs implements the stateless hash-based SPHINCS signature
// scheme at the 256-bit security level, backed by circl's SLH-DSA.
//
// Like secp256k1, the key containers are hand-built ASN.1: stdlib x509 has no
// notion of hash-based signature algorithms. The PKCS#8 private key field
// holds the raw key material wrapped in an OCTET STRING, mirroring how the
// stdlib encodes Ed25519 keys.
package sphincs

import (
	"bytes"
	"encoding/asn1"
	"fmt"

	circlsign "github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/schemes"

	"github.com/iykyk-syn/restate/crypto"
)

const CodeName = "SPHINCS-256_SHA512"

// oidSphincs256 is the BC SPHINCS-256 arc. Interop is pinned to CodeName, the
// OID is informational.
var oidSphincs256 = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 22554, 2, 5}

var Scheme = crypto.Scheme{
	ID:            5,
	CodeName:      CodeName,
	OID:           oidSphincs256,
	Provider:      "circl",
	AlgorithmName: "SPHINCS-256",
	SignatureName: "SHA512withSPHINCS256",
	MinKeySize:    256,
	KeySize:       256,
	Description:   "SPHINCS hash-based signature scheme at the 256-bit security level",
}

// slh is the underlying parameter set.
var slh circlsign.Scheme = schemes.ByName("SLH-DSA-SHA2-256s")

type PublicKey struct {
	key circlsign.PublicKey
}

func (pubKey PublicKey) VerifySignature(msg []byte, sig []byte) bool {
	return slh.Verify(pubKey.key, msg, sig, nil)
}

func (pubKey PublicKey) Bytes() []byte {
	raw, err := pubKey.key.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return raw
}

func (pubKey PublicKey) Equals(other []byte) bool {
	return bytes.Equal(pubKey.Bytes(), other)
}

func (pubKey PublicKey) Type() string {
	return CodeName
}

type PrivateKey struct {
	key circlsign.PrivateKey
}

func (privKey PrivateKey) Sign(msg []byte) (sig []byte, err error) {
	defer func() {
		// circl panics on malformed keys rather than returning errors
		if r := recover(); r != nil {
			sig, err = nil, fmt.Errorf("%w: %s: %v", crypto.ErrInvalidKey, CodeName, r)
		}
	}()
	return slh.Sign(privKey.key, msg, nil), nil
}

func (privKey PrivateKey) PubKey() crypto.PubKey {
	return PublicKey{key: privKey.key.Public().(circlsign.PublicKey)}
}

func (privKey PrivateKey) Bytes() []byte {
	raw, err := privKey.key.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return raw
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
	pub, priv, err := slh.GenerateKey()
	if err != nil {
		return PublicKey{}, PrivateKey{}, err
	}
	return PublicKey{key: pub}, PrivateKey{key: priv}, nil
}

var Factory crypto.KeyFactory = factory{}

type factory struct{}

func (factory) GenerateKeys() (crypto.PubKey, crypto.PrivKey, error) {
	return GenKeys()
}

type pkcs8 struct {
	Version    int
	Algo       algorithmIdentifier
	PrivateKey []byte
}

type algorithmIdentifier struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.RawValue `asn1:"optional"`
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
	if !container.Algo.Algorithm.Equal(oidSphincs256) {
		return nil, fmt.Errorf("%w: %s: foreign algorithm %v", crypto.ErrKeyDecode, CodeName, container.Algo.Algorithm)
	}
	var raw []byte
	if _, err := asn1.Unmarshal(container.PrivateKey, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: bad inner octet string", crypto.ErrKeyDecode, CodeName)
	}
	key, err := slh.UnmarshalBinaryPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", crypto.ErrKeyDecode, CodeName, err)
	}
	return PrivateKey{key: key}, nil
}

func (factory) DecodePublicKey(der []byte) (crypto.PubKey, error) {
	var container subjectPublicKeyInfo
	if rest, err := asn1.Unmarshal(der, &container); err != nil || len(rest) != 0 {
		return nil, fmt.Errorf("%w: %s: not a SubjectPublicKeyInfo container", crypto.ErrKeyDecode, CodeName)
	}
	if !container.Algo.Algorithm.Equal(oidSphincs256) {
		return nil, fmt.Errorf("%w: %s: foreign algorithm %v", crypto.ErrKeyDecode, CodeName, container.Algo.Algorithm)
	}
	key, err := slh.UnmarshalBinaryPublicKey(container.PublicKey.RightAlign())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", crypto.ErrKeyDecode, CodeName, err)
	}
	return PublicKey{key: key}, nil
}

func (factory) EncodePrivateKey(key crypto.PrivKey) ([]byte, error) {
	private, ok := key.(PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s: foreign private key %T", crypto.ErrInvalidKey, CodeName, key)
	}
	inner, err := asn1.Marshal(private.Bytes())
	if err != nil {
		return nil, err
	}
	return asn1.Marshal(pkcs8{
		Version:    0,
		Algo:       algorithmIdentifier{Algorithm: oidSphincs256},
		PrivateKey: inner,
	})
}

func (factory) EncodePublicKey(key crypto.PubKey) ([]byte, error) {
	public, ok := key.(PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s: foreign public key %T", crypto.ErrInvalidKey, CodeName, key)
	}
	raw := public.Bytes()
	return asn1.Marshal(subjectPublicKeyInfo{
		Algo:      algorithmIdentifier{Algorithm: oidSphincs256},
		PublicKey: asn1.BitString{Bytes: raw, BitLength: len(raw) * 8},
	})
}
