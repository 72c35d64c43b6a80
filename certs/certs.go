// Package certs issues X.509 certificates and certificate requests with keys
// of any registered signature scheme.
//
// Certificate signing goes through the standard library's X.509 machinery,
// which limits it to the schemes the library can express: RSA_SHA256,
// ECDSA_SECP256R1_SHA256 and EDDSA_ED25519_SHA512. Issuing under the
// remaining schemes fails with ErrUnsupportedScheme.
package certs

import (
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
	"math/big"
	"net"
	"time"

	"github.com/iykyk-syn/restate/crypto"
	"github.com/iykyk-syn/restate/crypto/schemes"
)

// ErrCertificateBuild is returned when a built certificate fails its own
// post-issue checks: validity window or signature.
var ErrCertificateBuild = errors.New("certificate build failed")

type options struct {
	pathLen   *int
	dnsNames  []string
	ipAddrs   []net.IP
	serialNum *big.Int
}

type Option func(*options)

// WithPathLenConstraint marks the certificate as a CA with the given maximum
// chain depth below it. Without this option the certificate is an end-entity
// certificate.
func WithPathLenConstraint(pathLen int) Option {
	return func(o *options) {
		o.pathLen = &pathLen
	}
}

// WithDNSNames adds subject-alternative-name DNS entries.
func WithDNSNames(names ...string) Option {
	return func(o *options) {
		o.dnsNames = append(o.dnsNames, names...)
	}
}

// WithIPAddresses adds subject-alternative-name IP entries.
func WithIPAddresses(addrs ...net.IP) Option {
	return func(o *options) {
		o.ipAddrs = append(o.ipAddrs, addrs...)
	}
}

// WithSerialNumber fixes the certificate serial number instead of drawing a
// random one.
func WithSerialNumber(serial *big.Int) Option {
	return func(o *options) {
		o.serialNum = serial
	}
}

// IssueCertificate builds a certificate for the subject key, signed by the
// issuer key under the named scheme. The certificate carries
// subject-key-identifier, basic-constraints, key-usage and optionally
// extended-key-usage and subject-alternative-name extensions. Before
// returning, the certificate is independently re-checked: its validity window
// must contain the current time and its signature must verify against the
// issuer's public key.
func IssueCertificate(
	issuerDN pkix.Name,
	issuerPair crypto.KeyPair,
	subjectDN pkix.Name,
	subjectPub crypto.PubKey,
	keyUsage x509.KeyUsage,
	extKeyUsage []x509.ExtKeyUsage,
	codeName string,
	notBefore, notAfter time.Time,
	opts ...Option,
) (*x509.Certificate, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if issuerPair.Private.Type() != codeName {
		return nil, fmt.Errorf("%w: issuer key is %s, requested %s",
			crypto.ErrSchemeMismatch, issuerPair.Private.Type(), codeName)
	}
	signer, err := x509Signer(issuerPair.Private)
	if err != nil {
		return nil, err
	}

	subjectSPKI, err := schemes.EncodePublicKey(subjectPub)
	if err != nil {
		return nil, err
	}
	subjectKey, err := x509.ParsePKIXPublicKey(subjectSPKI)
	if err != nil {
		return nil, fmt.Errorf("%w: subject key scheme %s cannot be expressed in X.509",
			crypto.ErrUnsupportedScheme, subjectPub.Type())
	}
	skid, err := subjectKeyID(subjectSPKI)
	if err != nil {
		return nil, err
	}

	serial := o.serialNum
	if serial == nil {
		serial, err = rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
		if err != nil {
			return nil, err
		}
	}

	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               subjectDN,
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              keyUsage,
		ExtKeyUsage:           extKeyUsage,
		SubjectKeyId:          skid,
		BasicConstraintsValid: true,
		IsCA:                  o.pathLen != nil,
		DNSNames:              o.dnsNames,
		IPAddresses:           o.ipAddrs,
	}
	if o.pathLen != nil {
		template.MaxPathLen = *o.pathLen
		template.MaxPathLenZero = *o.pathLen == 0
	}

	parent := &x509.Certificate{Subject: issuerDN}
	der, err := x509.CreateCertificate(rand.Reader, template, parent, subjectKey, signer)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCertificateBuild, err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCertificateBuild, err)
	}

	now := time.Now()
	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		return nil, fmt.Errorf("%w: validity window does not contain the current time", ErrCertificateBuild)
	}
	if err := schemes.VerifyStrict(issuerPair.Public, cert.Signature, cert.RawTBSCertificate); err != nil {
		return nil, fmt.Errorf("%w: self-check of the signature: %s", ErrCertificateBuild, err)
	}
	return cert, nil
}

// IssueCertificateRequest builds a certificate signing request for the pair's
// public key, signed by its private key under the named scheme.
func IssueCertificateRequest(subjectDN pkix.Name, pair crypto.KeyPair, codeName string) (*x509.CertificateRequest, error) {
	if pair.Private.Type() != codeName {
		return nil, fmt.Errorf("%w: key is %s, requested %s",
			crypto.ErrSchemeMismatch, pair.Private.Type(), codeName)
	}
	signer, err := x509Signer(pair.Private)
	if err != nil {
		return nil, err
	}

	der, err := x509.CreateCertificateRequest(rand.Reader, &x509.CertificateRequest{Subject: subjectDN}, signer)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCertificateBuild, err)
	}
	return x509.ParseCertificateRequest(der)
}

// x509Signer adapts a registered private key into the standard library's
// signer by round-tripping it through its PKCS#8 encoding. Schemes the
// standard X.509 stack cannot express are refused here.
func x509Signer(priv crypto.PrivKey) (stdcrypto.Signer, error) {
	der, err := schemes.EncodePrivateKey(priv)
	if err != nil {
		return nil, err
	}
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: scheme %s cannot sign X.509 structures",
			crypto.ErrUnsupportedScheme, priv.Type())
	}
	signer, ok := key.(stdcrypto.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: scheme %s cannot sign X.509 structures",
			crypto.ErrUnsupportedScheme, priv.Type())
	}
	return signer, nil
}

// subjectKeyID derives the subject-key-identifier extension value: the SHA-1
// digest of the subjectPublicKey bits, per RFC 5280.
func subjectKeyID(spki []byte) ([]byte, error) {
	var container struct {
		Algorithm asn1.RawValue
		PublicKey asn1.BitString
	}
	if _, err := asn1.Unmarshal(spki, &container); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCertificateBuild, err)
	}
	sum := sha1.Sum(container.PublicKey.Bytes)
	return sum[:], nil
}
