package local

import (
	"github.com/iykyk-syn/restate/crypto"
	"github.com/iykyk-syn/restate/crypto/schemes"
)

// Signer signs with a locally held private key of any registered scheme.
// Its identity is the SubjectPublicKeyInfo encoding of the public key, so
// signatures are self-describing: verifiers recover both key and scheme from
// Signature.Signer alone.
type Signer struct {
	privKey crypto.PrivKey
	pubKey  crypto.PubKey
	id      []byte
}

func NewSigner(privKey crypto.PrivKey) (*Signer, error) {
	pubKey := privKey.PubKey()
	id, err := schemes.EncodePublicKey(pubKey)
	if err != nil {
		return nil, err
	}

	return &Signer{
		privKey: privKey,
		pubKey:  pubKey,
		id:      id,
	}, nil
}

func (s *Signer) ID() []byte {
	return s.id
}

func (s *Signer) Sign(msg []byte) (crypto.Signature, error) {
	body, err := schemes.Sign(s.privKey, msg)
	if err != nil {
		return crypto.Signature{}, err
	}

	return crypto.Signature{
		Signer: s.id,
		Body:   body,
	}, nil
}

func (s *Signer) Verify(msg []byte, signature crypto.Signature) error {
	pubKey, err := schemes.DecodePublicKey(signature.Signer)
	if err != nil {
		return err
	}
	return schemes.VerifyStrict(pubKey, signature.Body, msg)
}
