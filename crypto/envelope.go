package crypto

import "github.com/iykyk-syn/restate/wire"

// MetaData describes what a detached signature commits to: the scheme it was
// produced under, the public key it was produced for and the signed payload,
// typically a content digest.
type MetaData struct {
	SchemeCodeName string `codec:"scheme"`
	// PubKey is the raw key material of the signing public key.
	PubKey  []byte `codec:"pubkey"`
	Payload []byte `codec:"payload"`
}

// Bytes returns the canonical encoding of the metadata, which is what
// envelope signatures are computed over.
func (m *MetaData) Bytes() []byte {
	return wire.MustEncode(m)
}

// SignatureEnvelope binds raw signature bytes to the one MetaData instance
// they were produced over.
type SignatureEnvelope struct {
	Meta MetaData `codec:"meta"`
	Sig  []byte   `codec:"sig"`
}
