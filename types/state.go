package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	"github.com/iykyk-syn/restate/wire"
)

// TxID uniquely identifies a transaction: the SHA-256 digest of its canonical
// unsigned bytes.
type TxID [sha256.Size]byte

func (id TxID) String() string {
	return hex.EncodeToString(id[:])
}

// StateRef addresses one output of a previously recorded transaction.
// Immutable once created.
type StateRef struct {
	TxID  TxID   `codec:"txid"`
	Index uint32 `codec:"index"`
}

// State is one ledger state: contract-scoped application data, the notary
// responsible for it and the identities whose consent its replacement
// requires.
type State struct {
	// ContractType names the contract governing the state.
	ContractType string `codec:"contract"`
	// Data is opaque application data.
	Data []byte `codec:"data"`
	// Notary is the SubjectPublicKeyInfo identity of the notary.
	Notary []byte `codec:"notary"`
	// Participants are the SubjectPublicKeyInfo identities whose signatures
	// are required to replace the state.
	Participants [][]byte `codec:"participants"`
	// Encumbrance optionally points at another output of the same transaction
	// whose conditions must be satisfied or replaced together with this state.
	// Nil means the state is unencumbered.
	Encumbrance *uint32 `codec:"encumbrance,omitempty"`
}

// Equal reports bit-for-bit equality of the canonical encodings.
func (s State) Equal(other State) bool {
	return bytes.Equal(wire.MustEncode(&s), wire.MustEncode(&other))
}

// Encumbered reports whether the state carries an encumbrance link.
func (s State) Encumbered() bool {
	return s.Encumbrance != nil
}

// Command pairs opaque command data with the identities required to sign it.
type Command struct {
	Data    []byte   `codec:"data"`
	Signers [][]byte `codec:"signers"`
}
