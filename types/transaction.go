package types

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/iykyk-syn/restate/crypto"
	"github.com/iykyk-syn/restate/crypto/schemes"
	"github.com/iykyk-syn/restate/wire"
)

// Tx is the unsigned transaction body. Its canonical bytes are what every
// participant signs, so they must be identical on every side of a run.
type Tx struct {
	Inputs   []StateRef `codec:"inputs"`
	Outputs  []State    `codec:"outputs"`
	Commands []Command  `codec:"commands"`
}

// Bytes returns the canonical encoding of the transaction body.
func (tx *Tx) Bytes() []byte {
	return wire.MustEncode(tx)
}

func (tx *Tx) ID() TxID {
	return sha256.Sum256(tx.Bytes())
}

// Builder accumulates inputs, outputs, commands and collected signatures and
// finalizes them into a SignedTx. A Builder is exclusively owned by the party
// assembling the transaction and must not be shared across goroutines.
type Builder struct {
	tx   Tx
	sigs []crypto.Signature
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) AddInput(ref StateRef) {
	b.tx.Inputs = append(b.tx.Inputs, ref)
}

func (b *Builder) AddOutput(state State) {
	b.tx.Outputs = append(b.tx.Outputs, state)
}

func (b *Builder) AddCommand(cmd Command) {
	b.tx.Commands = append(b.tx.Commands, cmd)
}

// Tx returns a copy of the transaction body assembled so far.
func (b *Builder) Tx() Tx {
	return b.tx
}

// Sign appends the signer's signature over the current transaction bytes.
// Inputs, outputs and commands must not change afterwards or the collected
// signatures stop matching the body.
func (b *Builder) Sign(signer crypto.Signer) error {
	tx := b.tx
	sig, err := signer.Sign(tx.Bytes())
	if err != nil {
		return fmt.Errorf("signing transaction %s: %w", tx.ID(), err)
	}
	return b.AddSignature(sig)
}

// AddSignature appends a signature collected from another participant.
// The signature is expected to be verified beforehand.
func (b *Builder) AddSignature(sig crypto.Signature) error {
	for _, existing := range b.sigs {
		if bytes.Equal(existing.Signer, sig.Signer) {
			return errors.New("duplicate signature from the signer")
		}
	}
	b.sigs = append(b.sigs, sig)
	return nil
}

// ToSigned finalizes the builder into an immutable signed transaction.
// With checkSufficient set it requires a verified signature from every signer
// every command names.
func (b *Builder) ToSigned(checkSufficient bool) (*SignedTx, error) {
	signed := &SignedTx{Tx: b.tx, Sigs: b.sigs}
	if err := signed.VerifySignatures(); err != nil {
		return nil, err
	}
	if checkSufficient {
		if err := signed.CheckRequiredSigners(); err != nil {
			return nil, err
		}
	}
	return signed, nil
}

// SignedTx is an immutable fully assembled transaction. It is shared
// read-only between participants once finalized.
type SignedTx struct {
	Tx   Tx                 `codec:"tx"`
	Sigs []crypto.Signature `codec:"sigs"`
}

func (st *SignedTx) ID() TxID {
	return st.Tx.ID()
}

// VerifySignatures strictly verifies every attached signature over the
// identical transaction bytes.
func (st *SignedTx) VerifySignatures() error {
	payload := st.Tx.Bytes()
	for _, sig := range st.Sigs {
		pubKey, err := schemes.DecodePublicKey(sig.Signer)
		if err != nil {
			return err
		}
		if err := schemes.VerifyStrict(pubKey, sig.Body, payload); err != nil {
			return fmt.Errorf("transaction %s: %w", st.ID(), err)
		}
	}
	return nil
}

// SignedBy reports whether the identity has a signature attached.
func (st *SignedTx) SignedBy(id []byte) bool {
	for _, sig := range st.Sigs {
		if bytes.Equal(sig.Signer, id) {
			return true
		}
	}
	return false
}

// CheckRequiredSigners requires a signature from every identity named by the
// transaction's commands.
func (st *SignedTx) CheckRequiredSigners() error {
	for _, cmd := range st.Tx.Commands {
		for _, signer := range cmd.Signers {
			if !st.SignedBy(signer) {
				return fmt.Errorf("transaction %s: missing signature from required signer", st.ID())
			}
		}
	}
	return nil
}
