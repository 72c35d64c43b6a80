package replace

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/iykyk-syn/restate/ledger"
	"github.com/iykyk-syn/restate/types"
	"github.com/iykyk-syn/restate/wire"
)

const (
	KindNotaryChange    = "notary-change"
	KindContractUpgrade = "contract-upgrade"
)

// Policy defines one kind of state replacement. The instigator uses it to
// assemble the candidate transaction; every acceptor uses the same policy to
// independently re-derive what the replacement should look like and verify
// the proposal against it. Policies are selected at run construction, carry
// no per-run state and are safe for concurrent use.
type Policy interface {
	// Kind names the policy on the wire.
	Kind() string
	// Context produces the identifying context acceptors rebuild the policy
	// from.
	Context(ref types.StateRef) ChangeContext
	// AssembleCandidate builds the unsigned replacement transaction for the
	// referenced state and returns it together with the identities whose
	// signatures the replacement requires.
	AssembleCandidate(ctx context.Context, store ledger.Store, ref types.StateRef) (*types.Tx, [][]byte, error)
	// VerifyReplacement checks a received proposal against the policy's own
	// derivation of the replacement.
	VerifyReplacement(ctx context.Context, store ledger.Store, prop *Proposal) error
}

// PolicyFactory rebuilds a Policy on the acceptor side from the proposal's
// context.
type PolicyFactory func(cc ChangeContext) (Policy, error)

// NotaryChange replaces the notary of a state and of every state encumbering
// it, leaving everything else untouched.
type NotaryChange struct {
	NewNotary []byte
}

// NewNotaryChangeFactory rebuilds NotaryChange policies from proposal
// contexts.
func NewNotaryChangeFactory() PolicyFactory {
	return func(cc ChangeContext) (Policy, error) {
		if len(cc.NewNotary) == 0 {
			return nil, errors.New("notary change without a new notary")
		}
		return &NotaryChange{NewNotary: cc.NewNotary}, nil
	}
}

func (n *NotaryChange) Kind() string { return KindNotaryChange }

func (n *NotaryChange) Context(ref types.StateRef) ChangeContext {
	return ChangeContext{
		Kind:      KindNotaryChange,
		Ref:       ref,
		NewNotary: n.NewNotary,
	}
}

type notaryChangeCmd struct {
	NewNotary []byte `codec:"new_notary"`
}

func (n *NotaryChange) AssembleCandidate(ctx context.Context, store ledger.Store, ref types.StateRef) (*types.Tx, [][]byte, error) {
	if len(n.NewNotary) == 0 {
		return nil, nil, errors.New("notary change without a new notary")
	}

	cand, err := NewResolver(store).Resolve(ctx, ref, func(s types.State) types.State {
		s.Notary = n.NewNotary
		return s
	})
	if err != nil {
		return nil, nil, err
	}

	tx := &types.Tx{
		Inputs:  cand.Inputs,
		Outputs: cand.Outputs,
		Commands: []types.Command{{
			Data:    wire.MustEncode(&notaryChangeCmd{NewNotary: n.NewNotary}),
			Signers: cand.Participants,
		}},
	}
	return tx, cand.Participants, nil
}

func (n *NotaryChange) VerifyReplacement(ctx context.Context, store ledger.Store, prop *Proposal) error {
	derived, _, err := n.AssembleCandidate(ctx, store, prop.Context.Ref)
	if err != nil {
		return fmt.Errorf("deriving expected replacement: %w", err)
	}
	if !bytes.Equal(derived.Bytes(), prop.Tx.Bytes()) {
		return errors.New("proposed transaction differs from the locally derived notary change")
	}
	return nil
}
