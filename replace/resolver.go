package replace

import (
	"bytes"
	"context"
	"fmt"

	"github.com/iykyk-syn/restate/ledger"
	"github.com/iykyk-syn/restate/types"
)

// Candidate is the working set a replacement run is built from: the states
// being consumed, their replacements and the identities whose signatures the
// replacement requires. A Candidate belongs to the run that built it and is
// never shared across runs.
type Candidate struct {
	Inputs       []types.StateRef
	InputStates  []types.State
	Outputs      []types.State
	Participants [][]byte
}

func (c *Candidate) addParticipants(ids [][]byte) {
	for _, id := range ids {
		if !c.hasParticipant(id) {
			c.Participants = append(c.Participants, id)
		}
	}
}

func (c *Candidate) hasParticipant(id []byte) bool {
	for _, p := range c.Participants {
		if bytes.Equal(p, id) {
			return true
		}
	}
	return false
}

// Resolver expands a state reference into the full Candidate a replacement
// transaction must cover. An unencumbered state yields a single input/output
// pair; an encumbered one pulls in every state chained to it through
// encumbrances within the same originating transaction.
type Resolver struct {
	store ledger.Store
}

func NewResolver(store ledger.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve walks the encumbrance chain starting at ref. Each walked state
// becomes one input and one modified output. Outputs are renumbered as the
// candidate grows, so every still-encumbered output points at the next
// position in the candidate, and the final output is unencumbered. The
// modify function applies the replacement itself, e.g. a notary substitution;
// encumbrance links are managed by the resolver and must not be set by it.
func (r *Resolver) Resolve(ctx context.Context, ref types.StateRef, modify func(types.State) types.State) (*Candidate, error) {
	tx, err := r.store.Transaction(ctx, ref.TxID)
	if err != nil {
		return nil, err
	}
	outputs := tx.Tx.Outputs

	cand := new(Candidate)
	visited := make(map[uint32]struct{})
	for idx := ref.Index; ; {
		if _, ok := visited[idx]; ok {
			return nil, fmt.Errorf("%w: output %d of transaction %s is revisited", ErrMalformedEncumbranceChain, idx, ref.TxID)
		}
		visited[idx] = struct{}{}
		if int(idx) >= len(outputs) {
			return nil, fmt.Errorf("%w: output %d is out of range for transaction %s", ErrMalformedEncumbranceChain, idx, ref.TxID)
		}

		state := outputs[idx]
		cand.Inputs = append(cand.Inputs, types.StateRef{TxID: ref.TxID, Index: idx})
		cand.InputStates = append(cand.InputStates, state)
		cand.addParticipants(state.Participants)

		out := modify(state)
		if !state.Encumbered() {
			out.Encumbrance = nil
			cand.Outputs = append(cand.Outputs, out)
			return cand, nil
		}

		// the chain continues, so this output is re-encumbered to the next
		// position the candidate will fill, not the original index
		next := uint32(len(cand.Outputs) + 1)
		out.Encumbrance = &next
		cand.Outputs = append(cand.Outputs, out)
		idx = *state.Encumbrance
	}
}
