package replace

import (
	"context"

	"github.com/iykyk-syn/restate/crypto"
	"github.com/iykyk-syn/restate/types"
)

// ChangeContext tells an acceptor what is changing and why, so it can
// re-derive the proposed transaction on its own before signing.
type ChangeContext struct {
	// Kind selects the replacement policy, see Policy.Kind.
	Kind string `codec:"kind"`
	// Ref is the state being replaced, the head of the encumbrance chain.
	Ref types.StateRef `codec:"ref"`
	// NewNotary is the substituted notary identity for notary changes.
	NewNotary []byte `codec:"new_notary,omitempty"`
	// UpgradedContract is the target contract type for contract upgrades.
	UpgradedContract string `codec:"upgraded_contract,omitempty"`
}

// Proposal carries a candidate transaction from the instigator to one
// acceptor. The transaction bytes are canonical, so every acceptor signs the
// exact same payload.
type Proposal struct {
	Tx      types.Tx      `codec:"tx"`
	Context ChangeContext `codec:"context"`
}

// Response is an acceptor's single answer to a proposal: a signature over the
// proposed transaction bytes, or a rejection with a reason. Exactly one of
// the two is set.
type Response struct {
	Sig       *crypto.Signature `codec:"sig,omitempty"`
	Rejection string            `codec:"rejection,omitempty"`
}

// Final carries the fully signed transaction back to every participant for
// recording.
type Final struct {
	Tx types.SignedTx `codec:"tx"`
}

// Transport delivers protocol messages between identified participants.
// Participants are addressed by their SubjectPublicKeyInfo identity; mapping
// identities to network addresses is the transport's concern.
type Transport interface {
	// Propose sends a proposal and blocks for the participant's single
	// response.
	Propose(ctx context.Context, participant []byte, prop *Proposal) (*Response, error)
	// Distribute sends the finalized transaction and blocks until the
	// participant acknowledges it.
	Distribute(ctx context.Context, participant []byte, fin *Final) error
}
