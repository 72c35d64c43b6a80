package replace

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iykyk-syn/restate/crypto"
	"github.com/iykyk-syn/restate/ledger"
)

// Acceptor is the participant side of replacement runs. For every run it
// observes exactly one proposal and produces exactly one response; after
// signing it tracks the run until the finalized transaction arrives and is
// recorded. Nothing is recorded for runs that were rejected or never
// finalized.
//
// One Acceptor serves many concurrent runs.
type Acceptor struct {
	signer    crypto.Signer
	store     ledger.Store
	factories map[string]PolicyFactory

	runs *runRegistry
	log  *slog.Logger
}

func NewAcceptor(signer crypto.Signer, store ledger.Store, factories map[string]PolicyFactory) *Acceptor {
	return &Acceptor{
		signer:    signer,
		store:     store,
		factories: factories,
		runs:      newRunRegistry(),
		log:       slog.With("module", "replace"),
	}
}

// HandleProposal verifies a proposal by re-deriving the replacement through
// the policy the proposal's context names, then either signs the proposed
// transaction or rejects it with a reason. A rejection is a response, not an
// error; errors are reserved for failures the instigator cannot act on.
func (a *Acceptor) HandleProposal(ctx context.Context, prop *Proposal) (*Response, error) {
	id := prop.Tx.ID()
	a.log.DebugContext(ctx, "verifying proposal", "tx", id, "kind", prop.Context.Kind)

	// transport is at-least-once, so a re-delivered proposal gets the
	// signature issued the first time around
	if sig, ok := a.runs.get(id); ok {
		return &Response{Sig: &sig}, nil
	}

	factory, ok := a.factories[prop.Context.Kind]
	if !ok {
		return a.reject(ctx, prop, fmt.Sprintf("unsupported replacement kind %q", prop.Context.Kind)), nil
	}
	policy, err := factory(prop.Context)
	if err != nil {
		return a.reject(ctx, prop, err.Error()), nil
	}
	if err := policy.VerifyReplacement(ctx, a.store, prop); err != nil {
		return a.reject(ctx, prop, err.Error()), nil
	}

	sig, err := a.signer.Sign(prop.Tx.Bytes())
	if err != nil {
		return nil, fmt.Errorf("signing proposal %s: %w", id, err)
	}
	if err := a.runs.add(id, sig); err != nil {
		return nil, err
	}

	a.log.DebugContext(ctx, "proposal signed", "tx", id)
	return &Response{Sig: &sig}, nil
}

func (a *Acceptor) reject(ctx context.Context, prop *Proposal, reason string) *Response {
	a.log.InfoContext(ctx, "proposal rejected", "tx", prop.Tx.ID(), "reason", reason)
	return &Response{Rejection: reason}
}

// HandleFinal records a finalized transaction for a run this acceptor signed.
// Finals for unknown runs and finals missing required signatures are refused.
func (a *Acceptor) HandleFinal(ctx context.Context, fin *Final) error {
	id := fin.Tx.ID()
	if _, ok := a.runs.get(id); !ok {
		return fmt.Errorf("no pending replacement run for transaction %s", id)
	}

	if err := fin.Tx.VerifySignatures(); err != nil {
		return err
	}
	if err := fin.Tx.CheckRequiredSigners(); err != nil {
		return err
	}
	if !fin.Tx.SignedBy(a.signer.ID()) {
		return fmt.Errorf("finalized transaction %s does not carry own signature", id)
	}

	if err := a.store.Record(ctx, &fin.Tx); err != nil {
		return err
	}
	a.runs.remove(id)

	a.log.InfoContext(ctx, "replacement recorded", "tx", id)
	return nil
}
