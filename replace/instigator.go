package replace

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/iykyk-syn/restate/crypto"
	"github.com/iykyk-syn/restate/crypto/schemes"
	"github.com/iykyk-syn/restate/ledger"
	"github.com/iykyk-syn/restate/types"
)

// Phase is the instigator's position in a replacement run, exposed for
// observability.
type Phase int

const (
	Building Phase = iota
	Proposing
	AwaitingSignatures
	Finalizing
	Complete
	Failed
)

func (p Phase) String() string {
	switch p {
	case Building:
		return "building"
	case Proposing:
		return "proposing"
	case AwaitingSignatures:
		return "awaiting-signatures"
	case Finalizing:
		return "finalizing"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Instigator drives one side of a replacement run: it assembles the
// candidate, signs it first, collects a signature from every other
// participant and distributes the finalized transaction. Runs are
// all-or-nothing: a single rejection, bad signature or unreachable
// participant fails the run and nothing is recorded anywhere.
//
// An Instigator is safe to reuse across runs; each Run owns its candidate
// exclusively.
type Instigator struct {
	signer    crypto.Signer
	store     ledger.Store
	transport Transport

	log *slog.Logger
}

func NewInstigator(signer crypto.Signer, store ledger.Store, transport Transport) *Instigator {
	return &Instigator{
		signer:    signer,
		store:     store,
		transport: transport,
		log:       slog.With("module", "replace"),
	}
}

// Run executes a full replacement of the referenced state under the given
// policy. It returns the finalized transaction and the full participant set,
// or the error that failed the run; rejections surface as *RejectedError.
func (i *Instigator) Run(ctx context.Context, policy Policy, ref types.StateRef) (*types.SignedTx, [][]byte, error) {
	signed, participants, err := i.run(ctx, policy, ref)
	if err != nil {
		i.log.ErrorContext(ctx, "replacement run failed", "phase", Failed, "kind", policy.Kind(), "err", err)
		return nil, nil, err
	}
	return signed, participants, nil
}

func (i *Instigator) run(ctx context.Context, policy Policy, ref types.StateRef) (*types.SignedTx, [][]byte, error) {
	i.log.DebugContext(ctx, "assembling candidate", "phase", Building, "kind", policy.Kind())
	tx, participants, err := policy.AssembleCandidate(ctx, i.store, ref)
	if err != nil {
		return nil, nil, err
	}

	builder := types.NewBuilder()
	for _, in := range tx.Inputs {
		builder.AddInput(in)
	}
	for _, out := range tx.Outputs {
		builder.AddOutput(out)
	}
	for _, cmd := range tx.Commands {
		builder.AddCommand(cmd)
	}
	if err := builder.Sign(i.signer); err != nil {
		return nil, nil, err
	}

	prop := &Proposal{Tx: builder.Tx(), Context: policy.Context(ref)}
	i.log.DebugContext(ctx, "proposing replacement",
		"phase", Proposing, "tx", prop.Tx.ID(), "participants", len(participants))

	sigs, err := i.collectSignatures(ctx, prop, participants)
	if err != nil {
		return nil, nil, err
	}
	for _, sig := range sigs {
		if err := builder.AddSignature(sig); err != nil {
			return nil, nil, err
		}
	}

	signed, err := builder.ToSigned(true)
	if err != nil {
		return nil, nil, err
	}

	i.log.DebugContext(ctx, "distributing finalized transaction", "phase", Finalizing, "tx", signed.ID())
	if err := i.distribute(ctx, signed, participants); err != nil {
		return nil, nil, err
	}
	if err := i.store.Record(ctx, signed); err != nil {
		return nil, nil, err
	}

	i.log.InfoContext(ctx, "replacement complete", "phase", Complete, "tx", signed.ID())
	return signed, participants, nil
}

// collectSignatures opens one session per participant concurrently and waits
// for every one of them. Partial quorums are never accepted: the first
// rejection or verification failure cancels the remaining sessions and fails
// the run.
func (i *Instigator) collectSignatures(ctx context.Context, prop *Proposal, participants [][]byte) ([]crypto.Signature, error) {
	payload := prop.Tx.Bytes()

	var (
		sigsMu sync.Mutex
		sigs   []crypto.Signature
	)
	wg, ctx := errgroup.WithContext(ctx)
	for _, participant := range participants {
		if bytes.Equal(participant, i.signer.ID()) {
			continue
		}

		participant := participant
		wg.Go(func() error {
			sig, err := i.propose(ctx, prop, participant, payload)
			if err != nil {
				return err
			}
			sigsMu.Lock()
			sigs = append(sigs, sig)
			sigsMu.Unlock()
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, err
	}
	return sigs, nil
}

// propose runs one acceptor session and strictly verifies the returned
// signature against the proposed transaction bytes before accepting it.
func (i *Instigator) propose(ctx context.Context, prop *Proposal, participant, payload []byte) (crypto.Signature, error) {
	resp, err := i.transport.Propose(ctx, participant, prop)
	if err != nil {
		return crypto.Signature{}, &RejectedError{Participant: participant, Err: err}
	}
	if resp.Rejection != "" {
		return crypto.Signature{}, &RejectedError{Participant: participant, Reason: resp.Rejection}
	}
	if resp.Sig == nil {
		return crypto.Signature{}, &RejectedError{Participant: participant, Err: fmt.Errorf("response carries neither signature nor rejection")}
	}

	sig := *resp.Sig
	if !bytes.Equal(sig.Signer, participant) {
		return crypto.Signature{}, &RejectedError{Participant: participant, Err: fmt.Errorf("signature signed by a different identity")}
	}
	pubKey, err := schemes.DecodePublicKey(sig.Signer)
	if err != nil {
		return crypto.Signature{}, &RejectedError{Participant: participant, Err: err}
	}
	if err := schemes.VerifyStrict(pubKey, sig.Body, payload); err != nil {
		return crypto.Signature{}, &RejectedError{Participant: participant, Err: err}
	}
	return sig, nil
}

func (i *Instigator) distribute(ctx context.Context, signed *types.SignedTx, participants [][]byte) error {
	fin := &Final{Tx: *signed}

	wg, ctx := errgroup.WithContext(ctx)
	for _, participant := range participants {
		if bytes.Equal(participant, i.signer.ID()) {
			continue
		}

		participant := participant
		wg.Go(func() error {
			if err := i.transport.Distribute(ctx, participant, fin); err != nil {
				return fmt.Errorf("distributing finalized transaction: %w", err)
			}
			return nil
		})
	}
	return wg.Wait()
}
