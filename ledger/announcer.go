package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/iykyk-syn/restate/types"
	"github.com/iykyk-syn/restate/wire"
)

// Announcer gossips finalized transactions over a PubSub topic so that every
// node with an interest in the ledger converges on the same transaction set.
// Incoming announcements are validated before they are recorded or relayed.
type Announcer struct {
	networkID string

	store  Store
	pubsub *pubsub.PubSub
	topic  *pubsub.Topic
	sub    *pubsub.Subscription

	log *slog.Logger
}

func NewAnnouncer(networkID string, store Store, ps *pubsub.PubSub) *Announcer {
	return &Announcer{
		networkID: networkID,
		store:     store,
		pubsub:    ps,
	}
}

func (a *Announcer) Start() (err error) {
	if a.log == nil {
		a.log = slog.Default()
	}

	a.topic, err = a.pubsub.Join(a.networkID)
	if err != nil {
		return err
	}

	// pubsub forces us to create at least one subscription
	a.sub, err = a.topic.Subscribe()
	if err != nil {
		return err
	}
	go func() {
		for {
			_, err := a.sub.Next(context.Background())
			if err != nil {
				return
			}
		}
	}()

	err = a.pubsub.RegisterTopicValidator(
		a.networkID,
		a.deliverAnnouncement,
		pubsub.WithValidatorTimeout(time.Second),
	)
	if err != nil {
		return err
	}

	return nil
}

func (a *Announcer) Stop() (err error) {
	a.sub.Cancel()
	err = errors.Join(err, a.topic.Close())
	err = errors.Join(err, a.pubsub.UnregisterTopicValidator(a.networkID))
	return err
}

// Announce publishes a finalized transaction. The transaction must already
// carry every required signature; the local topic validator re-checks it
// before the network sees it.
func (a *Announcer) Announce(ctx context.Context, tx *types.SignedTx) error {
	data, err := wire.Encode(tx)
	if err != nil {
		return err
	}
	return a.topic.Publish(ctx, data)
}

// deliverAnnouncement validates an incoming announcement and reports its
// validity status to PubSub.
func (a *Announcer) deliverAnnouncement(ctx context.Context, _ peer.ID, msg *pubsub.Message) (res pubsub.ValidationResult) {
	defer func() {
		// recover from potential panics caused by network gossips
		err := recover()
		if err != nil {
			a.log.ErrorContext(ctx, "deliver announcement panic", "err", err)
			res = pubsub.ValidationReject
		}
	}()

	tx := new(types.SignedTx)
	if err := wire.Decode(msg.Data, tx); err != nil {
		a.log.ErrorContext(ctx, "unmarshalling announcement", "err", err)
		return pubsub.ValidationReject
	}

	if err := tx.VerifySignatures(); err != nil {
		a.log.ErrorContext(ctx, "verifying announced transaction", "tx", tx.ID(), "err", err)
		return pubsub.ValidationReject
	}
	if err := tx.CheckRequiredSigners(); err != nil {
		a.log.ErrorContext(ctx, "announced transaction misses signers", "tx", tx.ID(), "err", err)
		return pubsub.ValidationReject
	}

	if err := a.store.Record(ctx, tx); err != nil {
		a.log.ErrorContext(ctx, "recording announced transaction", "tx", tx.ID(), "err", err)
		return pubsub.ValidationReject
	}

	return pubsub.ValidationAccept
}
