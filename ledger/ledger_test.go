package ledger

import (
	"context"
	"testing"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	mocknet "github.com/libp2p/go-libp2p/p2p/net/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iykyk-syn/restate/crypto/local"
	"github.com/iykyk-syn/restate/crypto/schemes"
	"github.com/iykyk-syn/restate/types"
)

func signedTx(t *testing.T, data []byte) *types.SignedTx {
	t.Helper()

	pair, err := schemes.Generate()
	require.NoError(t, err)
	signer, err := local.NewSigner(pair.Private)
	require.NoError(t, err)

	builder := types.NewBuilder()
	builder.AddOutput(types.State{ContractType: "asset", Data: data})
	builder.AddCommand(types.Command{Data: []byte("issue"), Signers: [][]byte{signer.ID()}})
	require.NoError(t, builder.Sign(signer))

	tx, err := builder.ToSigned(true)
	require.NoError(t, err)
	return tx
}

func TestMemStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	tx := signedTx(t, []byte("data"))
	_, err := store.Transaction(ctx, tx.ID())
	require.ErrorIs(t, err, ErrUnknownTransaction)

	require.NoError(t, store.Record(ctx, tx))
	got, err := store.Transaction(ctx, tx.ID())
	require.NoError(t, err)
	assert.Equal(t, tx.ID(), got.ID())

	// recording twice is a no-op
	require.NoError(t, store.Record(ctx, tx))
	assert.Equal(t, 1, store.Size())
}

func TestMemStoreAwait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	t.Cleanup(cancel)

	store := NewMemStore()
	tx := signedTx(t, []byte("awaited"))

	errCh := make(chan error, 1)
	go func() {
		got, err := store.Await(ctx, tx.ID())
		if err == nil && got.ID() != tx.ID() {
			err = ErrUnknownTransaction
		}
		errCh <- err
	}()

	require.NoError(t, store.Record(ctx, tx))
	require.NoError(t, <-errCh)

	// canceled waiters give up cleanly
	canceled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	_, err := store.Await(canceled, signedTx(t, []byte("never")).ID())
	require.ErrorIs(t, err, context.Canceled)
}

func TestAnnouncerPropagates(t *testing.T) {
	const nodeCount = 3

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	t.Cleanup(cancel)

	net, err := mocknet.FullMeshConnected(nodeCount)
	require.NoError(t, err)
	t.Cleanup(func() { net.Close() })

	stores := make([]*MemStore, nodeCount)
	announcers := make([]*Announcer, nodeCount)
	for i, host := range net.Hosts() {
		pSub, err := pubsub.NewFloodSub(ctx, host)
		require.NoError(t, err)

		stores[i] = NewMemStore()
		announcers[i] = NewAnnouncer("test", stores[i], pSub)
		require.NoError(t, announcers[i].Start())
		t.Cleanup(func() { announcers[i].Stop() }) //nolint: errcheck
	}

	tx := signedTx(t, []byte("announced"))
	require.NoError(t, announcers[0].Announce(ctx, tx))

	for i, store := range stores {
		_, err := store.Await(ctx, tx.ID())
		require.NoError(t, err, "node %d", i)
	}
}

func TestAnnouncerRefusesUnsignedTx(t *testing.T) {
	const nodeCount = 2

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	t.Cleanup(cancel)

	net, err := mocknet.FullMeshConnected(nodeCount)
	require.NoError(t, err)
	t.Cleanup(func() { net.Close() })

	stores := make([]*MemStore, nodeCount)
	announcers := make([]*Announcer, nodeCount)
	for i, host := range net.Hosts() {
		pSub, err := pubsub.NewFloodSub(ctx, host)
		require.NoError(t, err)

		stores[i] = NewMemStore()
		announcers[i] = NewAnnouncer("test", stores[i], pSub)
		require.NoError(t, announcers[i].Start())
		t.Cleanup(func() { announcers[i].Stop() }) //nolint: errcheck
	}

	// a transaction naming a required signer but missing its signature
	tx := signedTx(t, []byte("forged"))
	tx.Sigs = nil

	require.NoError(t, announcers[0].Announce(ctx, tx))

	time.Sleep(100 * time.Millisecond)
	for _, store := range stores {
		assert.Equal(t, 0, store.Size())
	}
}
