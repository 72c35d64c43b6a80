package p2p

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	mocknet "github.com/libp2p/go-libp2p/p2p/net/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iykyk-syn/restate/crypto/local"
	"github.com/iykyk-syn/restate/crypto/schemes"
	"github.com/iykyk-syn/restate/ledger"
	"github.com/iykyk-syn/restate/replace"
	"github.com/iykyk-syn/restate/types"
)

type testNode struct {
	signer *local.Signer
	store  *ledger.MemStore
}

func newNetwork(t *testing.T, nodeCount int) (mocknet.Mocknet, []*testNode, PeerDirectory) {
	t.Helper()

	net, err := mocknet.FullMeshConnected(nodeCount)
	require.NoError(t, err)
	t.Cleanup(func() { net.Close() })

	nodes := make([]*testNode, nodeCount)
	directory := make(map[string]peer.ID, nodeCount)
	for i, host := range net.Hosts() {
		pair, err := schemes.Generate()
		require.NoError(t, err)
		signer, err := local.NewSigner(pair.Private)
		require.NoError(t, err)

		nodes[i] = &testNode{signer: signer, store: ledger.NewMemStore()}
		directory[string(signer.ID())] = host.ID()
	}

	lookup := func(identity []byte) (peer.ID, error) {
		id, ok := directory[string(identity)]
		if !ok {
			return "", fmt.Errorf("unknown participant")
		}
		return id, nil
	}
	return net, nodes, lookup
}

func seedGenesis(t *testing.T, nodes []*testNode) types.StateRef {
	t.Helper()

	builder := types.NewBuilder()
	for i, n := range nodes {
		state := types.State{
			ContractType: "asset",
			Data:         []byte{byte(i)},
			Notary:       []byte("old-notary"),
			Participants: [][]byte{n.signer.ID()},
		}
		if i < len(nodes)-1 {
			next := uint32(i + 1)
			state.Encumbrance = &next
		}
		builder.AddOutput(state)
	}
	genesis, err := builder.ToSigned(false)
	require.NoError(t, err)
	for _, n := range nodes {
		require.NoError(t, n.store.Record(context.Background(), genesis))
	}
	return types.StateRef{TxID: genesis.ID(), Index: 0}
}

func TestNotaryChangeOverStreams(t *testing.T) {
	const nodeCount = 3

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	t.Cleanup(cancel)

	net, nodes, lookup := newNetwork(t, nodeCount)
	ref := seedGenesis(t, nodes)

	factories := map[string]replace.PolicyFactory{
		replace.KindNotaryChange: replace.NewNotaryChangeFactory(),
	}
	for i, n := range nodes[1:] {
		listener := NewListener(net.Hosts()[i+1], replace.NewAcceptor(n.signer, n.store, factories))
		listener.Start()
		t.Cleanup(listener.Stop)
	}

	transport := NewTransport(net.Hosts()[0], lookup)
	instigator := replace.NewInstigator(nodes[0].signer, nodes[0].store, transport)

	signed, participants, err := instigator.Run(ctx, &replace.NotaryChange{NewNotary: []byte("new-notary")}, ref)
	require.NoError(t, err)
	require.Len(t, participants, nodeCount)
	require.Len(t, signed.Sigs, nodeCount)

	for _, n := range nodes {
		recorded, err := n.store.Transaction(ctx, signed.ID())
		require.NoError(t, err)
		assert.Equal(t, signed.ID(), recorded.ID())
	}
}

func TestRejectionOverStreams(t *testing.T) {
	const nodeCount = 3

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	t.Cleanup(cancel)

	net, nodes, lookup := newNetwork(t, nodeCount)
	ref := seedGenesis(t, nodes)

	factories := map[string]replace.PolicyFactory{
		replace.KindNotaryChange: replace.NewNotaryChangeFactory(),
	}
	listener := NewListener(net.Hosts()[1], replace.NewAcceptor(nodes[1].signer, nodes[1].store, factories))
	listener.Start()
	t.Cleanup(listener.Stop)

	// the last node accepts no replacement policies at all
	dissenter := NewListener(net.Hosts()[2], replace.NewAcceptor(nodes[2].signer, nodes[2].store, nil))
	dissenter.Start()
	t.Cleanup(dissenter.Stop)

	transport := NewTransport(net.Hosts()[0], lookup)
	instigator := replace.NewInstigator(nodes[0].signer, nodes[0].store, transport)

	_, _, err := instigator.Run(ctx, &replace.NotaryChange{NewNotary: []byte("new-notary")}, ref)
	var rejected *replace.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, nodes[2].signer.ID(), rejected.Participant)

	// only the genesis transaction remains anywhere
	for _, n := range nodes {
		assert.Equal(t, 1, n.store.Size())
	}
}
