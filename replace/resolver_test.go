package replace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iykyk-syn/restate/ledger"
	"github.com/iykyk-syn/restate/types"
)

// recordChain records a transaction whose outputs encumber each other
// according to links: links[i] is the output index state i points at, or nil.
func recordChain(t *testing.T, store ledger.Store, links []*uint32, participants [][][]byte) types.TxID {
	t.Helper()

	builder := types.NewBuilder()
	for i, link := range links {
		builder.AddOutput(types.State{
			ContractType: "asset",
			Data:         []byte{byte(i)},
			Notary:       []byte("old-notary"),
			Participants: participants[i],
			Encumbrance:  link,
		})
	}
	tx, err := builder.ToSigned(false)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), tx))
	return tx.ID()
}

func idx(i uint32) *uint32 { return &i }

func setNotary(notary []byte) func(types.State) types.State {
	return func(s types.State) types.State {
		s.Notary = notary
		return s
	}
}

func TestResolveUnencumbered(t *testing.T) {
	store := ledger.NewMemStore()
	txID := recordChain(t, store, []*uint32{nil}, [][][]byte{{[]byte("alice")}})

	cand, err := NewResolver(store).Resolve(context.Background(),
		types.StateRef{TxID: txID, Index: 0}, setNotary([]byte("new-notary")))
	require.NoError(t, err)

	require.Len(t, cand.Inputs, 1)
	require.Len(t, cand.Outputs, 1)
	assert.Equal(t, types.StateRef{TxID: txID, Index: 0}, cand.Inputs[0])
	assert.Nil(t, cand.Outputs[0].Encumbrance)
	assert.Equal(t, []byte("new-notary"), cand.Outputs[0].Notary)
	assert.Equal(t, [][]byte{[]byte("alice")}, cand.Participants)
}

func TestResolveChainRenumbersOutputs(t *testing.T) {
	store := ledger.NewMemStore()
	// the chain walks outputs out of order: 0 -> 2 -> 1
	txID := recordChain(t, store,
		[]*uint32{idx(2), nil, idx(1)},
		[][][]byte{
			{[]byte("alice")},
			{[]byte("carol"), []byte("alice")},
			{[]byte("bob")},
		})

	cand, err := NewResolver(store).Resolve(context.Background(),
		types.StateRef{TxID: txID, Index: 0}, setNotary([]byte("new-notary")))
	require.NoError(t, err)

	require.Len(t, cand.Inputs, 3)
	require.Len(t, cand.Outputs, 3)

	// inputs follow the original chain order
	assert.Equal(t, uint32(0), cand.Inputs[0].Index)
	assert.Equal(t, uint32(2), cand.Inputs[1].Index)
	assert.Equal(t, uint32(1), cand.Inputs[2].Index)

	// outputs are renumbered to candidate-local positions
	require.NotNil(t, cand.Outputs[0].Encumbrance)
	assert.Equal(t, uint32(1), *cand.Outputs[0].Encumbrance)
	require.NotNil(t, cand.Outputs[1].Encumbrance)
	assert.Equal(t, uint32(2), *cand.Outputs[1].Encumbrance)
	assert.Nil(t, cand.Outputs[2].Encumbrance)

	for _, out := range cand.Outputs {
		assert.Equal(t, []byte("new-notary"), out.Notary)
	}

	// deduplicated union of every walked state's participants
	assert.Equal(t, [][]byte{[]byte("alice"), []byte("bob"), []byte("carol")}, cand.Participants)
}

func TestResolveCyclicChain(t *testing.T) {
	store := ledger.NewMemStore()
	txID := recordChain(t, store,
		[]*uint32{idx(1), idx(0)},
		[][][]byte{{[]byte("alice")}, {[]byte("bob")}})

	_, err := NewResolver(store).Resolve(context.Background(),
		types.StateRef{TxID: txID, Index: 0}, setNotary([]byte("new-notary")))
	require.ErrorIs(t, err, ErrMalformedEncumbranceChain)
}

func TestResolveDanglingChain(t *testing.T) {
	store := ledger.NewMemStore()
	txID := recordChain(t, store, []*uint32{idx(5)}, [][][]byte{{[]byte("alice")}})

	_, err := NewResolver(store).Resolve(context.Background(),
		types.StateRef{TxID: txID, Index: 0}, setNotary([]byte("new-notary")))
	require.ErrorIs(t, err, ErrMalformedEncumbranceChain)
}

func TestResolveUnknownTransaction(t *testing.T) {
	store := ledger.NewMemStore()

	_, err := NewResolver(store).Resolve(context.Background(),
		types.StateRef{Index: 0}, setNotary([]byte("new-notary")))
	require.ErrorIs(t, err, ledger.ErrUnknownTransaction)
}
