package replace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iykyk-syn/restate/ledger"
	"github.com/iykyk-syn/restate/types"
	"github.com/iykyk-syn/restate/wire"
)

// assetV2Upgrader migrates "asset" states to "asset/v2", prefixing the data.
type assetV2Upgrader struct{}

func (assetV2Upgrader) LegacyContract() string   { return "asset" }
func (assetV2Upgrader) UpgradedContract() string { return "asset/v2" }

func (assetV2Upgrader) Upgrade(state types.State) (types.State, error) {
	state.ContractType = "asset/v2"
	state.Data = append([]byte("v2:"), state.Data...)
	return state, nil
}

func upgradeFixture() (types.State, types.State, types.Command) {
	input := types.State{
		ContractType: "asset",
		Data:         []byte("data"),
		Notary:       []byte("notary"),
		Participants: [][]byte{[]byte("alice"), []byte("bob")},
	}
	output, _ := assetV2Upgrader{}.Upgrade(input)
	cmd := types.Command{
		Data:    wire.MustEncode(&upgradeCmd{UpgradedContract: "asset/v2"}),
		Signers: [][]byte{[]byte("alice"), []byte("bob"), []byte("carol")},
	}
	return input, output, cmd
}

func TestVerifyUpgrade(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		input, output, cmd := upgradeFixture()
		require.NoError(t, VerifyUpgrade(input, output, cmd, assetV2Upgrader{}))
	})

	t.Run("signers not a superset", func(t *testing.T) {
		input, output, cmd := upgradeFixture()
		cmd.Signers = [][]byte{[]byte("alice")}
		err := VerifyUpgrade(input, output, cmd, assetV2Upgrader{})
		var upgErr *ContractUpgradeError
		require.ErrorAs(t, err, &upgErr)
		assert.Equal(t, "signers", upgErr.Clause)
	})

	t.Run("wrong legacy contract", func(t *testing.T) {
		input, output, cmd := upgradeFixture()
		input.ContractType = "bond"
		err := VerifyUpgrade(input, output, cmd, assetV2Upgrader{})
		var upgErr *ContractUpgradeError
		require.ErrorAs(t, err, &upgErr)
		assert.Equal(t, "legacy contract", upgErr.Clause)
	})

	t.Run("wrong upgraded contract", func(t *testing.T) {
		input, output, cmd := upgradeFixture()
		output.ContractType = "bond/v2"
		err := VerifyUpgrade(input, output, cmd, assetV2Upgrader{})
		var upgErr *ContractUpgradeError
		require.ErrorAs(t, err, &upgErr)
		assert.Equal(t, "upgraded contract", upgErr.Clause)
	})

	t.Run("output differs from upgrade result", func(t *testing.T) {
		input, output, cmd := upgradeFixture()
		output.Data = []byte("v2:other")
		err := VerifyUpgrade(input, output, cmd, assetV2Upgrader{})
		var upgErr *ContractUpgradeError
		require.ErrorAs(t, err, &upgErr)
		assert.Equal(t, "upgrade result", upgErr.Clause)
	})
}

func TestContractUpgradePolicy(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemStore()
	txID := recordChain(t, store, []*uint32{nil}, [][][]byte{{[]byte("alice"), []byte("bob")}})
	ref := types.StateRef{TxID: txID, Index: 0}

	policy := &ContractUpgrade{Upgrader: assetV2Upgrader{}}
	tx, participants, err := policy.AssembleCandidate(ctx, store, ref)
	require.NoError(t, err)
	require.Len(t, tx.Inputs, 1)
	require.Len(t, tx.Outputs, 1)
	assert.Equal(t, "asset/v2", tx.Outputs[0].ContractType)
	assert.Equal(t, [][]byte{[]byte("alice"), []byte("bob")}, participants)

	prop := &Proposal{Tx: *tx, Context: policy.Context(ref)}
	require.NoError(t, policy.VerifyReplacement(ctx, store, prop))

	// a proposal whose output is not the recomputed upgrade is refused
	bad := *tx
	bad.Outputs = []types.State{tx.Outputs[0]}
	bad.Outputs[0].Data = []byte("v2:forged")
	err = policy.VerifyReplacement(ctx, store, &Proposal{Tx: bad, Context: policy.Context(ref)})
	var upgErr *ContractUpgradeError
	require.ErrorAs(t, err, &upgErr)
	assert.Equal(t, "upgrade result", upgErr.Clause)
}

func TestContractUpgradeFactory(t *testing.T) {
	factory := NewContractUpgradeFactory(assetV2Upgrader{})

	_, err := factory(ChangeContext{Kind: KindContractUpgrade, UpgradedContract: "asset/v2"})
	require.NoError(t, err)
	_, err = factory(ChangeContext{Kind: KindContractUpgrade, UpgradedContract: "bond/v2"})
	require.Error(t, err)
}
