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

// Upgrader maps states of a legacy contract onto states of its upgraded
// contract. Implementations must be deterministic: every participant applies
// the same Upgrader and requires bit-for-bit equal results.
type Upgrader interface {
	// LegacyContract is the contract type the upgrade consumes.
	LegacyContract() string
	// UpgradedContract is the contract type the upgrade produces.
	UpgradedContract() string
	// Upgrade maps a legacy state to its upgraded replacement.
	Upgrade(state types.State) (types.State, error)
}

// ContractUpgrade replaces a single state of a legacy contract with the
// result of applying the Upgrader to it.
type ContractUpgrade struct {
	Upgrader Upgrader
}

// NewContractUpgradeFactory rebuilds ContractUpgrade policies from proposal
// contexts. The upgrader is fixed per factory; a context naming a different
// target contract is refused rather than silently upgraded to something else.
func NewContractUpgradeFactory(upg Upgrader) PolicyFactory {
	return func(cc ChangeContext) (Policy, error) {
		if cc.UpgradedContract != upg.UpgradedContract() {
			return nil, fmt.Errorf("no upgrader producing contract %q", cc.UpgradedContract)
		}
		return &ContractUpgrade{Upgrader: upg}, nil
	}
}

func (c *ContractUpgrade) Kind() string { return KindContractUpgrade }

func (c *ContractUpgrade) Context(ref types.StateRef) ChangeContext {
	return ChangeContext{
		Kind:             KindContractUpgrade,
		Ref:              ref,
		UpgradedContract: c.Upgrader.UpgradedContract(),
	}
}

type upgradeCmd struct {
	UpgradedContract string `codec:"upgraded_contract"`
}

func (c *ContractUpgrade) AssembleCandidate(ctx context.Context, store ledger.Store, ref types.StateRef) (*types.Tx, [][]byte, error) {
	tx, err := store.Transaction(ctx, ref.TxID)
	if err != nil {
		return nil, nil, err
	}
	if int(ref.Index) >= len(tx.Tx.Outputs) {
		return nil, nil, fmt.Errorf("output %d is out of range for transaction %s", ref.Index, ref.TxID)
	}

	input := tx.Tx.Outputs[ref.Index]
	if input.ContractType != c.Upgrader.LegacyContract() {
		return nil, nil, &ContractUpgradeError{
			Clause: "legacy contract",
			Detail: fmt.Sprintf("state contract is %q, upgrader consumes %q", input.ContractType, c.Upgrader.LegacyContract()),
		}
	}

	output, err := c.Upgrader.Upgrade(input)
	if err != nil {
		return nil, nil, fmt.Errorf("applying upgrade: %w", err)
	}
	output.Encumbrance = nil

	candTx := &types.Tx{
		Inputs:  []types.StateRef{ref},
		Outputs: []types.State{output},
		Commands: []types.Command{{
			Data:    wire.MustEncode(&upgradeCmd{UpgradedContract: c.Upgrader.UpgradedContract()}),
			Signers: input.Participants,
		}},
	}
	return candTx, input.Participants, nil
}

func (c *ContractUpgrade) VerifyReplacement(ctx context.Context, store ledger.Store, prop *Proposal) error {
	if len(prop.Tx.Inputs) != 1 || len(prop.Tx.Outputs) != 1 || len(prop.Tx.Commands) != 1 {
		return errors.New("contract upgrade transaction must have exactly one input, output and command")
	}

	ref := prop.Tx.Inputs[0]
	origin, err := store.Transaction(ctx, ref.TxID)
	if err != nil {
		return err
	}
	if int(ref.Index) >= len(origin.Tx.Outputs) {
		return fmt.Errorf("output %d is out of range for transaction %s", ref.Index, ref.TxID)
	}

	cmd := prop.Tx.Commands[0]
	var directive upgradeCmd
	if err := wire.Decode(cmd.Data, &directive); err != nil {
		return fmt.Errorf("decoding upgrade command: %w", err)
	}
	if directive.UpgradedContract != c.Upgrader.UpgradedContract() {
		return fmt.Errorf("upgrade command targets contract %q, upgrader produces %q",
			directive.UpgradedContract, c.Upgrader.UpgradedContract())
	}

	return VerifyUpgrade(origin.Tx.Outputs[ref.Index], prop.Tx.Outputs[0], cmd, c.Upgrader)
}

// VerifyUpgrade checks one input/output/command triple against the contract
// upgrade rule. Each violated clause is reported through ContractUpgradeError
// naming the clause.
func VerifyUpgrade(input, output types.State, cmd types.Command, upg Upgrader) error {
	for _, participant := range input.Participants {
		if !containsIdentity(cmd.Signers, participant) {
			return &ContractUpgradeError{
				Clause: "signers",
				Detail: "command signers do not cover every input participant",
			}
		}
	}
	if input.ContractType != upg.LegacyContract() {
		return &ContractUpgradeError{
			Clause: "legacy contract",
			Detail: fmt.Sprintf("input contract is %q, upgrader consumes %q", input.ContractType, upg.LegacyContract()),
		}
	}
	if output.ContractType != upg.UpgradedContract() {
		return &ContractUpgradeError{
			Clause: "upgraded contract",
			Detail: fmt.Sprintf("output contract is %q, upgrader produces %q", output.ContractType, upg.UpgradedContract()),
		}
	}

	want, err := upg.Upgrade(input)
	if err != nil {
		return fmt.Errorf("applying upgrade: %w", err)
	}
	want.Encumbrance = nil
	if !output.Equal(want) {
		return &ContractUpgradeError{
			Clause: "upgrade result",
			Detail: "output state differs from the upgrade of the input state",
		}
	}
	return nil
}

func containsIdentity(ids [][]byte, id []byte) bool {
	for _, candidate := range ids {
		if bytes.Equal(candidate, id) {
			return true
		}
	}
	return false
}
