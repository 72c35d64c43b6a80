package replace

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrMalformedEncumbranceChain is returned when an encumbrance chain does not
// terminate in a single unencumbered state: an index points outside the
// originating transaction's outputs or revisits an already walked position.
var ErrMalformedEncumbranceChain = errors.New("malformed encumbrance chain")

// RejectedError aborts a whole replacement run: a participant declined,
// returned a signature that does not verify, or could not be reached.
// Replacement is all-or-nothing, so a single RejectedError means no
// participant records anything.
type RejectedError struct {
	// Participant is the SubjectPublicKeyInfo identity of the dissenter.
	Participant []byte
	// Reason carries the participant's own rejection reason, when it gave one.
	Reason string
	// Err is the underlying failure when the run did not reach a clean
	// rejection, e.g. a transport timeout or a bad signature.
	Err error
}

func (e *RejectedError) Error() string {
	participant := hex.EncodeToString(e.Participant)
	if len(participant) > 16 {
		participant = participant[:16]
	}
	switch {
	case e.Reason != "":
		return fmt.Sprintf("state replacement rejected by participant %s: %s", participant, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("state replacement rejected: participant %s: %s", participant, e.Err)
	default:
		return fmt.Sprintf("state replacement rejected by participant %s", participant)
	}
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// ContractUpgradeError reports which clause of the upgrade verification rule
// a proposed contract upgrade violates.
type ContractUpgradeError struct {
	Clause string
	Detail string
}

func (e *ContractUpgradeError) Error() string {
	return fmt.Sprintf("invalid contract upgrade: %s: %s", e.Clause, e.Detail)
}
