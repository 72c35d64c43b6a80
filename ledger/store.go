package ledger

import (
	"context"
	"errors"

	"github.com/iykyk-syn/restate/types"
)

// ErrUnknownTransaction is returned when the store holds no transaction with
// the requested identifier.
var ErrUnknownTransaction = errors.New("unknown transaction")

// Store keeps finalized transactions. A transaction is visible through the
// Store only after its signatures have been checked by whoever records it.
type Store interface {
	// Transaction returns the recorded transaction with the given identifier
	// or ErrUnknownTransaction.
	Transaction(ctx context.Context, id types.TxID) (*types.SignedTx, error)
	// Record makes the transaction durable and visible to readers. Recording
	// the same transaction twice is a no-op.
	Record(ctx context.Context, tx *types.SignedTx) error
}
