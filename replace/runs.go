package replace

import (
	"fmt"
	"sync"

	"github.com/iykyk-syn/restate/crypto"
	"github.com/iykyk-syn/restate/types"
)

// runRegistry tracks replacement runs an acceptor has signed but not yet
// recorded, keyed by the unsigned transaction identifier. It keeps the issued
// signature so re-delivered proposals get the identical response instead of
// a second signing.
type runRegistry struct {
	runsMu sync.Mutex
	runs   map[types.TxID]crypto.Signature
}

func newRunRegistry() *runRegistry {
	return &runRegistry{
		runs: make(map[types.TxID]crypto.Signature),
	}
}

func (r *runRegistry) add(id types.TxID, sig crypto.Signature) error {
	r.runsMu.Lock()
	defer r.runsMu.Unlock()

	if _, ok := r.runs[id]; ok {
		return fmt.Errorf("replacement run %s already pending", id)
	}
	r.runs[id] = sig
	return nil
}

func (r *runRegistry) get(id types.TxID) (crypto.Signature, bool) {
	r.runsMu.Lock()
	defer r.runsMu.Unlock()

	sig, ok := r.runs[id]
	return sig, ok
}

func (r *runRegistry) remove(id types.TxID) {
	r.runsMu.Lock()
	defer r.runsMu.Unlock()
	delete(r.runs, id)
}
