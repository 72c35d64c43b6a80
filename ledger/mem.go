package ledger

import (
	"context"
	"sync"

	"github.com/iykyk-syn/restate/types"
)

// MemStore is an in-memory Store. Readers may also block for transactions
// that have not arrived yet via Await.
type MemStore struct {
	txsMu   sync.Mutex
	txs     map[types.TxID]*types.SignedTx
	txsSubs map[types.TxID]map[chan *types.SignedTx]struct{}
}

func NewMemStore() *MemStore {
	return &MemStore{
		txs:     make(map[types.TxID]*types.SignedTx),
		txsSubs: make(map[types.TxID]map[chan *types.SignedTx]struct{}),
	}
}

func (s *MemStore) Transaction(_ context.Context, id types.TxID) (*types.SignedTx, error) {
	s.txsMu.Lock()
	defer s.txsMu.Unlock()

	tx, ok := s.txs[id]
	if !ok {
		return nil, ErrUnknownTransaction
	}
	return tx, nil
}

func (s *MemStore) Record(_ context.Context, tx *types.SignedTx) error {
	s.txsMu.Lock()
	defer s.txsMu.Unlock()

	id := tx.ID()
	if _, ok := s.txs[id]; ok {
		return nil
	}
	s.txs[id] = tx

	for sub := range s.txsSubs[id] {
		sub <- tx // subs are always buffered, so this won't block
	}
	delete(s.txsSubs, id)
	return nil
}

// Await blocks until a transaction with the identifier is recorded or the
// context is done.
func (s *MemStore) Await(ctx context.Context, id types.TxID) (*types.SignedTx, error) {
	s.txsMu.Lock()
	if tx, ok := s.txs[id]; ok {
		s.txsMu.Unlock()
		return tx, nil
	}

	subs, ok := s.txsSubs[id]
	if !ok {
		subs = make(map[chan *types.SignedTx]struct{})
		s.txsSubs[id] = subs
	}

	sub := make(chan *types.SignedTx, 1)
	subs[sub] = struct{}{}
	s.txsMu.Unlock()

	select {
	case tx := <-sub:
		return tx, nil
	case <-ctx.Done():
		// no need to keep the request, if the caller has canceled
		s.txsMu.Lock()
		delete(subs, sub)
		if len(subs) == 0 {
			delete(s.txsSubs, id)
		}
		s.txsMu.Unlock()
		return nil, ctx.Err()
	}
}

// Size reports the number of recorded transactions.
func (s *MemStore) Size() int {
	s.txsMu.Lock()
	defer s.txsMu.Unlock()
	return len(s.txs)
}
