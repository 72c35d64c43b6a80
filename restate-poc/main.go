package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/peer"
	mocknet "github.com/libp2p/go-libp2p/p2p/net/mock"

	"github.com/iykyk-syn/restate/crypto/local"
	"github.com/iykyk-syn/restate/crypto/schemes"
	"github.com/iykyk-syn/restate/ledger"
	"github.com/iykyk-syn/restate/replace"
	"github.com/iykyk-syn/restate/replace/p2p"
	"github.com/iykyk-syn/restate/types"
)

const networkID = "restate-poc"

var (
	nodeCount  int
	schemeName string
	runTimeout time.Duration
)

func init() {
	flag.IntVar(&nodeCount, "nodes", 3, "Number of in-process participants")
	flag.StringVar(&schemeName, "scheme", schemes.DefaultCodeName, "Signature scheme code name for participant keys")
	flag.DurationVar(&runTimeout, "timeout", 10*time.Second, "Timeout for the whole replacement run")
	flag.Parse()

	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Println(err)
		defer os.Exit(1)
		return
	}
}

type node struct {
	signer *local.Signer
	store  *ledger.MemStore

	announcer *ledger.Announcer
	listener  *p2p.Listener
}

func run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	net, err := mocknet.FullMeshConnected(nodeCount)
	if err != nil {
		return err
	}
	defer net.Close()

	// every node gets its own key pair, store and announcer; the identity
	// directory maps signing identities onto mocknet peers
	nodes := make([]*node, nodeCount)
	directory := make(map[string]peer.ID, nodeCount)
	for i, host := range net.Hosts() {
		keys, err := schemes.GenerateKeys(schemeName)
		if err != nil {
			return err
		}
		signer, err := local.NewSigner(keys.Private)
		if err != nil {
			return err
		}

		store := ledger.NewMemStore()
		pSub, err := pubsub.NewFloodSub(ctx, host)
		if err != nil {
			return err
		}
		announcer := ledger.NewAnnouncer(networkID, store, pSub)
		if err := announcer.Start(); err != nil {
			return err
		}
		defer announcer.Stop() //nolint: errcheck

		nodes[i] = &node{signer: signer, store: store, announcer: announcer}
		directory[string(signer.ID())] = host.ID()
	}

	genesis, target, err := seedGenesis(ctx, nodes)
	if err != nil {
		return err
	}
	slog.Info("genesis recorded", "tx", genesis.ID(), "outputs", len(genesis.Tx.Outputs))

	// all but the first node act as acceptors
	factories := map[string]replace.PolicyFactory{
		replace.KindNotaryChange: replace.NewNotaryChangeFactory(),
	}
	for i, host := range net.Hosts() {
		if i == 0 {
			continue
		}
		acceptor := replace.NewAcceptor(nodes[i].signer, nodes[i].store, factories)
		listener := p2p.NewListener(host, acceptor)
		listener.Start()
		defer listener.Stop()
		nodes[i].listener = listener
	}

	notaryKeys, err := schemes.GenerateKeys(schemeName)
	if err != nil {
		return err
	}
	newNotary, err := schemes.EncodePublicKey(notaryKeys.Public)
	if err != nil {
		return err
	}

	lookup := func(identity []byte) (peer.ID, error) {
		id, ok := directory[string(identity)]
		if !ok {
			return "", fmt.Errorf("unknown participant %s", hex.EncodeToString(identity))
		}
		return id, nil
	}
	transport := p2p.NewTransport(net.Hosts()[0], lookup)
	instigator := replace.NewInstigator(nodes[0].signer, nodes[0].store, transport)

	signed, participants, err := instigator.Run(ctx, &replace.NotaryChange{NewNotary: newNotary}, target)
	if err != nil {
		return err
	}
	slog.Info("notary change finalized",
		"tx", signed.ID(), "participants", len(participants), "signatures", len(signed.Sigs))

	// let the remaining network learn the finalized transaction
	if err := nodes[0].announcer.Announce(ctx, signed); err != nil {
		return err
	}

	for i, n := range nodes {
		if _, err := n.store.Transaction(ctx, signed.ID()); err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}
		fmt.Printf("node %d recorded transaction %s\n", i, signed.ID())
	}
	return nil
}

// seedGenesis records one shared genesis transaction on every node: a chain
// of mutually encumbering states, one per participant, terminated by an
// unencumbered state. Returns the genesis transaction and a reference to the
// head of the chain.
func seedGenesis(ctx context.Context, nodes []*node) (*types.SignedTx, types.StateRef, error) {
	keys, err := schemes.Generate()
	if err != nil {
		return nil, types.StateRef{}, err
	}
	notary, err := schemes.EncodePublicKey(keys.Public)
	if err != nil {
		return nil, types.StateRef{}, err
	}

	builder := types.NewBuilder()
	for i, n := range nodes {
		state := types.State{
			ContractType: "restate.poc.Asset",
			Data:         []byte(fmt.Sprintf("asset-%d", i)),
			Notary:       notary,
			Participants: [][]byte{n.signer.ID()},
		}
		if i < len(nodes)-1 {
			next := uint32(i + 1)
			state.Encumbrance = &next
		}
		builder.AddOutput(state)
	}

	genesis, err := builder.ToSigned(false)
	if err != nil {
		return nil, types.StateRef{}, err
	}
	for _, n := range nodes {
		if err := n.store.Record(ctx, genesis); err != nil {
			return nil, types.StateRef{}, err
		}
	}
	return genesis, types.StateRef{TxID: genesis.ID(), Index: 0}, nil
}
