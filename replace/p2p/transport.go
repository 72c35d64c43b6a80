package p2p

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"

	"github.com/iykyk-syn/restate/replace"
	"github.com/iykyk-syn/restate/wire"
)

var (
	proposalProtocolID = protocol.ID("/restate/proposal/v0.0.1")
	finalProtocolID    = protocol.ID("/restate/final/v0.0.1")
)

// PeerDirectory maps a participant identity, the SubjectPublicKeyInfo of its
// public key, to the network peer serving it.
type PeerDirectory func(identity []byte) (peer.ID, error)

// Transport delivers replacement protocol messages over libp2p streams, one
// stream per session: write the request, close the write side, block for the
// response.
type Transport struct {
	host  host.Host
	peers PeerDirectory

	log *slog.Logger
}

func NewTransport(host host.Host, peers PeerDirectory) *Transport {
	return &Transport{
		host:  host,
		peers: peers,
		log:   slog.With("module", "replace/p2p"),
	}
}

func (t *Transport) Propose(ctx context.Context, participant []byte, prop *replace.Proposal) (*replace.Response, error) {
	respData, err := t.send(ctx, participant, proposalProtocolID, prop)
	if err != nil {
		return nil, err
	}

	resp := new(replace.Response)
	if err := wire.Decode(respData, resp); err != nil {
		return nil, fmt.Errorf("decoding proposal response: %w", err)
	}
	return resp, nil
}

func (t *Transport) Distribute(ctx context.Context, participant []byte, fin *replace.Final) error {
	// the response is an empty ack, closing the stream is enough
	_, err := t.send(ctx, participant, finalProtocolID, fin)
	return err
}

func (t *Transport) send(ctx context.Context, participant []byte, pid protocol.ID, msg any) ([]byte, error) {
	to, err := t.peers(participant)
	if err != nil {
		return nil, fmt.Errorf("resolving participant peer: %w", err)
	}

	stream, err := t.host.NewStream(ctx, to, pid)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	defer stream.Close()

	// set stream deadline from the context deadline.
	// if it is empty, then we assume that it will
	// hang until the server will close the stream by the timeout.
	if dl, ok := ctx.Deadline(); ok {
		if err = stream.SetDeadline(dl); err != nil {
			t.log.WarnContext(ctx, "error setting deadline", "err", err)
		}
	}

	data, err := wire.Encode(msg)
	if err != nil {
		return nil, err
	}
	if _, err = stream.Write(data); err != nil {
		return nil, fmt.Errorf("writing message to stream: %w", err)
	}
	if err = stream.CloseWrite(); err != nil {
		return nil, err
	}

	respData, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("awaiting response: %w", err)
	}
	return respData, nil
}

// Listener serves the acceptor side of the replacement protocols on a host.
type Listener struct {
	host     host.Host
	acceptor *replace.Acceptor

	log *slog.Logger
}

func NewListener(host host.Host, acceptor *replace.Acceptor) *Listener {
	return &Listener{
		host:     host,
		acceptor: acceptor,
		log:      slog.With("module", "replace/p2p"),
	}
}

func (l *Listener) Start() {
	l.host.SetStreamHandler(proposalProtocolID, func(stream network.Stream) {
		if err := l.rcvProposal(stream); err != nil {
			l.log.Error("receiving proposal", "err", err)
		}
	})
	l.host.SetStreamHandler(finalProtocolID, func(stream network.Stream) {
		if err := l.rcvFinal(stream); err != nil {
			l.log.Error("receiving finalized transaction", "err", err)
		}
	})
}

func (l *Listener) Stop() {
	l.host.RemoveStreamHandler(proposalProtocolID)
	l.host.RemoveStreamHandler(finalProtocolID)
}

func (l *Listener) rcvProposal(stream network.Stream) error {
	data, err := io.ReadAll(stream)
	if err != nil {
		return fmt.Errorf("reading proposal: %w", err)
	}

	prop := new(replace.Proposal)
	if err := wire.Decode(data, prop); err != nil {
		stream.Reset()
		return fmt.Errorf("decoding proposal: %w", err)
	}

	resp, err := l.acceptor.HandleProposal(context.TODO(), prop)
	if err != nil {
		stream.Reset()
		return fmt.Errorf("handling proposal: %w", err)
	}

	respData, err := wire.Encode(resp)
	if err != nil {
		stream.Reset()
		return err
	}
	if _, err := stream.Write(respData); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return stream.Close()
}

func (l *Listener) rcvFinal(stream network.Stream) error {
	data, err := io.ReadAll(stream)
	if err != nil {
		return fmt.Errorf("reading finalized transaction: %w", err)
	}

	fin := new(replace.Final)
	if err := wire.Decode(data, fin); err != nil {
		stream.Reset()
		return fmt.Errorf("decoding finalized transaction: %w", err)
	}

	if err := l.acceptor.HandleFinal(context.TODO(), fin); err != nil {
		stream.Reset()
		return fmt.Errorf("handling finalized transaction: %w", err)
	}

	// ack other side that we are done by closing the stream
	return stream.Close()
}
