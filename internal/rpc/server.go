// Package rpc provides the status API for the Orbit daemon: a JSON status
// snapshot and a WebSocket feed of session events for UI clients. The core
// only emits here; it never renders or navigates.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/orbit-wallet/orbitd/internal/events"
	"github.com/orbit-wallet/orbitd/internal/session"
	"github.com/orbit-wallet/orbitd/pkg/logging"
)

// Server serves the status API.
type Server struct {
	bus   *events.Bus
	state *session.State
	log   *logging.Logger
	hub   *Hub

	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
}

// NewServer creates a status API server.
func NewServer(bus *events.Bus, state *session.State) *Server {
	return &Server{
		bus:   bus,
		state: state,
		log:   logging.GetDefault().Component("rpc"),
	}
}

// Hub returns the WebSocket hub, nil before Start.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start starts the HTTP listener and the event feed.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	s.hub = NewHub()
	go s.hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.feedEvents(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /ws", s.handleWS)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("Status server error", "error", err)
		}
	}()

	s.log.Info("Status server started", "addr", addr, "ws", "ws://"+addr+"/ws")
	return nil
}

// Stop stops the server.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// feedEvents forwards session events from the bus to WebSocket clients.
func (s *Server) feedEvents(ctx context.Context) {
	sub := s.bus.Subscribe(
		events.WalletStatusUpdate,
		events.NetworkStatusUpdate,
		events.WalletBestBlockUpdate,
		events.WalletPartialUpdate,
		events.WalletNewTx,
		events.TokenMetadataUpdated,
	)
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			s.hub.Broadcast(string(msg.Kind), msg.Payload)
		}
	}
}

// statusResponse is the /status payload.
type statusResponse struct {
	Status        string `json:"status"`
	Backend       string `json:"backend,omitempty"`
	Network       string `json:"network,omitempty"`
	ServerVersion string `json:"server_version,omitempty"`
	Online        bool   `json:"online"`
	Loading       bool   `json:"loading"`
	BestBlock     int64  `json:"best_block"`
	SharedAddress string `json:"shared_address,omitempty"`
	AddressIndex  int    `json:"address_index"`
}

// handleStatus serves the current session snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:    "idle",
		Online:    s.state.Online(),
		Loading:   s.state.Loading(),
		BestBlock: s.state.BestBlock(),
	}

	if sess := s.state.Session(); sess != nil {
		resp.Status = string(sess.Status())
		resp.Backend = string(sess.Kind)
	}

	info := s.state.ServerInfo()
	resp.Network = info.Network
	resp.ServerVersion = info.Version

	addr := s.state.SharedAddress()
	resp.SharedAddress = addr.Address
	resp.AddressIndex = addr.Index

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		s.log.Debug("Failed to write status response", "error", err)
	}
}
