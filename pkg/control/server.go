// Package control implements the management/observability HTTP/3
// endpoint: GET /stats and GET /nexthops. It runs on its own goroutine,
// bound to a loopback or management-VLAN address distinct from the
// dataplane ports, and never touches per-packet hot-path state — it
// only reads the already-immutable Config and the shared Counters.
package control

import (
	"encoding/json"
	"net/http"

	"github.com/quic-go/quic-go/http3"

	"github.com/srv6pot/potnode/pkg/errs"
	"github.com/srv6pot/potnode/pkg/potcfg"
	"github.com/srv6pot/potnode/pkg/stats"
)

// Server is the control plane HTTP/3 server.
type Server struct {
	server   *http3.Server
	addr     string
	cfg      *potcfg.Config
	counters *stats.Counters
}

// NewServer builds a Server bound to addr, serving cfg's role/bypass/
// next-hop state and counters's live snapshot. It generates its own
// self-signed TLS certificate; callers never need to provision one.
func NewServer(addr string, cfg *potcfg.Config, counters *stats.Counters) (*Server, error) {
	tlsConfig, err := generateTLSConfig(addr)
	if err != nil {
		return nil, err
	}

	s := &Server{addr: addr, cfg: cfg, counters: counters}

	mux := http.NewServeMux()
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/nexthops", s.handleNextHops)

	s.server = &http3.Server{
		Addr:      addr,
		Handler:   mux,
		TLSConfig: tlsConfig,
	}
	return s, nil
}

// ListenAndServe starts the server. It blocks until Close is called or
// the listener fails.
func (s *Server) ListenAndServe() error {
	if err := s.server.ListenAndServe(); err != nil {
		return errs.Wrap(errs.Config, err)
	}
	return nil
}

// Close stops the server. Safe to call concurrently with ListenAndServe.
func (s *Server) Close() error {
	if err := s.server.Close(); err != nil {
		return errs.Wrap(errs.Config, err)
	}
	return nil
}

// statsResponse is the JSON-serialisable management snapshot: role,
// bypass bit, and the counter set. It never carries key material.
type statsResponse struct {
	Role     string         `json:"role"`
	Bypass   uint8          `json:"bypass"`
	Counters stats.Snapshot `json:"counters"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := statsResponse{
		Role:     s.cfg.Role.String(),
		Bypass:   uint8(s.cfg.Bypass),
		Counters: s.counters.Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// nextHopsResponse carries IPv6/MAC pairs only, never raw key material.
type nextHopsResponse struct {
	NextHops []nextHopEntry `json:"nexthops"`
}

type nextHopEntry struct {
	SID string `json:"sid"`
	MAC string `json:"mac"`
}

func (s *Server) handleNextHops(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	entries := s.cfg.NextHops.Entries()
	resp := nextHopsResponse{NextHops: make([]nextHopEntry, len(entries))}
	for i, e := range entries {
		resp.NextHops[i] = nextHopEntry{SID: e.SID, MAC: e.MAC}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
