package control

import (
	"encoding/json"
	"net"
	"net/http/httptest"
	"testing"

	"github.com/srv6pot/potnode/pkg/nexthop"
	"github.com/srv6pot/potnode/pkg/potcfg"
	"github.com/srv6pot/potnode/pkg/potcrypto"
	"github.com/srv6pot/potnode/pkg/stats"
	"github.com/srv6pot/potnode/pkg/wire"
)

func testConfig(t *testing.T) *potcfg.Config {
	t.Helper()
	table := nexthop.New()
	if err := table.Add("2001:db8::10", "02:00:00:00:00:02"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return &potcfg.Config{
		Role:            potcfg.RoleTransit,
		Bypass:          potcfg.BypassNone,
		NumTransitNodes: 1,
		SIDs:            [wire.NumSegments]net.IP{net.ParseIP("2001:db8::10"), net.ParseIP("2001:db8::100")},
		Keys:            [][potcrypto.KeyLen]byte{{}, {}},
		NextHops:        table,
	}
}

func TestHandleStats(t *testing.T) {
	cfg := testConfig(t)
	counters := stats.New()
	counters.IncDelivered(potcfg.RoleTransit)
	s := &Server{cfg: cfg, counters: counters}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/stats", nil)
	s.handleStats(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp statsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if resp.Role != "transit" {
		t.Fatalf("role = %q, want transit", resp.Role)
	}
	if resp.Counters.Delivered["transit"] != 1 {
		t.Fatalf("delivered[transit] = %d, want 1", resp.Counters.Delivered["transit"])
	}
}

func TestHandleNextHops(t *testing.T) {
	cfg := testConfig(t)
	s := &Server{cfg: cfg, counters: stats.New()}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/nexthops", nil)
	s.handleNextHops(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp nextHopsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(resp.NextHops) != 1 {
		t.Fatalf("nexthops len = %d, want 1", len(resp.NextHops))
	}
	if resp.NextHops[0].MAC != "02:00:00:00:00:02" {
		t.Fatalf("mac = %q, want 02:00:00:00:00:02", resp.NextHops[0].MAC)
	}
}

func TestHandleStats_RejectsNonGet(t *testing.T) {
	s := &Server{cfg: testConfig(t), counters: stats.New()}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/stats", nil)
	s.handleStats(rr, req)
	if rr.Code != 405 {
		t.Fatalf("status = %d, want 405", rr.Code)
	}
}

func TestGenerateTLSConfig(t *testing.T) {
	cfg, err := generateTLSConfig("test-mgmt")
	if err != nil {
		t.Fatalf("generateTLSConfig: %v", err)
	}
	if len(cfg.Certificates) != 1 {
		t.Fatalf("certificates = %d, want 1", len(cfg.Certificates))
	}
}
