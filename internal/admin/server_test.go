package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"swarmmesh-sim/internal/config"
	"swarmmesh-sim/internal/logging"
	"swarmmesh-sim/internal/sim"
	"swarmmesh-sim/internal/swarm"
)

func newTestServer(t *testing.T) (*Server, *sim.Simulator) {
	t.Helper()
	s := sim.NewSimulator("test-run", config.Default(), nil,
		sim.WithStart(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		sim.WithLogger(logging.Discard()))
	srv := NewServer(s)
	srv.SetLogger(logging.Discard())
	return srv, s
}

func do(srv *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHandleState(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(srv, http.MethodGet, "/state", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var st swarm.State
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(st.Agents) != 10 || st.MasterID != "drone_1" {
		t.Fatalf("unexpected state: %d agents, master %q", len(st.Agents), st.MasterID)
	}
}

func TestHandleKillMaster(t *testing.T) {
	srv, s := newTestServer(t)

	if w := do(srv, http.MethodGet, "/kill-master", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET should be rejected, got %d", w.Code)
	}
	if w := do(srv, http.MethodPost, "/kill-master", nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if s.Snapshot().MasterID != "" {
		t.Fatalf("master should be cleared")
	}
	if w := do(srv, http.MethodPost, "/kill-master", nil); w.Code != http.StatusConflict {
		t.Fatalf("second kill should conflict, got %d", w.Code)
	}

	w := do(srv, http.MethodGet, "/events", nil)
	var events []swarm.ElectionEvent
	if err := json.NewDecoder(w.Body).Decode(&events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(events) == 0 || events[0].Kind != swarm.EventMasterLost {
		t.Fatalf("expected master_lost first, got %+v", events)
	}
}

func TestHandleTogglesAndFormation(t *testing.T) {
	srv, s := newTestServer(t)

	w := do(srv, http.MethodPost, "/pause", nil)
	var paused map[string]bool
	if err := json.NewDecoder(w.Body).Decode(&paused); err != nil || !paused["paused"] || !s.Paused() {
		t.Fatalf("pause not applied: %v %v", paused, err)
	}
	w = do(srv, http.MethodPost, "/mission", nil)
	if !strings.Contains(w.Body.String(), `"mission_active":true`) {
		t.Fatalf("mission not started: %s", w.Body.String())
	}
	if w := do(srv, http.MethodPost, "/formation?kind=circle", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if s.Snapshot().Formation != swarm.FormationCircle {
		t.Fatalf("formation not applied")
	}
	if w := do(srv, http.MethodPost, "/formation?kind=wedge", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown formation should be 400, got %d", w.Code)
	}
}

func TestHandlePhone(t *testing.T) {
	srv, s := newTestServer(t)
	motion := []byte(`{"x":0.5,"y":0,"yaw":1}`)

	if w := do(srv, http.MethodPost, "/phone/motion", motion); w.Code != http.StatusConflict {
		t.Fatalf("motion without phone should conflict, got %d", w.Code)
	}
	if w := do(srv, http.MethodPost, "/phone/connect", nil); w.Code != http.StatusNoContent {
		t.Fatalf("connect: %d", w.Code)
	}
	if w := do(srv, http.MethodPost, "/phone/connect", nil); w.Code != http.StatusConflict {
		t.Fatalf("second connect should conflict, got %d", w.Code)
	}
	if w := do(srv, http.MethodPost, "/phone/motion", []byte("{")); w.Code != http.StatusBadRequest {
		t.Fatalf("bad body should be 400, got %d", w.Code)
	}
	if w := do(srv, http.MethodPost, "/phone/motion", motion); w.Code != http.StatusNoContent {
		t.Fatalf("motion: %d", w.Code)
	}
	if s.Snapshot().PhoneIndex() < 0 {
		t.Fatalf("phone agent missing")
	}
	if w := do(srv, http.MethodPost, "/phone/disconnect", nil); w.Code != http.StatusNoContent {
		t.Fatalf("disconnect: %d", w.Code)
	}
}

func TestMeshVisibility(t *testing.T) {
	srv, s := newTestServer(t)
	s.Advance(100 * time.Millisecond)

	var all MeshView
	if err := json.NewDecoder(do(srv, http.MethodGet, "/mesh", nil).Body).Decode(&all); err != nil {
		t.Fatalf("decode mesh: %v", err)
	}
	if len(all.Zones) == 0 {
		t.Fatalf("expected jamming zones in default view")
	}

	if w := do(srv, http.MethodPost, "/mesh-visibility?layer=bogus", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown layer should be 400, got %d", w.Code)
	}
	do(srv, http.MethodPost, "/mesh-visibility?layer=master", nil)
	do(srv, http.MethodPost, "/mesh-visibility?layer=jamZone", nil)

	var filtered MeshView
	if err := json.NewDecoder(do(srv, http.MethodGet, "/mesh", nil).Body).Decode(&filtered); err != nil {
		t.Fatalf("decode mesh: %v", err)
	}
	for _, l := range filtered.Links {
		if l.From == "drone_1" || l.To == "drone_1" {
			t.Fatalf("master link exported while hidden: %+v", l)
		}
	}
	if len(filtered.Zones) != 0 {
		t.Fatalf("zones exported while hidden")
	}
	if before := s.Snapshot(); before.MasterID != "drone_1" {
		t.Fatalf("visibility must not touch the simulation")
	}
}

func TestBuildMeshViewDedupes(t *testing.T) {
	st := swarm.State{
		Agents: []swarm.Agent{
			{ID: "a", Role: swarm.RoleMaster, Health: swarm.HealthHealthy, Neighbors: []swarm.NeighborLink{{PeerID: "b", Distance: 10}}},
			{ID: "b", Role: swarm.RoleSlave, Health: swarm.HealthHealthy, Neighbors: []swarm.NeighborLink{{PeerID: "a", Distance: 10}, {PeerID: "c"}}},
			{ID: "c", IsPhone: true, Role: swarm.RoleSlave, Health: swarm.HealthHealthy, Neighbors: []swarm.NeighborLink{{PeerID: "b"}}},
		},
	}
	view := BuildMeshView(st, DefaultVisibility())
	if len(view.Links) != 2 {
		t.Fatalf("expected 2 undirected links, got %+v", view.Links)
	}
	vis := DefaultVisibility()
	vis.Phone = false
	if n := len(BuildMeshView(st, vis).Links); n != 1 {
		t.Fatalf("expected phone link hidden, got %d links", n)
	}
}

func TestStreamSendsSnapshots(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.SetStreamInterval(10 * time.Millisecond)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for i := 0; i < 2; i++ {
		var f Frame
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("read frame %d: %v", i, err)
		}
		if len(f.State.Agents) != 10 || f.Metrics.TotalAgents != 10 {
			t.Fatalf("unexpected frame: %+v", f.Metrics)
		}
	}
}

func TestHandleIndex(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(srv, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "drone_1") {
		t.Fatalf("index did not render master: %d", w.Code)
	}
	if w := do(srv, http.MethodGet, "/nope", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
