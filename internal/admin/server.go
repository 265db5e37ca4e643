// HTTP host adapter exposing swarm queries, commands and a snapshot stream
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"swarmmesh-sim/internal/sim"
	"swarmmesh-sim/internal/swarm"
)

// Simulator is the query and command surface the server drives.
type Simulator interface {
	Snapshot() swarm.State
	Events() []swarm.ElectionEvent
	Metrics() swarm.Metrics
	Paused() bool
	KillMaster() error
	ToggleMission() bool
	TogglePause() bool
	SetFormation(swarm.FormationKind) error
	ConnectPhone() error
	DisconnectPhone() error
	UpdatePhoneMotion(swarm.MotionSample) error
}

//go:embed templates/index.html
var content embed.FS

// DefaultStreamInterval is how often /ws pushes a snapshot.
const DefaultStreamInterval = 200 * time.Millisecond

// Server exposes a Simulator over HTTP: JSON queries, POST commands and a
// websocket frame stream. Mesh visibility layers live here, not in the engine.
type Server struct {
	Sim Simulator

	tpl      *template.Template
	mux      *http.ServeMux
	upgrader websocket.Upgrader
	interval time.Duration
	log      *slog.Logger

	mu  sync.Mutex
	vis Visibility
}

// NewServer wires the routes for sim.
func NewServer(s Simulator) *Server {
	srv := &Server{
		Sim:      s,
		tpl:      template.Must(template.New("index.html").ParseFS(content, "templates/index.html")),
		mux:      http.NewServeMux(),
		interval: DefaultStreamInterval,
		log:      slog.Default(),
		vis:      DefaultVisibility(),
	}
	srv.routes()
	return srv
}

// SetStreamInterval changes the websocket push period.
func (s *Server) SetStreamInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// SetLogger replaces the request logger.
func (s *Server) SetLogger(l *slog.Logger) { s.log = l }

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/state", s.handleState)
	s.mux.HandleFunc("/events", s.handleEvents)
	s.mux.HandleFunc("/metrics", s.handleMetrics)
	s.mux.HandleFunc("/mesh", s.handleMesh)
	s.mux.HandleFunc("/kill-master", post(s.handleKillMaster))
	s.mux.HandleFunc("/mission", post(s.handleMission))
	s.mux.HandleFunc("/pause", post(s.handlePause))
	s.mux.HandleFunc("/formation", post(s.handleFormation))
	s.mux.HandleFunc("/phone/connect", post(s.handlePhoneConnect))
	s.mux.HandleFunc("/phone/disconnect", post(s.handlePhoneDisconnect))
	s.mux.HandleFunc("/phone/motion", post(s.handlePhoneMotion))
	s.mux.HandleFunc("/mesh-visibility", post(s.handleVisibility))
	s.mux.HandleFunc("/ws", s.handleStream)
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Start serves on addr until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()
	s.log.Info("admin server listening", "addr", addr)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func post(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps command errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sim.ErrUnknownFormation):
		return http.StatusBadRequest
	case errors.Is(err, sim.ErrNoMaster), errors.Is(err, sim.ErrNoPhone), errors.Is(err, sim.ErrPhoneConnected):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := struct {
		State   swarm.State
		Metrics swarm.Metrics
		Paused  bool
	}{
		State:   s.Sim.Snapshot(),
		Metrics: s.Sim.Metrics(),
		Paused:  s.Sim.Paused(),
	}
	if err := s.tpl.Execute(w, data); err != nil {
		s.log.Error("render index failed", "err", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Snapshot())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Events())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Metrics())
}

func (s *Server) handleMesh(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BuildMeshView(s.Sim.Snapshot(), s.Visibility()))
}

func (s *Server) handleKillMaster(w http.ResponseWriter, r *http.Request) {
	if err := s.Sim.KillMaster(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMission(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"mission_active": s.Sim.ToggleMission()})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"paused": s.Sim.TogglePause()})
}

func (s *Server) handleFormation(w http.ResponseWriter, r *http.Request) {
	kind := swarm.FormationKind(r.URL.Query().Get("kind"))
	if err := s.Sim.SetFormation(kind); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"formation": string(kind)})
}

func (s *Server) handlePhoneConnect(w http.ResponseWriter, r *http.Request) {
	if err := s.Sim.ConnectPhone(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePhoneDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.Sim.DisconnectPhone(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePhoneMotion(w http.ResponseWriter, r *http.Request) {
	var m swarm.MotionSample
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Sim.UpdatePhoneMotion(m); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	layer := Layer(r.URL.Query().Get("layer"))
	s.mu.Lock()
	err := s.vis.Toggle(layer)
	vis := s.vis
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, vis)
}

// Visibility returns the current mesh layer filters.
func (s *Server) Visibility() Visibility {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vis
}

// Frame is one message of the snapshot stream.
type Frame struct {
	State   swarm.State   `json:"state"`
	Metrics swarm.Metrics `json:"metrics"`
	Paused  bool          `json:"paused"`
	Mesh    MeshView      `json:"mesh"`
}

func (s *Server) frame() Frame {
	st := s.Sim.Snapshot()
	return Frame{
		State:   st,
		Metrics: s.Sim.Metrics(),
		Paused:  s.Sim.Paused(),
		Mesh:    BuildMeshView(st, s.Visibility()),
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are processed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if err := conn.WriteJSON(s.frame()); err != nil {
			s.log.Debug("websocket stream ended", "err", err)
			return
		}
		select {
		case <-ticker.C:
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
