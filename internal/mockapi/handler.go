package mockapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// QueuesResponse is the body of GET /api/filas/.
type QueuesResponse struct {
	Verde    int `json:"verde"`
	Amarelo  int `json:"amarelo"`
	Vermelho int `json:"vermelho"`
}

// StatsResponse is the body of GET /api/stats/.
type StatsResponse struct {
	Atendidos    int `json:"atendidos"`
	Desistencias int `json:"desistencias"`
	Esperando    int `json:"esperando"`
	Total        int `json:"total"`
}

// DoctorStatus is one entry of the doctors roster. Sala is null while the
// doctor is free.
type DoctorStatus struct {
	ID      string  `json:"id"`
	Sala    *string `json:"sala"`
	Ocupado bool    `json:"ocupado"`
}

// DoctorsResponse is the body of GET /api/medicos/.
type DoctorsResponse struct {
	Medicos  []DoctorStatus `json:"medicos"`
	Livres   int            `json:"medicos_livres"`
	Ocupados int            `json:"medicos_ocupados"`
	Totais   int            `json:"medicos_totais"`
}

// admitRequest is the body of POST /api/pacientes/.
type admitRequest struct {
	Urgencia Level `json:"urgencia"`
	Surto    int   `json:"surto"`
}

type admitResponse struct {
	PIDs []int `json:"pids"`
}

// Handler serves the simulation over HTTP:
//
//   - GET /api/filas/: waiting patients per level
//   - GET /api/stats/: completion counts
//   - GET /api/medicos/: doctors roster with aggregate counts
//   - POST /api/pacientes/: admit {"urgencia": level, "surto": n} patients
//
// Each request first advances the simulation to the current time.
func (s *Simulator) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/filas/", func(w http.ResponseWriter, r *http.Request) {
		s.Advance(time.Now())
		s.writeJSON(w, http.StatusOK, s.Queues())
	})
	mux.HandleFunc("GET /api/stats/", func(w http.ResponseWriter, r *http.Request) {
		s.Advance(time.Now())
		s.writeJSON(w, http.StatusOK, s.Stats())
	})
	mux.HandleFunc("GET /api/medicos/", func(w http.ResponseWriter, r *http.Request) {
		s.Advance(time.Now())
		s.writeJSON(w, http.StatusOK, s.Doctors())
	})
	mux.HandleFunc("POST /api/pacientes/", s.handleAdmit)
	return mux
}

func (s *Simulator) handleAdmit(w http.ResponseWriter, r *http.Request) {
	var req admitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	n := max(req.Surto, 1)

	now := time.Now()
	resp := admitResponse{PIDs: make([]int, 0, n)}
	for i := 0; i < n; i++ {
		pid, err := s.Admit(req.Urgencia, now)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		resp.PIDs = append(resp.PIDs, pid)
	}
	s.Advance(now)
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Simulator) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

// Run admits burst patients of random levels every interval and advances the
// simulation, until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context, interval time.Duration, burst int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for i := 0; i < burst; i++ {
				s.mu.Lock()
				level := s.randomLevel()
				s.mu.Unlock()
				_, _ = s.Admit(level, now)
			}
			s.Advance(now)
		}
	}
}
