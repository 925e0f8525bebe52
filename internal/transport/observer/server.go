package observer

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"

	"gigcraft.ai/internal/persistence/indexdb"
	"gigcraft.ai/internal/runs"
	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/engine"
)

// Server is a read-only HTTP view over runs. It never applies commands.
type Server struct {
	runs  *runs.Manager
	index *indexdb.SQLiteIndex
	log   *log.Logger

	// LoopbackOnly restricts the run list to local callers.
	LoopbackOnly bool
}

func NewServer(m *runs.Manager, idx *indexdb.SQLiteIndex, logger *log.Logger) *Server {
	return &Server{runs: m, index: idx, log: logger, LoopbackOnly: true}
}

type RunSummary struct {
	RunID      string               `json:"run_id"`
	Seq        int                  `json:"seq"`
	Week       int                  `json:"week"`
	Year       int                  `json:"year"`
	Digest     string               `json:"digest"`
	PlayerName string               `json:"player_name"`
	BandName   string               `json:"band_name"`
	Difficulty string               `json:"difficulty"`
	Money      int                  `json:"money"`
	Fans       int                  `json:"fans"`
	Songs      int                  `json:"songs"`
	Albums     int                  `json:"albums"`
	GameOver   bool                 `json:"game_over"`
	Reason     string               `json:"reason,omitempty"`
	Ending     *career.EndingRecord `json:"ending,omitempty"`
	State      *career.GameState    `json:"state,omitempty"`
}

// RunsHandler serves GET /v1/runs.
func (s *Server) RunsHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if s.LoopbackOnly && !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		ids, err := s.runs.RunIDs()
		if err != nil {
			s.fail(rw, err)
			return
		}
		if ids == nil {
			ids = []string{}
		}
		writeJSON(rw, map[string]any{"runs": ids})
	}
}

// RunHandler serves GET /v1/runs/{id}. ?full=1 includes the whole state.
func (s *Server) RunHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id := r.PathValue("id")
		run, err := s.runs.Open(id)
		if err != nil {
			if errors.Is(err, runs.ErrRunNotFound) {
				http.Error(rw, "run not found", http.StatusNotFound)
				return
			}
			s.fail(rw, err)
			return
		}
		st := run.State()
		digest, err := engine.Digest(st)
		if err != nil {
			s.fail(rw, err)
			return
		}
		sum := RunSummary{
			RunID:      run.ID(),
			Seq:        run.Seq(),
			Week:       st.Week,
			Year:       st.Year,
			Digest:     digest,
			PlayerName: st.Player.Name,
			BandName:   st.Player.BandName,
			Difficulty: st.Difficulty,
			Money:      st.Player.Money,
			Fans:       st.Player.Fans,
			Songs:      len(st.Songs),
			Albums:     len(st.Albums),
			GameOver:   st.IsGameOver,
			Reason:     string(st.GameOverReason),
			Ending:     st.Ending,
		}
		if full, _ := strconv.ParseBool(r.URL.Query().Get("full")); full {
			sum.State = st
		}
		writeJSON(rw, sum)
	}
}

// LeaderboardHandler serves GET /v1/leaderboard?limit=N from the index.
func (s *Server) LeaderboardHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if s.index == nil {
			http.Error(rw, "index disabled", http.StatusServiceUnavailable)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		rows, err := s.index.TopEndings(r.Context(), limit)
		if err != nil {
			s.fail(rw, err)
			return
		}
		if rows == nil {
			rows = []indexdb.EndingRow{}
		}
		writeJSON(rw, map[string]any{"entries": rows})
	}
}

func (s *Server) fail(rw http.ResponseWriter, err error) {
	if s.log != nil {
		s.log.Printf("observer: %v", err)
	}
	http.Error(rw, "internal error", http.StatusInternalServerError)
}

func writeJSON(rw http.ResponseWriter, v any) {
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(v)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
