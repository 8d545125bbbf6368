// Package server exposes the JSON API consumed by the map frontend.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sentinews/sentinews/internal/aggregate"
	"github.com/sentinews/sentinews/internal/database"
	"github.com/sentinews/sentinews/internal/worker"
)

// Server is the HTTP server for the sentiment map API.
type Server struct {
	db     *database.DB
	engine *aggregate.Engine
	runner *worker.Runner
	sync   func()
	window time.Duration
	mux    *http.ServeMux
}

// New creates a new Server. sync is the background job triggered by
// /update-news; window is the aggregation lookback for /map-data.
func New(db *database.DB, sync func(), window time.Duration) *Server {
	s := &Server{
		db:     db,
		engine: aggregate.New(db),
		runner: worker.New(),
		sync:   sync,
		window: window,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server. Every response carries
// permissive CORS headers; the frontend is served from a different origin.
func (s *Server) Handler() http.Handler {
	return cors(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/rss", s.handleRSS)
	s.mux.HandleFunc("/map-data", s.handleMapData)
	s.mux.HandleFunc("/update-news", s.handleUpdateNews)
	s.mux.HandleFunc("/status", s.handleStatus)
}

func (s *Server) handleRSS(w http.ResponseWriter, r *http.Request) {
	articles, err := s.db.GetAllArticles()
	if err != nil {
		log.Printf("Error loading articles: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if articles == nil {
		articles = []database.Article{}
	}
	writeJSON(w, http.StatusOK, articles)
}

func (s *Server) handleMapData(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.Aggregate(s.window)
	if err != nil {
		log.Printf("Error aggregating map data: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleUpdateNews kicks off a sync run in the background. The refresh takes
// minutes; the client polls /rss or /map-data for results.
func (s *Server) handleUpdateNews(w http.ResponseWriter, r *http.Request) {
	if s.runner.Submit(s.sync) {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		return
	}
	writeJSON(w, http.StatusConflict, map[string]string{"status": "busy"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetStats()
	if err != nil {
		log.Printf("Error loading stats: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_articles": stats.TotalArticles,
		"with_location":  stats.WithLocation,
		"feeds":          stats.Feeds,
		"by_region":      stats.ByRegion,
		"updating":       s.runner.Running(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAddr formats the local bind address for the given port.
func ListenAddr(port int) string {
	return fmt.Sprintf("127.0.0.1:%d", port)
}
