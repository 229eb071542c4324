package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/m72elite/m72/internal/utils"
	"github.com/m72elite/m72/pkg/daystore"
	"github.com/m72elite/m72/pkg/storage"
	"github.com/m72elite/m72/pkg/syncer"
)

// Pusher sends a document snapshot to the configured webhook.
type Pusher interface {
	Push(ctx context.Context, target syncer.Target, payload []byte) (syncer.Result, error)
}

type Server struct {
	Store        *daystore.Store
	DB           *storage.DB // optional; enables /api/stats and the sync log
	Pusher       Pusher      // optional; /api/sync answers 503 without it
	Username     string
	Password     string
	TargetWeight float64

	pushes sync.WaitGroup
}

func New(store *daystore.Store, db *storage.DB, pusher Pusher, user, pass string) *Server {
	return &Server{
		Store:        store,
		DB:           db,
		Pusher:       pusher,
		Username:     user,
		Password:     pass,
		TargetWeight: daystore.DefaultTargetWeight,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/day", s.basicAuth(s.handleDay))
	mux.HandleFunc("POST /api/logs", s.basicAuth(s.handleAddLog))
	mux.HandleFunc("PATCH /api/logs", s.basicAuth(s.handleEditLog))
	mux.HandleFunc("DELETE /api/logs", s.basicAuth(s.handleDeleteLog))
	mux.HandleFunc("POST /api/water", s.basicAuth(s.handleWater))
	mux.HandleFunc("POST /api/burn", s.basicAuth(s.handleBurn))
	mux.HandleFunc("POST /api/weight", s.basicAuth(s.handleWeight))
	mux.HandleFunc("GET /api/trend", s.basicAuth(s.handleTrend))
	mux.HandleFunc("GET /api/predict", s.basicAuth(s.handlePredict))
	mux.HandleFunc("GET /api/foods", s.basicAuth(s.handleFoods))
	mux.HandleFunc("POST /api/foods/favorite", s.basicAuth(s.handleFavorite))
	mux.HandleFunc("GET /api/history", s.basicAuth(s.handleHistory))
	mux.HandleFunc("GET /api/export", s.basicAuth(s.handleExport))
	mux.HandleFunc("POST /api/sync", s.basicAuth(s.handleSync))
	mux.HandleFunc("GET /api/sync/log", s.basicAuth(s.handleSyncLog))
	mux.HandleFunc("GET /api/stats", s.basicAuth(s.handleStats))

	return mux
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting server on %s", addr)
	err := http.ListenAndServe(addr, s.Handler())
	s.Wait()
	return err
}

// Wait blocks until background sync pushes have finished.
func (s *Server) Wait() {
	s.pushes.Wait()
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
