package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tikblend/tikblend/pkg/config"
	"github.com/tikblend/tikblend/pkg/model"
	"github.com/tikblend/tikblend/pkg/news"
)

type generateService interface {
	Generate(ctx context.Context, date string) (*model.Generation, error)
}

type historyService interface {
	GetGeneration(ctx context.Context, date string) (*model.Generation, error)
}

type headlineService interface {
	Headline(ctx context.Context) (*news.Item, error)
}

type Server struct {
	http.Server

	generator generateService
	history   historyService
	headlines headlineService
}

func NewServer(cfg *config.Config, generator generateService, history historyService, headlines headlineService, storage http.FileSystem) *Server {
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}

	bindAddress := cfg.Server.BindAddress
	if bindAddress == "*" {
		bindAddress = ""
	}

	srv := Server{
		generator: generator,
		history:   history,
		headlines: headlines,
	}

	srv.Addr = fmt.Sprintf("%s:%d", bindAddress, port)
	log.Debugf("using address: %s", srv.Addr)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", srv.handleHealth)
	mux.HandleFunc("GET /api/video/{date}", srv.handleGetVideo)
	mux.HandleFunc("POST /api/video/{date}/generate", srv.handleGenerate)
	mux.HandleFunc("GET /api/news/today", srv.handleNews)
	mux.Handle("GET /data/", http.StripPrefix("/data/", http.FileServer(storage)))
	srv.Handler = requestLogger(mux)

	return &srv
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debugf("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")

	generation, err := s.history.GetGeneration(r.Context(), date)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"success": false,
				"error":   fmt.Sprintf("no video generated for %q", date),
			})
			return
		}

		writeJSON(w, http.StatusInternalServerError, failure(err))
		return
	}

	writeJSON(w, http.StatusOK, generation)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")

	generation, err := s.generator.Generate(r.Context(), date)
	if err != nil {
		log.WithError(err).Errorf("generation failed for %q", date)
		writeJSON(w, statusFor(err), failure(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"url":     generation.OutputURL,
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	story, err := s.headlines.Headline(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, failure(err))
		return
	}

	writeJSON(w, http.StatusOK, story)
}

// statusFor maps the error taxonomy to HTTP statuses: upstream content
// failures are 502, everything else is 500.
func statusFor(err error) int {
	var downloadErr *model.DownloadError

	switch {
	case errors.Is(err, model.ErrResolutionUnavailable):
		return http.StatusBadGateway
	case errors.As(err, &downloadErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func failure(err error) map[string]interface{} {
	return map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}
