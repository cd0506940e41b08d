// Package api exposes the HTTP surface: podcast search, summarization,
// persisted summaries, stats, and the progress websocket.
package api

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"podsumgo/pkg/logging"
	"podsumgo/pkg/version"
)

// NewServer creates and configures the HTTP server.
// It accepts handlers for all API endpoints and a shutdownFunc for graceful shutdown.
func NewServer(addr string, podcasts *PodcastHandler, summarize *SummarizeHandler, summaries *SummariesHandler, stats *StatsHandler, progress *ProgressHub, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health and Version
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)

	// 2. Podcast Catalog Endpoints
	mux.HandleFunc("GET /api/podcasts/search", podcasts.HandleSearch)
	mux.HandleFunc("GET /api/podcasts/best", podcasts.HandleBest)
	mux.HandleFunc("GET /api/podcasts/genres", podcasts.HandleGenres)
	mux.HandleFunc("GET /api/podcasts/{id}", podcasts.HandleGet)

	// 3. Summarization Endpoints
	mux.HandleFunc("POST /api/summarize", summarize.HandleSummarize)
	mux.HandleFunc("POST /api/summarize/estimate", summarize.HandleEstimate)

	// 4. Summary Record Endpoints
	mux.HandleFunc("GET /api/summaries", summaries.HandleList)
	mux.HandleFunc("POST /api/summaries", summaries.HandleCreate)
	mux.HandleFunc("GET /api/summaries/{id}", summaries.HandleGet)
	mux.HandleFunc("PATCH /api/summaries/{id}", summaries.HandlePatch)
	mux.HandleFunc("DELETE /api/summaries/{id}", summaries.HandleDelete)

	// 5. Stats Endpoint
	mux.Handle("GET /api/stats", stats)

	// 6. Progress Websocket
	mux.HandleFunc("GET /ws/progress", progress.HandleWS)

	// 7. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	return &http.Server{
		Addr:        addr,
		Handler:     logRequests(mux),
		ReadTimeout: 15 * time.Second,
		// No write timeout: summarize requests legitimately run for
		// minutes when the audio path is taken, and /ws/progress
		// holds its connection open.
		IdleTimeout: 60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack forwards to the underlying writer so the websocket upgrade on
// /ws/progress works through the logging wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return h.Hijack()
}

// logRequests writes one line per request to the requests log.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger := logging.RequestLogger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
			"remote", r.RemoteAddr)
	})
}
