// Package statserv provides a way to run an http server
// with health, metrics, and read-only stats endpoints next to the bot
package statserv

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/emojistatsbot/emojistats/internal/core"
	"github.com/emojistatsbot/emojistats/internal/core/models"
)

type Config struct {
	Port        int
	TLSCertFile string
	TLSKeyFile  string
}

type Server struct {
	*http.Server

	cr core.Core
	l  *zap.SugaredLogger
}

func New(l *zap.SugaredLogger, c Config, cr core.Core) *Server {
	r := mux.NewRouter()

	s := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", c.Port),
			Handler:      r,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		cr: cr,
		l:  l,
	}

	r.HandleFunc("/healthz", handleHealthCheck()).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/guilds/{guildID}/{category}/top", s.handleTop()).Methods(http.MethodGet)

	r.Use(loggingMiddleware(l))

	return s
}

func loggingMiddleware(l *zap.SugaredLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.RequestURI == "/healthz" || r.RequestURI == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			l.Infow("request received", "uri", r.RequestURI, "method", r.Method)

			next.ServeHTTP(w, r)
		})
	}
}

// handleTop serves the top-N leaderboard for a guild and category as
// JSON, for dashboards or widgets. Read-only; limits are clamped the
// same way the slash commands clamp them.
func (s *Server) handleTop() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)

		cat, ok := models.ParseCategory(vars["category"])
		if !ok {
			http.Error(w, fmt.Sprintf("unknown category: %s", vars["category"]), http.StatusNotFound)
			return
		}

		limit := 10
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, fmt.Sprintf("invalid limit: %s", raw), http.StatusBadRequest)
				return
			}
			limit = n
		}

		items, err := s.cr.Top(r.Context(), vars["guildID"], cat, limit)
		if err != nil {
			s.l.Errorw("error fetching top counts", "guild_id", vars["guildID"], "category", cat, "err", err)
			http.Error(w, "error fetching counts", http.StatusInternalServerError)
			return
		}

		w.Header().Add("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(items); err != nil {
			s.l.Errorw("error encoding response", "err", err)
		}
	}
}

func handleHealthCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {}
}
