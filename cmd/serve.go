package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/funding-cli/internal/config"
	"github.com/sells-group/funding-cli/internal/dedup"
	"github.com/sells-group/funding-cli/internal/fetcher"
	"github.com/sells-group/funding-cli/internal/model"
	"github.com/sells-group/funding-cli/internal/source"
)

// maxDedupeBody caps POST /v1/dedupe request bodies.
const maxDedupeBody = 10 << 20

var servePort int

// dedupeResponse is the body returned by POST /v1/dedupe.
type dedupeResponse struct {
	Companies []model.Company  `json:"companies"`
	Stats     model.DedupStats `json:"stats"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// newRouter builds the HTTP API around a deduplication threshold.
func newRouter(defaultThreshold float64) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/dedupe", func(w http.ResponseWriter, r *http.Request) {
		threshold := defaultThreshold
		if q := r.URL.Query().Get("threshold"); q != "" {
			t, err := strconv.ParseFloat(q, 64)
			if err != nil || t <= 0 || t > 100 {
				writeError(w, http.StatusBadRequest, "threshold must be a number in (0, 100]")
				return
			}
			threshold = t
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDedupeBody))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		records, err := source.ParseRecords(body, fetcher.FormatJSON)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		merged := dedup.New(dedup.Options{Threshold: threshold}).Deduplicate(records)
		zap.L().Info("api: dedupe",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Int("input", len(records)),
			zap.Int("output", len(merged)),
		)
		writeJSON(w, http.StatusOK, dedupeResponse{
			Companies: merged,
			Stats:     dedup.Stats(records, merged),
		})
	})

	return r
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the deduplication HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate(config.NeedServe); err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           newRouter(cfg.Dedup.Threshold),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
