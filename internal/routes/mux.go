// Package routes
package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ntentasd/roomsense/internal/metrics"
	"github.com/ntentasd/roomsense/pkg/utils"
)

func NewMux(app *App) http.Handler {
	router := mux.NewRouter()
	router.Use(app.instrument)

	// health check
	router.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)

	// metrics
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// label one reading
	router.HandleFunc("/classify", app.classifyHandler).Methods(http.MethodPost)

	// run summaries
	router.HandleFunc("/summary", app.summaryHandler).Methods(http.MethodGet)
	router.HandleFunc("/summary/{run_id}", app.runSummaryHandler).Methods(http.MethodGet)

	// trigger a batch
	router.HandleFunc("/runs", app.runsHandler).Methods(http.MethodPost)

	return utils.WithCORS(router)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.code = code
	rec.ResponseWriter.WriteHeader(code)
}

func (app *App) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.HttpRequestLatencySeconds.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		metrics.HttpResponsesTotal.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
		app.logger.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("code", rec.code).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}
