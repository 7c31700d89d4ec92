// Package main is the entry point for the wasteroute pipeline service.
//
// wasteroute exposes the four route-planning stages (distance query, zone
// assignment, temporal planning, route optimisation; spec §6) as a small
// JSON/HTTP API, so a scheduling front-end or batch job can call each
// stage independently or chain them.
//
// # Configuration
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Environment variables (prefix: WASTEROUTE_)
//  2. Config files (config.yaml, config/config.yaml, /etc/wasteroute/config.yaml)
//  3. Default values (pkg/config/loader.go)
//
// # Endpoints
//
//	POST /v1/distance     -> internal/pipeline.DistanceQuery
//	POST /v1/assign       -> internal/pipeline.AssignZones
//	POST /v1/plan         -> internal/pipeline.PlanSchedule
//	POST /v1/optimize     -> internal/pipeline.OptimizeRoutes
//	GET  /healthz         -> liveness probe
//
// Metrics are served separately on metrics.port (default 9090) at the
// fixed path /metrics; the metrics.path setting is not read.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"wasteroute/internal/pipeline"
	"wasteroute/pkg/apperror"
	"wasteroute/pkg/cache"
	"wasteroute/pkg/config"
	"wasteroute/pkg/logger"
	"wasteroute/pkg/metrics"
	"wasteroute/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	ctx := context.Background()

	if cfg.Tracing.Enabled {
		tp, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:     cfg.Tracing.Enabled,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			logger.Log.Warn("failed to init telemetry", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Log.Warn("failed to shutdown telemetry", "error", err)
				}
			}()
		}
	}

	if cfg.Metrics.Enabled {
		metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
		metrics.Get().SetServiceInfo(cfg.App.Version, cfg.App.Environment)
		go func() {
			if err := metrics.StartMetricsServer(cfg.Metrics.Port); err != nil {
				logger.Log.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	var matrixCache *cache.MatrixCache
	if cfg.Cache.Enabled {
		baseCache, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Log.Warn("failed to create cache, continuing without it", "error", err)
		} else {
			matrixCache = cache.NewMatrixCache(baseCache, cfg.Cache.DefaultTTL)
			logger.Log.Info("distance-matrix cache initialised", "driver", cfg.Cache.Driver)
		}
	}

	pl := pipeline.New(cfg.Optimizer, matrixCache)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/v1/distance", handleDistanceQuery(pl))
	mux.HandleFunc("/v1/assign", handleAssignZones(pl))
	mux.HandleFunc("/v1/plan", handlePlanSchedule(pl))
	mux.HandleFunc("/v1/optimize", handleOptimizeRoutes(pl))

	addr := ":8080"
	logger.Info("starting wasteroute pipeline server",
		"addr", addr,
		"environment", cfg.App.Environment,
		"version", cfg.App.Version,
		"cache_enabled", matrixCache != nil,
	)

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", "error", err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func handleDistanceQuery(pl *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pipeline.DistanceQueryRequest
		if !decodeOrReject(w, r, &req) {
			return
		}
		resp, err := pl.DistanceQuery(r.Context(), req)
		writeResult(w, resp, err)
	}
}

func handleAssignZones(pl *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pipeline.AssignZonesRequest
		if !decodeOrReject(w, r, &req) {
			return
		}
		resp, err := pl.AssignZones(r.Context(), req)
		writeResult(w, resp, err)
	}
}

func handlePlanSchedule(pl *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pipeline.PlanScheduleRequest
		if !decodeOrReject(w, r, &req) {
			return
		}
		resp, err := pl.PlanSchedule(r.Context(), req)
		writeResult(w, resp, err)
	}
}

func handleOptimizeRoutes(pl *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pipeline.OptimizeRoutesRequest
		if !decodeOrReject(w, r, &req) {
			return
		}
		resp, err := pl.OptimizeRoutes(r.Context(), req)
		writeResult(w, resp, err)
	}
}

func decodeOrReject(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, apperror.New(apperror.CodeInvalidArgument, "malformed JSON body: "+err.Error()))
		return false
	}
	return true
}

// writeResult translates a pipeline error into an HTTP status per spec §7's
// four-category taxonomy: invalid input is rejected outright, everything
// else (infeasible, budget-exceeded, internal) still carries a result when
// one is available and the severity decides the status code.
func writeResult(w http.ResponseWriter, resp any, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	status := http.StatusUnprocessableEntity
	switch {
	case apperror.Is(err, apperror.CodeInvalidArgument),
		apperror.Is(err, apperror.CodeNilInput),
		apperror.Is(err, apperror.CodeDuplicateID),
		apperror.Is(err, apperror.CodeMalformedTime),
		apperror.Is(err, apperror.CodeNegativeDistance),
		apperror.Is(err, apperror.CodeNegativeCapacity),
		apperror.Is(err, apperror.CodeNegativeVolume),
		apperror.Is(err, apperror.CodeUnknownVertex),
		apperror.Is(err, apperror.CodeSelfLoop):
		status = http.StatusBadRequest
	case apperror.Is(err, apperror.CodeInternalInvariant), apperror.Is(err, apperror.CodeInternal):
		status = http.StatusInternalServerError
	}

	writeError(w, status, err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
