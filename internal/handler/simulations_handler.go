package handler

import (
	"encoding/json"
	"net/http"

	"github.com/telvora/telvora-admin-bff/internal/domain"
	"github.com/telvora/telvora-admin-bff/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Product Lab — simulations
// ============================================================

func runSimulationHandler(svc *service.SimulationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/simulations/run")
		defer span.End()

		var input domain.SimulationInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("product.name", input.ProductName))

		result, err := svc.Run(ctx, input)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func saveSimulationHandler(svc *service.SimulationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/simulations")
		defer span.End()

		var sim domain.Simulation
		if err := json.NewDecoder(r.Body).Decode(&sim); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		saved, err := svc.Save(ctx, sim)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	}
}

func listSimulationsHandler(svc *service.SimulationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/simulations")
		defer span.End()

		date := r.URL.Query().Get("date")
		limit := queryInt(r, "limit", 100)

		sims, err := svc.List(ctx, date, limit)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sims)
	}
}

func deleteSimulationHandler(svc *service.SimulationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/simulations/{simulationId}")
		defer span.End()

		simulationID := chi.URLParam(r, "simulationId")
		if err := svc.Delete(ctx, simulationID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
