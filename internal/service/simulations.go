package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/telvora/telvora-admin-bff/internal/domain"
	"github.com/telvora/telvora-admin-bff/internal/port"

	"go.uber.org/zap"
)

// SimulationService runs product-lab what-if simulations and manages their
// saved snapshots.
type SimulationService struct {
	store     port.SimulationStore
	inference port.InferenceClient
	logger    *zap.Logger
}

// NewSimulationService creates a SimulationService.
func NewSimulationService(store port.SimulationStore, inference port.InferenceClient, logger *zap.Logger) *SimulationService {
	return &SimulationService{store: store, inference: inference, logger: logger}
}

// Run validates the lab input, asks the inference service for the impact
// projection and derives the display result. Inference failures propagate: a
// fabricated simulation would mislead the product team.
func (s *SimulationService) Run(ctx context.Context, input domain.SimulationInput) (*domain.SimulationResult, error) {
	ctx, span := tracer.Start(ctx, "SimulationService.Run")
	defer span.End()

	price, err := parseSimulationInput(input)
	if err != nil {
		return nil, err
	}

	duration := input.DurationDays
	if duration == 0 {
		duration = 30
	}

	resp, err := s.inference.SimulateProduct(ctx, &domain.SimulateProductRequest{
		ProductName:  input.ProductName,
		Category:     input.Category,
		Price:        price,
		DurationDays: duration,
	})
	if err != nil {
		s.logger.Error("product simulation failed",
			zap.String("product_name", input.ProductName),
			zap.Error(err),
		)
		return nil, err
	}

	return domain.BuildSimulationResult(resp, price), nil
}

// Save persists a finished simulation snapshot.
func (s *SimulationService) Save(ctx context.Context, sim domain.Simulation) (*domain.Simulation, error) {
	ctx, span := tracer.Start(ctx, "SimulationService.Save")
	defer span.End()

	if strings.TrimSpace(sim.ProductName) == "" {
		return nil, &domain.ErrValidation{Field: "productName", Message: "required"}
	}
	if sim.CreatedAt.IsZero() {
		sim.CreatedAt = time.Now().UTC()
	}
	return s.store.SaveSimulation(ctx, sim)
}

// List returns saved snapshots, newest first, optionally narrowed to one day.
func (s *SimulationService) List(ctx context.Context, date string, limit int) ([]domain.Simulation, error) {
	ctx, span := tracer.Start(ctx, "SimulationService.List")
	defer span.End()

	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, &domain.ErrValidation{Field: "date", Message: "must be YYYY-MM-DD"}
		}
	}
	return s.store.ListSimulations(ctx, date, limit)
}

func (s *SimulationService) Delete(ctx context.Context, simulationID string) error {
	ctx, span := tracer.Start(ctx, "SimulationService.Delete")
	defer span.End()

	if simulationID == "" {
		return &domain.ErrValidation{Field: "id", Message: "required"}
	}
	return s.store.DeleteSimulation(ctx, simulationID)
}

// parseSimulationInput checks the free-text lab form fields and returns the
// parsed price.
func parseSimulationInput(input domain.SimulationInput) (float64, error) {
	if strings.TrimSpace(input.ProductName) == "" {
		return 0, &domain.ErrValidation{Field: "productName", Message: "required"}
	}
	if strings.TrimSpace(input.Category) == "" {
		return 0, &domain.ErrValidation{Field: "category", Message: "required"}
	}
	raw := strings.TrimSpace(input.Price)
	if raw == "" {
		return 0, &domain.ErrValidation{Field: "price", Message: "required"}
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &domain.ErrValidation{Field: "price", Message: "must be numeric"}
	}
	if price <= 0 {
		return 0, &domain.ErrValidation{Field: "price", Message: "must be positive"}
	}
	return price, nil
}
