package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/telvora/telvora-admin-bff/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Simulations — product_simulations snapshots
// ============================================================

const simulationsTable = "product_simulations"

// SaveSimulation inserts a snapshot, assigning a fresh id when the caller did
// not provide one.
func (c *Client) SaveSimulation(ctx context.Context, sim domain.Simulation) (*domain.Simulation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SaveSimulation")
	defer span.End()

	if sim.ID == "" {
		sim.ID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("simulation.id", sim.ID))

	var saved *domain.Simulation
	_, err := c.cb.Execute(func() (any, error) {
		body, err := c.doPost(ctx, simulationsTable, domain.EncodeSimulationRow(sim))
		if err != nil {
			return nil, err
		}
		decoded, err := decodeSingle(body, domain.DecodeSimulation)
		if err != nil {
			return nil, fmt.Errorf("decode saved simulation: %w", err)
		}
		if decoded == nil {
			return nil, fmt.Errorf("insert returned no representation")
		}
		saved = decoded
		return nil, nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/simulations", Err: err}
	}
	return saved, nil
}

// ListSimulations returns the newest snapshots first. A date in YYYY-MM-DD
// form narrows the result to simulations created that day.
func (c *Client) ListSimulations(ctx context.Context, date string, limit int) ([]domain.Simulation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListSimulations")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}
	path := fmt.Sprintf("%s?select=*&order=created_at.desc&limit=%d", simulationsTable, limit)
	if date != "" {
		// The .999 keeps sub-second timestamps inside the inclusive
		// end-of-day bound.
		path += fmt.Sprintf("&created_at=gte.%sT00:00:00&created_at=lte.%sT23:59:59.999", date, date)
	}

	var sims []domain.Simulation
	_, err := c.cb.Execute(func() (any, error) {
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return nil, err
		}

		var rows []json.RawMessage
		if body != nil {
			if err := json.Unmarshal(body, &rows); err != nil {
				return nil, fmt.Errorf("decode simulations: %w", err)
			}
		}
		sims = make([]domain.Simulation, 0, len(rows))
		for _, raw := range rows {
			sims = append(sims, domain.DecodeSimulation(raw))
		}
		return nil, nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/simulations", Err: err}
	}

	span.SetAttributes(attribute.Int("simulations.count", len(sims)))
	return sims, nil
}

func (c *Client) DeleteSimulation(ctx context.Context, simulationID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteSimulation")
	defer span.End()
	span.SetAttributes(attribute.String("simulation.id", simulationID))

	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.doDelete(ctx, fmt.Sprintf("%s?id=eq.%s", simulationsTable, simulationID))
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/simulations", Err: err}
	}
	return nil
}
