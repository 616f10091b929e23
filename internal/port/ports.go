// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"encoding/json"

	"github.com/telvora/telvora-admin-bff/internal/domain"
)

// CustomerStore is the persistence surface for customer profiles.
type CustomerStore interface {
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, row map[string]any) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, customerID string, row map[string]any) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, customerID string) error
	CountCustomers(ctx context.Context) (int, error)
}

// ProductStore is the persistence surface for the product catalog.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, productID string, p domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	CountProducts(ctx context.Context) (int, error)
}

// SimulationStore persists product-lab simulation snapshots.
type SimulationStore interface {
	SaveSimulation(ctx context.Context, sim domain.Simulation) (*domain.Simulation, error)
	ListSimulations(ctx context.Context, date string, limit int) ([]domain.Simulation, error)
	DeleteSimulation(ctx context.Context, simulationID string) error
}

// InferenceClient calls the external ML inference service.
type InferenceClient interface {
	CustomerInsight(ctx context.Context, customerID string, topN int) (*domain.InsightResult, error)
	SimulateProduct(ctx context.Context, req *domain.SimulateProductRequest) (*domain.SimulateProductResponse, error)
	ChurnComposition(ctx context.Context) (*domain.ChurnCompositionResult, error)
	Overview(ctx context.Context) (json.RawMessage, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
