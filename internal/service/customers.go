// Package service holds the application services that sit between the HTTP
// handlers and the stores/inference clients.
package service

import (
	"context"
	"strings"

	"github.com/telvora/telvora-admin-bff/internal/domain"
	"github.com/telvora/telvora-admin-bff/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service")

// CustomerService serves the customer directory.
type CustomerService struct {
	store  port.CustomerStore
	logger *zap.Logger
}

// NewCustomerService creates a CustomerService.
func NewCustomerService(store port.CustomerStore, logger *zap.Logger) *CustomerService {
	return &CustomerService{store: store, logger: logger}
}

// CustomerFilter narrows a directory listing. Zero value means no filtering.
type CustomerFilter struct {
	Search    string // substring match on id, plan type or device, case-insensitive
	RiskLevel string // exact match on the derived risk tier
}

// List returns the customer directory. A storage failure degrades to an empty
// directory so the UI can render its empty state instead of an error page.
func (s *CustomerService) List(ctx context.Context, filter CustomerFilter) []domain.Customer {
	ctx, span := tracer.Start(ctx, "CustomerService.List")
	defer span.End()

	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		s.logger.Error("customer list unavailable, serving empty directory", zap.Error(err))
		return []domain.Customer{}
	}

	if filter.Search == "" && filter.RiskLevel == "" {
		return customers
	}

	search := strings.ToLower(filter.Search)
	out := make([]domain.Customer, 0, len(customers))
	for _, c := range customers {
		if search != "" && !matchesAny(search, c.CustomerID, c.PlanType, c.Device) {
			continue
		}
		if filter.RiskLevel != "" && c.RiskTier != filter.RiskLevel {
			continue
		}
		out = append(out, c)
	}
	return out
}

// matchesAny reports whether search occurs in any field, case-insensitively.
func matchesAny(search string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func (s *CustomerService) Get(ctx context.Context, customerID string) (*domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "CustomerService.Get")
	defer span.End()

	if customerID == "" {
		return nil, &domain.ErrValidation{Field: "customerId", Message: "required"}
	}
	return s.store.GetCustomer(ctx, customerID)
}

func (s *CustomerService) Create(ctx context.Context, row map[string]any) (*domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "CustomerService.Create")
	defer span.End()

	id, _ := row["customer_id"].(string)
	if id == "" {
		return nil, &domain.ErrValidation{Field: "customer_id", Message: "required"}
	}
	return s.store.CreateCustomer(ctx, row)
}

func (s *CustomerService) Update(ctx context.Context, customerID string, row map[string]any) (*domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "CustomerService.Update")
	defer span.End()

	if customerID == "" {
		return nil, &domain.ErrValidation{Field: "customerId", Message: "required"}
	}
	// The key column never changes through an update.
	delete(row, "customer_id")
	return s.store.UpdateCustomer(ctx, customerID, row)
}

func (s *CustomerService) Delete(ctx context.Context, customerID string) error {
	ctx, span := tracer.Start(ctx, "CustomerService.Delete")
	defer span.End()

	if customerID == "" {
		return &domain.ErrValidation{Field: "customerId", Message: "required"}
	}
	return s.store.DeleteCustomer(ctx, customerID)
}

// Stats reduces the whole directory to its dashboard aggregates.
func (s *CustomerService) Stats(ctx context.Context) domain.CustomerStats {
	ctx, span := tracer.Start(ctx, "CustomerService.Stats")
	defer span.End()

	return domain.ComputeCustomerStats(s.List(ctx, CustomerFilter{}))
}
