package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/telvora/telvora-admin-bff/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Customers — customer_profile with legacy customers fallback
// ============================================================

// customerSources lists the tables that can serve customer rows, in
// preference order. The legacy customers table predates the profile
// migration and keeps the same column names.
var customerSources = []tableSource{
	{Table: "customer_profile", OrderKey: "customer_id"},
	{Table: "customers", OrderKey: "customer_id"},
}

func (c *Client) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCustomers")
	defer span.End()

	var customers []domain.Customer
	_, err := c.cb.Execute(func() (any, error) {
		rows, err := c.fetchAll(ctx, customerSources, defaultPageSize)
		if err != nil {
			return nil, err
		}
		customers = make([]domain.Customer, 0, len(rows))
		for _, raw := range rows {
			customers = append(customers, domain.DecodeCustomer(raw))
		}
		return nil, nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/customers", Err: err}
	}

	span.SetAttributes(attribute.Int("customers.count", len(customers)))
	return customers, nil
}

func (c *Client) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCustomer")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	var customer *domain.Customer
	_, err := c.cb.Execute(func() (any, error) {
		var lastErr error
		for _, src := range customerSources {
			path := fmt.Sprintf("%s?customer_id=eq.%s&limit=1", src.Table, customerID)
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				lastErr = err
				continue
			}

			var rows []json.RawMessage
			if body != nil {
				if err := json.Unmarshal(body, &rows); err != nil {
					lastErr = fmt.Errorf("decode customer from %s: %w", src.Table, err)
					continue
				}
			}
			if len(rows) == 0 {
				return nil, &domain.ErrNotFound{Resource: "customer", ID: customerID}
			}
			decoded := domain.DecodeCustomer(rows[0])
			customer = &decoded
			return nil, nil
		}
		return nil, lastErr
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/customers", Err: err}
	}
	return customer, nil
}

func (c *Client) CreateCustomer(ctx context.Context, row map[string]any) (*domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCustomer")
	defer span.End()

	var customer *domain.Customer
	_, err := c.cb.Execute(func() (any, error) {
		body, err := c.doPost(ctx, "customer_profile", row)
		if err != nil {
			return nil, err
		}
		decoded, err := decodeSingle(body, domain.DecodeCustomer)
		if err != nil {
			return nil, fmt.Errorf("decode created customer: %w", err)
		}
		if decoded == nil {
			return nil, fmt.Errorf("insert returned no representation")
		}
		customer = decoded
		return nil, nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/customers", Err: err}
	}
	return customer, nil
}

func (c *Client) UpdateCustomer(ctx context.Context, customerID string, row map[string]any) (*domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCustomer")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	var customer *domain.Customer
	_, err := c.cb.Execute(func() (any, error) {
		path := fmt.Sprintf("customer_profile?customer_id=eq.%s", customerID)
		body, err := c.doPatch(ctx, path, row)
		if err != nil {
			return nil, err
		}
		decoded, err := decodeSingle(body, domain.DecodeCustomer)
		if err != nil {
			return nil, err
		}
		if decoded == nil {
			return nil, &domain.ErrNotFound{Resource: "customer", ID: customerID}
		}
		customer = decoded
		return nil, nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/customers", Err: err}
	}
	return customer, nil
}

func (c *Client) DeleteCustomer(ctx context.Context, customerID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCustomer")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.doDelete(ctx, fmt.Sprintf("customer_profile?customer_id=eq.%s", customerID))
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/customers", Err: err}
	}
	return nil
}

func (c *Client) CountCustomers(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountCustomers")
	defer span.End()

	var total int
	_, err := c.cb.Execute(func() (any, error) {
		n, err := c.countWithFallback(ctx, customerSources)
		if err != nil {
			return nil, err
		}
		total = n
		return nil, nil
	})
	if err != nil {
		return 0, &domain.ErrExternalService{Service: "supabase/customers", Err: err}
	}
	return total, nil
}
