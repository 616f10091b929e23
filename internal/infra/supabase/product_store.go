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
// Products — product_catalog with legacy packages fallback
// ============================================================

var productSources = []tableSource{
	{Table: "product_catalog", OrderKey: "product_id"},
	{Table: "packages", OrderKey: "product_id"},
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProducts")
	defer span.End()

	var products []domain.Product
	_, err := c.cb.Execute(func() (any, error) {
		rows, err := c.fetchAll(ctx, productSources, defaultPageSize)
		if err != nil {
			return nil, err
		}
		products = make([]domain.Product, 0, len(rows))
		for _, raw := range rows {
			products = append(products, domain.DecodeProduct(raw))
		}
		return nil, nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/products", Err: err}
	}

	span.SetAttributes(attribute.Int("products.count", len(products)))
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	var product *domain.Product
	_, err := c.cb.Execute(func() (any, error) {
		var lastErr error
		for _, src := range productSources {
			path := fmt.Sprintf("%s?product_id=eq.%s&limit=1", src.Table, productID)
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				lastErr = err
				continue
			}

			var rows []json.RawMessage
			if body != nil {
				if err := json.Unmarshal(body, &rows); err != nil {
					lastErr = fmt.Errorf("decode product from %s: %w", src.Table, err)
					continue
				}
			}
			if len(rows) == 0 {
				return nil, &domain.ErrNotFound{Resource: "product", ID: productID}
			}
			decoded := domain.DecodeProduct(rows[0])
			product = &decoded
			return nil, nil
		}
		return nil, lastErr
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/products", Err: err}
	}
	return product, nil
}

func (c *Client) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProduct")
	defer span.End()

	var product *domain.Product
	_, err := c.cb.Execute(func() (any, error) {
		body, err := c.doPost(ctx, "product_catalog", domain.EncodeProductRow(p))
		if err != nil {
			return nil, err
		}
		decoded, err := decodeSingle(body, domain.DecodeProduct)
		if err != nil {
			return nil, fmt.Errorf("decode created product: %w", err)
		}
		if decoded == nil {
			return nil, fmt.Errorf("insert returned no representation")
		}
		product = decoded
		return nil, nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/products", Err: err}
	}
	return product, nil
}

func (c *Client) UpdateProduct(ctx context.Context, productID string, p domain.Product) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	// The product id is the row key, not an updatable column.
	row := domain.EncodeProductRow(p)
	delete(row, "product_id")

	var product *domain.Product
	_, err := c.cb.Execute(func() (any, error) {
		path := fmt.Sprintf("product_catalog?product_id=eq.%s", productID)
		body, err := c.doPatch(ctx, path, row)
		if err != nil {
			return nil, err
		}
		decoded, err := decodeSingle(body, domain.DecodeProduct)
		if err != nil {
			return nil, err
		}
		if decoded == nil {
			return nil, &domain.ErrNotFound{Resource: "product", ID: productID}
		}
		product = decoded
		return nil, nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/products", Err: err}
	}
	return product, nil
}

func (c *Client) DeleteProduct(ctx context.Context, productID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.doDelete(ctx, fmt.Sprintf("product_catalog?product_id=eq.%s", productID))
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/products", Err: err}
	}
	return nil
}

func (c *Client) CountProducts(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountProducts")
	defer span.End()

	var total int
	_, err := c.cb.Execute(func() (any, error) {
		n, err := c.countWithFallback(ctx, productSources)
		if err != nil {
			return nil, err
		}
		total = n
		return nil, nil
	})
	if err != nil {
		return 0, &domain.ErrExternalService{Service: "supabase/products", Err: err}
	}
	return total, nil
}
