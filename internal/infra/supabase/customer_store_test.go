package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/telvora/telvora-admin-bff/internal/domain"
)

func TestGetCustomer_MissingTableFallsBack(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/customer_profile", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"relation \"public.customer_profile\" does not exist"}`, http.StatusNotFound)
	})
	mux.HandleFunc("/rest/v1/customers", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("customer_id") != "eq.CUST-0001" {
			t.Errorf("customer_id filter = %q", r.URL.Query().Get("customer_id"))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"customer_id":"CUST-0001","plan_type":"Prepaid","monthly_spend":85000}]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	customer, err := c.GetCustomer(context.Background(), "CUST-0001")
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if customer.CustomerID != "CUST-0001" || customer.PlanType != "Prepaid" {
		t.Errorf("customer = %+v", customer)
	}
}

// An empty keyed result from a reachable table means the customer does not
// exist; the legacy table is not consulted.
func TestGetCustomer_EmptyRowsIsNotFound(t *testing.T) {
	var legacyCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/customer_profile", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/rest/v1/customers", func(w http.ResponseWriter, r *http.Request) {
		legacyCalls++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.GetCustomer(context.Background(), "CUST-9999")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if legacyCalls != 0 {
		t.Errorf("legacy table consulted %d times for a healthy primary", legacyCalls)
	}
}
