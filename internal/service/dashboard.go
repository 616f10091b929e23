package service

import (
	"context"

	"github.com/telvora/telvora-admin-bff/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DashboardService aggregates the headline numbers on the admin home page.
type DashboardService struct {
	customers *CustomerService
	products  *ProductService
	logger    *zap.Logger
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(customers *CustomerService, products *ProductService, logger *zap.Logger) *DashboardService {
	return &DashboardService{customers: customers, products: products, logger: logger}
}

// Stats fans out over both tables and reduces them into one aggregate block.
// Revenue annualizes monthly spend; churn rate is the high-risk share of the
// directory, falling back to the historical default when the directory is
// empty or unreachable.
func (s *DashboardService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	ctx, span := tracer.Start(ctx, "DashboardService.Stats")
	defer span.End()

	var (
		customers []domain.Customer
		products  []domain.Product
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		customers = s.customers.List(gctx, CustomerFilter{})
		return nil
	})
	g.Go(func() error {
		products = s.products.List(gctx, ProductFilter{})
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	custStats := domain.ComputeCustomerStats(customers)
	prodStats := domain.ComputeProductStats(products)

	var revenue float64
	for _, c := range customers {
		revenue += c.MonthlySpend * 12
	}

	churnRate := domain.DefaultChurnRate
	if custStats.Total > 0 {
		churnRate = float64(domain.CountHighChurnRisk(customers)) / float64(custStats.Total) * 100
	} else {
		s.logger.Debug("empty customer directory, using default churn rate",
			zap.Float64("churn_rate", churnRate))
	}

	return &domain.DashboardStats{
		TotalCustomers: custStats.Total,
		TotalProducts:  prodStats.Total,
		TotalRevenue:   revenue,
		ChurnRate:      churnRate,
		MLAccuracy:     domain.ModelAccuracy,
		Customers:      custStats,
		Products:       prodStats,
	}, nil
}
