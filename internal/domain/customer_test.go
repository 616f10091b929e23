package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/telvora/telvora-admin-bff/internal/domain"
)

func TestDecodeCustomer_FullRow(t *testing.T) {
	raw := json.RawMessage(`{
		"customer_id": "CUST-001",
		"plan_type": "Prepaid",
		"device_brand": "Samsung",
		"avg_data_usage_gb": 12.5,
		"pct_video_usage": 0.42,
		"avg_call_duration": 85.3,
		"sms_freq": 14,
		"monthly_spend": 75000,
		"topup_freq": 3,
		"travel_score": 1.8,
		"complaint_count": 1,
		"target_offer": "General Offer"
	}`)

	c := domain.DecodeCustomer(raw)

	if c.CustomerID != "CUST-001" {
		t.Errorf("expected customer id CUST-001, got %q", c.CustomerID)
	}
	if c.PlanType != "Prepaid" {
		t.Errorf("expected plan Prepaid, got %q", c.PlanType)
	}
	if c.VideoPercentage != 42 {
		t.Errorf("expected video percentage 42, got %v", c.VideoPercentage)
	}
	if c.ChurnRisk != domain.RiskScoreSomeComplaints {
		t.Errorf("expected risk score %d, got %d", domain.RiskScoreSomeComplaints, c.ChurnRisk)
	}
	if c.RiskTier != domain.RiskMedium {
		t.Errorf("expected Medium tier, got %q", c.RiskTier)
	}
}

func TestDecodeCustomer_MissingFieldsDefaultToZero(t *testing.T) {
	c := domain.DecodeCustomer(json.RawMessage(`{"customer_id":"CUST-002"}`))

	if c.DataUsageGB != 0 || c.MonthlySpend != 0 || c.SMSCount != 0 || c.TravelScore != 0 {
		t.Errorf("expected zeroed numerics, got %+v", c)
	}
	if c.PlanType != "N/A" || c.Device != "N/A" {
		t.Errorf("expected N/A placeholders, got plan=%q device=%q", c.PlanType, c.Device)
	}
	if c.RiskTier != domain.RiskLow {
		t.Errorf("expected Low tier for empty row, got %q", c.RiskTier)
	}
}

func TestDecodeCustomer_NullAndStringNumerics(t *testing.T) {
	raw := json.RawMessage(`{
		"customer_id": "CUST-003",
		"avg_data_usage_gb": "7.25",
		"monthly_spend": null,
		"sms_freq": "not-a-number",
		"complaint_count": "4"
	}`)

	c := domain.DecodeCustomer(raw)

	if c.DataUsageGB != 7.25 {
		t.Errorf("expected string number parsed to 7.25, got %v", c.DataUsageGB)
	}
	if c.MonthlySpend != 0 {
		t.Errorf("expected null to default to 0, got %v", c.MonthlySpend)
	}
	if c.SMSCount != 0 {
		t.Errorf("expected unparseable value to default to 0, got %d", c.SMSCount)
	}
	if c.ComplaintCount != 4 {
		t.Errorf("expected complaint count 4, got %d", c.ComplaintCount)
	}
	if c.ChurnRisk != domain.RiskScoreHighComplaints {
		t.Errorf("expected risk score %d, got %d", domain.RiskScoreHighComplaints, c.ChurnRisk)
	}
}

func TestDecodeCustomer_PassthroughColumns(t *testing.T) {
	raw := json.RawMessage(`{"customer_id":"CUST-004","region":"Jakarta","loyalty_tier":2}`)
	c := domain.DecodeCustomer(raw)

	if c.Extra["region"] != "Jakarta" {
		t.Errorf("expected region passthrough, got %v", c.Extra)
	}

	encoded, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(encoded, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["region"] != "Jakarta" {
		t.Errorf("expected region flattened into encoding, got %v", out)
	}
	if out["customerId"] != "CUST-004" {
		t.Errorf("expected mapped field preserved, got %v", out["customerId"])
	}
}

func TestChurnRiskScore_Precedence(t *testing.T) {
	cases := []struct {
		name       string
		complaints int
		offer      string
		wantScore  int
		wantTier   string
	}{
		{"many complaints", 5, "General Offer", domain.RiskScoreHighComplaints, domain.RiskHigh},
		{"many complaints override sentinel", 3, domain.ChurnSentinelOffer, domain.RiskScoreHighComplaints, domain.RiskHigh},
		{"some complaints", 1, "", domain.RiskScoreSomeComplaints, domain.RiskMedium},
		{"some complaints override sentinel", 2, domain.ChurnSentinelOffer, domain.RiskScoreSomeComplaints, domain.RiskMedium},
		{"sentinel only", 0, domain.ChurnSentinelOffer, domain.RiskScoreChurnPrevention, domain.RiskHigh},
		{"baseline", 0, "General Offer", domain.RiskScoreBaseline, domain.RiskLow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score := domain.ChurnRiskScore(tc.complaints, tc.offer)
			if score != tc.wantScore {
				t.Errorf("score: expected %d, got %d", tc.wantScore, score)
			}
			if tier := domain.RiskTierForScore(score); tier != tc.wantTier {
				t.Errorf("tier: expected %s, got %s", tc.wantTier, tier)
			}
		})
	}
}

func TestComputeCustomerStats_Empty(t *testing.T) {
	stats := domain.ComputeCustomerStats(nil)
	if stats.AvgMonthlySpend != 0 || stats.AvgDataUsageGB != 0 || stats.Total != 0 {
		t.Errorf("expected zero stats for empty input, got %+v", stats)
	}
}

func TestComputeCustomerStats(t *testing.T) {
	customers := []domain.Customer{
		{MonthlySpend: 100, DataUsageGB: 10, RiskTier: domain.RiskHigh},
		{MonthlySpend: 300, DataUsageGB: 20, RiskTier: domain.RiskLow},
	}
	stats := domain.ComputeCustomerStats(customers)
	if stats.AvgMonthlySpend != 200 {
		t.Errorf("expected avg spend 200, got %v", stats.AvgMonthlySpend)
	}
	if stats.AvgDataUsageGB != 15 {
		t.Errorf("expected avg usage 15, got %v", stats.AvgDataUsageGB)
	}
	if stats.HighRisk != 1 {
		t.Errorf("expected 1 high risk, got %d", stats.HighRisk)
	}
}
