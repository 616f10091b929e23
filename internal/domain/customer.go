// Package domain defines the view-model entities served to the Telvora admin
// UI and the raw-row schemas of the hosted database tables. Raw rows are
// snake_case and may miss any column; each entity has exactly one decoding
// function that performs the null-to-default substitution, so the rest of the
// codebase never touches a raw column name.
package domain

import "encoding/json"

// Churn risk thresholds and scores. The tier is a local heuristic computed
// from complaint volume and the campaign label the scoring pipeline assigned,
// not a value returned by the inference service.
const (
	ChurnSentinelOffer = "churn_prevention"

	RiskScoreHighComplaints  = 75
	RiskScoreSomeComplaints  = 45
	RiskScoreChurnPrevention = 80
	RiskScoreBaseline        = 20
	RiskTierHighThreshold    = 70
	RiskTierMediumThreshold  = 40
)

// Risk tiers.
const (
	RiskHigh   = "High"
	RiskMedium = "Medium"
	RiskLow    = "Low"
)

// Customer is the camelCase, fully-defaulted shape the admin UI consumes.
type Customer struct {
	ID              string  `json:"id"`
	CustomerID      string  `json:"customerId"`
	PlanType        string  `json:"planType"`
	Device          string  `json:"device"`
	DataUsageGB     float64 `json:"dataUsage"`
	VideoPercentage float64 `json:"videoPercentage"`
	CallMinutes     float64 `json:"callMinutes"`
	SMSCount        int     `json:"smsCount"`
	MonthlySpend    float64 `json:"totalSpend"`
	TopupFreq       int     `json:"topupFreq"`
	TravelScore     float64 `json:"travelScore"`
	ComplaintCount  int     `json:"complaintCount"`
	TargetOffer     string  `json:"targetOffer"`
	ChurnRisk       int     `json:"churnRate"`
	RiskTier        string  `json:"riskLevel"`

	// Extra carries source columns the mapping does not know about, so new
	// backend columns survive a round trip through this service.
	Extra map[string]any `json:"-"`
}

// MarshalJSON flattens Extra into the encoded object. Mapped fields win over
// passthrough columns of the same name.
func (c Customer) MarshalJSON() ([]byte, error) {
	type alias Customer
	return marshalWithExtra(alias(c), c.Extra)
}

// CustomerRow is the raw customer_profile (or legacy customers) table row.
type CustomerRow struct {
	CustomerID     string    `json:"customer_id"`
	PlanType       string    `json:"plan_type"`
	DeviceBrand    string    `json:"device_brand"`
	AvgDataUsageGB FlexFloat `json:"avg_data_usage_gb"`
	PctVideoUsage  FlexFloat `json:"pct_video_usage"`
	AvgCallMinutes FlexFloat `json:"avg_call_duration"`
	SMSFreq        FlexInt   `json:"sms_freq"`
	MonthlySpend   FlexFloat `json:"monthly_spend"`
	TopupFreq      FlexInt   `json:"topup_freq"`
	TravelScore    FlexFloat `json:"travel_score"`
	ComplaintCount FlexInt   `json:"complaint_count"`
	TargetOffer    string    `json:"target_offer"`
}

// customerColumns lists the raw columns the mapping consumes; anything else in
// a row is passthrough.
var customerColumns = map[string]struct{}{
	"customer_id": {}, "plan_type": {}, "device_brand": {},
	"avg_data_usage_gb": {}, "pct_video_usage": {}, "avg_call_duration": {},
	"sms_freq": {}, "monthly_spend": {}, "topup_freq": {},
	"travel_score": {}, "complaint_count": {}, "target_offer": {},
}

// DecodeCustomer converts one raw row into the view-model. Missing and
// malformed cells become zero values; the fraction-valued pct_video_usage is
// scaled to a 0-100 percentage.
func DecodeCustomer(raw json.RawMessage) Customer {
	var row CustomerRow
	_ = json.Unmarshal(raw, &row)

	score := ChurnRiskScore(int(row.ComplaintCount), row.TargetOffer)

	return Customer{
		ID:              row.CustomerID,
		CustomerID:      row.CustomerID,
		PlanType:        defaultString(row.PlanType, "N/A"),
		Device:          defaultString(row.DeviceBrand, "N/A"),
		DataUsageGB:     float64(row.AvgDataUsageGB),
		VideoPercentage: float64(row.PctVideoUsage) * 100,
		CallMinutes:     float64(row.AvgCallMinutes),
		SMSCount:        int(row.SMSFreq),
		MonthlySpend:    float64(row.MonthlySpend),
		TopupFreq:       int(row.TopupFreq),
		TravelScore:     float64(row.TravelScore),
		ComplaintCount:  int(row.ComplaintCount),
		TargetOffer:     row.TargetOffer,
		ChurnRisk:       score,
		RiskTier:        RiskTierForScore(score),
		Extra:           extraColumns(raw, customerColumns),
	}
}

// ChurnRiskScore applies the churn heuristic. Rules are ordered; the first
// match wins, so any complaint history takes precedence over the campaign
// label.
func ChurnRiskScore(complaintCount int, targetOffer string) int {
	switch {
	case complaintCount > 2:
		return RiskScoreHighComplaints
	case complaintCount > 0:
		return RiskScoreSomeComplaints
	case targetOffer == ChurnSentinelOffer:
		return RiskScoreChurnPrevention
	default:
		return RiskScoreBaseline
	}
}

// RiskTierForScore maps a risk score to its display tier.
func RiskTierForScore(score int) string {
	switch {
	case score > RiskTierHighThreshold:
		return RiskHigh
	case score > RiskTierMediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// CustomerStats are dashboard aggregates over an already-fetched collection.
type CustomerStats struct {
	Total           int     `json:"total"`
	HighRisk        int     `json:"highRisk"`
	AvgMonthlySpend float64 `json:"avgMonthlySpend"`
	AvgDataUsageGB  float64 `json:"avgDataUsage"`
}

// ComputeCustomerStats reduces the collection in one pass. An empty collection
// yields zeros, never NaN.
func ComputeCustomerStats(customers []Customer) CustomerStats {
	stats := CustomerStats{Total: len(customers)}
	if len(customers) == 0 {
		return stats
	}
	var spend, usage float64
	for _, c := range customers {
		spend += c.MonthlySpend
		usage += c.DataUsageGB
		if c.RiskTier == RiskHigh {
			stats.HighRisk++
		}
	}
	stats.AvgMonthlySpend = spend / float64(len(customers))
	stats.AvgDataUsageGB = usage / float64(len(customers))
	return stats
}

// CountHighChurnRisk counts the customers the dashboard treats as high churn
// risk: heavy complainers plus anyone flagged by the churn-prevention
// campaign, regardless of complaint volume. Deliberately broader than the
// High display tier, where a moderate complaint history outranks the
// campaign label.
func CountHighChurnRisk(customers []Customer) int {
	n := 0
	for _, c := range customers {
		if c.ComplaintCount > 2 || c.TargetOffer == ChurnSentinelOffer {
			n++
		}
	}
	return n
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// extraColumns returns the row's unknown columns, or nil when every column is
// mapped.
func extraColumns(raw json.RawMessage, known map[string]struct{}) map[string]any {
	var all map[string]any
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil
	}
	var extra map[string]any
	for k, v := range all {
		if _, ok := known[k]; ok {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra
}

// marshalWithExtra encodes v, then splices the passthrough columns into the
// resulting object without overriding mapped fields.
func marshalWithExtra(v any, extra map[string]any) ([]byte, error) {
	base, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return base, nil
	}
	var merged map[string]any
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}
