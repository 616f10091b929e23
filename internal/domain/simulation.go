package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// Price segment boundaries (IDR).
const (
	priceSegmentMidRange = 100000
	priceSegmentPremium  = 200000
)

// SimulationInput is the what-if product configuration submitted from the
// product lab form. Price arrives as free text and is validated before any
// network call.
type SimulationInput struct {
	ProductName  string  `json:"productName"`
	Category     string  `json:"category"`
	Price        string  `json:"price"`
	DurationDays int     `json:"duration"`
	DataGB       float64 `json:"dataCapacity"`
	Minutes      float64 `json:"minutes"`
	SMS          float64 `json:"sms"`
	VODGB        float64 `json:"vodCapacity"`
}

// TargetSegment is one slice of the simulated customer match breakdown.
type TargetSegment struct {
	Segment    string  `json:"segment"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// SimulationResult is the computed outcome of a product-impact simulation.
type SimulationResult struct {
	Hits           int             `json:"hits"`
	Revenue        float64         `json:"revenue"`
	MatchScore     float64         `json:"matchScore"`
	ConversionRate float64         `json:"conversionRate"`
	PriceSegment   string          `json:"priceSegment"`
	TargetUsers    []TargetSegment `json:"targetUsers"`
	Recommendation string          `json:"recommendation"`
	TotalAnalyzed  int             `json:"totalAnalyzed"`
}

// Simulation is a persisted snapshot of a simulated product plus its outcome.
// Immutable once saved, except for deletion.
type Simulation struct {
	ID             string          `json:"id"`
	ProductName    string          `json:"productName"`
	Category       string          `json:"category"`
	Price          float64         `json:"price"`
	DurationDays   int             `json:"duration"`
	DataGB         float64         `json:"dataCapacity"`
	Minutes        float64         `json:"minutes"`
	SMS            float64         `json:"sms"`
	VODGB          float64         `json:"vodCapacity"`
	MatchScore     float64         `json:"matchScore"`
	EstimatedHits  int             `json:"estimatedRecommendations"`
	ConversionRate float64         `json:"conversionRate"`
	PriceSegment   string          `json:"priceSegment"`
	TargetUsers    []TargetSegment `json:"targetUsers"`
	Recommendation string          `json:"recommendation"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// SimulationRow is the raw product_simulations table row. The target_users
// column is stored as a JSON-encoded string, but older rows may hold a native
// JSON array; RawMessage defers that decision to DecodeSimulation.
type SimulationRow struct {
	ID             string          `json:"id"`
	ProductName    string          `json:"product_name"`
	Category       string          `json:"category"`
	Price          FlexFloat       `json:"price"`
	Duration       FlexInt         `json:"duration_days"`
	DataGB         FlexFloat       `json:"data_capacity_gb"`
	Minutes        FlexFloat       `json:"minutes"`
	SMS            FlexFloat       `json:"sms"`
	VODGB          FlexFloat       `json:"vod_capacity_gb"`
	MatchScore     FlexFloat       `json:"match_score"`
	EstimatedHits  FlexInt         `json:"estimated_recommendations"`
	ConversionRate FlexFloat       `json:"conversion_rate"`
	PriceSegment   string          `json:"price_segment"`
	TargetUsers    json.RawMessage `json:"target_users"`
	Recommendation string          `json:"recommendation"`
	CreatedAt      time.Time       `json:"created_at"`
}

// DecodeSimulation converts one raw row into the view-model.
func DecodeSimulation(raw json.RawMessage) Simulation {
	var row SimulationRow
	_ = json.Unmarshal(raw, &row)

	return Simulation{
		ID:             row.ID,
		ProductName:    row.ProductName,
		Category:       row.Category,
		Price:          float64(row.Price),
		DurationDays:   int(row.Duration),
		DataGB:         float64(row.DataGB),
		Minutes:        float64(row.Minutes),
		SMS:            float64(row.SMS),
		VODGB:          float64(row.VODGB),
		MatchScore:     float64(row.MatchScore),
		EstimatedHits:  int(row.EstimatedHits),
		ConversionRate: float64(row.ConversionRate),
		PriceSegment:   row.PriceSegment,
		TargetUsers:    decodeTargetUsers(row.TargetUsers),
		Recommendation: row.Recommendation,
		CreatedAt:      row.CreatedAt,
	}
}

// decodeTargetUsers accepts both storage representations of the segment list:
// the JSON-string encoding this service writes and a native array.
func decodeTargetUsers(raw json.RawMessage) []TargetSegment {
	if len(raw) == 0 {
		return nil
	}
	var segments []TargetSegment
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &segments); err != nil {
			return nil
		}
		return segments
	}
	if err := json.Unmarshal(raw, &segments); err != nil {
		return nil
	}
	return segments
}

// EncodeSimulationRow maps a view-model back to raw column names for insert.
// The segment list is JSON-encoded into a string column.
func EncodeSimulationRow(s Simulation) map[string]any {
	targets := s.TargetUsers
	if targets == nil {
		targets = []TargetSegment{}
	}
	encoded, _ := json.Marshal(targets)
	duration := s.DurationDays
	if duration == 0 {
		duration = 30
	}
	return map[string]any{
		"id":                        s.ID,
		"product_name":              s.ProductName,
		"category":                  s.Category,
		"price":                     s.Price,
		"duration_days":             duration,
		"data_capacity_gb":          s.DataGB,
		"minutes":                   s.Minutes,
		"sms":                       s.SMS,
		"vod_capacity_gb":           s.VODGB,
		"match_score":               s.MatchScore,
		"estimated_recommendations": s.EstimatedHits,
		"conversion_rate":           s.ConversionRate,
		"price_segment":             s.PriceSegment,
		"target_users":              string(encoded),
		"recommendation":            s.Recommendation,
		"created_at":                s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// PriceSegmentFor buckets a price into the display segment the product lab
// shows alongside results.
func PriceSegmentFor(price float64) string {
	switch {
	case price < priceSegmentMidRange:
		return "Budget Friendly"
	case price < priceSegmentPremium:
		return "Mid Range"
	default:
		return "Premium"
	}
}

// BuildSimulationResult derives display metrics from the raw inference
// response: the match score caps conversion_rate×4 at 100, and the segment
// map becomes a list sorted by match count with per-segment share of hits.
func BuildSimulationResult(resp *SimulateProductResponse, price float64) *SimulationResult {
	matchScore := resp.ConversionRate * 4
	if matchScore > 100 {
		matchScore = 100
	}

	targets := make([]TargetSegment, 0, len(resp.Segments))
	for segment, count := range resp.Segments {
		pct := 0.0
		if resp.Hits > 0 {
			pct = float64(count) / float64(resp.Hits) * 100
		}
		targets = append(targets, TargetSegment{Segment: segment, Count: count, Percentage: pct})
	}
	sortTargetSegments(targets)

	return &SimulationResult{
		Hits:           resp.Hits,
		Revenue:        resp.Revenue,
		MatchScore:     matchScore,
		ConversionRate: resp.ConversionRate,
		PriceSegment:   PriceSegmentFor(price),
		TargetUsers:    targets,
		Recommendation: resp.Recommendation,
		TotalAnalyzed:  resp.TotalUsers,
	}
}

// sortTargetSegments orders by count descending, then segment name so the
// output is deterministic for equal counts.
func sortTargetSegments(targets []TargetSegment) {
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].Count != targets[j].Count {
			return targets[i].Count > targets[j].Count
		}
		return targets[i].Segment < targets[j].Segment
	})
}
