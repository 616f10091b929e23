package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Product categories form a closed set; unrecognized values are tolerated (the
// UI falls back to a neutral style) but new products created through this
// service are validated against it.
var ProductCategories = []string{"Data", "Combo", "VOD", "Roaming", "Device Bundle", "Voice"}

// Product is the catalog entry view-model.
type Product struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"productId"`
	Name         string  `json:"productName"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	DurationDays int     `json:"duration"`
	DataGB       float64 `json:"dataCapacity"`
	Minutes      float64 `json:"minutes"`
	SMS          float64 `json:"sms"`
	VODGB        float64 `json:"vodCapacity"`

	Extra map[string]any `json:"-"`
}

// MarshalJSON flattens Extra into the encoded object.
func (p Product) MarshalJSON() ([]byte, error) {
	type alias Product
	return marshalWithExtra(alias(p), p.Extra)
}

// ProductRow is the raw product_catalog (or legacy packages) table row.
type ProductRow struct {
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       FlexFloat `json:"price"`
	Duration    FlexInt   `json:"duration_days"`
	DataGB      FlexFloat `json:"product_capacity_gb"`
	Minutes     FlexFloat `json:"product_capacity_minutes"`
	SMS         FlexFloat `json:"product_capacity_sms"`
	VODGB       FlexFloat `json:"product_capacity_vod"`
}

var productColumns = map[string]struct{}{
	"product_id": {}, "product_name": {}, "description": {}, "category": {},
	"price": {}, "duration_days": {}, "product_capacity_gb": {},
	"product_capacity_minutes": {}, "product_capacity_sms": {},
	"product_capacity_vod": {},
}

// DecodeProduct converts one raw row into the view-model with defaults applied.
func DecodeProduct(raw json.RawMessage) Product {
	var row ProductRow
	_ = json.Unmarshal(raw, &row)

	duration := int(row.Duration)
	if duration == 0 {
		duration = 30
	}

	return Product{
		ID:           row.ProductID,
		ProductID:    row.ProductID,
		Name:         defaultString(row.ProductName, "N/A"),
		Description:  row.Description,
		Category:     defaultString(row.Category, "Data"),
		Price:        float64(row.Price),
		DurationDays: duration,
		DataGB:       float64(row.DataGB),
		Minutes:      float64(row.Minutes),
		SMS:          float64(row.SMS),
		VODGB:        float64(row.VODGB),
		Extra:        extraColumns(raw, productColumns),
	}
}

// EncodeProductRow maps a view-model back to raw column names for writes.
// A missing product id gets the PRD<unix-millis> form the catalog uses.
func EncodeProductRow(p Product) map[string]any {
	id := p.ProductID
	if id == "" {
		id = fmt.Sprintf("PRD%d", time.Now().UnixMilli())
	}
	duration := p.DurationDays
	if duration == 0 {
		duration = 30
	}
	return map[string]any{
		"product_id":               id,
		"product_name":             p.Name,
		"description":              p.Description,
		"category":                 defaultString(p.Category, "Data"),
		"price":                    p.Price,
		"duration_days":            duration,
		"product_capacity_gb":      p.DataGB,
		"product_capacity_minutes": p.Minutes,
		"product_capacity_sms":     p.SMS,
		"product_capacity_vod":     p.VODGB,
	}
}

// SortProducts orders the catalog by name (case-insensitive) then product id,
// matching the listing order the UI re-applies after every mutation.
func SortProducts(products []Product) {
	sort.SliceStable(products, func(i, j int) bool {
		ni, nj := strings.ToLower(products[i].Name), strings.ToLower(products[j].Name)
		if ni != nj {
			return ni < nj
		}
		return products[i].ProductID < products[j].ProductID
	})
}

// ProductStats are catalog aggregates.
type ProductStats struct {
	Total           int     `json:"total"`
	Categories      int     `json:"categories"`
	AvgPrice        float64 `json:"avgPrice"`
	AvgDurationDays float64 `json:"avgDuration"`
}

// ComputeProductStats reduces the catalog in one pass. Empty input yields
// zeros, never NaN.
func ComputeProductStats(products []Product) ProductStats {
	stats := ProductStats{Total: len(products)}
	if len(products) == 0 {
		return stats
	}
	seen := make(map[string]struct{})
	var price, duration float64
	for _, p := range products {
		seen[p.Category] = struct{}{}
		price += p.Price
		duration += float64(p.DurationDays)
	}
	stats.Categories = len(seen)
	stats.AvgPrice = price / float64(len(products))
	stats.AvgDurationDays = duration / float64(len(products))
	return stats
}
