package domain

import "time"

// RecommendedProduct is one ranked item in a customer insight bundle.
type RecommendedProduct struct {
	ProductID    string   `json:"product_id,omitempty"`
	ProductName  string   `json:"product_name"`
	Category     string   `json:"category"`
	Price        float64  `json:"price"`
	DurationDays int      `json:"duration_days"`
	Reasons      []string `json:"reasons"`
}

// ChurnPrediction pairs the model's churn probability with its label.
type ChurnPrediction struct {
	Probability float64 `json:"probability"`
	Label       string  `json:"label"`
	RawLabel    string  `json:"raw_label"`
}

// AIInsights carries the narrative texts generated per customer.
type AIInsights struct {
	ProductRecommendation string `json:"product_recommendation"`
	ChurnAnalysis         string `json:"churn_analysis"`
}

// CustomerInsight is the per-customer bundle returned by the inference
// service: ranked recommendations, churn prediction, narrative insights and
// the predicted user category. Not persisted.
type CustomerInsight struct {
	Recommendations struct {
		Items []RecommendedProduct `json:"items"`
	} `json:"recommendations"`
	Churn        ChurnPrediction `json:"churn"`
	AIInsights   *AIInsights     `json:"ai_insights,omitempty"`
	UserCategory string          `json:"user_category"`
	GeneratedAt  string          `json:"generated_at,omitempty"`
}

// RiskBucket is one tier of the population churn breakdown.
type RiskBucket struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ChurnComposition is the full-population risk snapshot. Not persisted.
type ChurnComposition struct {
	TotalUsers  int `json:"total_users"`
	Composition struct {
		High   RiskBucket `json:"high"`
		Medium RiskBucket `json:"medium"`
		Low    RiskBucket `json:"low"`
	} `json:"composition"`
	ChurnRate     float64 `json:"churn_rate"`
	RevenueAtRisk float64 `json:"revenue_at_risk"`
	GeneratedAt   string  `json:"generated_at"`
}

// SimulateProductRequest is the body sent to the inference service.
type SimulateProductRequest struct {
	ProductName  string  `json:"product_name"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	DurationDays int     `json:"duration_days"`
}

// SimulateProductResponse is the raw simulation outcome from the inference
// service, before display derivations.
type SimulateProductResponse struct {
	Hits           int            `json:"hits"`
	Revenue        float64        `json:"revenue"`
	ConversionRate float64        `json:"conversion_rate"`
	Segments       map[string]int `json:"segments"`
	Recommendation string         `json:"recommendation"`
	TotalUsers     int            `json:"total_users"`
}

// Degradation marks a response that was substituted with a canned payload
// because the inference service failed or timed out. The UI uses it to show a
// degraded-data banner instead of passing the substitute off as live data.
type Degradation struct {
	Degraded bool   `json:"degraded"`
	Reason   string `json:"degradedReason,omitempty"`
}

// InsightResult wraps a customer insight with its degradation marker.
type InsightResult struct {
	Degradation
	Insight *CustomerInsight `json:"insight"`
}

// ChurnCompositionResult wraps a churn composition with its degradation marker.
type ChurnCompositionResult struct {
	Degradation
	Composition *ChurnComposition `json:"composition"`
}

// FallbackCustomerInsight is the canned bundle substituted when the inference
// service is unreachable or slow, so the panel never renders empty. The items
// mirror a typical "General Offer" prediction over the live catalog.
func FallbackCustomerInsight() *CustomerInsight {
	insight := &CustomerInsight{
		Churn: ChurnPrediction{
			Probability: 0.0,
			Label:       "low",
			RawLabel:    "General Offer",
		},
		AIInsights: &AIInsights{
			ProductRecommendation: "Berdasarkan kebutuhan Anda, kami merekomendasikan paket Combo Hemat dan Spesial yang menawarkan kuota data dan menit panggilan sesuai dengan penggunaan bulanan Anda. Dengan memilih salah satu paket ini, Anda dapat menikmati koneksi internet yang ngebut dan komunikasi yang jernih, bahkan akan mendapatkan tambahan menit dan kuota aplikasi favorit. Paket ini merupakan solusi lengkap tanpa yang bikin kantong bolong – pilih paket Combo yang paling sesuai dengan gaya hidup digital Anda sekarang!",
			ChurnAnalysis:         "Probabilitas churn rendah didukung oleh frekuensi komplain yang rendah dan pengeluaran bulanan yang moderat, namun travel score yang cukup tinggi menunjukkan potensi kebutuhan roaming atau data internasional yang belum terpenuhi. Perhatikan tren travel score di bulan-bulan mendatang dan tawarkan paket roaming/data yang relevan berdasarkan kategori prediksi \"General Offer\" untuk meningkatkan loyalitas.",
		},
		UserCategory: "General Offer",
	}
	insight.Recommendations.Items = []RecommendedProduct{
		{
			ProductName:  "Combo Hemat 15GB + 300Menit 30 Hari",
			Category:     "Combo",
			Price:        15666,
			DurationDays: 30,
			Reasons:      []string{"Rekomendasi Utama (Combo Value Terbaik/Termurah): Sesuai prediksi model: General Offer"},
		},
		{
			ProductName:  "Combo Hemat 25GB + 300Menit 30 Hari",
			Category:     "Combo",
			Price:        16062,
			DurationDays: 30,
			Reasons:      []string{"Rekomendasi Utama (Combo Value Terbaik/Termurah): Sesuai prediksi model: General Offer"},
		},
		{
			ProductName:  "Combo Spesial 12GB + 300Menit 30 Hari",
			Category:     "Combo",
			Price:        17125,
			DurationDays: 30,
			Reasons:      []string{"Rekomendasi Utama (Combo Value Terbaik/Termurah): Sesuai prediksi model: General Offer"},
		},
		{
			ProductName:  "Paket Voice Unlimited 7 Hari",
			Category:     "Voice",
			Price:        17000,
			DurationDays: 7,
			Reasons:      []string{"Rekomendasi Sekunder Voice - Paket pendek sesuai profil"},
		},
		{
			ProductName:  "Roaming USA Pass 250MB 7 Hari",
			Category:     "Roaming",
			Price:        7635,
			DurationDays: 7,
			Reasons:      []string{"Rekomendasi Sekunder Roaming - Paket pendek sesuai profil"},
		},
	}
	return insight
}

// FallbackChurnComposition is the canned population snapshot substituted when
// the composition scan fails or times out.
func FallbackChurnComposition() *ChurnComposition {
	comp := &ChurnComposition{
		TotalUsers:    10000,
		ChurnRate:     8.5,
		RevenueAtRisk: 123456789,
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	comp.Composition.High = RiskBucket{Count: 850, Percentage: 8.5}
	comp.Composition.Medium = RiskBucket{Count: 4500, Percentage: 45.0}
	comp.Composition.Low = RiskBucket{Count: 4650, Percentage: 46.5}
	return comp
}
