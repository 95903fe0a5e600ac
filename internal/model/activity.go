package model

import "time"

// Activity categories.
const (
	CategoryTransport = "transport"
	CategoryFood      = "food"
	CategoryEnergy    = "energy"
)

// Activity is one immutable ledger entry.
type Activity struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Category    string          `json:"category"`
	Details     ActivityDetails `json:"details"`
	EmissionsKg float64         `json:"emissionsKg"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ActivityDetails is the category-specific payload. Only the fields of the
// activity's category are set; the store keeps it as JSON text and never
// interprets it.
type ActivityDetails struct {
	Mode          string  `json:"mode,omitempty"`
	DistanceMiles float64 `json:"distanceMiles,omitempty"`
	FoodType      string  `json:"foodType,omitempty"`
	Portions      int     `json:"portions,omitempty"`
	KWh           float64 `json:"kwh,omitempty"`
}

// EmissionsSummary holds rolling emission totals in kg CO2.
type EmissionsSummary struct {
	Daily   float64 `json:"daily"`
	Weekly  float64 `json:"weekly"`
	Monthly float64 `json:"monthly"`
}

// TrendPoint is one sample of the emissions-over-time series.
type TrendPoint struct {
	At          time.Time `json:"at"`
	Category    string    `json:"category"`
	EmissionsKg float64   `json:"emissionsKg"`
}
