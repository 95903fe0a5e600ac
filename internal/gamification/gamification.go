// Package gamification turns emission figures into point awards and decides
// which achievements a point balance or a qualifying action unlocks.
//
// The package is pure: it never touches storage. Callers add the returned
// increment to the stored balance and insert the named achievements through
// the store's insert-if-absent path.
package gamification

import (
	"math"

	"github.com/sakif/carbon-tracker/internal/emission"
)

// Achievement names.
const (
	GreenStarter      = "Green Starter"
	CarbonCrusher     = "Carbon Crusher"
	EcoWarrior        = "Eco Warrior"
	PlantBasedPioneer = "Plant-Based Pioneer"
	EnergySaver       = "Energy Saver"
	GreenCommuter     = "Green Commuter"
)

// LowEnergyKWh is the usage below which an energy entry earns points.
const LowEnergyKWh = 10.0

// AwardInput describes one award-triggering action.
type AwardInput struct {
	Category string // one of the model.Category constants
	// EmissionsSaved only contributes when positive.
	EmissionsSaved float64
	// BonusSignal is the per-mile transport signal already scaled by distance.
	BonusSignal float64
	Mode        string
}

// MaxAward bounds the magnitude of a single award. Award saturates at
// ±MaxAward so that no input can wrap the stored balance.
const MaxAward = 1_000_000_000

// Award returns the points earned for in: the bonus signal scaled by 100 plus,
// when something was saved, the saving scaled by 10. The result is the
// increment, not the new balance, and is negative for polluting transport.
// Non-finite inputs award nothing.
func Award(in AwardInput) int {
	points := math.Round(in.BonusSignal * 100)
	if in.EmissionsSaved > 0 {
		points += math.Round(in.EmissionsSaved * 10)
	}
	return saturate(points)
}

func saturate(points float64) int {
	switch {
	case math.IsNaN(points):
		return 0
	case points >= MaxAward:
		return MaxAward
	case points <= -MaxAward:
		return -MaxAward
	}
	return int(points)
}

// EvaluatesThresholds reports whether an award made with mode should trigger
// threshold evaluation. Car trips never unlock anything.
func EvaluatesThresholds(mode string) bool {
	return mode != emission.ModeCar
}

// Thresholds returns every threshold achievement unlocked at balance, lowest
// threshold first.
func Thresholds(balance int) []string {
	var names []string
	for _, def := range byThreshold {
		if balance >= def.Threshold {
			names = append(names, def.Name)
		}
	}
	return names
}

// CommuterMode reports whether choosing mode earns Green Commuter.
func CommuterMode(mode string) bool {
	switch mode {
	case emission.ModeWalk, emission.ModeBike, emission.ModeBus:
		return true
	}
	return false
}

// PlantBased reports whether foodType earns points and Plant-Based Pioneer.
func PlantBased(foodType string) bool {
	return foodType == emission.FoodVegetarian || foodType == emission.FoodVegan
}

// LowEnergy reports whether kwh is under the conservation threshold.
func LowEnergy(kwh float64) bool {
	return kwh < LowEnergyKWh
}
