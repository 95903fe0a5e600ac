// Package emission estimates kg CO2 for logged activities from fixed regional
// coefficients. Every function is pure and total: unknown categories fall back
// to a zero coefficient instead of failing.
package emission

// Transport modes.
const (
	ModeCar             = "car"
	ModeBus             = "bus"
	ModeWalk            = "walk"
	ModeBike            = "bike"
	ModeElectricVehicle = "electric_vehicle"
)

// Food types.
const (
	FoodMeat       = "meat"
	FoodFish       = "fish"
	FoodVegetarian = "vegetarian"
	FoodVegan      = "vegan"
)

// GridFactor is kg CO2 per kWh for the regional grid mix.
const GridFactor = 0.7

// kg CO2 per mile.
var transportFactors = map[string]float64{
	ModeCar:             0.25,
	ModeBus:             0.15,
	ModeWalk:            0,
	ModeBike:            0,
	ModeElectricVehicle: 0.05,
}

// Point signal per mile. The sign is independent of the emission factor:
// transit is rewarded even though it emits.
var pointFactors = map[string]float64{
	ModeCar:             -0.25,
	ModeBus:             0.15,
	ModeWalk:            0.05,
	ModeBike:            0.05,
	ModeElectricVehicle: -0.05,
}

// kg CO2 per portion.
var foodFactors = map[string]float64{
	FoodMeat:       3.0,
	FoodFish:       1.34,
	FoodVegetarian: 0.5,
	FoodVegan:      0.25,
}

var (
	transportModes = []string{ModeCar, ModeBus, ModeWalk, ModeBike, ModeElectricVehicle}
	foodTypes      = []string{FoodMeat, FoodFish, FoodVegetarian, FoodVegan}
)

// Transport returns the emissions in kg CO2 and the bonus point signal for
// travelling distanceMiles by mode. Both scale linearly with distance.
// Negative distances are not rejected here.
func Transport(mode string, distanceMiles float64) (emissionsKg, pointSignal float64) {
	return distanceMiles * transportFactors[mode], distanceMiles * pointFactors[mode]
}

// Food returns kg CO2 for the given number of portions of foodType.
func Food(foodType string, portions int) float64 {
	return float64(portions) * foodFactors[foodType]
}

// FoodSaved is the counterfactual saving of eating foodType instead of meat
// for the same number of portions.
func FoodSaved(foodType string, portions int) float64 {
	return Food(FoodMeat, portions) - Food(foodType, portions)
}

// Energy returns kg CO2 for kwh of grid electricity.
func Energy(kwh float64) float64 {
	return kwh * GridFactor
}

// KnownTransportMode reports whether mode has coefficients.
func KnownTransportMode(mode string) bool {
	_, ok := transportFactors[mode]
	return ok
}

// KnownFoodType reports whether foodType has a coefficient.
func KnownFoodType(foodType string) bool {
	_, ok := foodFactors[foodType]
	return ok
}

// TransportModes lists the supported modes in display order.
func TransportModes() []string {
	return append([]string(nil), transportModes...)
}

// FoodTypes lists the supported food types in display order.
func FoodTypes() []string {
	return append([]string(nil), foodTypes...)
}
