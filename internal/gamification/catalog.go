package gamification

import "sort"

// Definition describes one achievement. Threshold is zero for achievements
// that are only granted by a qualifying action.
type Definition struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Threshold   int    `json:"threshold,omitempty"`
}

// UnlockState is a Definition plus whether the user has it.
type UnlockState struct {
	Definition
	Unlocked bool `json:"unlocked"`
}

// Display order.
var definitions = []Definition{
	{Name: EcoWarrior, Icon: "🌍", Description: "Earned 1000+ points through eco-friendly choices", Threshold: 1000},
	{Name: CarbonCrusher, Icon: "💪", Description: "Reached 500 points in carbon reduction", Threshold: 500},
	{Name: GreenStarter, Icon: "🌱", Description: "Started your journey with 100 points", Threshold: 100},
	{Name: GreenCommuter, Icon: "🚲", Description: "Chose eco-friendly transportation"},
	{Name: PlantBasedPioneer, Icon: "🥗", Description: "Made sustainable food choices", Threshold: 200},
	{Name: EnergySaver, Icon: "⚡", Description: "Demonstrated energy conservation", Threshold: 300},
}

var byThreshold = func() []Definition {
	var defs []Definition
	for _, d := range definitions {
		if d.Threshold > 0 {
			defs = append(defs, d)
		}
	}
	sort.SliceStable(defs, func(i, j int) bool { return defs[i].Threshold < defs[j].Threshold })
	return defs
}()

// Catalog returns every achievement in display order.
func Catalog() []Definition {
	return append([]Definition(nil), definitions...)
}

// Known reports whether name is in the catalog.
func Known(name string) bool {
	for _, d := range definitions {
		if d.Name == name {
			return true
		}
	}
	return false
}

// UnlockStates marks each catalog entry as unlocked when it was earned or,
// for threshold achievements, when balance already meets the threshold.
func UnlockStates(balance int, earned []string) []UnlockState {
	have := make(map[string]bool, len(earned))
	for _, name := range earned {
		have[name] = true
	}

	states := make([]UnlockState, 0, len(definitions))
	for _, d := range definitions {
		unlocked := have[d.Name] || (d.Threshold > 0 && balance >= d.Threshold)
		states = append(states, UnlockState{Definition: d, Unlocked: unlocked})
	}
	return states
}
