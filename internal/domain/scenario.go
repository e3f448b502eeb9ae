package domain

// ScenarioConfig scales scheduled flows for what-if projections.
type ScenarioConfig struct {
	ScenarioID    string  // "baseline" | "conservative" | "stressed"
	IncomeFactor  float64 // multiplier applied to positive flows
	ExpenseFactor float64 // multiplier applied to negative flows
}

// Scenario ID constants
const (
	ScenarioBaseline     = "baseline"
	ScenarioConservative = "conservative"
	ScenarioStressed     = "stressed"
)

// Predefined scenario configurations
var (
	ScenarioConfigBaseline = ScenarioConfig{
		ScenarioID:    ScenarioBaseline,
		IncomeFactor:  1.0,
		ExpenseFactor: 1.0,
	}

	ScenarioConfigConservative = ScenarioConfig{
		ScenarioID:    ScenarioConservative,
		IncomeFactor:  0.9,
		ExpenseFactor: 1.1,
	}

	ScenarioConfigStressed = ScenarioConfig{
		ScenarioID:    ScenarioStressed,
		IncomeFactor:  0.75,
		ExpenseFactor: 1.25,
	}
)

// ScenarioByID returns the predefined scenario with the given ID.
func ScenarioByID(id string) (ScenarioConfig, bool) {
	switch id {
	case ScenarioBaseline:
		return ScenarioConfigBaseline, true
	case ScenarioConservative:
		return ScenarioConfigConservative, true
	case ScenarioStressed:
		return ScenarioConfigStressed, true
	}
	return ScenarioConfig{}, false
}
