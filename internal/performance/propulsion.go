package performance

import (
	"errors"
	"fmt"

	"hotfire/internal/config"
)

var (
	// ErrInvalidMassFlow is returned when the total propellant flow is not positive.
	ErrInvalidMassFlow = errors.New("total mass flow must be positive")
	// ErrInvalidThroatArea is returned when the throat area is not positive.
	ErrInvalidThroatArea = errors.New("throat area must be positive")
)

// Inputs are the operator-supplied quantities for performance curves.
type Inputs struct {
	FuelMassFlow     float64 `json:"fuel_mdot" yaml:"fuel_mdot"`                         // lb/s
	OxidizerMassFlow float64 `json:"ox_mdot" yaml:"ox_mdot"`                             // lb/s
	ThroatArea       float64 `json:"throat_area,omitempty" yaml:"throat_area,omitempty"` // ft²
}

// MassFlowSlugs converts the combined propellant flow from lb/s to slug/s.
func (in Inputs) MassFlowSlugs() (float64, error) {
	total := in.FuelMassFlow + in.OxidizerMassFlow
	if total <= 0 {
		return 0, fmt.Errorf("%w: got %g lb/s", ErrInvalidMassFlow, total)
	}
	return total / config.GravityFtPerS2, nil
}

// SpecificImpulse returns Isp in seconds for each thrust sample (lbf).
func SpecificImpulse(thrust []float64, in Inputs) ([]float64, error) {
	mdot, err := in.MassFlowSlugs()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(thrust))
	for i, f := range thrust {
		out[i] = f / (mdot * config.GravityFtPerS2)
	}
	return out, nil
}

// ExhaustVelocity converts Isp in seconds to effective exhaust velocity in m/s.
func ExhaustVelocity(isp []float64) []float64 {
	out := make([]float64, len(isp))
	for i, v := range isp {
		out[i] = v * config.GravityMPerS2
	}
	return out
}

// CharacteristicVelocity returns c* in m/s for each chamber pressure
// sample (psi).
func CharacteristicVelocity(chamberPressure []float64, in Inputs) ([]float64, error) {
	mdot, err := in.MassFlowSlugs()
	if err != nil {
		return nil, err
	}
	if in.ThroatArea <= 0 {
		return nil, fmt.Errorf("%w: got %g ft²", ErrInvalidThroatArea, in.ThroatArea)
	}
	out := make([]float64, len(chamberPressure))
	for i, pc := range chamberPressure {
		cstarFt := pc * config.SquareInchPerFt * in.ThroatArea / mdot
		out[i] = cstarFt * config.MetersPerFoot
	}
	return out, nil
}
