package booking

import "fmt"

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// Calculate returns the total price in cents for the given parameters.
	Calculate(params PricingParams) (int64, error)
}

// PricingParams holds the inputs for price calculation.
type PricingParams struct {
	Nights            int
	NightlyPriceCents int64
}

// NightlyPricingStrategy charges the property's nightly rate for every night of the stay.
type NightlyPricingStrategy struct{}

// NewNightlyPricingStrategy creates a new NightlyPricingStrategy.
func NewNightlyPricingStrategy() *NightlyPricingStrategy {
	return &NightlyPricingStrategy{}
}

// Calculate computes nights x nightly price.
func (s *NightlyPricingStrategy) Calculate(params PricingParams) (int64, error) {
	if params.Nights < 1 {
		return 0, fmt.Errorf("stay must be at least one night, got %d", params.Nights)
	}
	if params.NightlyPriceCents <= 0 {
		return 0, fmt.Errorf("nightly price must be positive, got %d", params.NightlyPriceCents)
	}
	return int64(params.Nights) * params.NightlyPriceCents, nil
}
