package dispatch

import "time"

// Weights defines the scoring contributions used by the Evaluator.
type Weights struct {
	// ZoneMatch is granted when the driver holds an active assignment to the
	// requested zone, or when no zone was requested.
	ZoneMatch float64 `json:"zone_match"`
	// ZoneMiss is granted otherwise.
	ZoneMiss float64 `json:"zone_miss"`
	// InventoryCap bounds the carried-units contribution.
	InventoryCap float64 `json:"inventory_cap"`
	// StatusAvailable and StatusOnBreak reward the driver's current status;
	// any other status contributes zero.
	StatusAvailable float64 `json:"status_available"`
	StatusOnBreak   float64 `json:"status_on_break"`
	// FullMatch is granted when the driver covers every required item.
	FullMatch float64 `json:"full_match"`
	// PartialBase minus MissingPenalty per missing unit (floored at zero)
	// is granted otherwise.
	PartialBase    float64 `json:"partial_base"`
	MissingPenalty float64 `json:"missing_penalty"`
}

// DefaultWeights returns the standard scoring weights.
func DefaultWeights() Weights {
	return Weights{
		ZoneMatch:       50,
		ZoneMiss:        10,
		InventoryCap:    40,
		StatusAvailable: 25,
		StatusOnBreak:   10,
		FullMatch:       100,
		PartialBase:     80,
		MissingPenalty:  20,
	}
}

// Config defines dispatch-related settings.
type Config struct {
	// CallTimeoutSeconds bounds every persistence port call.
	CallTimeoutSeconds int     `json:"call_timeout_seconds"`
	Weights            Weights `json:"weights"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.CallTimeoutSeconds <= 0 {
		c.CallTimeoutSeconds = 5
	}
	if c.Weights == (Weights{}) {
		c.Weights = DefaultWeights()
	}
}

// CallTimeout returns the configured per-call timeout as a duration.
func (c Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}
