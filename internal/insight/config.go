package insight

// Config holds the thresholds both modes compare against.
type Config struct {
	AnomalyRateThreshold   float64 `json:"anomaly_rate_threshold" yaml:"anomaly_rate_threshold"`
	ConfidenceDropAlert    float64 `json:"confidence_drop_alert" yaml:"confidence_drop_alert"`
	ZeroOutcomeThreshold   float64 `json:"zero_outcome_threshold" yaml:"zero_outcome_threshold"`
	ConcentrationThreshold float64 `json:"concentration_threshold" yaml:"concentration_threshold"`
}

// Severity escalation points. These are fixed, not configurable.
const (
	criticalZeroOutcomeRate = 0.25
	criticalAnomalyRate     = 0.15
	criticalConcordance     = 95.0
	growthFactor            = 1.1
)

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		AnomalyRateThreshold:   0.05,
		ConfidenceDropAlert:    0.10,
		ZeroOutcomeThreshold:   0.10,
		ConcentrationThreshold: 0.50,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.AnomalyRateThreshold <= 0 {
		c.AnomalyRateThreshold = d.AnomalyRateThreshold
	}
	if c.ConfidenceDropAlert <= 0 {
		c.ConfidenceDropAlert = d.ConfidenceDropAlert
	}
	if c.ZeroOutcomeThreshold <= 0 {
		c.ZeroOutcomeThreshold = d.ZeroOutcomeThreshold
	}
	if c.ConcentrationThreshold <= 0 {
		c.ConcentrationThreshold = d.ConcentrationThreshold
	}
	return c
}

// confidenceFloor is the average confidence below which a drop is reported.
func (c Config) confidenceFloor() float64 {
	return 1 - c.ConfidenceDropAlert
}
