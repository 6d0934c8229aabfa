package recommend

// Config holds the tunable weights and thresholds of the hybrid recommender.
type Config struct {
	ContentWeight       float64
	CollaborativeWeight float64
	TopN                int
	MinConfidence       float64
	MaxConfidence       float64
	PeerThreshold       float64
	PeerBookingPoints   float64
	Algorithm           string
}

func DefaultConfig() Config {
	return Config{
		ContentWeight:       0.7,
		CollaborativeWeight: 0.3,
		TopN:                3,
		MinConfidence:       60,
		MaxConfidence:       95,
		PeerThreshold:       0.6,
		PeerBookingPoints:   20,
		Algorithm:           "hybrid",
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ContentWeight == 0 && c.CollaborativeWeight == 0 {
		c.ContentWeight = d.ContentWeight
		c.CollaborativeWeight = d.CollaborativeWeight
	}
	if c.TopN == 0 {
		c.TopN = d.TopN
	}
	if c.MinConfidence == 0 && c.MaxConfidence == 0 {
		c.MinConfidence = d.MinConfidence
		c.MaxConfidence = d.MaxConfidence
	}
	if c.PeerThreshold == 0 {
		c.PeerThreshold = d.PeerThreshold
	}
	if c.PeerBookingPoints == 0 {
		c.PeerBookingPoints = d.PeerBookingPoints
	}
	if c.Algorithm == "" {
		c.Algorithm = d.Algorithm
	}
	return c
}
