package optimizer

// Config tunes every bounded-iteration phase of the per-vehicle pipeline
// (spec §4.4). A zero Config falls back to the spec's published defaults.
type Config struct {
	TwoOptEnabled   bool
	ThreeOptEnabled bool
	OrOptEnabled    bool
	OrOptMaxSegment int

	InitialTemperature float64
	CoolingRate        float64
	MinTemperature     float64
	MaxIterations      int
	MaxIterationsSmall int
	SmallInstanceSize  int
}

// DefaultConfig returns the spec's published operator schedule (§4.4 (b)-(e)).
func DefaultConfig() Config {
	return Config{
		TwoOptEnabled:      true,
		ThreeOptEnabled:    true,
		OrOptEnabled:       true,
		OrOptMaxSegment:    3,
		InitialTemperature: 30,
		CoolingRate:        0.995,
		MinTemperature:     0.1,
		MaxIterations:      200,
		MaxIterationsSmall: 100,
		SmallInstanceSize:  20,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if !c.TwoOptEnabled && !c.ThreeOptEnabled && !c.OrOptEnabled && c.OrOptMaxSegment == 0 &&
		c.InitialTemperature == 0 && c.CoolingRate == 0 && c.MinTemperature == 0 &&
		c.MaxIterations == 0 && c.MaxIterationsSmall == 0 && c.SmallInstanceSize == 0 {
		return d
	}
	if c.OrOptMaxSegment == 0 {
		c.OrOptMaxSegment = d.OrOptMaxSegment
	}
	if c.InitialTemperature == 0 {
		c.InitialTemperature = d.InitialTemperature
	}
	if c.CoolingRate == 0 {
		c.CoolingRate = d.CoolingRate
	}
	if c.MinTemperature == 0 {
		c.MinTemperature = d.MinTemperature
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.MaxIterationsSmall == 0 {
		c.MaxIterationsSmall = d.MaxIterationsSmall
	}
	if c.SmallInstanceSize == 0 {
		c.SmallInstanceSize = d.SmallInstanceSize
	}
	return c
}

// twoOptMaxIterations bounds 2-opt's sweep count (spec §4.4 (b)):
// min(500, 50+5*|P|).
func twoOptMaxIterations(numPickups int) int {
	bound := 50 + 5*numPickups
	if bound > 500 {
		return 500
	}
	return bound
}

// threeOptMaxIterations bounds 3-opt's outer pass count (spec §4.4 (c)).
func threeOptMaxIterations(numPickups int) int {
	if numPickups <= 15 {
		return 10
	}
	return 5
}

// annealingMaxIterations bounds simulated annealing's iteration count
// (spec §4.4 (e)): 200, or 100 if |P|>20.
func annealingMaxIterations(cfg Config, numPickups int) int {
	if numPickups > cfg.SmallInstanceSize {
		return cfg.MaxIterationsSmall
	}
	return cfg.MaxIterations
}
