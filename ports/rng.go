package ports

// VariateSource provides seeded normal variate generation for deterministic
// simulation. Given equal seeds, a stream's output is bit-reproducible, which
// is what lets parallel grid cells run in any order.
type VariateSource interface {
	// Stream creates an independent deterministic stream for a named task.
	// Equal (name, seed) pairs always yield identical streams.
	Stream(name string, seed int64) (VariateStream, error)
}

// VariateStream draws normal variates from one deterministic stream.
type VariateStream interface {
	// Normal draws n independent variates with the given mean and sd.
	Normal(n int, mean, sd float64) ([]float64, error)

	// CorrelatedNormal draws len(x) variates whose expected correlation with
	// x is r, scaled to targetMean and targetSD.
	CorrelatedNormal(x []float64, targetMean, targetSD, r float64) ([]float64, error)
}
