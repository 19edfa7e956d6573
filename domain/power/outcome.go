// Package power turns raw replication outcomes into empirical power curves,
// interpolates them across the integer sample-size range, and locates the
// smallest sample size crossing a target power threshold.
package power

// ReplicationOutcome records one (sample size, replication) grid cell.
// Outcomes are append-only: the driver creates each one and transfers it by
// value into aggregation.
type ReplicationOutcome struct {
	SampleSize  int     `json:"sample_size"`
	Replication int     `json:"replication"`
	Term        string  `json:"term"`
	Estimate    float64 `json:"estimate"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significant"`
	// Failed marks a replication whose fit did not converge. Failed outcomes
	// never enter the power denominator; they are counted separately so the
	// reliability of each power estimate stays visible.
	Failed bool   `json:"failed"`
	Error  string `json:"error,omitempty"`
}
