package domain

// Role is a metric's logical category together with its unit.
type Role struct {
	Name string
	Unit string
}

// Gauge is one sampled gauge value.
type Gauge struct {
	Role  Role
	Value float64
}
