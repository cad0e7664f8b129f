package domain

// Status is the outcome of a node validation.
type Status string

const (
	StatusOK       Status = "OK"
	StatusDegraded Status = "DEGRADED"
	StatusKO       Status = "KO"
	StatusUnknown  Status = "UNKNOWN"
)

func (s Status) severity() int {
	switch s {
	case StatusOK:
		return 0
	case StatusDegraded:
		return 1
	case StatusKO:
		return 3
	default:
		return 2
	}
}

// ValidationResult is the outcome of a single named check.
type ValidationResult struct {
	Name    string
	Status  Status
	Message string
}

// NodeStatus groups validation results in check order.
type NodeStatus struct {
	Results []ValidationResult
}

// Status returns the worst status among the results, OK when there are none.
func (n NodeStatus) Status() Status {
	worst := StatusOK
	for _, r := range n.Results {
		if r.Status.severity() > worst.severity() {
			worst = r.Status
		}
	}
	return worst
}
