package harness

// Result is the outcome of running a fixture.
type Result struct {
	// Name is the fixture name.
	Name string `json:"name"`

	// Pass is true if every check agreed with the oracle and its
	// expectation, and every property held.
	Pass bool `json:"pass"`

	// Errors contains one message per failed check or property.
	Errors []string `json:"errors,omitempty"`

	// Snapshots holds the engine output of every check, in run order.
	Snapshots []Snapshot `json:"snapshots"`
}

// Snapshot is the engine output of one check at one milestone.
type Snapshot struct {
	At    int64  `json:"at"`
	Query string `json:"query"`

	// Output is the canonical form of the result payload. Nil when the
	// query failed.
	Output any `json:"output,omitempty"`

	// Error is the engine error code when the query failed.
	Error string `json:"error,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Name:      name,
		Pass:      true,
		Errors:    []string{},
		Snapshots: []Snapshot{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
