package harness

// Result is the outcome of one scenario.
type Result struct {
	// Pass is true if the expect clause and all assertions held.
	Pass bool `json:"pass"`

	Entity string   `json:"entity"`
	Joins  []string `json:"joins"`
	Where  string   `json:"where,omitempty"`
	Params []any    `json:"params,omitempty"`

	// ErrorCode is set when translation failed: E101 for trees that do not
	// decode, E2xx for translation errors.
	ErrorCode string `json:"error_code,omitempty"`
	ErrorText string `json:"error_text,omitempty"`

	// Errors lists failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(entity string) *Result {
	return &Result{
		Pass:   true,
		Entity: entity,
		Joins:  []string{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Failed reports whether translation returned an error.
func (r *Result) Failed() bool {
	return r.ErrorCode != ""
}
