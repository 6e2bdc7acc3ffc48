package install

import "fmt"

// Outcome is the result of processing one specifier.
type Outcome int

const (
	// AlreadyPresent means the package manager already knew the package name.
	AlreadyPresent Outcome = iota
	// Installed means the install subprocess exited successfully.
	Installed
	// Failed means the install subprocess exited non-zero or could not start.
	Failed
)

// String renders the outcome for console output.
func (o Outcome) String() string {
	switch o {
	case AlreadyPresent:
		return "already installed"
	case Installed:
		return "installed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the outcome of one specifier in one pass.
type Result struct {
	Specifier Specifier
	Outcome   Outcome
	// Err is the install error for failed results.
	Err error
}

// Report collects the results of the install pass and of the retry pass.
type Report struct {
	// Results holds one entry per manifest specifier, in manifest order.
	Results []Result
	// Retries holds one entry per specifier that failed the first pass.
	Retries []Result
}

// Count returns how many first-pass results have the given outcome.
func (r *Report) Count(outcome Outcome) int {
	n := 0

	for _, result := range r.Results {
		if result.Outcome == outcome {
			n++
		}
	}

	return n
}

// Recovered returns the specifiers that failed the first pass and succeeded on retry.
func (r *Report) Recovered() []Specifier {
	var specs []Specifier

	for _, result := range r.Retries {
		if result.Outcome != Failed {
			specs = append(specs, result.Specifier)
		}
	}

	return specs
}

// Failed returns the specifiers that are still failed after the retry pass.
func (r *Report) Failed() []Specifier {
	var specs []Specifier

	for _, result := range r.Retries {
		if result.Outcome == Failed {
			specs = append(specs, result.Specifier)
		}
	}

	return specs
}
