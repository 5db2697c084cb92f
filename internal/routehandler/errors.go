package routehandler

import "fmt"

// Pipeline stages reported in ActivationError.
const (
	StageResolve = "resolve"
	StageCreate  = "create"
	StageState   = "state"
)

// ActivationError reports a failure while serving a route. The pipeline
// recovers from it; the previous component stays routed.
type ActivationError struct {
	Stage string
	Key   string
	Path  string
	Err   error
}

func (e *ActivationError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %s (entry %s): %v", e.Stage, e.Path, e.Key, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *ActivationError) Unwrap() error {
	return e.Err
}
