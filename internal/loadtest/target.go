package loadtest

import "context"

// Target is what a worker executes on every attempt. It is a sealed
// choice between a named HTTP endpoint and an arbitrary callable; the
// Runner dispatches on the concrete type, never on runtime behavior.
type Target interface {
	target()
}

// Endpoint identifies an HTTP endpoint to load test.
//
// A response with a status code outside [200, 400) is a failure
// carrying the response status line as its error message. If Check is
// set, a response body whose value at Check.Path does not equal
// Check.Equals is also a failure.
type Endpoint struct {
	URL     string
	Method  string // defaults to GET
	Headers map[string]string
	Body    string
	Check   *BodyCheck
}

func (Endpoint) target() {}

// BodyCheck asserts on a JSON response body using a gjson path.
type BodyCheck struct {
	Path   string
	Equals string
}

// Callable is an arbitrary operation invoked directly by workers.
// A non-nil error is a failure carrying the error's message. The
// context carries the per-request deadline; operations that ignore it
// are abandoned once the timeout wins the race and their eventual
// result is discarded.
type Callable func(ctx context.Context) error

func (Callable) target() {}
