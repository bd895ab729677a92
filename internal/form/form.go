// Package form implements the add and edit employee flows shared by the web
// front end and the CLI.
package form

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"ignite/internal/employee"
	"ignite/internal/flash"
)

// ListPath is where successful submits navigate to.
const ListPath = "/employee/list"

const (
	msgAdded        = "Employee added successfully"
	msgAddFailed    = "Failed to add employee"
	msgUpdated      = "Employee updated successfully"
	msgUpdateFailed = "Failed to update employee"
	msgLoadFailed   = "Failed to load employee data"
	msgStale        = "Employee was changed by someone else. Reload and try again."
	msgInFlight     = "This form is already being submitted."
)

var (
	// ErrStaleRecord rejects an edit whose record changed after the form was rendered.
	ErrStaleRecord = errors.New("form: stale record")

	// ErrInFlight rejects a submit while the same form is still waiting for the service.
	ErrInFlight = errors.New("form: submit already in progress")
)

// Result is the outcome of a submit. A successful submit sets Redirect and
// leaves Err nil. Any failure sets Err; a validation failure also fills
// Violations with the per-field messages.
type Result struct {
	Draft      employee.Draft
	Violations map[string]string
	Record     employee.Record
	Redirect   string
	Token      string
	Err        error
}

// Describe returns the text shown to the user for a failed submit.
func Describe(err error) string {
	switch {
	case errors.Is(err, ErrStaleRecord):
		return msgStale
	case errors.Is(err, ErrInFlight):
		return msgInFlight
	default:
		return err.Error()
	}
}

// OK reports whether the submit reached the service and succeeded.
func (r Result) OK() bool {
	return r.Err == nil && r.Redirect != ""
}

// invalid returns a result for a draft that failed validation, or false.
func invalid(d employee.Draft) (employee.Draft, Result, bool) {
	clean, err := employee.Validate(d)
	if err == nil {
		return clean, Result{}, false
	}

	d.Normalize()
	res := Result{Draft: d, Err: err}
	var verr *employee.ValidationError
	if errors.As(err, &verr) {
		res.Violations = verr.Fields()
	}
	return employee.Draft{}, res, true
}

// inflight tracks forms with a submit waiting on the service.
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func (f *inflight) acquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys == nil {
		f.keys = make(map[string]struct{})
	}
	if _, busy := f.keys[key]; busy {
		return false
	}
	f.keys[key] = struct{}{}
	return true
}

func (f *inflight) release(key string) {
	f.mu.Lock()
	delete(f.keys, key)
	f.mu.Unlock()
}

func notify(ctx context.Context, log zerolog.Logger, n flash.Notifier, session string, msg flash.Message) {
	if n == nil {
		return
	}
	if err := n.Push(ctx, session, msg); err != nil {
		log.Warn().Err(err).Str("text", msg.Text).Msg("notification dropped")
	}
}
