package validator

import "fmt"

// Severity tells whether an issue makes the configuration unusable.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError represents a single intent validation failure.
type ValidationError struct {
	Index    int    // 1-based position in the configuration list
	Name     string // Intent name, if known
	Key      string // Field name, empty for item-level issues
	Reason   string // Human-readable reason for failure
	Value    any    // The value that failed validation
	Severity Severity
}

func (e *ValidationError) Error() string {
	who := e.Name
	if who == "" {
		who = fmt.Sprintf("item #%d", e.Index)
	}
	msg := e.Reason
	if e.Key != "" {
		msg = fmt.Sprintf("field %q: %s", e.Key, e.Reason)
	}
	if e.Value != nil {
		msg = fmt.Sprintf("%s (got %v)", msg, e.Value)
	}
	return who + ": " + msg
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	if aggr, ok := err.(*AggregateError); ok {
		return aggr.Errors
	}
	return nil
}
