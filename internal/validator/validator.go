// Package validator checks an intent configuration before it is served.
package validator

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/blade/pkg/adapters/file"
	"github.com/aretw0/blade/pkg/catalog"
	"github.com/aretw0/blade/pkg/classifier"
	"github.com/aretw0/blade/pkg/domain"
)

// AllowedKeys lists the top-level keys of an intent record. Other keys are
// kept by the engine and reported as warnings.
var AllowedKeys = []string{
	"name", "id", "phrase", "phrases", "aliases", "operator", "params",
	"domain", "tags", "requires", "ensure", "op", "args", "kwargs", "direct",
	"category", "description", "source", "injected_at", "merged_at", "meta",
}

// Report is the outcome of validating a configuration.
type Report struct {
	Total    int                `json:"total"`
	Errors   []*ValidationError `json:"errors"`
	Warnings []*ValidationError `json:"warnings"`
	// Kinds counts the operators per classification.
	Kinds map[domain.OperatorKind]int `json:"kinds"`
}

// OK reports whether the configuration has no errors. Warnings are allowed.
func (r Report) OK() bool {
	return len(r.Errors) == 0
}

// Err returns an AggregateError with every error, or nil.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return &AggregateError{Errors: errs}
}

// Validator checks intent records against a classifier.
type Validator struct {
	classifier *classifier.Classifier
}

// New creates a Validator. A nil classifier uses the default host categories.
func New(c *classifier.Classifier) *Validator {
	if c == nil {
		c = classifier.New(nil)
	}
	return &Validator{classifier: c}
}

// ValidateFile reads the YAML list at path and validates it. Syntax errors
// and non-list documents are returned as errors.
func (v *Validator) ValidateFile(path string) (Report, error) {
	items, err := file.ReadRaw(path)
	if err != nil {
		return Report{}, err
	}
	return v.Validate(items), nil
}

// Validate checks raw configuration items.
func (v *Validator) Validate(items []any) Report {
	rep := Report{
		Total:    len(items),
		Errors:   []*ValidationError{},
		Warnings: []*ValidationError{},
		Kinds:    map[domain.OperatorKind]int{},
	}
	names := make(map[string]int)

	for i, item := range items {
		idx := i + 1
		raw, ok := item.(map[string]any)
		if !ok {
			rep.Errors = append(rep.Errors, &ValidationError{Index: idx, Reason: "not a mapping", Value: fmt.Sprintf("%T", item), Severity: SeverityError})
			continue
		}

		in, err := catalog.Decode(raw)
		if err != nil {
			rep.Errors = append(rep.Errors, &ValidationError{Index: idx, Name: stringOf(raw["name"]), Reason: err.Error(), Severity: SeverityError})
			continue
		}

		issue := func(sev Severity, key, reason string, value any) {
			e := &ValidationError{Index: idx, Name: in.Name, Key: key, Reason: reason, Value: value, Severity: sev}
			if sev == SeverityError {
				rep.Errors = append(rep.Errors, e)
			} else {
				rep.Warnings = append(rep.Warnings, e)
			}
		}

		for _, k := range unknownKeys(raw) {
			issue(SeverityWarning, k, "unknown key", nil)
		}

		name := strings.TrimSpace(cmp.Or(in.Name, in.ID))
		switch first, dup := names[name]; {
		case name == "":
			issue(SeverityError, "name", "missing", nil)
		case dup:
			issue(SeverityError, "name", fmt.Sprintf("duplicate of item #%d", first), nil)
		default:
			names[name] = idx
		}

		if len(in.Variants()) == 0 {
			issue(SeverityError, "phrases", "no phrase, alias or phrases entry", nil)
		}

		switch {
		case in.HasOperator():
			kind := v.classifier.Classify(in.Operator)
			rep.Kinds[kind]++
			if kind == domain.KindUnknown {
				issue(SeverityError, "operator", "neither a host command nor a state path", in.Operator)
			}
		case in.Op != "" || in.Direct != nil:
			issue(SeverityWarning, "operator", "missing, only fallbacks will run", nil)
		default:
			issue(SeverityError, "operator", "missing operator, op or direct", nil)
		}

		if in.Direct != nil && !classifier.IsStatePath(in.Direct.Path) {
			issue(SeverityError, "direct", "path must start with context. or data.", in.Direct.Path)
		}
	}
	return rep
}

func unknownKeys(raw map[string]any) []string {
	var out []string
	for k := range raw {
		if !slices.Contains(AllowedKeys, k) {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}
