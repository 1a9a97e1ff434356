package domain

import (
	"maps"
	"slices"
	"strings"
)

// Params holds the free-form arguments of an intent.
type Params map[string]any

// Value returns the "value" param used by state-path assignments.
func (p Params) Value() (any, bool) {
	v, ok := p[ParamValue]
	return v, ok
}

// NormalizeHint returns the "normalize" param, if it is a string.
func (p Params) NormalizeHint() string {
	s, _ := p[ParamNormalize].(string)
	return s
}

// Direct describes a raw state assignment used as the last fallback tier.
type Direct struct {
	Path  string `json:"path" yaml:"path" mapstructure:"path"`
	Value any    `json:"value" yaml:"value" mapstructure:"value"`
}

// Intent is a named command the user can trigger with one of its phrases.
type Intent struct {
	Name    string   `json:"name" yaml:"name" mapstructure:"name"`
	ID      string   `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Phrase  string   `json:"phrase,omitempty" yaml:"phrase,omitempty" mapstructure:"phrase"`
	Phrases []string `json:"phrases,omitempty" yaml:"phrases,omitempty" mapstructure:"phrases"`
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty" mapstructure:"aliases"`

	// Operator is either a host command ("category.command") or a state path
	// rooted at "context." or "data.".
	Operator string `json:"operator,omitempty" yaml:"operator,omitempty" mapstructure:"operator"`
	Params   Params `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`

	Domain string   `json:"domain,omitempty" yaml:"domain,omitempty" mapstructure:"domain"`
	Tags   []string `json:"tags,omitempty" yaml:"tags,omitempty" mapstructure:"tags"`

	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty" mapstructure:"requires"`
	Ensure   []string `json:"ensure,omitempty" yaml:"ensure,omitempty" mapstructure:"ensure"`

	Op     string         `json:"op,omitempty" yaml:"op,omitempty" mapstructure:"op"`
	Args   []any          `json:"args,omitempty" yaml:"args,omitempty" mapstructure:"args"`
	Kwargs map[string]any `json:"kwargs,omitempty" yaml:"kwargs,omitempty" mapstructure:"kwargs"`
	Direct *Direct        `json:"direct,omitempty" yaml:"direct,omitempty" mapstructure:"direct"`

	Category    string         `json:"category,omitempty" yaml:"category,omitempty" mapstructure:"category"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Source      string         `json:"source,omitempty" yaml:"source,omitempty" mapstructure:"source"`
	InjectedAt  string         `json:"injected_at,omitempty" yaml:"injected_at,omitempty" mapstructure:"injected_at"`
	MergedAt    string         `json:"merged_at,omitempty" yaml:"merged_at,omitempty" mapstructure:"merged_at"`
	Meta        map[string]any `json:"meta,omitempty" yaml:"meta,omitempty" mapstructure:"meta"`

	// Extra keeps unrecognized keys so they survive a rewrite of the file.
	Extra map[string]any `json:"-" yaml:",inline" mapstructure:",remain"`
}

// Variants returns the phrase, phrases and aliases as one ordered list
// without blanks or duplicates.
func (i Intent) Variants() []string {
	all := make([]string, 0, 1+len(i.Phrases)+len(i.Aliases))
	all = append(all, i.Phrase)
	all = append(all, i.Phrases...)
	all = append(all, i.Aliases...)

	seen := make(map[string]struct{}, len(all))
	out := make([]string, 0, len(all))
	for _, v := range all {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// HasOperator reports whether the intent names something to dispatch.
func (i Intent) HasOperator() bool {
	return strings.TrimSpace(i.Operator) != ""
}

// Needs returns requires and ensure hints combined.
func (i Intent) Needs() []string {
	out := make([]string, 0, len(i.Requires)+len(i.Ensure))
	out = append(out, i.Requires...)
	return append(out, i.Ensure...)
}

// HasTag reports whether one of the intent tags equals tag, ignoring case.
func (i Intent) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Standardize returns a copy with a name and a non-nil params map.
func (i Intent) Standardize() Intent {
	out := i.Clone()
	if strings.TrimSpace(out.Name) == "" {
		out.Name = out.ID
	}
	if strings.TrimSpace(out.Name) == "" {
		out.Name = UnnamedIntent
	}
	if out.Params == nil {
		out.Params = Params{}
	}
	return out
}

// Clone copies the intent so callers can mutate slices and maps freely.
func (i Intent) Clone() Intent {
	out := i
	out.Phrases = slices.Clone(i.Phrases)
	out.Aliases = slices.Clone(i.Aliases)
	out.Tags = slices.Clone(i.Tags)
	out.Requires = slices.Clone(i.Requires)
	out.Ensure = slices.Clone(i.Ensure)
	out.Args = slices.Clone(i.Args)
	out.Params = maps.Clone(i.Params)
	out.Kwargs = maps.Clone(i.Kwargs)
	out.Meta = maps.Clone(i.Meta)
	out.Extra = maps.Clone(i.Extra)
	if i.Direct != nil {
		d := *i.Direct
		out.Direct = &d
	}
	return out
}
