package dsl

import (
	"maps"

	"github.com/aretw0/blade/pkg/domain"
)

// IntentBuilder provides a fluent API for configuring an intent.
type IntentBuilder struct {
	intent domain.Intent
}

// Say adds phrases that trigger the intent.
func (i *IntentBuilder) Say(phrases ...string) *IntentBuilder {
	i.intent.Phrases = append(i.intent.Phrases, phrases...)
	return i
}

// Alias adds alternative spellings that also trigger the intent.
func (i *IntentBuilder) Alias(aliases ...string) *IntentBuilder {
	i.intent.Aliases = append(i.intent.Aliases, aliases...)
	return i
}

// Command sets a host command ("category.command") as the operator.
func (i *IntentBuilder) Command(op string, params ...map[string]any) *IntentBuilder {
	i.intent.Operator = op
	for _, p := range params {
		i.Params(p)
	}
	return i
}

// Set makes the intent assign value to a state path.
func (i *IntentBuilder) Set(path string, value any) *IntentBuilder {
	i.intent.Operator = path
	return i.Param(domain.ParamValue, value)
}

// Normalize sets the value normalization hint ("color").
func (i *IntentBuilder) Normalize(hint string) *IntentBuilder {
	return i.Param(domain.ParamNormalize, hint)
}

// Param sets a single parameter.
func (i *IntentBuilder) Param(key string, value any) *IntentBuilder {
	if i.intent.Params == nil {
		i.intent.Params = make(domain.Params)
	}
	i.intent.Params[key] = value
	return i
}

// Params merges parameters into the intent.
func (i *IntentBuilder) Params(params map[string]any) *IntentBuilder {
	if i.intent.Params == nil {
		i.intent.Params = make(domain.Params, len(params))
	}
	maps.Copy(i.intent.Params, params)
	return i
}

// Fallback sets the command tried when the operator fails.
func (i *IntentBuilder) Fallback(op string, args []any, kwargs map[string]any) *IntentBuilder {
	i.intent.Op = op
	i.intent.Args = args
	i.intent.Kwargs = kwargs
	return i
}

// Direct sets the raw state assignment tried last.
func (i *IntentBuilder) Direct(path string, value any) *IntentBuilder {
	i.intent.Direct = &domain.Direct{Path: path, Value: value}
	return i
}

// Requires declares context the intent cannot run without.
func (i *IntentBuilder) Requires(needs ...string) *IntentBuilder {
	i.intent.Requires = append(i.intent.Requires, needs...)
	return i
}

// Ensure declares context the engine should create before dispatch.
func (i *IntentBuilder) Ensure(needs ...string) *IntentBuilder {
	i.intent.Ensure = append(i.intent.Ensure, needs...)
	return i
}

// Domain sets the pipeline hint.
func (i *IntentBuilder) Domain(d string) *IntentBuilder {
	i.intent.Domain = d
	return i
}

// Tag adds pipeline tags.
func (i *IntentBuilder) Tag(tags ...string) *IntentBuilder {
	i.intent.Tags = append(i.intent.Tags, tags...)
	return i
}

// Describe sets the category and description shown in listings.
func (i *IntentBuilder) Describe(category, description string) *IntentBuilder {
	i.intent.Category = category
	i.intent.Description = description
	return i
}

// Build returns a copy of the underlying domain.Intent.
// This is primarily used by the Builder, but exposed for advanced usage.
func (i *IntentBuilder) Build() domain.Intent {
	in := i.intent
	if in.Params != nil {
		in.Params = maps.Clone(in.Params)
	}
	return in
}
