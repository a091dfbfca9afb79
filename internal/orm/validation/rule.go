package validation

import (
	"reflect"
)

const (
	// OnCreate limits a rule to new records
	OnCreate = "create"
	// OnUpdate limits a rule to existing records
	OnUpdate = "update"

	// DefaultProvider is the provider consulted for name based rules
	DefaultProvider = "default"
)

// Condition decides whether a rule applies to the record being validated
type Condition func(ctx *Context) bool

// Context carries the record being validated to predicates and conditions
type Context struct {
	Field     string
	Data      map[string]any
	NewRecord bool
	Providers Providers
}

// RuleConfig describes a rule before it is built.
//
// Rule names a predicate of the selected provider. Func is used instead when
// Rule is empty. On is "create", "update" or an expression evaluated against
// the record (data, newRecord, field); OnFunc is checked after On.
type RuleConfig struct {
	Rule     string
	Func     Predicate
	Provider string
	Message  string
	On       string
	OnFunc   Condition
	Last     bool
	Pass     []any
}

// Rule is a single named predicate check. Rules are immutable once built.
type Rule struct {
	rule     string
	fn       Predicate
	provider string
	message  string
	on       string
	onFunc   Condition
	last     bool
	pass     []any
}

// NewRule builds a rule from its configuration. Invalid predicate references
// are reported when the rule is processed, not here.
func NewRule(cfg RuleConfig) *Rule {
	provider := cfg.Provider
	if provider == "" {
		provider = DefaultProvider
	}

	var pass []any
	if len(cfg.Pass) > 0 {
		pass = make([]any, len(cfg.Pass))
		copy(pass, cfg.Pass)
	}

	return &Rule{
		rule:     cfg.Rule,
		fn:       cfg.Func,
		provider: provider,
		message:  cfg.Message,
		on:       cfg.On,
		onFunc:   cfg.OnFunc,
		last:     cfg.Last,
		pass:     pass,
	}
}

// Name returns the provider method the rule calls, empty for func rules
func (r *Rule) Name() string { return r.rule }

// Provider returns the name of the provider the rule is resolved against
func (r *Rule) Provider() string { return r.provider }

// Message returns the configured failure message
func (r *Rule) Message() string { return r.message }

// On returns the raw "on" condition
func (r *Rule) On() string { return r.on }

// IsLast reports whether a failure of this rule stops further rules
func (r *Rule) IsLast() bool { return r.last }

// Pass returns a copy of the extra arguments handed to the predicate
func (r *Rule) Pass() []any {
	if r.pass == nil {
		return nil
	}
	out := make([]any, len(r.pass))
	copy(out, r.pass)
	return out
}

// Equal reports structural equality. Function valued fields compare by identity.
func (r *Rule) Equal(other *Rule) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.rule == other.rule &&
		r.provider == other.provider &&
		r.message == other.message &&
		r.on == other.on &&
		r.last == other.last &&
		sameFunc(r.fn, other.fn) &&
		sameFunc(r.onFunc, other.onFunc) &&
		reflect.DeepEqual(r.pass, other.pass)
}

// Process evaluates the rule against a value. A rule that does not apply to
// the record passes. The returned message is empty when neither the rule nor
// the predicate supplied one.
func (r *Rule) Process(value any, providers Providers, ctx *Context) (bool, string, error) {
	if ctx == nil {
		ctx = &Context{}
	}
	if ctx.Providers == nil {
		ctx.Providers = providers
	}

	skip, err := r.skip(ctx)
	if err != nil {
		return false, "", err
	}
	if skip {
		return true, "", nil
	}

	predicate, err := r.predicate(providers, ctx)
	if err != nil {
		return false, "", err
	}

	if err := predicate(value, r.pass, ctx); err != nil {
		if r.message != "" {
			return false, r.message, nil
		}
		if err == ErrInvalid {
			return false, "", nil
		}
		return false, err.Error(), nil
	}

	return true, "", nil
}

// skip reports whether the rule's condition excludes the current record
func (r *Rule) skip(ctx *Context) (bool, error) {
	switch r.on {
	case "":
	case OnCreate:
		if !ctx.NewRecord {
			return true, nil
		}
	case OnUpdate:
		if ctx.NewRecord {
			return true, nil
		}
	default:
		applies, err := evalCondition(r.on, ctx)
		if err != nil {
			return false, &InvalidRuleError{Rule: r.label(), Provider: r.provider, Field: ctx.Field, Err: err}
		}
		if !applies {
			return true, nil
		}
	}

	if r.onFunc != nil && !r.onFunc(ctx) {
		return true, nil
	}
	return false, nil
}

func (r *Rule) predicate(providers Providers, ctx *Context) (Predicate, error) {
	if r.rule == "" {
		if r.fn == nil {
			return nil, &InvalidRuleError{Rule: r.label(), Provider: r.provider, Field: ctx.Field}
		}
		return r.fn, nil
	}

	provider, ok := providers[r.provider]
	if !ok || provider == nil {
		return nil, &InvalidRuleError{Rule: r.rule, Provider: r.provider, Field: ctx.Field}
	}
	predicate, ok := provider.Lookup(r.rule)
	if !ok || predicate == nil {
		return nil, &InvalidRuleError{Rule: r.rule, Provider: r.provider, Field: ctx.Field}
	}
	return predicate, nil
}

func (r *Rule) label() string {
	if r.rule != "" {
		return r.rule
	}
	return "<func>"
}

func sameFunc(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || va.IsNil() {
		return !vb.IsValid() || vb.IsNil()
	}
	if !vb.IsValid() || vb.IsNil() {
		return false
	}
	return va.Pointer() == vb.Pointer()
}
