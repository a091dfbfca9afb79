package validation

import (
	"reflect"
)

// Default messages recorded under the reserved rule names
const (
	RequiredRule = "_required"
	EmptyRule    = "_empty"

	RequiredMessage = "This field is required"
	EmptyMessage    = "This field cannot be left empty"
	InvalidMessage  = "The provided value is invalid"
)

// Validator owns one rule Set per field and evaluates records against them
type Validator struct {
	fields    map[string]*Set
	order     []string
	providers Providers
}

// NewValidator creates a validator with the default provider registered
func NewValidator() *Validator {
	return &Validator{
		fields: make(map[string]*Set),
		providers: Providers{
			DefaultProvider: DefaultPredicates(),
		},
	}
}

// Provider registers or replaces a named predicate provider
func (v *Validator) Provider(name string, provider Provider) *Validator {
	v.providers[name] = provider
	return v
}

// Field returns the rule set for a field, creating it on first use
func (v *Validator) Field(name string) *Set {
	set, exists := v.fields[name]
	if !exists {
		set = NewSet()
		v.fields[name] = set
		v.order = append(v.order, name)
	}
	return set
}

// HasField reports whether any policy or rule was declared for the field
func (v *Validator) HasField(name string) bool {
	_, exists := v.fields[name]
	return exists
}

// Fields returns the declared field names in declaration order
func (v *Validator) Fields() []string {
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

// Add adds a named rule to a field
func (v *Validator) Add(field, name string, cfg RuleConfig) *Validator {
	v.Field(field).Add(name, cfg)
	return v
}

// Remove removes the named rules from a field, or the whole field when no
// rule names are given.
func (v *Validator) Remove(field string, rules ...string) *Validator {
	set, exists := v.fields[field]
	if !exists {
		return v
	}

	if len(rules) > 0 {
		for _, rule := range rules {
			set.Remove(rule)
		}
		return v
	}

	delete(v.fields, field)
	for i, name := range v.order {
		if name == field {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
	return v
}

// RequirePresence sets the presence policy of a field
func (v *Validator) RequirePresence(field string, required bool) *Validator {
	v.Field(field).RequirePresence(required)
	return v
}

// AllowEmpty sets the emptiness policy of a field
func (v *Validator) AllowEmpty(field string, allowed bool) *Validator {
	v.Field(field).AllowEmpty(allowed)
	return v
}

// Validate returns *Errors when the record fails, nil when it passes, or the
// error of a rule that could not be evaluated.
func (v *Validator) Validate(data map[string]any, newRecord bool) error {
	errs, err := v.Errors(data, newRecord)
	if err != nil {
		return err
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Errors evaluates every field of the validator against data.
//
// A missing field fails with _required when presence is required and is
// skipped otherwise. An empty value fails with _empty unless empty values
// are allowed, in which case its rules are skipped. Rules then run in
// insertion order; a failing rule marked last stops the remaining rules.
func (v *Validator) Errors(data map[string]any, newRecord bool) (*Errors, error) {
	errs := NewErrors()

	for _, field := range v.order {
		set := v.fields[field]
		value, present := data[field]

		if !present {
			if set.IsPresenceRequired() {
				errs.Add(field, RequiredRule, RequiredMessage)
			}
			continue
		}

		if isEmpty(value) {
			if !set.IsEmptyAllowed() {
				errs.Add(field, EmptyRule, EmptyMessage)
			}
			continue
		}

		ctx := &Context{
			Field:     field,
			Data:      data,
			NewRecord: newRecord,
			Providers: v.providers,
		}
		if err := v.processRules(set, value, ctx, errs); err != nil {
			return nil, err
		}
	}

	return errs, nil
}

func (v *Validator) processRules(set *Set, value any, ctx *Context, errs *Errors) error {
	for name, rule := range set.All() {
		passed, message, err := rule.Process(value, v.providers, ctx)
		if err != nil {
			return err
		}
		if passed {
			continue
		}

		if message == "" {
			message = InvalidMessage
		}
		errs.Add(ctx.Field, name, message)

		if rule.IsLast() {
			break
		}
	}
	return nil
}

// isEmpty treats nil, "" and zero-length slices, arrays and maps as empty
func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return s == ""
	}

	val := reflect.ValueOf(value)
	switch val.Kind() {
	case reflect.Slice, reflect.Map:
		return val.IsNil() || val.Len() == 0
	case reflect.Array:
		return val.Len() == 0
	case reflect.Pointer:
		return val.IsNil()
	}
	return false
}
