package validation

import (
	"iter"
)

// NamedRule pairs a rule with the name it is stored under
type NamedRule struct {
	Name string
	Rule *Rule
}

// Set is the ordered collection of rules governing one field, plus its
// presence and emptiness policy. Rule names are unique and iteration follows
// insertion order.
type Set struct {
	names      []string
	rules      map[string]*Rule
	presence   bool
	allowEmpty bool
}

// NewSet creates an empty rule set
func NewSet() *Set {
	return &Set{
		rules: make(map[string]*Rule),
	}
}

// Add builds a rule from cfg and stores it under name
func (s *Set) Add(name string, cfg RuleConfig) *Set {
	return s.AddRule(name, NewRule(cfg))
}

// AddRule stores rule under name. Replacing an existing name keeps its position.
func (s *Set) AddRule(name string, rule *Rule) *Set {
	if s.rules == nil {
		s.rules = make(map[string]*Rule)
	}
	if _, exists := s.rules[name]; !exists {
		s.names = append(s.names, name)
	}
	s.rules[name] = rule
	return s
}

// Remove deletes the named rule. Removing an absent name is a no-op.
func (s *Set) Remove(name string) *Set {
	if _, exists := s.rules[name]; !exists {
		return s
	}
	delete(s.rules, name)
	for i, n := range s.names {
		if n == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			break
		}
	}
	return s
}

// Rule returns the named rule
func (s *Set) Rule(name string) (*Rule, error) {
	rule, exists := s.rules[name]
	if !exists {
		return nil, &NotFoundError{Name: name}
	}
	return rule, nil
}

// Rules returns a snapshot of the rules in insertion order
func (s *Set) Rules() []NamedRule {
	out := make([]NamedRule, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, NamedRule{Name: name, Rule: s.rules[name]})
	}
	return out
}

// Names returns the rule names in insertion order
func (s *Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Has reports whether a rule is stored under name
func (s *Set) Has(name string) bool {
	_, exists := s.rules[name]
	return exists
}

// Len returns the number of rules
func (s *Set) Len() int {
	return len(s.names)
}

// All iterates name/rule pairs in insertion order. Each call starts a fresh pass.
func (s *Set) All() iter.Seq2[string, *Rule] {
	names := s.Names()
	return func(yield func(string, *Rule) bool) {
		for _, name := range names {
			rule, exists := s.rules[name]
			if !exists {
				continue
			}
			if !yield(name, rule) {
				return
			}
		}
	}
}

// RequirePresence sets whether the field must be present in the data
func (s *Set) RequirePresence(required bool) *Set {
	s.presence = required
	return s
}

// IsPresenceRequired reports whether the field must be present in the data
func (s *Set) IsPresenceRequired() bool {
	return s.presence
}

// AllowEmpty sets whether an empty value skips the rules instead of failing
func (s *Set) AllowEmpty(allowed bool) *Set {
	s.allowEmpty = allowed
	return s
}

// IsEmptyAllowed reports whether an empty value is accepted
func (s *Set) IsEmptyAllowed() bool {
	return s.allowEmpty
}

// Indexed access. These are aliases of the named methods above.

// Get is Rule with a presence flag instead of an error
func (s *Set) Get(name string) (*Rule, bool) {
	rule, err := s.Rule(name)
	return rule, err == nil
}

// Set is Add
func (s *Set) Set(name string, cfg RuleConfig) *Set {
	return s.Add(name, cfg)
}

// Exists is Has
func (s *Set) Exists(name string) bool {
	return s.Has(name)
}

// Unset is Remove
func (s *Set) Unset(name string) *Set {
	return s.Remove(name)
}
