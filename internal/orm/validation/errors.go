package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrRuleNotFound is returned when a rule name is absent from a Set
	ErrRuleNotFound = errors.New("validation rule not found")

	// ErrInvalidRule is returned when a rule's predicate or condition cannot be evaluated
	ErrInvalidRule = errors.New("invalid validation rule")

	// ErrInvalid is returned by predicates for a plain failure with no message of their own
	ErrInvalid = errors.New("invalid value")
)

// NotFoundError reports a lookup of a rule that is not part of a Set
type NotFoundError struct {
	Name string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("validation rule `%s` not found", e.Name)
}

// Unwrap returns ErrRuleNotFound
func (e *NotFoundError) Unwrap() error {
	return ErrRuleNotFound
}

// InvalidRuleError reports a rule whose predicate could not be resolved or
// whose condition could not be evaluated.
type InvalidRuleError struct {
	Rule     string
	Provider string
	Field    string
	Err      error
}

// Error implements the error interface
func (e *InvalidRuleError) Error() string {
	msg := fmt.Sprintf("unable to call `%s` in `%s` provider for field `%s`", e.Rule, e.Provider, e.Field)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both ErrInvalidRule and the underlying cause
func (e *InvalidRuleError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidRule}
	}
	return []error{ErrInvalidRule, e.Err}
}

// Errors contains the failed rules of a record, keyed by field then rule name
type Errors struct {
	Fields map[string]map[string]string `json:"fields"`
}

// NewErrors creates an empty Errors instance
func NewErrors() *Errors {
	return &Errors{
		Fields: make(map[string]map[string]string),
	}
}

// Add records a failed rule for a field
func (e *Errors) Add(field, rule, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]map[string]string)
	}
	if e.Fields[field] == nil {
		e.Fields[field] = make(map[string]string)
	}
	e.Fields[field][rule] = message
}

// Field returns the failed rules for one field
func (e *Errors) Field(field string) map[string]string {
	return e.Fields[field]
}

// HasErrors returns true if there are any validation errors
func (e *Errors) HasErrors() bool {
	return len(e.Fields) > 0
}

// Count returns the total number of failed rules across all fields
func (e *Errors) Count() int {
	count := 0
	for _, rules := range e.Fields {
		count += len(rules)
	}
	return count
}

// Error implements the error interface
func (e *Errors) Error() string {
	if !e.HasErrors() {
		return "validation failed"
	}

	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var messages []string
	for _, field := range fields {
		rules := make([]string, 0, len(e.Fields[field]))
		for rule := range e.Fields[field] {
			rules = append(rules, rule)
		}
		sort.Strings(rules)
		for _, rule := range rules {
			messages = append(messages, fmt.Sprintf("  - %s (%s): %s", field, rule, e.Fields[field][rule]))
		}
	}

	if len(messages) == 1 {
		return fmt.Sprintf("validation failed: %s", strings.TrimPrefix(messages[0], "  - "))
	}

	return fmt.Sprintf("validation failed:\n%s", strings.Join(messages, "\n"))
}

// MarshalJSON implements json.Marshaler for custom JSON serialization
func (e *Errors) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error  string                       `json:"error"`
		Fields map[string]map[string]string `json:"fields"`
	}{
		Error:  "validation_failed",
		Fields: e.Fields,
	})
}
