package validation

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
)

func runPredicate(t *testing.T, name string, value any, args []any) error {
	t.Helper()
	predicate, ok := DefaultPredicates().Lookup(name)
	if !ok {
		t.Fatalf("predicate %s not registered", name)
	}
	return predicate(value, args, &Context{})
}

func TestPredicates_Strings(t *testing.T) {
	tests := []struct {
		name      string
		predicate string
		value     any
		args      []any
		wantErr   bool
	}{
		{"notBlank text", "notBlank", "hello", nil, false},
		{"notBlank spaces", "notBlank", "   ", nil, true},
		{"notBlank nil", "notBlank", nil, nil, true},
		{"notBlank number", "notBlank", 0, nil, false},

		{"string longer than min", "minLength", "hello world", []any{5}, false},
		{"string shorter than min", "minLength", "hi", []any{5}, true},
		{"unicode counted by rune", "minLength", "héllo", []any{5}, false},
		{"minLength missing arg", "minLength", "hello", nil, true},
		{"string shorter than max", "maxLength", "hi", []any{5}, false},
		{"string longer than max", "maxLength", "hello world", []any{5}, true},
		{"length between", "lengthBetween", "abcd", []any{2, 6}, false},
		{"length below", "lengthBetween", "a", []any{2, 6}, true},
		{"length above", "lengthBetween", "abcdefg", []any{2, 6}, true},

		{"pattern match string", "custom", "abc123", []any{`^[a-z]+\d+$`}, false},
		{"pattern match compiled", "custom", "abc", []any{regexp.MustCompile(`^[a-z]+$`)}, false},
		{"pattern mismatch", "custom", "ABC", []any{`^[a-z]+$`}, true},
		{"pattern invalid", "custom", "abc", []any{`(`}, true},

		{"alphanumeric", "alphaNumeric", "abc123", nil, false},
		{"alphanumeric symbols", "alphaNumeric", "abc-123", nil, true},
		{"ascii", "ascii", "plain", nil, false},
		{"ascii accented", "ascii", "café", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runPredicate(t, tt.predicate, tt.value, tt.args)
			if (err != nil) != tt.wantErr {
				t.Errorf("%s(%v) error = %v, wantErr %v", tt.predicate, tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestPredicates_Numbers(t *testing.T) {
	tests := []struct {
		name      string
		predicate string
		value     any
		args      []any
		wantErr   bool
	}{
		{"numeric int", "numeric", 10, nil, false},
		{"numeric float", "numeric", 10.5, nil, false},
		{"numeric string", "numeric", "10.5", nil, false},
		{"numeric text", "numeric", "ten", nil, true},

		{"natural positive", "naturalNumber", 3, nil, false},
		{"natural zero", "naturalNumber", 0, nil, true},
		{"natural zero allowed", "naturalNumber", 0, []any{true}, false},
		{"natural negative", "naturalNumber", -1, nil, true},
		{"natural string", "naturalNumber", "12", nil, false},
		{"natural fraction", "naturalNumber", 1.5, nil, true},

		{"integer", "isInteger", int64(7), nil, false},
		{"integer float", "isInteger", 7.0, nil, false},
		{"integer fraction", "isInteger", 7.25, nil, true},

		{"range inside", "range", 5, []any{1, 10}, false},
		{"range bounds inclusive", "range", 10, []any{1, 10}, false},
		{"range outside", "range", 11, []any{1, 10}, true},
		{"range missing args", "range", 5, []any{1}, true},

		{"comparison greater", "comparison", 5, []any{">", 3}, false},
		{"comparison fails", "comparison", 2, []any{">=", 3}, true},
		{"comparison unknown op", "comparison", 2, []any{"<>", 3}, true},

		{"boolean true", "boolean", true, nil, false},
		{"boolean string", "boolean", "1", nil, false},
		{"boolean int", "boolean", 0, nil, false},
		{"boolean other", "boolean", "yes", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runPredicate(t, tt.predicate, tt.value, tt.args)
			if (err != nil) != tt.wantErr {
				t.Errorf("%s(%v) error = %v, wantErr %v", tt.predicate, tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestPredicates_Formats(t *testing.T) {
	tests := []struct {
		name      string
		predicate string
		value     any
		wantErr   bool
	}{
		{"valid email", "email", "user@example.com", false},
		{"valid email with subdomain", "email", "user@mail.example.com", false},
		{"valid email with plus", "email", "user+tag@example.com", false},
		{"invalid email - no @", "email", "userexample.com", true},
		{"invalid email - no domain", "email", "user@", true},
		{"invalid email - no user", "email", "@example.com", true},
		{"email whitespace only", "email", "   ", true},
		{"email non-string value", "email", 123, true},

		{"valid http URL", "url", "http://example.com", false},
		{"valid https URL with path", "url", "https://example.com/path?q=1", false},
		{"URL without scheme", "url", "example.com", true},
		{"URL without host", "url", "http://", true},

		{"valid phone", "phone", "+14155552671", false},
		{"phone without plus", "phone", "14155552671", true},
		{"phone too long", "phone", "+1234567890123456", true},

		{"uuid string", "uuid", "123e4567-e89b-12d3-a456-426614174000", false},
		{"uuid value", "uuid", uuid.New(), false},
		{"uuid invalid", "uuid", "not-a-uuid", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runPredicate(t, tt.predicate, tt.value, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("%s(%v) error = %v, wantErr %v", tt.predicate, tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestPredicates_Collections(t *testing.T) {
	tests := []struct {
		name      string
		predicate string
		value     any
		args      []any
		wantErr   bool
	}{
		{"in list", "inList", "draft", []any{[]string{"draft", "published"}}, false},
		{"not in list", "inList", "archived", []any{[]string{"draft", "published"}}, true},
		{"in list bad arg", "inList", "draft", []any{"draft"}, true},

		{"min count satisfied", "minCount", []int{1, 2, 3}, []any{2}, false},
		{"min count short", "minCount", []int{1}, []any{2}, true},
		{"max count satisfied", "maxCount", map[string]int{"a": 1}, []any{2}, false},
		{"max count exceeded", "maxCount", []string{"a", "b", "c"}, []any{2}, true},
		{"count non collection", "minCount", "abc", []any{1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runPredicate(t, tt.predicate, tt.value, tt.args)
			if (err != nil) != tt.wantErr {
				t.Errorf("%s(%v) error = %v, wantErr %v", tt.predicate, tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected int64
		ok       bool
	}{
		{"int", 42, 42, true},
		{"int8", int8(42), 42, true},
		{"int16", int16(42), 42, true},
		{"int32", int32(42), 42, true},
		{"int64", int64(42), 42, true},
		{"uint", uint(42), 42, true},
		{"float64", float64(42.0), 42, true},
		{"string", "42", 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := toInt64(tt.value)
			if ok != tt.ok {
				t.Errorf("toInt64(%v) ok = %v, want %v", tt.value, ok, tt.ok)
			}
			if ok && result != tt.expected {
				t.Errorf("toInt64(%v) = %v, want %v", tt.value, result, tt.expected)
			}
		})
	}
}

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected float64
		ok       bool
	}{
		{"int", 42, 42.0, true},
		{"int64", int64(42), 42.0, true},
		{"float32", float32(42.5), 42.5, true},
		{"float64", float64(42.5), 42.5, true},
		{"string", "42.5", 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := toFloat64(tt.value)
			if ok != tt.ok {
				t.Errorf("toFloat64(%v) ok = %v, want %v", tt.value, ok, tt.ok)
			}
			if ok && result != tt.expected {
				t.Errorf("toFloat64(%v) = %v, want %v", tt.value, result, tt.expected)
			}
		})
	}
}
