package validation

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestErrors_Add(t *testing.T) {
	errs := NewErrors()

	errs.Add("title", "minLength", "must be at least 5 characters")
	errs.Add("email", "email", "must be a valid email address")
	errs.Add("title", "alphaNumeric", "must contain only letters and numbers")

	if len(errs.Fields) != 2 {
		t.Errorf("expected 2 fields with errors, got %d", len(errs.Fields))
	}

	if len(errs.Field("title")) != 2 {
		t.Errorf("expected 2 errors for title, got %d", len(errs.Field("title")))
	}

	if errs.Field("email")["email"] != "must be a valid email address" {
		t.Errorf("unexpected email message %q", errs.Field("email")["email"])
	}
}

func TestErrors_HasErrorsAndCount(t *testing.T) {
	errs := NewErrors()

	if errs.HasErrors() {
		t.Error("expected HasErrors to return false for new Errors")
	}
	if errs.Count() != 0 {
		t.Errorf("expected count 0, got %d", errs.Count())
	}

	errs.Add("field1", "a", "error 1")
	errs.Add("field1", "b", "error 2")
	errs.Add("field2", "a", "error 3")
	errs.Add("field2", "a", "error 3 replaced")

	if !errs.HasErrors() {
		t.Error("expected HasErrors to return true after adding error")
	}
	if errs.Count() != 3 {
		t.Errorf("expected count 3, got %d", errs.Count())
	}
}

func TestErrors_Error(t *testing.T) {
	tests := []struct {
		name     string
		setup    func() *Errors
		contains []string
	}{
		{
			name:     "no errors",
			setup:    NewErrors,
			contains: []string{"validation failed"},
		},
		{
			name: "single error",
			setup: func() *Errors {
				errs := NewErrors()
				errs.Add("title", "minLength", "must be at least 5 characters")
				return errs
			},
			contains: []string{"validation failed: title (minLength): must be at least 5 characters"},
		},
		{
			name: "multiple errors",
			setup: func() *Errors {
				errs := NewErrors()
				errs.Add("title", "minLength", "too short")
				errs.Add("email", "email", "bad email")
				return errs
			},
			contains: []string{"validation failed:\n", "  - email (email): bad email\n  - title (minLength): too short"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.setup().Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("expected error message to contain %q, got %q", want, msg)
				}
			}
		})
	}
}

func TestErrors_MarshalJSON(t *testing.T) {
	errs := NewErrors()
	errs.Add("title", "_required", RequiredMessage)

	data, err := json.Marshal(errs)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if result["error"] != "validation_failed" {
		t.Errorf("expected error validation_failed, got %v", result["error"])
	}
	fields, ok := result["fields"].(map[string]any)
	if !ok {
		t.Fatalf("expected fields object, got %T", result["fields"])
	}
	title, ok := fields["title"].(map[string]any)
	if !ok || title["_required"] != RequiredMessage {
		t.Errorf("unexpected title errors %v", fields["title"])
	}
}

func TestNotFoundError(t *testing.T) {
	var err error = &NotFoundError{Name: "notBlank"}

	if !errors.Is(err, ErrRuleNotFound) {
		t.Error("expected NotFoundError to match ErrRuleNotFound")
	}
	if !strings.Contains(err.Error(), "`notBlank`") {
		t.Errorf("expected message to name the rule, got %q", err.Error())
	}
}

func TestInvalidRuleError(t *testing.T) {
	cause := errors.New("boom")
	var err error = &InvalidRuleError{Rule: "nope", Provider: "default", Field: "title", Err: cause}

	if !errors.Is(err, ErrInvalidRule) {
		t.Error("expected InvalidRuleError to match ErrInvalidRule")
	}
	if !errors.Is(err, cause) {
		t.Error("expected InvalidRuleError to unwrap its cause")
	}
	want := "unable to call `nope` in `default` provider for field `title`: boom"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
