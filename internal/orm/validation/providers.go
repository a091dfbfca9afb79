package validation

import (
	"fmt"
	"net/mail"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Pre-compiled regex patterns for predicates
var (
	e164Pattern         = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	alphaNumericPattern = regexp.MustCompile(`^[\p{L}\p{Nd}]+$`)
)

// Predicate checks one value. It returns nil when the value passes, ErrInvalid
// for a plain failure, or any other error whose text becomes the message.
type Predicate func(value any, args []any, ctx *Context) error

// Provider resolves predicates by name
type Provider interface {
	Lookup(name string) (Predicate, bool)
}

// Providers maps provider names to providers
type Providers map[string]Provider

// Predicates is a Provider backed by a plain map
type Predicates map[string]Predicate

// Lookup implements Provider
func (p Predicates) Lookup(name string) (Predicate, bool) {
	fn, ok := p[name]
	return fn, ok
}

// DefaultPredicates returns the built-in predicates served by the default provider
func DefaultPredicates() Predicates {
	return Predicates{
		"notBlank":      notBlank,
		"numeric":       numeric,
		"naturalNumber": naturalNumber,
		"isInteger":     isInteger,
		"boolean":       boolean,
		"email":         email,
		"url":           urlValue,
		"phone":         phone,
		"uuid":          uuidValue,
		"minLength":     minLength,
		"maxLength":     maxLength,
		"lengthBetween": lengthBetween,
		"range":         inRange,
		"comparison":    comparison,
		"inList":        inList,
		"custom":        custom,
		"alphaNumeric":  alphaNumeric,
		"ascii":         ascii,
		"minCount":      minCount,
		"maxCount":      maxCount,
	}
}

func notBlank(value any, _ []any, _ *Context) error {
	if value == nil {
		return ErrInvalid
	}
	if s, ok := value.(string); ok {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("cannot be blank")
		}
		return nil
	}
	return nil
}

func numeric(value any, _ []any, _ *Context) error {
	if _, ok := toFloat64(value); ok {
		return nil
	}
	if s, ok := value.(string); ok {
		if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return nil
		}
	}
	return fmt.Errorf("must be numeric")
}

func naturalNumber(value any, args []any, _ *Context) error {
	allowZero := false
	if len(args) > 0 {
		allowZero, _ = args[0].(bool)
	}

	n, ok := integerValue(value)
	if !ok {
		return fmt.Errorf("must be a natural number")
	}
	if n < 0 || (n == 0 && !allowZero) {
		return fmt.Errorf("must be a natural number")
	}
	return nil
}

func isInteger(value any, _ []any, _ *Context) error {
	if _, ok := integerValue(value); !ok {
		return fmt.Errorf("must be an integer")
	}
	return nil
}

func boolean(value any, _ []any, _ *Context) error {
	switch v := value.(type) {
	case bool:
		return nil
	case string:
		switch v {
		case "0", "1", "true", "false":
			return nil
		}
	case int, int64:
		if n, _ := toInt64(v); n == 0 || n == 1 {
			return nil
		}
	}
	return fmt.Errorf("must be a boolean")
}

func email(value any, _ []any, _ *Context) error {
	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("email validation requires string value")
	}

	if strings.TrimSpace(strVal) == "" {
		return fmt.Errorf("email address cannot be empty")
	}

	addr, err := mail.ParseAddress(strVal)
	if err != nil || addr.Address != strVal {
		return fmt.Errorf("must be a valid email address")
	}

	return nil
}

func urlValue(value any, _ []any, _ *Context) error {
	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("URL validation requires string value")
	}

	if strings.TrimSpace(strVal) == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	parsedURL, err := url.Parse(strVal)
	if err != nil {
		return fmt.Errorf("must be a valid URL")
	}
	if parsedURL.Scheme == "" {
		return fmt.Errorf("URL must include a scheme (http, https, etc.)")
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("URL must include a host")
	}

	return nil
}

func phone(value any, _ []any, _ *Context) error {
	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("phone validation requires string value")
	}

	// E.164: +[country code][number], 1-15 digits
	if !e164Pattern.MatchString(strVal) {
		return fmt.Errorf("must be a valid phone number in E.164 format (+[country code][number])")
	}

	return nil
}

func uuidValue(value any, _ []any, _ *Context) error {
	switch v := value.(type) {
	case uuid.UUID:
		return nil
	case string:
		if _, err := uuid.Parse(v); err == nil {
			return nil
		}
	}
	return fmt.Errorf("must be a valid UUID")
}

func minLength(value any, args []any, _ *Context) error {
	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string value")
	}
	minLen, err := intArg(args, 0, "minLength")
	if err != nil {
		return err
	}
	if int64(utf8.RuneCountInString(strVal)) < minLen {
		return fmt.Errorf("must be at least %d characters", minLen)
	}
	return nil
}

func maxLength(value any, args []any, _ *Context) error {
	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string value")
	}
	maxLen, err := intArg(args, 0, "maxLength")
	if err != nil {
		return err
	}
	if int64(utf8.RuneCountInString(strVal)) > maxLen {
		return fmt.Errorf("must be at most %d characters", maxLen)
	}
	return nil
}

func lengthBetween(value any, args []any, ctx *Context) error {
	if err := minLength(value, args, ctx); err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("invalid lengthBetween constraint")
	}
	return maxLength(value, args[1:], ctx)
}

func inRange(value any, args []any, _ *Context) error {
	v, ok := toFloat64(value)
	if !ok {
		return fmt.Errorf("expected numeric value")
	}
	if len(args) < 2 {
		return fmt.Errorf("invalid range constraint")
	}
	lower, okLower := toFloat64(args[0])
	upper, okUpper := toFloat64(args[1])
	if !okLower || !okUpper {
		return fmt.Errorf("invalid range constraint")
	}
	if v < lower || v > upper {
		return fmt.Errorf("must be between %v and %v", lower, upper)
	}
	return nil
}

func comparison(value any, args []any, _ *Context) error {
	v, ok := toFloat64(value)
	if !ok {
		return fmt.Errorf("expected numeric value")
	}
	if len(args) < 2 {
		return fmt.Errorf("invalid comparison constraint")
	}
	op, _ := args[0].(string)
	other, ok := toFloat64(args[1])
	if !ok {
		return fmt.Errorf("invalid comparison constraint")
	}

	var passed bool
	switch op {
	case ">":
		passed = v > other
	case ">=":
		passed = v >= other
	case "<":
		passed = v < other
	case "<=":
		passed = v <= other
	case "==":
		passed = v == other
	case "!=":
		passed = v != other
	default:
		return fmt.Errorf("unknown comparison operator %q", op)
	}
	if !passed {
		return fmt.Errorf("must be %s %v", op, other)
	}
	return nil
}

func inList(value any, args []any, _ *Context) error {
	if len(args) == 0 {
		return fmt.Errorf("invalid inList constraint")
	}
	list := reflect.ValueOf(args[0])
	if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
		return fmt.Errorf("invalid inList constraint")
	}
	for i := 0; i < list.Len(); i++ {
		if reflect.DeepEqual(list.Index(i).Interface(), value) {
			return nil
		}
	}
	return fmt.Errorf("must be one of the allowed values")
}

func custom(value any, args []any, _ *Context) error {
	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("pattern validation requires string value")
	}
	if len(args) == 0 {
		return fmt.Errorf("invalid pattern constraint")
	}

	var pattern *regexp.Regexp
	switch p := args[0].(type) {
	case *regexp.Regexp:
		pattern = p
	case string:
		compiled, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
		pattern = compiled
	default:
		return fmt.Errorf("invalid pattern constraint")
	}

	if !pattern.MatchString(strVal) {
		return fmt.Errorf("does not match required pattern")
	}
	return nil
}

func alphaNumeric(value any, _ []any, _ *Context) error {
	strVal, ok := value.(string)
	if !ok || !alphaNumericPattern.MatchString(strVal) {
		return fmt.Errorf("must contain only letters and numbers")
	}
	return nil
}

func ascii(value any, _ []any, _ *Context) error {
	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string value")
	}
	for _, r := range strVal {
		if r > unicode.MaxASCII {
			return fmt.Errorf("must contain only ASCII characters")
		}
	}
	return nil
}

func minCount(value any, args []any, _ *Context) error {
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Slice && val.Kind() != reflect.Array && val.Kind() != reflect.Map {
		return fmt.Errorf("min_count validation requires array or slice value")
	}
	n, err := intArg(args, 0, "minCount")
	if err != nil {
		return err
	}
	if int64(val.Len()) < n {
		return fmt.Errorf("must contain at least %d items", n)
	}
	return nil
}

func maxCount(value any, args []any, _ *Context) error {
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Slice && val.Kind() != reflect.Array && val.Kind() != reflect.Map {
		return fmt.Errorf("max_count validation requires array or slice value")
	}
	n, err := intArg(args, 0, "maxCount")
	if err != nil {
		return err
	}
	if int64(val.Len()) > n {
		return fmt.Errorf("must contain at most %d items", n)
	}
	return nil
}

// Helper functions for type conversion

func intArg(args []any, i int, rule string) (int64, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("invalid %s constraint", rule)
	}
	n, ok := toInt64(args[i])
	if !ok {
		return 0, fmt.Errorf("invalid %s constraint", rule)
	}
	return n, nil
}

// integerValue accepts integer kinds, integral floats and decimal strings
func integerValue(value any) (int64, bool) {
	switch v := value.(type) {
	case float32:
		if float32(int64(v)) != v {
			return 0, false
		}
		return int64(v), true
	case float64:
		if float64(int64(v)) != v {
			return 0, false
		}
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}
	return toInt64(value)
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float32:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
