// Package schema describes database tables for fixtures and ordering: column
// types, primary keys and the foreign keys that link tables together.
package schema

import (
	"fmt"
	"strings"
)

// PrimitiveType is the portable column type used by fixture schemas
type PrimitiveType int

const (
	// Text types
	TypeString PrimitiveType = iota
	TypeText

	// Numeric types
	TypeInt
	TypeBigInt
	TypeFloat
	TypeDecimal

	// Boolean
	TypeBool

	// Time types
	TypeTimestamp
	TypeDate
	TypeTime

	// Unique identifiers
	TypeUUID

	// JSON types
	TypeJSON

	// Raw bytes
	TypeBinary
)

// String returns the string representation of the primitive type
func (p PrimitiveType) String() string {
	switch p {
	case TypeString:
		return "string"
	case TypeText:
		return "text"
	case TypeInt:
		return "int"
	case TypeBigInt:
		return "bigint"
	case TypeFloat:
		return "float"
	case TypeDecimal:
		return "decimal"
	case TypeBool:
		return "bool"
	case TypeTimestamp:
		return "timestamp"
	case TypeDate:
		return "date"
	case TypeTime:
		return "time"
	case TypeUUID:
		return "uuid"
	case TypeJSON:
		return "json"
	case TypeBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// ParsePrimitiveType converts a type name to a PrimitiveType. Common aliases
// such as "integer", "boolean" and "datetime" are accepted.
func ParsePrimitiveType(s string) (PrimitiveType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "varchar":
		return TypeString, nil
	case "text":
		return TypeText, nil
	case "int", "integer":
		return TypeInt, nil
	case "bigint", "biginteger":
		return TypeBigInt, nil
	case "float", "double":
		return TypeFloat, nil
	case "decimal", "numeric":
		return TypeDecimal, nil
	case "bool", "boolean":
		return TypeBool, nil
	case "timestamp", "datetime":
		return TypeTimestamp, nil
	case "date":
		return TypeDate, nil
	case "time":
		return TypeTime, nil
	case "uuid":
		return TypeUUID, nil
	case "json", "jsonb":
		return TypeJSON, nil
	case "binary", "blob", "bytea":
		return TypeBinary, nil
	default:
		return 0, fmt.Errorf("unknown primitive type: %s", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (p PrimitiveType) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *PrimitiveType) UnmarshalText(text []byte) error {
	parsed, err := ParsePrimitiveType(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// CascadeAction represents cascade actions for foreign keys
type CascadeAction int

const (
	CascadeNoAction CascadeAction = iota
	CascadeRestrict
	CascadeCascade
	CascadeSetNull
)

// String returns the string representation of the cascade action
func (c CascadeAction) String() string {
	switch c {
	case CascadeRestrict:
		return "restrict"
	case CascadeCascade:
		return "cascade"
	case CascadeSetNull:
		return "set_null"
	case CascadeNoAction:
		return "no_action"
	default:
		return "unknown"
	}
}

// SQL returns the referential action clause for the cascade action
func (c CascadeAction) SQL() string {
	switch c {
	case CascadeRestrict:
		return "RESTRICT"
	case CascadeCascade:
		return "CASCADE"
	case CascadeSetNull:
		return "SET NULL"
	default:
		return "NO ACTION"
	}
}

// ParseCascadeAction converts a string to a CascadeAction
func ParseCascadeAction(s string) (CascadeAction, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")) {
	case "", "no_action":
		return CascadeNoAction, nil
	case "restrict":
		return CascadeRestrict, nil
	case "cascade":
		return CascadeCascade, nil
	case "set_null":
		return CascadeSetNull, nil
	default:
		return 0, fmt.Errorf("unknown cascade action: %s", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *CascadeAction) UnmarshalText(text []byte) error {
	parsed, err := ParseCascadeAction(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
