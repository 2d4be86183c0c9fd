package value

import (
	"encoding/json"
	"fmt"
)

// ParseLiteral parses a persisted JSON literal into the Value variant
// matching declared type t. Only primitive variants (String, Integer,
// Float, Boolean, Json, Binary is not representable as a plain JSON
// literal and is rejected) may be used as inline defaults, per spec.md
// §4.1. A type mismatch is a definition-load error, returned verbatim so
// the caller can wrap it as a DefinitionError.
func ParseLiteral(raw json.RawMessage, t DeclaredType) (Value, error) {
	switch t.Kind {
	case KindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, fmt.Errorf("literal is not a String: %w", err)
		}
		return NewString(s), nil
	case KindInteger:
		var i int64
		if err := json.Unmarshal(raw, &i); err != nil {
			return Value{}, fmt.Errorf("literal is not an Integer: %w", err)
		}
		return NewInteger(i), nil
	case KindFloat:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return Value{}, fmt.Errorf("literal is not a Float: %w", err)
		}
		return NewFloat(f), nil
	case KindBoolean:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Value{}, fmt.Errorf("literal is not a Boolean: %w", err)
		}
		return NewBoolean(b), nil
	case KindJSON:
		if !json.Valid(raw) {
			return Value{}, fmt.Errorf("literal is not valid Json")
		}
		return NewJSON(raw), nil
	default:
		return Value{}, fmt.Errorf("declared type %s cannot carry an inline literal default", t)
	}
}
