// Package value implements the closed set of value variants that flow
// across ports, the declared-type mirror of that set, and the satisfies
// predicate used by the validator and the data pool.
package value

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value or DeclaredType carries.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindJSON
	KindBinary
	KindList
	KindMessageList
	KindMessageEvent
	KindFunctionTools
	KindBotAdapterRef
	KindRedisRef
	KindMySQLRef
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindBoolean:
		return "Boolean"
	case KindJSON:
		return "Json"
	case KindBinary:
		return "Binary"
	case KindList:
		return "List"
	case KindMessageList:
		return "MessageList"
	case KindMessageEvent:
		return "MessageEvent"
	case KindFunctionTools:
		return "FunctionTools"
	case KindBotAdapterRef:
		return "BotAdapterRef"
	case KindRedisRef:
		return "RedisRef"
	case KindMySQLRef:
		return "MySqlRef"
	case KindCustom:
		return "Custom"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// DeclaredType mirrors the value variants without carrying data. For
// KindList, Elem describes the element type. For KindCustom, Name carries
// the domain-specific tag.
type DeclaredType struct {
	Kind Kind
	Elem *DeclaredType
	Name string
}

func (t DeclaredType) String() string {
	switch t.Kind {
	case KindList:
		if t.Elem == nil {
			return "List<?>"
		}
		return fmt.Sprintf("List<%s>", t.Elem.String())
	case KindCustom:
		return fmt.Sprintf("Custom(%s)", t.Name)
	default:
		return t.Kind.String()
	}
}

// Equal reports whether two declared types are identical, recursively for
// List element types and by name for Custom.
func (t DeclaredType) Equal(other DeclaredType) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindList:
		if t.Elem == nil || other.Elem == nil {
			return t.Elem == other.Elem
		}
		return t.Elem.Equal(*other.Elem)
	case KindCustom:
		return t.Name == other.Name
	default:
		return true
	}
}

// Convenience constructors for declared types.
func String() DeclaredType        { return DeclaredType{Kind: KindString} }
func Integer() DeclaredType       { return DeclaredType{Kind: KindInteger} }
func Float() DeclaredType         { return DeclaredType{Kind: KindFloat} }
func Boolean() DeclaredType       { return DeclaredType{Kind: KindBoolean} }
func JSON() DeclaredType          { return DeclaredType{Kind: KindJSON} }
func Binary() DeclaredType        { return DeclaredType{Kind: KindBinary} }
func MessageList() DeclaredType   { return DeclaredType{Kind: KindMessageList} }
func MessageEvent() DeclaredType  { return DeclaredType{Kind: KindMessageEvent} }
func FunctionTools() DeclaredType { return DeclaredType{Kind: KindFunctionTools} }
func BotAdapterRef() DeclaredType { return DeclaredType{Kind: KindBotAdapterRef} }
func RedisRef() DeclaredType      { return DeclaredType{Kind: KindRedisRef} }
func MySQLRef() DeclaredType      { return DeclaredType{Kind: KindMySQLRef} }

func Custom(name string) DeclaredType {
	return DeclaredType{Kind: KindCustom, Name: name}
}

func List(elem DeclaredType) DeclaredType {
	e := elem
	return DeclaredType{Kind: KindList, Elem: &e}
}

// Value is a tagged union carrying exactly one variant's payload. The zero
// Value is not meaningful; use the constructors below.
type Value struct {
	kind Kind

	str   string
	i64   int64
	f64   float64
	b     bool
	json  json.RawMessage
	bytes []byte
	list  []Value
	// ref holds the opaque handle for domain reference variants. The engine
	// never inspects it, only forwards it and compares tags.
	ref    any
	custom string
}

func (v Value) Kind() Kind { return v.kind }

func NewString(s string) Value  { return Value{kind: KindString, str: s} }
func NewInteger(i int64) Value  { return Value{kind: KindInteger, i64: i} }
func NewFloat(f float64) Value  { return Value{kind: KindFloat, f64: f} }
func NewBoolean(b bool) Value   { return Value{kind: KindBoolean, b: b} }
func NewJSON(raw json.RawMessage) Value {
	return Value{kind: KindJSON, json: append(json.RawMessage(nil), raw...)}
}
func NewBinary(b []byte) Value {
	return Value{kind: KindBinary, bytes: append([]byte(nil), b...)}
}
func NewList(elems []Value) Value {
	cp := append([]Value(nil), elems...)
	return Value{kind: KindList, list: cp}
}
func NewMessageList(ref any) Value   { return Value{kind: KindMessageList, ref: ref} }
func NewMessageEvent(ref any) Value  { return Value{kind: KindMessageEvent, ref: ref} }
func NewFunctionTools(ref any) Value { return Value{kind: KindFunctionTools, ref: ref} }
func NewBotAdapterRef(ref any) Value { return Value{kind: KindBotAdapterRef, ref: ref} }
func NewRedisRef(ref any) Value      { return Value{kind: KindRedisRef, ref: ref} }
func NewMySQLRef(ref any) Value      { return Value{kind: KindMySQLRef, ref: ref} }
func NewCustom(name string, ref any) Value {
	return Value{kind: KindCustom, custom: name, ref: ref}
}

func (v Value) AsString() (string, bool)          { return v.str, v.kind == KindString }
func (v Value) AsInteger() (int64, bool)           { return v.i64, v.kind == KindInteger }
func (v Value) AsFloat() (float64, bool)           { return v.f64, v.kind == KindFloat }
func (v Value) AsBoolean() (bool, bool)            { return v.b, v.kind == KindBoolean }
func (v Value) AsJSON() (json.RawMessage, bool)    { return v.json, v.kind == KindJSON }
func (v Value) AsBinary() ([]byte, bool)           { return v.bytes, v.kind == KindBinary }
func (v Value) AsList() ([]Value, bool)            { return v.list, v.kind == KindList }
func (v Value) AsRef() (any, bool) {
	switch v.kind {
	case KindMessageList, KindMessageEvent, KindFunctionTools, KindBotAdapterRef,
		KindRedisRef, KindMySQLRef, KindCustom:
		return v.ref, true
	default:
		return nil, false
	}
}

// CustomName returns the tag name of a Custom value.
func (v Value) CustomName() string { return v.custom }

// TypeOf returns the declared type that describes v.
func TypeOf(v Value) DeclaredType {
	switch v.kind {
	case KindList:
		if len(v.list) == 0 {
			// An empty list carries no element-type evidence; callers that
			// need to validate against a declared element type should treat
			// this as satisfying any List<T>.
			return DeclaredType{Kind: KindList}
		}
		elem := TypeOf(v.list[0])
		return List(elem)
	case KindCustom:
		return Custom(v.custom)
	default:
		return DeclaredType{Kind: v.kind}
	}
}

// Satisfies reports whether v's tag (and, recursively for lists, every
// element's tag) matches the declared type t.
func Satisfies(v Value, t DeclaredType) bool {
	if v.kind != t.Kind {
		return false
	}
	switch t.Kind {
	case KindList:
		if t.Elem == nil {
			return true
		}
		for _, e := range v.list {
			if !Satisfies(e, *t.Elem) {
				return false
			}
		}
		return true
	case KindCustom:
		return v.custom == t.Name
	default:
		return true
	}
}

// DebugString renders v for human-readable diagnostics, such as
// --print-results output: primitives print their native form, refs and
// opaque payloads print their kind and, for JSON/binary, a size — never the
// raw bytes, since a redis/mysql connection ref has no useful string form.
func (v Value) DebugString() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInteger:
		return strconv.FormatInt(v.i64, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f64, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindJSON:
		return fmt.Sprintf("<json, %d bytes>", len(v.json))
	case KindBinary:
		return fmt.Sprintf("<binary, %d bytes>", len(v.bytes))
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.DebugString()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindCustom:
		return fmt.Sprintf("<%s>", v.custom)
	default:
		return fmt.Sprintf("<%s>", v.kind)
	}
}
