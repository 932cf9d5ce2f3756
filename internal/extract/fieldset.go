package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/loan-intake/constants"
)

// DateLayout is how dates are rendered in stored extraction documents.
const DateLayout = "2006-01-02"

// Value is one coerced field value. Exactly one of the typed slots is
// meaningful, selected by Kind.
type Value struct {
	kind Kind
	str  string
	date time.Time
	dec  decimal.Decimal
	num  int64
}

func StringValue(s string) Value           { return Value{kind: KindString, str: s} }
func DateValue(t time.Time) Value          { return Value{kind: KindDate, date: t} }
func DecimalValue(d decimal.Decimal) Value { return Value{kind: KindDecimal, dec: d} }
func IntValue(n int64) Value               { return Value{kind: KindInteger, num: n} }
func FlagValue() Value                     { return Value{kind: KindFlag} }

func (v Value) Kind() Kind { return v.kind }

// String renders the value for logs and exports.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindDate:
		return v.date.Format(DateLayout)
	case KindDecimal:
		return v.dec.String()
	case KindInteger:
		return strconv.FormatInt(v.num, 10)
	case KindFlag:
		return "true"
	default:
		return ""
	}
}

func (v Value) jsonValue() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindDate:
		return v.date.Format(DateLayout)
	case KindDecimal:
		return json.Number(v.dec.String())
	case KindInteger:
		return v.num
	default:
		return true
	}
}

// FieldSet is the output of the extractor: only fields that were found are
// present. The zero value is an empty set.
type FieldSet struct {
	values map[FieldName]Value
}

// Set stores v under name. Unknown names and kind mismatches are rejected.
func (s *FieldSet) Set(name FieldName, v Value) error {
	want := KindOf(name)
	if want == 0 {
		return fmt.Errorf("unknown field %q", name)
	}
	if v.kind != want {
		return fmt.Errorf("field %q: expected %s, got %s", name, want, v.kind)
	}
	if s.values == nil {
		s.values = make(map[FieldName]Value)
	}
	s.values[name] = v
	return nil
}

func (s FieldSet) Get(name FieldName) (Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

func (s FieldSet) Has(name FieldName) bool {
	_, ok := s.values[name]
	return ok
}

// HasAny reports whether at least one of names is present.
func (s FieldSet) HasAny(names ...FieldName) bool {
	for _, n := range names {
		if s.Has(n) {
			return true
		}
	}
	return false
}

func (s FieldSet) Len() int { return len(s.values) }

func (s FieldSet) String(name FieldName) (string, bool) {
	v, ok := s.values[name]
	if !ok || v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (s FieldSet) Date(name FieldName) (time.Time, bool) {
	v, ok := s.values[name]
	if !ok || v.kind != KindDate {
		return time.Time{}, false
	}
	return v.date, true
}

func (s FieldSet) Decimal(name FieldName) (decimal.Decimal, bool) {
	v, ok := s.values[name]
	if !ok || v.kind != KindDecimal {
		return decimal.Decimal{}, false
	}
	return v.dec, true
}

func (s FieldSet) Int(name FieldName) (int64, bool) {
	v, ok := s.values[name]
	if !ok || v.kind != KindInteger {
		return 0, false
	}
	return v.num, true
}

// Names returns the present fields in table order.
func (s FieldSet) Names() []FieldName {
	out := make([]FieldName, 0, len(s.values))
	for _, f := range fieldTable {
		if _, ok := s.values[f.name]; ok {
			out = append(out, f.name)
		}
	}
	return out
}

// Purposes returns the flagged purposes in canonical order.
func (s FieldSet) Purposes() []constants.Purpose {
	var out []constants.Purpose
	for _, p := range constants.Purposes() {
		if f, ok := PurposeField(p); ok && s.Has(f) {
			out = append(out, p)
		}
	}
	return out
}

type storedDocument struct {
	Version  int            `json:"version"`
	Fields   map[string]any `json:"fields"`
	Purposes []string       `json:"purposes"`
}

// MarshalJSON renders the versioned document stored on the uploaded document
// row. Purpose flags are listed under "purposes" rather than "fields".
func (s FieldSet) MarshalJSON() ([]byte, error) {
	doc := storedDocument{
		Version:  SchemaVersion,
		Fields:   make(map[string]any, len(s.values)),
		Purposes: []string{},
	}
	for name, v := range s.values {
		if v.kind == KindFlag {
			continue
		}
		doc.Fields[string(name)] = v.jsonValue()
	}
	for _, p := range s.Purposes() {
		doc.Purposes = append(doc.Purposes, string(p))
	}
	return json.Marshal(doc)
}
