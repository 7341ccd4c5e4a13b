// FILE: internal/entity/record_entity.go
// Computed value variant and the ephemeral ingested record
package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ValueKind tags the concrete shape of a FeatureValue.
type ValueKind string

const (
	ValueNumber    ValueKind = "number"
	ValueText      ValueKind = "text"
	ValueBool      ValueKind = "bool"
	ValueTimestamp ValueKind = "timestamp"
	ValueVector    ValueKind = "vector"
)

// FeatureValue is the fixed variant every computed value is carried in.
// Keeping the variant explicit (instead of interface{} blobs) is what lets
// validation and store serialization stay precise.
type FeatureValue struct {
	Kind ValueKind
	Num  float64
	Str  string
	Bool bool
	Ts   time.Time
	Vec  []float64
}

func NumberValue(v float64) FeatureValue  { return FeatureValue{Kind: ValueNumber, Num: v} }
func TextValue(v string) FeatureValue     { return FeatureValue{Kind: ValueText, Str: v} }
func BoolValue(v bool) FeatureValue       { return FeatureValue{Kind: ValueBool, Bool: v} }
func TimeValue(v time.Time) FeatureValue  { return FeatureValue{Kind: ValueTimestamp, Ts: v} }
func VectorValue(v []float64) FeatureValue {
	return FeatureValue{Kind: ValueVector, Vec: v}
}

// IsNumeric reports whether numeric bound checks apply to the value.
func (v FeatureValue) IsNumeric() bool { return v.Kind == ValueNumber }

// Native unwraps the value for expression environments and JSON responses.
func (v FeatureValue) Native() interface{} {
	switch v.Kind {
	case ValueNumber:
		return v.Num
	case ValueText:
		return v.Str
	case ValueBool:
		return v.Bool
	case ValueTimestamp:
		return v.Ts
	case ValueVector:
		return v.Vec
	}
	return nil
}

// StoreString serializes the value for the schema-less online tier.
func (v FeatureValue) StoreString() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueText:
		return v.Str
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueTimestamp:
		return v.Ts.UTC().Format(time.RFC3339Nano)
	case ValueVector:
		b, _ := json.Marshal(v.Vec)
		return string(b)
	}
	return ""
}

// CoerceValue converts a raw JSON-decoded input into the variant matching the
// declared feature type. It is the single place input typing is decided.
func CoerceValue(ft FeatureType, raw interface{}) (FeatureValue, error) {
	switch ft {
	case FeatureTypeNumerical:
		switch n := raw.(type) {
		case float64:
			return NumberValue(n), nil
		case int:
			return NumberValue(float64(n)), nil
		case int64:
			return NumberValue(float64(n)), nil
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return FeatureValue{}, fmt.Errorf("not a number: %v", raw)
			}
			return NumberValue(f), nil
		}
		return FeatureValue{}, fmt.Errorf("expected numeric value, got %T", raw)
	case FeatureTypeCategorical, FeatureTypeText:
		s, ok := raw.(string)
		if !ok {
			return FeatureValue{}, fmt.Errorf("expected string value, got %T", raw)
		}
		return TextValue(s), nil
	case FeatureTypeBoolean:
		b, ok := raw.(bool)
		if !ok {
			return FeatureValue{}, fmt.Errorf("expected boolean value, got %T", raw)
		}
		return BoolValue(b), nil
	case FeatureTypeTimestamp:
		switch t := raw.(type) {
		case time.Time:
			return TimeValue(t), nil
		case string:
			ts, err := time.Parse(time.RFC3339, t)
			if err != nil {
				return FeatureValue{}, fmt.Errorf("timestamp not RFC3339: %q", t)
			}
			return TimeValue(ts), nil
		case float64:
			return TimeValue(time.UnixMilli(int64(t)).UTC()), nil
		}
		return FeatureValue{}, fmt.Errorf("expected timestamp value, got %T", raw)
	case FeatureTypeEmbedding:
		switch vec := raw.(type) {
		case []float64:
			return VectorValue(vec), nil
		case []interface{}:
			out := make([]float64, 0, len(vec))
			for _, e := range vec {
				f, ok := e.(float64)
				if !ok {
					return FeatureValue{}, fmt.Errorf("embedding element is %T, want number", e)
				}
				out = append(out, f)
			}
			return VectorValue(out), nil
		}
		return FeatureValue{}, fmt.Errorf("expected embedding value, got %T", raw)
	}
	return FeatureValue{}, fmt.Errorf("unknown feature type %q", ft)
}

// ParseStored is the inverse of StoreString given the declared feature type.
func ParseStored(ft FeatureType, s string) (FeatureValue, error) {
	switch ft {
	case FeatureTypeNumerical:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return FeatureValue{}, err
		}
		return NumberValue(f), nil
	case FeatureTypeCategorical, FeatureTypeText:
		return TextValue(s), nil
	case FeatureTypeBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return FeatureValue{}, err
		}
		return BoolValue(b), nil
	case FeatureTypeTimestamp:
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return FeatureValue{}, err
		}
		return TimeValue(ts), nil
	case FeatureTypeEmbedding:
		var vec []float64
		if err := json.Unmarshal([]byte(s), &vec); err != nil {
			return FeatureValue{}, err
		}
		return VectorValue(vec), nil
	}
	return FeatureValue{}, fmt.Errorf("unknown feature type %q", ft)
}

// IngestedRecord is the output of one ingestion call. It is handed to both
// store tiers and then discarded; nothing keeps it.
type IngestedRecord struct {
	EntityID  string                  `json:"entity_id"`
	GroupName string                  `json:"group_name"`
	Timestamp time.Time               `json:"timestamp"`
	Values    map[string]FeatureValue `json:"-"`
}

// StringValues serializes all values for the online tier boundary.
func (r *IngestedRecord) StringValues() map[string]string {
	out := make(map[string]string, len(r.Values))
	for name, v := range r.Values {
		out[name] = v.StoreString()
	}
	return out
}
