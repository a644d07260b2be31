package oasvalidation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// rangeSet implements the x-range keyword: the value must fall inside at
// least one of the declared closed intervals. The companion x-type keyword
// selects the numeric domain; int64 and uint64 values are compared without
// going through float64.
type rangeSet struct{}

var rangeSetMeta = jsonschema.MustCompileString("x-range.json", `{
	"properties": {
		"x-range": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"min": { "type": "number" },
					"max": { "type": "number" }
				},
				"required": ["min", "max"]
			}
		},
		"x-type": { "type": "string" }
	}
}`)

func (rangeSet) Compile(_ jsonschema.CompilerContext, m map[string]any) (jsonschema.ExtSchema, error) {
	raw, ok := m["x-range"].([]any)
	if !ok || len(raw) == 0 {
		return nil, nil
	}

	s := rangeSetSchema{}
	if kind, ok := m["x-type"].(string); ok {
		switch kind {
		case "int64", "long":
			s.kind = kindInt64
		case "uint64", "unsignedLong":
			s.kind = kindUint64
		}
	}

	for _, rv := range raw {
		obj, ok := rv.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("x-range: each range must be an object, got %T", rv)
		}
		lo, ok := toNumber(obj["min"])
		if !ok {
			return nil, fmt.Errorf("x-range: min must be a number, got %T", obj["min"])
		}
		hi, ok := toNumber(obj["max"])
		if !ok {
			return nil, fmt.Errorf("x-range: max must be a number, got %T", obj["max"])
		}
		s.ranges = append(s.ranges, numericRange{min: lo, max: hi})
	}
	return s, nil
}

const (
	kindFloat = iota
	kindInt64
	kindUint64
)

type numericRange struct {
	min, max json.Number
}

type rangeSetSchema struct {
	ranges []numericRange
	kind   int
}

func (s rangeSetSchema) Validate(ctx jsonschema.ValidationContext, v any) error {
	ok, err := s.contains(v)
	if err != nil {
		return ctx.Error("x-range", "%v", err)
	}
	if !ok {
		return ctx.Error("x-range", "value must be in range %s", s.describe())
	}
	return nil
}

// contains converts v into the range set's numeric domain and tests the
// intervals in order; any single hit is enough.
func (s rangeSetSchema) contains(v any) (bool, error) {
	switch s.kind {
	case kindInt64:
		n, err := asInt64(v)
		if err != nil {
			return false, err
		}
		for _, r := range s.ranges {
			if r.containsInt64(n) {
				return true, nil
			}
		}
	case kindUint64:
		n, err := asUint64(v)
		if err != nil {
			return false, err
		}
		for _, r := range s.ranges {
			if r.containsUint64(n) {
				return true, nil
			}
		}
	default:
		f, err := asFloat64(v)
		if err != nil {
			return false, err
		}
		for _, r := range s.ranges {
			if r.containsFloat64(f) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s rangeSetSchema) describe() string {
	parts := make([]string, len(s.ranges))
	for i, r := range s.ranges {
		parts[i] = fmt.Sprintf("%s .. %s", r.min.String(), r.max.String())
	}
	return strings.Join(parts, " | ")
}

func (r numericRange) containsInt64(n int64) bool {
	lo, errLo := strconv.ParseInt(r.min.String(), 10, 64)
	hi, errHi := strconv.ParseInt(r.max.String(), 10, 64)
	if errLo != nil || errHi != nil {
		return r.containsFloat64(float64(n))
	}
	return n >= lo && n <= hi
}

func (r numericRange) containsUint64(n uint64) bool {
	lo, errLo := strconv.ParseUint(r.min.String(), 10, 64)
	hi, errHi := strconv.ParseUint(r.max.String(), 10, 64)
	if errLo != nil || errHi != nil {
		return r.containsFloat64(float64(n))
	}
	return n >= lo && n <= hi
}

func (r numericRange) containsFloat64(f float64) bool {
	lo, _ := r.min.Float64()
	hi, _ := r.max.Float64()
	return f >= lo && f <= hi
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, errors.New("must be int64")
		}
		return i, nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, errors.New("must be int64")
		}
		return i, nil
	}
	return 0, errors.New("must be int64")
}

func asUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case string:
		u, err := strconv.ParseUint(n, 10, 64)
		if err != nil {
			return 0, errors.New("must be uint64")
		}
		return u, nil
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return 0, errors.New("must be uint64")
		}
		return u, nil
	}
	return 0, errors.New("must be uint64")
}

func asFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, errors.New("must be float64")
		}
		return f, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, errors.New("must be float64")
		}
		return f, nil
	case float64:
		return n, nil
	}
	return 0, errors.New("must be numeric")
}

// toNumber accepts the forms a schema number can arrive in: json.Number from
// the resource decoder, or float64/int from schemas assembled in Go.
func toNumber(v any) (json.Number, bool) {
	switch n := v.(type) {
	case json.Number:
		return n, true
	case float64:
		return json.Number(strconv.FormatFloat(n, 'f', -1, 64)), true
	case int:
		return json.Number(strconv.Itoa(n)), true
	case int64:
		return json.Number(strconv.FormatInt(n, 10)), true
	}
	return "", false
}
