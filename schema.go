package oasvalidation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// schemaMapper rewrites OpenAPI schema nodes into schemas the compiler
// understands. One mapper serves one compilation; inflight guards against
// schemas that reference themselves through their own subtree.
type schemaMapper struct {
	rawDoc           map[string]any
	forbidAdditional bool
	inflight         map[string]bool
}

func newSchemaMapper(rawDoc map[string]any, forbidAdditional bool) *schemaMapper {
	return &schemaMapper{
		rawDoc:           rawDoc,
		forbidAdditional: forbidAdditional,
		inflight:         map[string]bool{},
	}
}

// mapSchema resolves $refs, rewrites nullable into a type union, converts
// boolean exclusive bounds to their numeric form, and makes object nodes
// without an explicit additionalProperties policy adopt the configured
// default. Keywords with no validation meaning (example, xml, externalDocs,
// discriminator, deprecated, x-*) pass through untouched so the compiler
// never trips on them. The same input always produces the same output.
func (m *schemaMapper) mapSchema(node any) (any, error) {
	if obj, ok := node.(map[string]any); ok {
		if ref, ok := obj["$ref"].(string); ok {
			if m.inflight[ref] {
				return nil, fmt.Errorf("%w: %s", ErrRefCycle, ref)
			}
			m.inflight[ref] = true
			defer delete(m.inflight, ref)
		}
	}

	resolved, err := resolveRef(m.rawDoc, node)
	if err != nil {
		return nil, err
	}
	obj, ok := resolved.(map[string]any)
	if !ok {
		// Booleans are valid schemas; anything else passes through as-is.
		return resolved, nil
	}

	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}

	// nullable is an OpenAPI 3.0 convention, not a schema keyword.
	if nullable, _ := out["nullable"].(bool); nullable {
		switch t := out["type"].(type) {
		case string:
			out["type"] = []any{t, "null"}
		case []any:
			out["type"] = append(append([]any{}, t...), "null")
		}
		if enum, ok := out["enum"].([]any); ok && !containsNull(enum) {
			out["enum"] = append(append([]any{}, enum...), nil)
		}
	}
	delete(out, "nullable")

	// OpenAPI 3.0 declares exclusive bounds as booleans.
	if excl, ok := out["exclusiveMinimum"].(bool); ok {
		delete(out, "exclusiveMinimum")
		if excl {
			if lo, ok := out["minimum"]; ok {
				out["exclusiveMinimum"] = lo
				delete(out, "minimum")
			}
		}
	}
	if excl, ok := out["exclusiveMaximum"].(bool); ok {
		delete(out, "exclusiveMaximum")
		if excl {
			if hi, ok := out["maximum"]; ok {
				out["exclusiveMaximum"] = hi
				delete(out, "maximum")
			}
		}
	}

	for _, key := range []string{"properties", "patternProperties"} {
		props, ok := out[key].(map[string]any)
		if !ok {
			continue
		}
		mapped := make(map[string]any, len(props))
		for name, sub := range props {
			ms, err := m.mapSchema(sub)
			if err != nil {
				return nil, err
			}
			mapped[name] = ms
		}
		out[key] = mapped
	}

	for _, key := range []string{"items", "not", "additionalProperties"} {
		sub, ok := out[key]
		if !ok {
			continue
		}
		if _, isBool := sub.(bool); isBool {
			continue
		}
		ms, err := m.mapSchema(sub)
		if err != nil {
			return nil, err
		}
		out[key] = ms
	}

	for _, key := range []string{"allOf", "anyOf", "oneOf"} {
		subs, ok := out[key].([]any)
		if !ok {
			continue
		}
		mapped := make([]any, len(subs))
		for i, sub := range subs {
			ms, err := m.mapSchema(sub)
			if err != nil {
				return nil, err
			}
			mapped[i] = ms
		}
		out[key] = mapped
	}

	if m.forbidAdditional && isObjectNode(out) {
		if _, declared := out["additionalProperties"]; !declared {
			out["additionalProperties"] = false
		}
	}

	return out, nil
}

func isObjectNode(schema map[string]any) bool {
	switch t := schema["type"].(type) {
	case string:
		return t == "object"
	case []any:
		for _, v := range t {
			if v == "object" {
				return true
			}
		}
		return false
	}
	_, ok := schema["properties"]
	return ok
}

func containsNull(enum []any) bool {
	for _, v := range enum {
		if v == nil {
			return true
		}
	}
	return false
}

// rawSchema converts a kin-openapi schema reference into the raw map form
// the mapper works on. A pending $ref stays a $ref; the mapper resolves it
// against the raw document. Numbers decode as json.Number so 64-bit bounds
// survive the round trip.
func rawSchema(ref *openapi3.SchemaRef) (any, error) {
	if ref == nil || (ref.Ref == "" && ref.Value == nil) {
		return map[string]any{}, nil
	}
	if ref.Ref != "" {
		return map[string]any{"$ref": ref.Ref}, nil
	}
	b, err := json.Marshal(ref.Value)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal schema: %w", err)
	}
	return decodeJSON(b)
}

func decodeJSON(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
