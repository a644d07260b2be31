package oasvalidation

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Payload part names, which double as the parameter-fragment keys of the
// compiled request schema.
const (
	partQuery   = "query"
	partHeaders = "headers"
	partParams  = "params"
	partCookies = "cookies"
	partBody    = "body"
)

// mergeParameters combines path-item and operation parameter lists. The
// operation wins on a (name, location) collision; otherwise declaration
// order is preserved.
func mergeParameters(item, op openapi3.Parameters) []*openapi3.Parameter {
	type key struct{ name, in string }
	merged := map[key]*openapi3.Parameter{}
	var order []key

	add := func(list openapi3.Parameters) {
		for _, ref := range list {
			if ref == nil || ref.Value == nil {
				continue
			}
			k := key{ref.Value.Name, ref.Value.In}
			if _, ok := merged[k]; !ok {
				order = append(order, k)
			}
			merged[k] = ref.Value
		}
	}
	add(item)
	add(op)

	out := make([]*openapi3.Parameter, 0, len(order))
	for _, k := range order {
		out = append(out, merged[k])
	}
	return out
}

// parameterSchemas builds one object schema per parameter location from a
// merged parameter list. Properties are the parameter names, required lists
// the parameters marked required. Header names are lower-cased since HTTP
// headers are case-insensitive; headers and cookies keep their
// additionalProperties open because real traffic always carries undeclared
// entries. Parameter schemas stay raw here; the whole assembled request
// schema runs through the mapper in one pass.
func parameterSchemas(params []*openapi3.Parameter) (frags map[string]map[string]any, cookieCount int, err error) {
	frags = map[string]map[string]any{}
	properties := map[string]map[string]any{}
	required := map[string][]string{}
	for _, part := range []string{partQuery, partHeaders, partParams, partCookies} {
		properties[part] = map[string]any{}
		frags[part] = map[string]any{
			"type":       "object",
			"properties": properties[part],
		}
	}
	frags[partHeaders]["additionalProperties"] = true
	frags[partCookies]["additionalProperties"] = true

	for _, p := range params {
		part := fragmentKey(p.In)
		if part == "" {
			continue
		}
		name := p.Name
		if p.In == openapi3.ParameterInHeader {
			name = strings.ToLower(name)
		}
		schema, err := rawSchema(p.Schema)
		if err != nil {
			return nil, 0, err
		}
		properties[part][name] = schema
		// Path parameters are required by definition.
		if p.Required || p.In == openapi3.ParameterInPath {
			required[part] = append(required[part], name)
		}
		if p.In == openapi3.ParameterInCookie {
			cookieCount++
		}
	}

	for part, names := range required {
		frags[part]["required"] = names
	}
	return frags, cookieCount, nil
}

func fragmentKey(in string) string {
	switch in {
	case openapi3.ParameterInQuery:
		return partQuery
	case openapi3.ParameterInHeader:
		return partHeaders
	case openapi3.ParameterInPath:
		return partParams
	case openapi3.ParameterInCookie:
		return partCookies
	}
	return ""
}
