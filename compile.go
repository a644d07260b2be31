package oasvalidation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const defaultMediaType = "application/json"

// compiled is one executable validator for a single (operation, method)
// context, together with the mapped schema it was compiled from. Immutable
// once built; safe to share across concurrent evaluations.
type compiled struct {
	schema *jsonschema.Schema
	mapped map[string]any
}

// evaluate runs the validator over payload and converts a schema failure
// tree into a [*ValidationError].
func (c *compiled) evaluate(payload any) error {
	instance, err := toJSONValue(payload)
	if err != nil {
		return fmt.Errorf("payload is not JSON-encodable: %w", err)
	}
	err = c.schema.Validate(instance)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		return newValidationError(collectFailures(verr))
	}
	return err
}

// compileRequest assembles the request schema for one (operation, method)
// pair: query, headers and params are always required, cookies only when
// more than one cookie parameter is declared, body only when the request
// body is declared required.
func (v *Validator) compileRequest(item *openapi3.PathItem, op *openapi3.Operation, method string) (*compiled, error) {
	frags, cookieCount, err := parameterSchemas(mergeParameters(item.Parameters, op.Parameters))
	if err != nil {
		return nil, err
	}

	properties := map[string]any{
		partQuery:   frags[partQuery],
		partHeaders: frags[partHeaders],
		partParams:  frags[partParams],
	}
	required := []string{partQuery, partHeaders, partParams}
	if cookieCount > 0 {
		properties[partCookies] = frags[partCookies]
	}
	if cookieCount > 1 {
		required = append(required, partCookies)
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		body := op.RequestBody.Value
		if mt := pickMediaType(body.Content); mt != nil && mt.Schema != nil {
			raw, err := rawSchema(mt.Schema)
			if err != nil {
				return nil, err
			}
			properties[partBody] = raw
		}
		if body.Required {
			required = append(required, partBody)
		}
	}

	root := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": true,
	}
	return v.compileSchema(root, method, false)
}

// compileResponse assembles the response schema for the definition selected
// by status: headers and body are both required; keyword variants are the
// non-write ones regardless of the request method.
func (v *Validator) compileResponse(op *openapi3.Operation, method string, status int) (*compiled, error) {
	def, err := selectResponse(op.Responses, status)
	if err != nil {
		return nil, err
	}

	properties := map[string]any{}
	if mt := pickMediaType(def.Content); mt != nil && mt.Schema != nil {
		raw, err := rawSchema(mt.Schema)
		if err != nil {
			return nil, err
		}
		properties[partBody] = raw
	}

	headerProps := map[string]any{}
	var headerRequired []string
	for _, name := range sortedHeaderNames(def.Headers) {
		ref := def.Headers[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		raw, err := rawSchema(ref.Value.Schema)
		if err != nil {
			return nil, err
		}
		lower := strings.ToLower(name)
		headerProps[lower] = raw
		if ref.Value.Required {
			headerRequired = append(headerRequired, lower)
		}
	}
	headers := map[string]any{
		"type":                 "object",
		"properties":           headerProps,
		"additionalProperties": true,
	}
	if len(headerRequired) > 0 {
		headers["required"] = headerRequired
	}
	properties[partHeaders] = headers

	root := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             []string{partHeaders, partBody},
		"additionalProperties": true,
	}
	return v.compileSchema(root, method, true)
}

// compileSchema maps the assembled schema and compiles it with the keyword
// variants for this method. Every call builds a fresh compiler; keyword
// configuration never leaks between compilations running concurrently for
// different methods.
func (v *Validator) compileSchema(root map[string]any, method string, response bool) (*compiled, error) {
	mapper := newSchemaMapper(v.raw, v.cfg.ForbidAdditionalProperties)
	mappedAny, err := mapper.mapSchema(root)
	if err != nil {
		return nil, err
	}
	mapped := mappedAny.(map[string]any)

	method = strings.ToLower(method)
	isWrite := !response && (method == "post" || method == "put" || method == "patch")

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true
	registerFormats(c)
	c.RegisterExtension("x-empty", emptyLeafMeta, emptyLeaf{})
	c.RegisterExtension("x-range", rangeSetMeta, rangeSet{})
	c.RegisterExtension("x-key", compositeKeyMeta, compositeKey{disabled: !response && method == "patch"})
	if isWrite {
		c.RegisterExtension("readOnly", readOnlyMeta, readOnlyGuard{})
	}

	b, err := json.Marshal(mapped)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal mapped schema: %w", err)
	}
	if err := c.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, err
	}
	schema, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("schema does not compile: %w", err)
	}

	if v.logger != nil {
		v.logger.Debug("compiled validator",
			"method", method,
			"response", response,
			"schema", json.RawMessage(b))
	}
	return &compiled{schema: schema, mapped: mapped}, nil
}

// selectResponse picks the response definition for a status code: an exact
// match first, then the status-class token ("4XX"), then "default".
func selectResponse(responses *openapi3.Responses, status int) (*openapi3.Response, error) {
	if responses != nil && status >= 100 {
		code := strconv.Itoa(status)
		class := code[:1] + "XX"
		for _, key := range []string{code, class, strings.ToLower(class), "default"} {
			if ref := responses.Value(key); ref != nil && ref.Value != nil {
				return ref.Value, nil
			}
		}
	}
	return nil, fmt.Errorf("%w %d", ErrResponseNotFound, status)
}

// pickMediaType prefers application/json and falls back to the first
// declared media type in sorted order, keeping compilation deterministic.
func pickMediaType(content openapi3.Content) *openapi3.MediaType {
	if len(content) == 0 {
		return nil
	}
	if mt := content[defaultMediaType]; mt != nil {
		return mt
	}
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return content[keys[0]]
}

func sortedHeaderNames(headers openapi3.Headers) []string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// toJSONValue normalizes an arbitrary Go value into the decoded-JSON form
// the compiled schema expects, with numbers as json.Number so 64-bit values
// keep their precision.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return decodeJSON(b)
}
