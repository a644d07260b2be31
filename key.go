package oasvalidation

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// compositeKey implements the x-key keyword: every element of an array of
// objects must carry a distinct composite identifier built from the named
// fields, concatenated in their declared order.
type compositeKey struct {
	// disabled turns the keyword into a no-op. PATCH requests carry partial
	// updates and need not present a complete, uniquely-keyed collection.
	disabled bool
}

var compositeKeyMeta = jsonschema.MustCompileString("x-key.json", `{
	"properties": {
		"x-key": { "type": "string" }
	}
}`)

func (k compositeKey) Compile(_ jsonschema.CompilerContext, m map[string]any) (jsonschema.ExtSchema, error) {
	spec, ok := m["x-key"].(string)
	if !ok || k.disabled {
		return nil, nil
	}
	fields := strings.Split(spec, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return compositeKeySchema{fields: fields}, nil
}

type compositeKeySchema struct {
	fields []string
}

// Validate reports a missing key field on the item that lacks it and a
// duplicate identifier on the later of two colliding items, in array order.
// An item with a missing field still enters the seen set under its partially
// built identifier, so later items can collide with it on the remaining
// fields.
func (s compositeKeySchema) Validate(ctx jsonschema.ValidationContext, v any) error {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}

	var causes []*jsonschema.ValidationError
	seen := map[string]bool{}
	for i, item := range arr {
		obj, _ := item.(map[string]any)
		parts := make([]string, 0, len(s.fields))
		for _, field := range s.fields {
			val, ok := obj[field]
			if !ok || val == nil {
				causes = append(causes, ctx.Error("x-key", "item %d is missing key field %q", i, field))
				break
			}
			parts = append(parts, fmt.Sprintf("%v", val))
		}
		id := strings.Join(parts, ",")
		if seen[id] {
			causes = append(causes, ctx.Error("x-key", "item %d repeats composite key %q", i, id))
			continue
		}
		seen[id] = true
	}

	switch len(causes) {
	case 0:
		return nil
	case 1:
		return causes[0]
	}
	err := ctx.Error("x-key", "array items are not unique by key %q", strings.Join(s.fields, ","))
	err.Causes = causes
	return err
}
