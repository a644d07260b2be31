package oasvalidation

import "github.com/santhosh-tekuri/jsonschema/v5"

// emptyLeaf implements the x-empty keyword: an "empty" leaf is encoded on
// the wire as an array holding a single null, and nothing else counts.
type emptyLeaf struct{}

var emptyLeafMeta = jsonschema.MustCompileString("x-empty.json", `{
	"properties": {
		"x-empty": { "type": "boolean" }
	}
}`)

func (emptyLeaf) Compile(_ jsonschema.CompilerContext, m map[string]any) (jsonschema.ExtSchema, error) {
	if enabled, ok := m["x-empty"].(bool); ok && enabled {
		return emptyLeafSchema{}, nil
	}
	return nil, nil
}

type emptyLeafSchema struct{}

func (emptyLeafSchema) Validate(ctx jsonschema.ValidationContext, v any) error {
	arr, ok := v.([]any)
	if !ok || len(arr) != 1 || arr[0] != nil {
		return ctx.Error("x-empty", "an empty value must be represented as [null]")
	}
	return nil
}
