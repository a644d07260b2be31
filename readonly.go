package oasvalidation

import "github.com/santhosh-tekuri/jsonschema/v5"

// readOnlyGuard rejects read-only fields supplied by a client. It is only
// registered when compiling request schemas for write methods; everywhere
// else, responses included, readOnly stays a plain annotation.
type readOnlyGuard struct{}

var readOnlyMeta = jsonschema.MustCompileString("readOnly.json", `{
	"properties": {
		"readOnly": { "type": "boolean" }
	}
}`)

func (readOnlyGuard) Compile(_ jsonschema.CompilerContext, m map[string]any) (jsonschema.ExtSchema, error) {
	if ro, ok := m["readOnly"].(bool); ok && ro {
		return readOnlySchema{}, nil
	}
	return nil, nil
}

type readOnlySchema struct{}

// Validate only runs when the annotated value is present in the input, which
// is exactly the failure condition.
func (readOnlySchema) Validate(ctx jsonschema.ValidationContext, _ any) error {
	return ctx.Error("readOnly", "read-only field must not be supplied in the request")
}
