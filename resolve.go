package oasvalidation

import (
	"fmt"
	"strings"

	"github.com/go-openapi/jsonpointer"
)

// resolveRef follows a local $ref in node to its target inside rawDoc.
// Nodes without a $ref pass through unchanged. Chains of refs are followed;
// a chain that revisits a pointer is reported as [ErrRefCycle] rather than
// looping.
func resolveRef(rawDoc map[string]any, node any) (any, error) {
	seen := map[string]bool{}
	for {
		obj, ok := node.(map[string]any)
		if !ok {
			return node, nil
		}
		ref, ok := obj["$ref"].(string)
		if !ok {
			return node, nil
		}
		if !strings.HasPrefix(ref, "#") {
			return nil, fmt.Errorf("external $ref %q is not supported", ref)
		}
		if seen[ref] {
			return nil, fmt.Errorf("%w: %s", ErrRefCycle, ref)
		}
		seen[ref] = true

		ptr, err := jsonpointer.New(strings.TrimPrefix(ref, "#"))
		if err != nil {
			return nil, fmt.Errorf("invalid $ref %q: %w", ref, err)
		}
		target, _, err := ptr.Get(rawDoc)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve $ref %q: %w", ref, err)
		}
		node = target
	}
}
