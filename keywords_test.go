package oasvalidation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
)

// compileKeyword compiles a standalone schema with the vendor keyword
// extensions registered the way a given compilation context would.
func compileKeyword(t *testing.T, schema string, patchVariant, writeVariant bool) *jsonschema.Schema {
	t.Helper()
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.RegisterExtension("x-empty", emptyLeafMeta, emptyLeaf{})
	c.RegisterExtension("x-range", rangeSetMeta, rangeSet{})
	c.RegisterExtension("x-key", compositeKeyMeta, compositeKey{disabled: patchVariant})
	if writeVariant {
		c.RegisterExtension("readOnly", readOnlyMeta, readOnlyGuard{})
	}
	require.NoError(t, c.AddResource("test.json", strings.NewReader(schema)))
	compiled, err := c.Compile("test.json")
	require.NoError(t, err)
	return compiled
}

func instance(t *testing.T, raw string) any {
	t.Helper()
	v, err := decodeJSON([]byte(raw))
	require.NoError(t, err)
	return v
}

func TestEmptyLeaf(t *testing.T) {
	schema := compileKeyword(t, `{"x-empty": true}`, false, false)

	require.NoError(t, schema.Validate(instance(t, `[null]`)))

	for _, raw := range []string{`[]`, `[null, null]`, `[1]`, `"x"`, `5`, `{}`} {
		t.Run(raw, func(t *testing.T) {
			err := schema.Validate(instance(t, raw))
			require.Error(t, err)
			require.Contains(t, err.Error(), "[null]")
		})
	}

	// x-empty false carries no constraint.
	off := compileKeyword(t, `{"x-empty": false}`, false, false)
	require.NoError(t, off.Validate(instance(t, `[]`)))
}

func TestRangeSet(t *testing.T) {
	schema := compileKeyword(t, `{"x-range": [{"min":1,"max":5},{"min":10,"max":20}]}`, false, false)

	for _, raw := range []string{`3`, `10`, `20`, `1`, `5`, `"4"`} {
		require.NoError(t, schema.Validate(instance(t, raw)), raw)
	}
	for _, raw := range []string{`6`, `21`, `0`, `"7"`} {
		err := schema.Validate(instance(t, raw))
		require.Error(t, err, raw)
		require.Contains(t, err.Error(), "1 .. 5 | 10 .. 20")
	}
}

func TestRangeSetInt64(t *testing.T) {
	// Values near 2^63 round under float64; the int64 domain must not.
	schema := compileKeyword(t, `{
		"x-type": "int64",
		"x-range": [{"min": 0, "max": 9223372036854775806}]
	}`, false, false)

	require.NoError(t, schema.Validate(instance(t, `9223372036854775806`)))
	require.Error(t, schema.Validate(instance(t, `9223372036854775807`)))
	require.NoError(t, schema.Validate(instance(t, `"15"`)))
	require.Error(t, schema.Validate(instance(t, `"-1"`)))
	require.Error(t, schema.Validate(instance(t, `"abc"`)))
}

func TestRangeSetContains(t *testing.T) {
	ranges := []numericRange{
		{min: "1", max: "5"},
		{min: "10", max: "20"},
	}

	tests := []struct {
		kind  int
		value any
		want  bool
	}{
		{kindFloat, "4.5", true},
		{kindFloat, "5.5", false},
		{kindInt64, "-3", false},
		{kindInt64, "12", true},
		{kindUint64, "20", true},
		{kindUint64, "21", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("kind:%d,v:%v", tt.kind, tt.value), func(t *testing.T) {
			s := rangeSetSchema{ranges: ranges, kind: tt.kind}
			got, err := s.contains(tt.value)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	s := rangeSetSchema{ranges: ranges, kind: kindUint64}
	_, err := s.contains("-1")
	require.Error(t, err)
}

func TestCompositeKey(t *testing.T) {
	schema := compileKeyword(t, `{"x-key": "id"}`, false, false)

	require.NoError(t, schema.Validate(instance(t, `[{"id":"a"},{"id":"b"}]`)))

	err := schema.Validate(instance(t, `[{"id":"a"},{"id":"a"}]`))
	require.Error(t, err)
	require.Contains(t, err.Error(), `item 1 repeats composite key "a"`)

	err = schema.Validate(instance(t, `[{}]`))
	require.Error(t, err)
	require.Contains(t, err.Error(), `missing key field "id"`)

	// A null field value counts as missing.
	err = schema.Validate(instance(t, `[{"id":null}]`))
	require.Error(t, err)
	require.Contains(t, err.Error(), `missing key field "id"`)

	// Non-arrays are out of the keyword's reach.
	require.NoError(t, schema.Validate(instance(t, `{"id":"a"}`)))
}

func TestCompositeKeyMultipleFields(t *testing.T) {
	schema := compileKeyword(t, `{"x-key": "region, id"}`, false, false)

	require.NoError(t, schema.Validate(instance(t,
		`[{"region":"eu","id":1},{"region":"us","id":1}]`)))

	err := schema.Validate(instance(t,
		`[{"region":"eu","id":1},{"region":"eu","id":1}]`))
	require.Error(t, err)
	require.Contains(t, err.Error(), `"eu,1"`)
}

func TestCompositeKeyPatchVariant(t *testing.T) {
	schema := compileKeyword(t, `{"x-key": "id"}`, true, false)

	require.NoError(t, schema.Validate(instance(t, `[{"id":"a"},{"id":"a"}]`)))
	require.NoError(t, schema.Validate(instance(t, `[{}]`)))
}

func TestReadOnly(t *testing.T) {
	const schema = `{
		"type": "object",
		"properties": {
			"id":   {"type": "integer", "readOnly": true},
			"name": {"type": "string"}
		}
	}`

	write := compileKeyword(t, schema, false, true)
	err := write.Validate(instance(t, `{"id":1,"name":"x"}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "read-only")
	require.NoError(t, write.Validate(instance(t, `{"name":"x"}`)))

	read := compileKeyword(t, schema, false, false)
	require.NoError(t, read.Validate(instance(t, `{"id":1,"name":"x"}`)))
}
