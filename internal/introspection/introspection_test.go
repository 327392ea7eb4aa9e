package introspection

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hanpama/boost/internal/executor"
	"github.com/hanpama/boost/internal/language"
	"github.com/hanpama/boost/internal/schema"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T, withMutation bool) *schema.Schema {
	t.Helper()
	s := schema.NewSchema("")
	s.SetQueryType("Query")
	s.AddType(schema.NewType("Query", schema.TypeKindObject, "").
		AddField(schema.NewField("hello", "Says hello.", schema.NamedType("String"))))
	if withMutation {
		s.AddType(schema.NewType("AddItemInput", schema.TypeKindInputObject, "").
			AddInputField(schema.NewInputValue("sku", "", schema.NonNullType(schema.NamedType("String")))).
			AddInputField(schema.NewInputValue("quantity", "", schema.NamedType("Int")).SetDefault(1)).
			AddInputField(schema.NewInputValue("note", "", schema.NamedType("String")).Deprecate("unused")))
		s.AddType(schema.NewType("Mutation", schema.TypeKindObject, "").
			AddField(schema.NewField("AddItem", "", schema.NamedType("Boolean")).
				AddArgument(schema.NewInputValue("input", "", schema.NonNullType(schema.NamedType("AddItemInput"))))))
		s.SetMutationType("Mutation")
	}
	return s
}

func execute(t *testing.T, s *schema.Schema, query string) string {
	t.Helper()
	loaded, err := schema.Validate(s)
	require.NoError(t, err)
	doc, err := language.LoadQuery(loaded, query)
	require.NoError(t, err)

	base := executor.Resolvers{
		"Query.hello": func(context.Context, any, map[string]any) (any, error) { return "world", nil },
	}
	rt, extended := Wrap(base, s)
	res := executor.NewExecutor(rt, extended).ExecuteRequest(context.Background(), doc, "", nil, nil)
	require.Empty(t, res.Errors)
	out, err := json.Marshal(res.Data)
	require.NoError(t, err)
	return string(out)
}

func TestSchemaRoots(t *testing.T) {
	got := execute(t, testSchema(t, false), `{
		hello
		__schema { queryType { name kind } mutationType { name } subscriptionType { name } }
	}`)
	require.JSONEq(t, `{
		"hello": "world",
		"__schema": {
			"queryType": {"name": "Query", "kind": "OBJECT"},
			"mutationType": null,
			"subscriptionType": null
		}
	}`, got)
}

func TestTypes(t *testing.T) {
	got := execute(t, testSchema(t, true), `{ __schema { types { name } directives { name locations args { name } } } }`)
	require.JSONEq(t, `{"__schema": {
		"types": [
			{"name": "AddItemInput"},
			{"name": "Boolean"},
			{"name": "Float"},
			{"name": "ID"},
			{"name": "Int"},
			{"name": "Mutation"},
			{"name": "Query"},
			{"name": "String"}
		],
		"directives": [
			{"name": "include", "locations": ["FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"], "args": [{"name": "if"}]},
			{"name": "skip", "locations": ["FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"], "args": [{"name": "if"}]}
		]
	}}`, got)
}

func TestTypeLookup(t *testing.T) {
	got := execute(t, testSchema(t, true), `{
		mutation: __type(name: "Mutation") {
			kind
			fields { name args { name type { kind ofType { kind name } } } type { kind name } }
			inputFields { name }
		}
		input: __type(name: "AddItemInput") {
			kind
			fields { name }
			inputFields { name defaultValue type { kind name ofType { name } } }
			all: inputFields(includeDeprecated: true) { name isDeprecated deprecationReason }
		}
		missing: __type(name: "Cart") { name }
	}`)
	require.JSONEq(t, `{
		"mutation": {
			"kind": "OBJECT",
			"fields": [{
				"name": "AddItem",
				"args": [{"name": "input", "type": {"kind": "NON_NULL", "ofType": {"kind": "INPUT_OBJECT", "name": "AddItemInput"}}}],
				"type": {"kind": "SCALAR", "name": "Boolean"}
			}],
			"inputFields": null
		},
		"input": {
			"kind": "INPUT_OBJECT",
			"fields": null,
			"inputFields": [
				{"name": "sku", "defaultValue": null, "type": {"kind": "NON_NULL", "name": null, "ofType": {"name": "String"}}},
				{"name": "quantity", "defaultValue": "1", "type": {"kind": "SCALAR", "name": "Int", "ofType": null}}
			],
			"all": [
				{"name": "sku", "isDeprecated": false, "deprecationReason": null},
				{"name": "quantity", "isDeprecated": false, "deprecationReason": null},
				{"name": "note", "isDeprecated": true, "deprecationReason": "unused"}
			]
		},
		"missing": null
	}`, got)
}

func TestWrapLeavesSchemaUntouched(t *testing.T) {
	s := testSchema(t, false)
	_, extended := Wrap(executor.Resolvers{}, s)
	require.NotNil(t, extended.GetQueryType().Field("__schema"))
	require.Nil(t, s.GetQueryType().Field("__schema"))
	require.Nil(t, s.Types["__Type"])
}
