package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/hanpama/boost/internal/language"
	"github.com/hanpama/boost/internal/schema"
	"github.com/stretchr/testify/require"
)

type call struct {
	ObjectType string
	Field      string
	Args       map[string]any
}

type recordingRuntime struct {
	Resolvers
	calls []call
}

func (r *recordingRuntime) ResolveField(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	r.calls = append(r.calls, call{ObjectType: objectType, Field: field, Args: args})
	return r.Resolvers.ResolveField(ctx, objectType, field, source, args)
}

func value(v any) FieldResolver {
	return func(context.Context, any, map[string]any) (any, error) { return v, nil }
}

func failing(msg string) FieldResolver {
	return func(context.Context, any, map[string]any) (any, error) { return nil, errors.New(msg) }
}

func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	require.NoError(t, err)
	return d
}

func newObjectType(name string, fields ...*schema.Field) *schema.Type {
	t := schema.NewType(name, schema.TypeKindObject, "")
	for _, field := range fields {
		t.AddField(field)
	}
	return t
}

func field(name string, typ *schema.TypeRef) *schema.Field {
	return schema.NewField(name, "", typ)
}

func nonNull(name string) *schema.TypeRef { return schema.NonNullType(schema.NamedType(name)) }

func testSchema() *schema.Schema {
	s := schema.NewSchema("")
	s.SetQueryType("Query").SetMutationType("Mutation")
	s.AddType(schema.DateTimeType)
	s.AddType(newObjectType("Query",
		field("info", schema.NamedType("Info")),
		field("strict", schema.NamedType("Strict")),
		field("tags", schema.ListType(nonNull("String"))),
		field("required", nonNull("String")),
	))
	s.AddType(newObjectType("Info",
		field("name", nonNull("String")),
		field("version", schema.NamedType("String")),
		field("id", schema.NamedType("ID")),
		field("at", schema.NamedType("DateTime")),
	))
	s.AddType(newObjectType("Strict",
		field("value", nonNull("String")),
	))
	s.AddType(schema.NewType("LineInput", schema.TypeKindInputObject, "").
		AddInputField(schema.NewInputValue("sku", "", nonNull("String"))).
		AddInputField(schema.NewInputValue("quantity", "", schema.NamedType("Int")).SetDefault(1)))
	s.AddType(schema.NewType("AddInput", schema.TypeKindInputObject, "").
		AddInputField(schema.NewInputValue("cartId", "", nonNull("ID"))).
		AddInputField(schema.NewInputValue("lines", "", schema.ListType(nonNull("LineInput")))).
		AddInputField(schema.NewInputValue("at", "", schema.NamedType("DateTime"))))
	s.AddType(newObjectType("Mutation",
		field("m1", schema.NamedType("String")),
		field("m2", schema.NamedType("String")),
		field("m3", schema.NamedType("String")),
		field("Add", schema.NamedType("Boolean")).
			AddArgument(schema.NewInputValue("input", "", schema.NonNullType(schema.NamedType("AddInput")))),
	))
	return s
}

func TestQuery_DefaultResolvers_Result(t *testing.T) {
	id := uuid.MustParse("6f1c0c57-8a3f-4d0e-9bb0-2b0f1e5c7a10")
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	rt := &recordingRuntime{Resolvers: Resolvers{
		"Query.info": value(map[string]any{"name": "shop", "id": id, "at": at}),
	}}
	exec := NewExecutor(rt, testSchema())
	doc := mustParseQuery(t, `{ info { __typename name version id at } alias: info { name } }`)

	got := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	want := &ExecutionResult{
		Data: map[string]any{
			"info": map[string]any{
				"__typename": "Info",
				"name":       "shop",
				"version":    nil,
				"id":         id.String(),
				"at":         "2024-01-02T03:04:05Z",
			},
			"alias": map[string]any{"name": "shop"},
		},
		Errors: []GraphQLError{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestMutation_Serial_Evaluation_Order(t *testing.T) {
	rt := &recordingRuntime{Resolvers: Resolvers{
		"Mutation.m1": value("1"),
		"Mutation.m2": failing("boom"),
		"Mutation.m3": value("3"),
	}}
	exec := NewExecutor(rt, testSchema())
	doc := mustParseQuery(t, "mutation { m3 m1 m2 }")

	got := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	want := &ExecutionResult{
		Data:   map[string]any{"m1": "1", "m2": nil, "m3": "3"},
		Errors: []GraphQLError{{Message: "boom", Path: Path{"m2"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	wantCalls := []call{
		{ObjectType: "Mutation", Field: "m3", Args: map[string]any{}},
		{ObjectType: "Mutation", Field: "m1", Args: map[string]any{}},
		{ObjectType: "Mutation", Field: "m2", Args: map[string]any{}},
	}
	if diff := cmp.Diff(wantCalls, rt.calls); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

func TestNonNull_Propagation(t *testing.T) {
	t.Run("ToNullableParent", func(t *testing.T) {
		rt := Resolvers{"Query.strict": value(map[string]any{"value": nil})}
		got := NewExecutor(rt, testSchema()).ExecuteRequest(context.Background(), mustParseQuery(t, "{ strict { value } }"), "", nil, nil)
		want := &ExecutionResult{
			Data:   map[string]any{"strict": nil},
			Errors: []GraphQLError{{Message: "Cannot return null for non-nullable field strict.value", Path: Path{"strict", "value"}}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ToData", func(t *testing.T) {
		rt := Resolvers{"Query.required": failing("nope")}
		got := NewExecutor(rt, testSchema()).ExecuteRequest(context.Background(), mustParseQuery(t, "{ required }"), "", nil, nil)
		want := &ExecutionResult{Errors: []GraphQLError{{Message: "nope", Path: Path{"required"}}}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ListItem", func(t *testing.T) {
		rt := Resolvers{"Query.tags": value([]any{"a", nil})}
		got := NewExecutor(rt, testSchema()).ExecuteRequest(context.Background(), mustParseQuery(t, "{ tags }"), "", nil, nil)
		want := &ExecutionResult{
			Data:   map[string]any{"tags": nil},
			Errors: []GraphQLError{{Message: "Cannot return null for non-nullable field tags[1]", Path: Path{"tags", 1}}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestArguments_InputObjectCoercion(t *testing.T) {
	rt := &recordingRuntime{Resolvers: Resolvers{"Mutation.Add": value(true)}}
	exec := NewExecutor(rt, testSchema())
	doc := mustParseQuery(t, `mutation Add($sku: String!, $at: DateTime) {
		Add(input: {cartId: 7, lines: [{sku: $sku}, {sku: "B", quantity: 3}], at: $at})
	}`)

	got := exec.ExecuteRequest(context.Background(), doc, "Add", map[string]any{"sku": "A"}, nil)
	require.Empty(t, got.Errors)
	require.Equal(t, map[string]any{"Add": true}, got.Data)

	wantArgs := map[string]any{"input": map[string]any{
		"cartId": "7",
		"lines": []any{
			map[string]any{"sku": "A", "quantity": 1},
			map[string]any{"sku": "B", "quantity": 3},
		},
	}}
	if diff := cmp.Diff(wantArgs, rt.calls[0].Args); diff != "" {
		t.Fatalf("coerced args mismatch (-want +got):\n%s", diff)
	}
}

func TestArguments_FromVariables(t *testing.T) {
	rt := &recordingRuntime{Resolvers: Resolvers{"Mutation.Add": value(true)}}
	exec := NewExecutor(rt, testSchema())
	doc := mustParseQuery(t, `mutation ($input: AddInput!) { Add(input: $input) }`)

	got := exec.ExecuteRequest(context.Background(), doc, "", map[string]any{
		"input": map[string]any{"cartId": "c", "lines": map[string]any{"sku": "A", "quantity": 2.0}, "at": "2024-01-02T03:04:05Z"},
	}, nil)
	require.Empty(t, got.Errors)

	wantArgs := map[string]any{"input": map[string]any{
		"cartId": "c",
		"lines":  []any{map[string]any{"sku": "A", "quantity": 2}},
		"at":     "2024-01-02T03:04:05Z",
	}}
	if diff := cmp.Diff(wantArgs, rt.calls[0].Args); diff != "" {
		t.Fatalf("coerced args mismatch (-want +got):\n%s", diff)
	}
}

func TestVariableErrors(t *testing.T) {
	exec := NewExecutor(Resolvers{"Mutation.Add": value(true)}, testSchema())
	doc := mustParseQuery(t, `mutation ($input: AddInput!) { Add(input: $input) }`)

	cases := []struct {
		name string
		vars map[string]any
		want string
	}{
		{"missing", nil, "variable $input of required type AddInput! was not provided"},
		{"null", map[string]any{"input": nil}, "variable $input of type AddInput! cannot be null"},
		{"unknown field", map[string]any{"input": map[string]any{"cartId": "c", "bogus": 1}}, `field "bogus" is not defined by type AddInput`},
		{"missing field", map[string]any{"input": map[string]any{}}, "field AddInput.cartId of required type ID! was not provided"},
		{"bad int", map[string]any{"input": map[string]any{"cartId": "c", "lines": []any{map[string]any{"sku": "A", "quantity": 1.5}}}}, "Int cannot represent non-integer value 1.5"},
		{"bad date", map[string]any{"input": map[string]any{"cartId": "c", "at": "yesterday"}}, `DateTime cannot represent "yesterday"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := exec.ExecuteRequest(context.Background(), doc, "", tc.vars, nil)
			require.Nil(t, got.Data)
			require.Len(t, got.Errors, 1)
			require.Contains(t, got.Errors[0].Message, tc.want)
		})
	}
}

func TestDirectivesAndFragments(t *testing.T) {
	rt := Resolvers{"Query.info": value(map[string]any{"name": "shop", "version": "1.0.0"})}
	exec := NewExecutor(rt, testSchema())
	doc := mustParseQuery(t, `query ($withVersion: Boolean!) {
		info {
			...names
			... on Info @include(if: $withVersion) { version }
			id @skip(if: true)
		}
	}
	fragment names on Info { name }`)

	got := exec.ExecuteRequest(context.Background(), doc, "", map[string]any{"withVersion": false}, nil)
	want := &ExecutionResult{Data: map[string]any{"info": map[string]any{"name": "shop"}}, Errors: []GraphQLError{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestOperationSelection(t *testing.T) {
	exec := NewExecutor(Resolvers{"Mutation.m1": value("1")}, testSchema())
	doc := mustParseQuery(t, `mutation A { m1 } mutation B { m1 }`)

	got := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	require.Equal(t, []GraphQLError{{Message: "operation not found"}}, got.Errors)

	got = exec.ExecuteRequest(context.Background(), doc, "C", nil, nil)
	require.Equal(t, []GraphQLError{{Message: `unknown operation "C"`}}, got.Errors)

	got = exec.ExecuteRequest(context.Background(), doc, "B", nil, nil)
	require.Equal(t, map[string]any{"m1": "1"}, got.Data)
}

func TestMutationWithoutMutationType(t *testing.T) {
	s := testSchema()
	s.SetMutationType("")
	got := NewExecutor(Resolvers{}, s).ExecuteRequest(context.Background(), mustParseQuery(t, "mutation { m1 }"), "", nil, nil)
	require.Equal(t, []GraphQLError{{Message: "root type not found for mutation operation"}}, got.Errors)
}

func TestResolversWithoutResolver(t *testing.T) {
	_, err := Resolvers{}.ResolveField(context.Background(), "Query", "info", nil, nil)
	require.EqualError(t, err, "no resolver for Query.info")
}

func TestSerializeScalar(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cases := []struct {
		typ  string
		in   any
		want any
		err  bool
	}{
		{"Int", int64(3), 3, false},
		{"Int", 2.0, 2, false},
		{"Int", 2.5, nil, true},
		{"Float", 2, 2.0, false},
		{"String", "s", "s", false},
		{"String", 1, nil, true},
		{"Boolean", true, true, false},
		{"ID", 12, "12", false},
		{"DateTime", at, "2024-01-02T03:04:05Z", false},
		{"DateTime", &at, "2024-01-02T03:04:05Z", false},
		{"Custom", []int{1}, []int{1}, false},
	}
	for _, tc := range cases {
		got, err := SerializeScalar(tc.typ, tc.in)
		if tc.err {
			require.Error(t, err, tc.typ)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}
