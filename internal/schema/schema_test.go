package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func cartSchema() *Schema {
	s := NewSchema("")
	s.SetQueryType("Query").SetMutationType("Mutation")

	s.AddType(NewType("Query", TypeKindObject, "").
		AddField(NewField("ping", "", NonNullType(NamedType("Boolean")))))
	s.AddType(NewType("CreateCartInput", TypeKindInputObject, "Opens a new cart.").
		AddInputField(NewInputValue("cartId", "", NonNullType(NamedType("ID")))).
		AddInputField(NewInputValue("tags", "", ListType(NonNullType(NamedType("String"))))).
		AddInputField(NewInputValue("quantity", "How many.", NamedType("Int")).SetDefault(1)))
	s.AddType(NewType("Mutation", TypeKindObject, "").
		AddField(NewField("CreateCart", "", NonNullType(NamedType("Boolean"))).
			AddArgument(NewInputValue("input", "", NonNullType(NamedType("CreateCartInput"))))))
	s.AddType(DateTimeType)
	return s
}

func TestRender(t *testing.T) {
	want := `"""
Opens a new cart.
"""
input CreateCartInput {
  cartId: ID!
  tags: [String!]
  """
  How many.
  """
  quantity: Int = 1
}

"""
An RFC 3339 timestamp.
"""
scalar DateTime

type Mutation {
  CreateCart(input: CreateCartInput!): Boolean!
}

type Query {
  ping: Boolean!
}
`
	got := Render(cartSchema())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("SDL mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	first := Render(cartSchema())
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Render(cartSchema()))
	}
}

func TestRenderSchemaBlockForCustomRoots(t *testing.T) {
	s := NewSchema("")
	s.SetQueryType("Root")
	s.AddType(NewType("Root", TypeKindObject, "").AddField(NewField("ok", "", NamedType("Boolean"))))

	got := Render(s)
	require.Contains(t, got, "schema {\n  query: Root\n}\n")
}

func TestRenderValueSortsObjectKeys(t *testing.T) {
	got := renderValue(map[string]any{"b": 2, "a": []any{"x", true, nil}})
	require.Equal(t, `{a: ["x", true, null], b: 2}`, got)
}

func TestValidate(t *testing.T) {
	loaded, err := Validate(cartSchema())
	require.NoError(t, err)
	require.NotNil(t, loaded.Mutation)
	require.Equal(t, "Mutation", loaded.Mutation.Name)
	require.NotNil(t, loaded.Types["CreateCartInput"])
}

func TestValidateWithoutMutation(t *testing.T) {
	s := cartSchema()
	delete(s.Types, "Mutation")
	s.SetMutationType("")

	loaded, err := Validate(s)
	require.NoError(t, err)
	require.Nil(t, loaded.Mutation)
	require.Nil(t, s.GetMutationType())
}

func TestValidateErrors(t *testing.T) {
	t.Run("missing query", func(t *testing.T) {
		s := NewSchema("")
		s.SetQueryType("Query")
		_, err := Validate(s)
		require.ErrorContains(t, err, `query type "Query" is not defined`)
	})
	t.Run("empty object", func(t *testing.T) {
		s := cartSchema()
		s.AddType(NewType("Mutation", TypeKindObject, ""))
		_, err := Validate(s)
		require.ErrorContains(t, err, `object type "Mutation" has no fields`)
	})
	t.Run("unknown type reference", func(t *testing.T) {
		s := cartSchema()
		s.AddType(NewType("Query", TypeKindObject, "").
			AddField(NewField("broken", "", NamedType("Missing"))))
		_, err := Validate(s)
		require.Error(t, err)
	})
}

func TestMerge(t *testing.T) {
	s := cartSchema()

	same := NewType("CreateCartInput", TypeKindInputObject, "Opens a new cart.").
		AddInputField(NewInputValue("cartId", "", NonNullType(NamedType("ID")))).
		AddInputField(NewInputValue("tags", "", ListType(NonNullType(NamedType("String"))))).
		AddInputField(NewInputValue("quantity", "How many.", NamedType("Int")).SetDefault(1))
	require.NoError(t, s.Merge(same))

	other := NewType("CreateCartInput", TypeKindInputObject, "").
		AddInputField(NewInputValue("cartId", "", NamedType("String")))
	require.ErrorContains(t, s.Merge(other), `conflicting definitions for type "CreateCartInput"`)

	fresh := NewType("AddItemInput", TypeKindInputObject, "").
		AddInputField(NewInputValue("sku", "", NonNullType(NamedType("String"))))
	require.NoError(t, s.Merge(fresh))
	require.Same(t, fresh, s.Types["AddItemInput"])
}

func TestTypeRefHelpers(t *testing.T) {
	ref := NonNullType(ListType(NonNullType(NamedType("String"))))
	require.True(t, IsNonNull(ref))
	require.True(t, IsList(ref))
	require.Equal(t, "String", GetNamedType(ref))
	require.Equal(t, "[String!]!", ref.String())
	require.Equal(t, "[String!]", Unwrap(ref).String())
}
