package informer

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/hanpama/boost/internal/mutation"
	"github.com/hanpama/boost/internal/schema"
	"github.com/stretchr/testify/require"
)

type Money struct {
	Amount   int
	Currency string `graphql:"currency" description:"ISO 4217 code"`
}

type Audit struct {
	Reason string
}

type CartPayload struct {
	Audit
	CartID    uuid.UUID
	Items     []string
	Total     Money
	Discount  *Money
	Note      *string
	Priority  int64
	Ratio     float32
	Gift      bool
	OpenedAt  time.Time
	Internal  string `graphql:"-"`
	secret    string //nolint:unused
	Coords    [2]float64
	Parent    *CartPayload
	Reference string `graphql:"ref,omitempty"`
}

type Broken struct {
	Name    string
	Channel chan int
}

type Nested struct {
	Inner Broken
}

type Empty struct{ hidden int } //nolint:unused

type WithMap struct{ M map[string]int }

type WithPtrPtr struct{ P **int }

type WithMatrix struct{ Cells [][]int }

type WithPtrMatrix struct{ Rows []*[3]string }

func sdlOf(types []*schema.Type) string {
	s := schema.NewSchema("")
	for _, t := range types {
		s.AddType(t)
	}
	return schema.Render(s)
}

func TestInputTypeFor(t *testing.T) {
	in := New()
	ref, err := in.InputTypeFor(reflect.TypeOf(CartPayload{}))
	require.NoError(t, err)
	require.Equal(t, schema.NamedType("CartPayloadInput"), ref)

	want := `input CartPayloadInput {
  reason: String!
  cartID: ID!
  items: [String!]
  total: MoneyInput!
  discount: MoneyInput
  note: String
  priority: Int!
  ratio: Float!
  gift: Boolean!
  openedAt: DateTime!
  coords: [Float!]!
  parent: CartPayloadInput
  ref: String!
}

"""
An RFC 3339 timestamp.
"""
scalar DateTime

input MoneyInput {
  amount: Int!
  """
  ISO 4217 code
  """
  currency: String!
}
`
	if diff := cmp.Diff(want, sdlOf(in.Types())); diff != "" {
		t.Fatalf("SDL mismatch (-want +got):\n%s", diff)
	}

	var names []string
	for _, typ := range in.Types() {
		names = append(names, typ.Name)
	}
	require.Equal(t, []string{"CartPayloadInput", "MoneyInput", "DateTime"}, names)
}

func TestInputTypeForIsDeterministic(t *testing.T) {
	a, b := New(), New()
	refA, err := a.InputTypeFor(reflect.TypeOf(CartPayload{}))
	require.NoError(t, err)
	refB, err := b.InputTypeFor(reflect.TypeOf(&CartPayload{}))
	require.NoError(t, err)
	if diff := cmp.Diff(refA, refB); diff != "" {
		t.Fatalf("ref mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, sdlOf(a.Types()), sdlOf(b.Types()))

	again, err := a.InputTypeFor(reflect.TypeOf(CartPayload{}))
	require.NoError(t, err)
	require.Same(t, refA, again)
	require.Len(t, a.Types(), 3)
}

func TestInputTypeForErrors(t *testing.T) {
	tests := []struct {
		name   string
		typ    reflect.Type
		reason string
	}{
		{"nil", nil, "nil type"},
		{"not a struct", reflect.TypeOf(42), "command types must be structs"},
		{"uuid root", reflect.TypeOf(uuid.UUID{}), "command types must be structs"},
		{"chan field", reflect.TypeOf(Broken{}), "field channel: unsupported kind chan"},
		{"nested chan field", reflect.TypeOf(Nested{}), "field inner.channel: unsupported kind chan"},
		{"no fields", reflect.TypeOf(Empty{}), "informer.Empty has no exported fields"},
		{"anonymous root", reflect.TypeOf(struct{ M string }{}), "anonymous struct types cannot be named"},
		{"map field", reflect.TypeOf(WithMap{}), "field m: unsupported kind map"},
		{"pointer to pointer", reflect.TypeOf(WithPtrPtr{}), "field p: pointer to pointer is not supported"},
		{"nested slice", reflect.TypeOf(WithMatrix{}), "field cells: nested lists are not supported"},
		{"slice of array pointers", reflect.TypeOf(WithPtrMatrix{}), "field rows: nested lists are not supported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := New()
			ref, err := in.InputTypeFor(tt.typ)
			require.Nil(t, ref)
			var ie *mutation.IntrospectionError
			require.True(t, errors.As(err, &ie), "got %T", err)
			require.Equal(t, tt.reason, ie.Reason)
			require.Empty(t, in.Types())
		})
	}
}

func TestFailedIntrospectionLeavesNoTypes(t *testing.T) {
	in := New()
	_, err := in.InputTypeFor(reflect.TypeOf(Money{}))
	require.NoError(t, err)

	_, err = in.InputTypeFor(reflect.TypeOf(Nested{}))
	require.Error(t, err)

	var names []string
	for _, typ := range in.Types() {
		names = append(names, typ.Name)
	}
	require.Equal(t, []string{"MoneyInput"}, names)

	// the failure is reproducible rather than masked by a stale cache entry
	_, err = in.InputTypeFor(reflect.TypeOf(Nested{}))
	require.Error(t, err)
}

func TestNameCollision(t *testing.T) {
	type Money struct{ Cents int }
	in := New()
	_, err := in.InputTypeFor(reflect.TypeOf(CartPayload{}))
	require.NoError(t, err)

	_, err = in.InputTypeFor(reflect.TypeOf(Money{}))
	var ie *mutation.IntrospectionError
	require.ErrorAs(t, err, &ie)
	require.Contains(t, ie.Reason, "input type MoneyInput is already derived from informer.Money")
}

func TestConcurrentUse(t *testing.T) {
	in := New()
	var wg sync.WaitGroup
	refs := make([]*schema.TypeRef, 8)
	for i := range refs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref, err := in.InputTypeFor(reflect.TypeOf(CartPayload{}))
			if err == nil {
				refs[i] = ref
			}
		}(i)
	}
	wg.Wait()
	for _, ref := range refs {
		require.Same(t, refs[0], ref)
	}
	require.Len(t, in.Types(), 3)
}

func TestLowerCamel(t *testing.T) {
	cases := map[string]string{
		"ID":      "id",
		"CartID":  "cartID",
		"URLPath": "urlPath",
		"Name":    "name",
		"already": "already",
		"A":       "a",
		"IDs":     "ids",
		"URLs":    "urls",
		"SKUs":    "skus",
		"CartIDs": "cartIDs",
		"IDsAt":   "idsAt",
	}
	for in, want := range cases {
		require.Equal(t, want, lowerCamel(in), in)
	}
}

func TestRegisteredNames(t *testing.T) {
	type CloseCart struct{ CartID uuid.UUID }
	names := map[reflect.Type]string{reflect.TypeOf(CloseCart{}): "DropCart"}
	in := New(WithNames(func(t reflect.Type) (string, bool) {
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		name, ok := names[t]
		return name, ok
	}))

	ref, err := in.InputTypeFor(reflect.TypeOf(&CloseCart{}))
	require.NoError(t, err)
	require.Equal(t, schema.NamedType("DropCartInput"), ref)

	ref, err = in.InputTypeFor(reflect.TypeOf(Money{}))
	require.NoError(t, err)
	require.Equal(t, schema.NamedType("MoneyInput"), ref)
}
