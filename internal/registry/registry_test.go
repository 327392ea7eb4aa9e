package registry

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type createCart struct{ CartID string }
type addItem struct{ SKU string }
type removeItem struct{ SKU string }

func TestRegistryPreservesInsertionOrder(t *testing.T) {
	r := New()
	r.MustRegister("RemoveItem", reflect.TypeOf(removeItem{}))
	r.MustRegister("CreateCart", reflect.TypeOf(createCart{}))
	r.MustRegister("AddItem", reflect.TypeOf(addItem{}))

	var got []string
	for _, d := range r.Descriptors() {
		got = append(got, d.Name)
	}
	want := []string{"RemoveItem", "CreateCart", "AddItem"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	// repeated iteration is stable
	for i := 0; i < 3; i++ {
		again := r.Descriptors()
		for j, d := range again {
			require.Equal(t, want[j], d.Name)
		}
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("CreateCart", reflect.TypeOf(createCart{})))

	err := r.Register("CreateCart", reflect.TypeOf(addItem{}))
	require.ErrorIs(t, err, ErrDuplicate)

	err = r.Register("Other", reflect.TypeOf(&createCart{}))
	require.ErrorIs(t, err, ErrDuplicate)
	require.Equal(t, 1, r.Len())
}

func TestRegistryDefaultsNameAndDereferences(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("", reflect.TypeOf(&addItem{})))

	d, ok := r.Lookup("addItem")
	require.True(t, ok)
	require.Equal(t, reflect.TypeOf(addItem{}), d.Type)

	name, ok := r.NameOf(reflect.TypeOf(&addItem{}))
	require.True(t, ok)
	require.Equal(t, "addItem", name)

	_, ok = r.NameOf(reflect.TypeOf(createCart{}))
	require.False(t, ok)
}

func TestRegistryInvalidTypes(t *testing.T) {
	r := New()
	require.ErrorIs(t, r.Register("X", nil), ErrInvalidType)
	require.ErrorIs(t, r.Register("", reflect.TypeOf(struct{ A int }{})), ErrInvalidType)
	require.NoError(t, r.Register("Anon", reflect.TypeOf(struct{ A int }{})))
}

func TestDescriptorsReturnsCopy(t *testing.T) {
	r := New()
	r.MustRegister("CreateCart", reflect.TypeOf(createCart{}))
	ds := r.Descriptors()
	ds[0].Name = "Changed"
	d, ok := r.Lookup("CreateCart")
	require.True(t, ok)
	require.Equal(t, "CreateCart", d.Name)
}
