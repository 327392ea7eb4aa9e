package generator

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hanpama/boost/internal/config"
	"github.com/stretchr/testify/require"
)

func projectDir(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "shop")
	require.NoError(t, os.MkdirAll(root, 0o755))
	gomod, err := GoMod("example.com/shop")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), gomod, 0o644))
	return root
}

func requireValidGo(t *testing.T, path string) string {
	t.Helper()
	src, err := os.ReadFile(path)
	require.NoError(t, err)
	_, err = parser.ParseFile(token.NewFileSet(), path, src, parser.AllErrors)
	require.NoError(t, err)
	return string(src)
}

func TestParseTarget(t *testing.T) {
	got, err := ParseTarget("cart-item", []string{"sku:string", "cartId:UUID", "tags:[]string", "at:*time.Time"}, []string{"item_added", "ItemAdded"})
	require.NoError(t, err)
	want := &Target{
		Name: "CartItem",
		Fields: []Field{
			{Name: "SKU", Type: "string"},
			{Name: "CartID", Type: "boost.UUID"},
			{Name: "Tags", Type: "[]string"},
			{Name: "At", Type: "*time.Time"},
		},
		Events:  []string{"ItemAdded"},
		Imports: []string{BoostImport, "time"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("target mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTargetRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name   string
		target string
		fields []string
		want   string
	}{
		{"empty name", "", nil, "invalid name"},
		{"leading digit", "1cart", nil, "invalid name"},
		{"missing type", "Cart", []string{"id"}, "expected name:type"},
		{"unknown type", "Cart", []string{"owner:User"}, "unknown type User"},
		{"unknown package", "Cart", []string{"at:os.File"}, "unknown type os.File"},
		{"map", "Cart", []string{"meta:map[string]string"}, "map types are not supported"},
		{"array", "Cart", []string{"ids:[2]int"}, "use a slice"},
		{"func", "Cart", []string{"cb:func()"}, "unsupported type expression"},
		{"syntax", "Cart", []string{"x:[]"}, "invalid type for field X"},
		{"duplicate", "Cart", []string{"id:string", "ID:int"}, "duplicate field ID"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTarget(tc.target, tc.fields, nil)
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestCaseConversion(t *testing.T) {
	cases := []struct{ in, pascal, snake string }{
		{"cart", "Cart", "cart"},
		{"cart-item", "CartItem", "cart_item"},
		{"CartItem", "CartItem", "cart_item"},
		{"cartID", "CartID", "cart_id"},
		{"HTTPServer", "HTTPServer", "http_server"},
		{"add lines 2", "AddLines2", "add_lines_2"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.pascal, PascalCase(tc.in), tc.in)
		require.Equal(t, tc.snake, SnakeCase(tc.in), tc.in)
	}
}

func TestEvent(t *testing.T) {
	root := projectDir(t)
	target, err := ParseTarget("CartCreated", []string{"cartID:UUID", "at:*time.Time"}, nil)
	require.NoError(t, err)

	path, err := Event(root, target)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "events", "cart_created.go"), path)

	want := `package events

import (
	"github.com/hanpama/boost/pkg/boost"
	"time"
)

// CartCreated is an event of shop.
type CartCreated struct {
	CartID boost.UUID
	At     *time.Time
}
`
	if diff := cmp.Diff(want, requireValidGo(t, path)); diff != "" {
		t.Fatalf("generated event mismatch (-want +got):\n%s", diff)
	}

	_, err = Event(root, target)
	require.ErrorIs(t, err, ErrExists)
}

func TestEventWithoutImports(t *testing.T) {
	root := projectDir(t)
	target, err := ParseTarget("CartEmptied", []string{"reason:string"}, nil)
	require.NoError(t, err)
	path, err := Event(root, target)
	require.NoError(t, err)
	require.NotContains(t, requireValidGo(t, path), "import")
}

func TestEntity(t *testing.T) {
	root := projectDir(t)
	target, err := ParseTarget("cart", []string{"items:[]string"}, []string{"CartCreated", "ItemAdded"})
	require.NoError(t, err)

	path, err := Entity(root, target)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "entities", "cart.go"), path)

	src := requireValidGo(t, path)
	require.Contains(t, src, `"example.com/shop/events"`)
	require.Contains(t, src, "\tID    boost.UUID\n\tItems []string\n")
	require.Contains(t, src, "func ReduceCartCreated(event events.CartCreated, current *Cart) Cart {")
	require.Contains(t, src, "func ReduceItemAdded(event events.ItemAdded, current *Cart) Cart {")
}

func TestEntityWithoutEvents(t *testing.T) {
	root := projectDir(t)
	target, err := ParseTarget("Cart", nil, nil)
	require.NoError(t, err)
	path, err := Entity(root, target)
	require.NoError(t, err)
	src := requireValidGo(t, path)
	require.NotContains(t, src, "/events")
	require.NotContains(t, src, "func Reduce")
}

func TestCommand(t *testing.T) {
	root := projectDir(t)
	target, err := ParseTarget("create-cart", []string{"cartID:UUID", "quantity:int"}, nil)
	require.NoError(t, err)

	path, err := Command(root, target)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "commands", "create_cart.go"), path)

	src := requireValidGo(t, path)
	require.Contains(t, src, "type CreateCart struct {\n\tCartID   boost.UUID\n\tQuantity int\n}")
	require.Contains(t, src, "boost.Register[CreateCart]()")
	require.Contains(t, src, "func (command CreateCart) Handle(ctx context.Context) error {")
}

func TestModulePath(t *testing.T) {
	root := projectDir(t)
	mod, err := ModulePath(root)
	require.NoError(t, err)
	require.Equal(t, "example.com/shop", mod)

	_, err = ModulePath(t.TempDir())
	require.ErrorContains(t, err, "read go.mod")
}

func TestProject(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shop")
	cfg := config.Default("shop")
	cfg.Module = ModuleFor("shop", "https://github.com/acme/shop.git")
	cfg.Description = "A shop"
	cfg.License = "MIT"

	require.NoError(t, ProjectRoot(dir))
	require.NoError(t, ProjectFiles(dir, cfg))

	for _, d := range ProjectDirs {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}

	loaded, err := config.Load(dir)
	require.NoError(t, err)
	require.Equal(t, "github.com/acme/shop", loaded.Module)

	mod, err := ModulePath(dir)
	require.NoError(t, err)
	require.Equal(t, "github.com/acme/shop", mod)

	main := requireValidGo(t, filepath.Join(dir, "main.go"))
	require.Contains(t, main, `_ "github.com/acme/shop/commands"`)
	require.Contains(t, main, `boost.Main(boost.New("shop"))`)
	requireValidGo(t, filepath.Join(dir, "commands", "doc.go"))

	readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	require.Contains(t, string(readme), "A shop")

	require.ErrorIs(t, ProjectRoot(dir), ErrExists)
}

func TestModuleFor(t *testing.T) {
	require.Equal(t, "github.com/acme/shop", ModuleFor("shop", "git@github.com:acme/shop.git"))
	require.Equal(t, "shop", ModuleFor("shop", ""))
}

func TestValidateProjectName(t *testing.T) {
	require.NoError(t, ValidateProjectName("my-shop_2"))
	require.Error(t, ValidateProjectName("../shop"))
	require.Error(t, ValidateProjectName(""))
}
