package gen

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackends(t *testing.T) {
	langs, err := Backends(DefaultBackendRoot())
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "python", "typescript"}, langs)
}

func TestLoadBackend(t *testing.T) {
	t.Run("Python", func(t *testing.T) {
		b, err := LoadBackend(DefaultBackendRoot(), "python")
		require.NoError(t, err)
		assert.Equal(t, "Python", b.DisplayName)
		assert.Equal(t, ".py", b.FileExtension)
		assert.Equal(t, "snake", b.IdentStyle)
		assert.Equal(t, "snake", b.MethodStyle)
		assert.Equal(t, "create_{entity}", b.Naming.Create)
		assert.NotEmpty(t, b.SupportFiles)
	})
	t.Run("TypeScript", func(t *testing.T) {
		b, err := LoadBackend(DefaultBackendRoot(), "typescript")
		require.NoError(t, err)
		assert.Equal(t, "camel", b.IdentStyle)
		assert.Equal(t, "create{Entity}", b.Naming.Create)
	})
	t.Run("Go", func(t *testing.T) {
		b, err := LoadBackend(DefaultBackendRoot(), "go")
		require.NoError(t, err)
		assert.Equal(t, "snake", b.IdentStyle)
		assert.Equal(t, "pascal", b.MethodStyle)
	})
	t.Run("Unknown", func(t *testing.T) {
		_, err := LoadBackend(DefaultBackendRoot(), "rust")
		require.Error(t, err)
		require.True(t, IsConfigError(err))
		assert.Contains(t, err.Error(), "go, python, typescript")
	})
	t.Run("Traversal", func(t *testing.T) {
		for _, ident := range []string{
			"../../../etc/passwd",
			"..",
			"python/../go",
			"Python",
			"py thon",
			"",
		} {
			_, err := LoadBackend(DefaultBackendRoot(), ident)
			require.Error(t, err, "ident %q", ident)
			assert.True(t, IsSecurityError(err), "ident %q", ident)
		}
	})
	t.Run("TraversalBeforeAccess", func(t *testing.T) {
		// A panicking FS proves the identifier check runs before any
		// file-system access.
		_, err := LoadBackend(panicFS{}, "../../../etc/passwd")
		require.Error(t, err)
		assert.True(t, IsSecurityError(err))
	})
	t.Run("IncompleteConfig", func(t *testing.T) {
		root := fstest.MapFS{
			"sparse/backend.yaml": &fstest.MapFile{Data: []byte("display_name: Sparse\n")},
		}
		_, err := LoadBackend(root, "sparse")
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})
}

type panicFS struct{}

func (panicFS) Open(string) (fs.File, error) { panic("file system accessed") }

func TestBackendIdents(t *testing.T) {
	snake := &Backend{IdentStyle: "snake", MethodStyle: "snake"}
	camel := &Backend{IdentStyle: "camel", MethodStyle: "camel"}
	pascal := &Backend{IdentStyle: "snake", MethodStyle: "pascal"}

	t.Run("EntityIdent", func(t *testing.T) {
		assert.Equal(t, "order_item", snake.EntityIdent("OrderItem"))
		assert.Equal(t, "orderItem", camel.EntityIdent("OrderItem"))
		assert.Equal(t, "user", snake.EntityIdent("User"))
	})
	t.Run("MethodIdent", func(t *testing.T) {
		assert.Equal(t, "get_orders_by_user", snake.MethodIdent("get_orders_by_user"))
		assert.Equal(t, "getOrdersByUser", camel.MethodIdent("get_orders_by_user"))
		assert.Equal(t, "GetOrdersByUser", pascal.MethodIdent("get_orders_by_user"))
	})
	t.Run("Apply", func(t *testing.T) {
		assert.Equal(t, "create_order_item", snake.Apply("create_{entity}", "OrderItem"))
		assert.Equal(t, "createOrderItem", camel.Apply("create{Entity}", "OrderItem"))
		assert.Equal(t, "List[OrderItem]", snake.Apply("List[{Entity}]", "OrderItem"))
	})
}

func TestBackendSupportFile(t *testing.T) {
	b, err := LoadBackend(DefaultBackendRoot(), "python")
	require.NoError(t, err)

	t.Run("Listed", func(t *testing.T) {
		data, err := b.SupportFile(b.SupportFiles[0])
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	})
	t.Run("Unlisted", func(t *testing.T) {
		_, err := b.SupportFile("support/../backend.yaml")
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})
}
