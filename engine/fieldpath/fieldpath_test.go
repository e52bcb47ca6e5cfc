package fieldpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDotToPointer(t *testing.T) {
	t.Run("Should join plain segments with slashes", func(t *testing.T) {
		assert.Equal(t, "a/b", DotToPointer("a.b"))
	})

	t.Run("Should escape tilde and slash per RFC 6901", func(t *testing.T) {
		assert.Equal(t, "a~1b/c~0d", DotToPointer("a/b.c~d"))
	})
}

func TestResolve(t *testing.T) {
	raw := []byte(`{"file_path":"src/app.ts","user":{"email":"a@b.com"},"line":null,"tags":[],"meta":{}}`)

	t.Run("Should resolve a top-level string field", func(t *testing.T) {
		v, present := Resolve(raw, "file_path")
		require.True(t, present)
		assert.Equal(t, "src/app.ts", v)
	})

	t.Run("Should resolve a nested field", func(t *testing.T) {
		v, present := Resolve(raw, "user.email")
		require.True(t, present)
		assert.Equal(t, "a@b.com", v)
	})

	t.Run("Should treat explicit null as not present", func(t *testing.T) {
		_, present := Resolve(raw, "line")
		assert.False(t, present)
	})

	t.Run("Should treat missing field as not present", func(t *testing.T) {
		_, present := Resolve(raw, "does.not.exist")
		assert.False(t, present)
	})

	t.Run("Should treat empty array and empty object as present", func(t *testing.T) {
		_, present := Resolve(raw, "tags")
		assert.True(t, present)
		_, present = Resolve(raw, "meta")
		assert.True(t, present)
	})
}

func TestKindOf(t *testing.T) {
	t.Run("Should classify each JSON kind", func(t *testing.T) {
		assert.Equal(t, KindString, KindOf("x"))
		assert.Equal(t, KindNumber, KindOf(float64(1)))
		assert.Equal(t, KindBoolean, KindOf(true))
		assert.Equal(t, KindArray, KindOf([]any{}))
		assert.Equal(t, KindObject, KindOf(map[string]any{}))
		assert.Equal(t, KindNull, KindOf(nil))
	})
}

func TestValidatePath(t *testing.T) {
	t.Run("Should accept a well-formed path", func(t *testing.T) {
		assert.NoError(t, ValidatePath("user.email"))
	})

	t.Run("Should reject empty, leading-dot, trailing-dot, and consecutive-dot paths", func(t *testing.T) {
		for _, bad := range []string{"", ".a", "a.", "a..b"} {
			assert.Error(t, ValidatePath(bad), "path %q should be rejected", bad)
		}
	})
}

func TestValidKind(t *testing.T) {
	t.Run("Should accept the declared type vocabulary only", func(t *testing.T) {
		for _, k := range []string{"string", "number", "boolean", "array", "object", "any"} {
			assert.True(t, ValidKind(k))
		}
		assert.False(t, ValidKind("int"))
	})
}
