package expr

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluator_Evaluate(t *testing.T) {
	t.Run("Should evaluate a simple boolean comparison", func(t *testing.T) {
		e, err := New()
		require.NoError(t, err)

		ok, err := e.Evaluate(context.Background(), `tool_name == "Bash"`, map[string]any{"tool_name": "Bash"})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Should resolve has_field and get_field against tool_input", func(t *testing.T) {
		e, err := New()
		require.NoError(t, err)

		ok, err := e.Evaluate(
			context.Background(),
			`has_field("file_path") && get_field("file_path") != ""`,
			map[string]any{"tool_input": []byte(`{"file_path":"src/app.ts"}`)},
		)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Should require a boolean result", func(t *testing.T) {
		e, err := New()
		require.NoError(t, err)

		_, err = e.Evaluate(context.Background(), `"not a bool"`, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boolean")
	})

	t.Run("Should surface compile errors", func(t *testing.T) {
		e, err := New()
		require.NoError(t, err)

		_, err = e.Evaluate(context.Background(), `tool_name ==`, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "compilation")
	})

	t.Run("Should honor context cancellation", func(t *testing.T) {
		e, err := New()
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = e.Evaluate(ctx, `tool_name == "Bash"`, map[string]any{"tool_name": "Bash"})
		require.Error(t, err)
	})

	t.Run("Should enforce the configured cost limit", func(t *testing.T) {
		e, err := New(WithCostLimit(1))
		require.NoError(t, err)

		_, err = e.Evaluate(context.Background(), `tool_name == "Bash" && cwd == "/x" && prompt == "y"`, map[string]any{
			"tool_name": "Bash",
			"cwd":       "/x",
			"prompt":    "y",
		})
		if err != nil {
			assert.Contains(t, err.Error(), "cost limit")
		}
	})

	t.Run("Should cache compiled programs across repeated evaluations", func(t *testing.T) {
		e, err := New()
		require.NoError(t, err)

		start := time.Now()
		for range 50 {
			_, err := e.Evaluate(context.Background(), `tool_name == "Bash"`, map[string]any{"tool_name": "Bash"})
			require.NoError(t, err)
		}
		assert.Less(t, time.Since(start), 2*time.Second)
	})
}

func TestEvaluator_ValidateExpression(t *testing.T) {
	t.Run("Should accept a well-formed expression", func(t *testing.T) {
		e, err := New()
		require.NoError(t, err)
		assert.NoError(t, e.ValidateExpression(`tool_name == "Bash"`))
	})

	t.Run("Should reject a malformed expression", func(t *testing.T) {
		e, err := New()
		require.NoError(t, err)
		assert.Error(t, e.ValidateExpression(`tool_name ==`))
	})
}
