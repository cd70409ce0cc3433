package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_RegisterAndGet(t *testing.T) {
	c := NewCatalog()

	err := c.Register(Kind{Name: "custom", Label: "Custom", Category: CategoryProcessing})
	require.NoError(t, err)

	kind, ok := c.Get("custom")
	assert.True(t, ok)
	assert.Equal(t, "Custom", kind.Label)

	_, ok = c.Get("missing")
	assert.False(t, ok)
	assert.False(t, c.Has("missing"))
}

func TestCatalog_RegisterRequiresName(t *testing.T) {
	c := NewCatalog()
	assert.Error(t, c.Register(Kind{Label: "Anonymous"}))
}

func TestCatalog_RegisterRejectsBrokenSchema(t *testing.T) {
	c := NewCatalog()

	err := c.Register(Kind{
		Name: "broken",
		ConfigSchema: map[string]any{
			"type": 42, // type must be a string
		},
	})
	assert.Error(t, err)
}

func TestCatalog_KindsSorted(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Register(Kind{Name: "zeta"}))
	require.NoError(t, c.Register(Kind{Name: "alpha"}))
	require.NoError(t, c.Register(Kind{Name: "mid"}))

	kinds := c.Kinds()
	require.Len(t, kinds, 3)
	assert.Equal(t, "alpha", kinds[0].Name)
	assert.Equal(t, "mid", kinds[1].Name)
	assert.Equal(t, "zeta", kinds[2].Name)
}

func TestCatalog_ValidateConfig(t *testing.T) {
	c := DefaultCatalog()

	err := c.ValidateConfig("llm", map[string]any{
		"name":        "Classify Intent",
		"enabled":     true,
		"model":       "gpt-4o",
		"temperature": 0.2,
	})
	assert.NoError(t, err)

	err = c.ValidateConfig("llm", map[string]any{
		"name":        "Classify Intent",
		"enabled":     true,
		"temperature": 9.5, // above maximum
	})
	assert.Error(t, err)

	err = c.ValidateConfig("unknown-kind", map[string]any{})
	assert.Error(t, err)
}

func TestDefaultCatalog_BuiltinKinds(t *testing.T) {
	c := DefaultCatalog()

	for _, name := range []string{"trigger", "llm", "tool", "condition", "loop", "parallel", "memory", "output"} {
		assert.True(t, c.Has(name), "expected built-in kind %q", name)
	}

	// Kinds without a schema accept any config.
	assert.NoError(t, c.ValidateConfig("parallel", map[string]any{"anything": "goes"}))
}
