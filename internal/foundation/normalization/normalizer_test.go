package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color string

const (
	red  color = "red"
	blue color = "blue"
)

func TestEnumNormalizer(t *testing.T) {
	n := NewEnumNormalizer("color", map[string]color{"Red": red, "blue": blue}, red)

	assert.Equal(t, blue, n.Normalize("  BLUE "))
	assert.Equal(t, red, n.Normalize("green"), "unknown input falls back to default")

	_, ok := n.Lookup("green")
	assert.False(t, ok)

	v, err := n.NormalizeWithValidation("red")
	require.NoError(t, err)
	assert.Equal(t, red, v)

	_, err = n.NormalizeWithValidation("green")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid color")
	assert.Equal(t, []string{"blue", "red"}, n.ValidValues())
}
