package gobcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	Weights []float64
	Bias    float64
}

func init() {
	Register(&stubModel{})
}

func TestRoundTrip(t *testing.T) {
	c := New()

	original := &stubModel{Weights: []float64{0.5, 1.5}, Bias: -2}
	blob, err := c.Serialize(original)
	require.NoError(t, err)
	require.NotEmpty(t, blob)

	decoded, err := c.Deserialize(blob)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDeserializeGarbage(t *testing.T) {
	c := New()

	_, err := c.Deserialize([]byte("definitely not gob"))
	assert.Error(t, err)
}

func TestCapabilityTags(t *testing.T) {
	c := New()
	assert.Equal(t, "unsafe-serialization", c.Capability())
	assert.Equal(t, "gob", c.Type())
}
