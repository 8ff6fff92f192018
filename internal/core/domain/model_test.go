package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoPredictor struct{}

func (echoPredictor) Predict(_ context.Context, input *Frame) ([]any, error) {
	out := make([]any, input.Len())
	for i := range out {
		out[i] = float64(i)
	}
	return out, nil
}

func TestNewModel_DerivesPrototypeFromSample(t *testing.T) {
	model, err := NewModel(echoPredictor{}, "my_model",
		WithDescription("a regression model"),
		WithPrototypeData(Instance{"B": 88, "C": 67, "D": 28}),
		WithRequiredPackages("scikit-learn"),
	)
	require.NoError(t, err)

	assert.Equal(t, "my_model", model.Name())
	assert.Equal(t, "a regression model", model.Description())
	require.NotNil(t, model.Prototype())
	assert.Equal(t, []string{"B", "C", "D"}, model.Prototype().FieldNames())
	assert.Equal(t, []string{"scikit-learn"}, model.Metadata().RequiredPkgs)
	assert.Empty(t, model.Metadata().Version)
}

func TestNewModel_Validation(t *testing.T) {
	_, err := NewModel(nil, "m")
	assert.Error(t, err)

	_, err = NewModel(echoPredictor{}, "")
	assert.ErrorIs(t, err, ErrInvalidPinName)
}

func TestNewModel_NoPrototype(t *testing.T) {
	model, err := NewModel(echoPredictor{}, "m")
	require.NoError(t, err)
	assert.Nil(t, model.Prototype())
	assert.NotNil(t, model.Metadata().User)
}

func TestFrameRoundTrip(t *testing.T) {
	frame := NewFrame([]string{"a", "b"})
	frame.AppendRow(Instance{"a": 1, "b": 2})
	frame.AppendRow(Instance{"a": 3, "b": 4, "ignored": 9})

	assert.Equal(t, 2, frame.Len())
	assert.Equal(t, []any{1, 3}, frame.Column("a"))
	assert.Nil(t, frame.Column("missing"))
	assert.Equal(t, Instance{"a": 3, "b": 4}, frame.Row(1))
}
