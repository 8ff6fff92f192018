package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boundedPrototype(t *testing.T) *Prototype {
	t.Helper()
	min := 42.0
	return &Prototype{
		Title: "CustomPrototype",
		Fields: []Field{
			{Name: "B", Type: FieldInteger, ExclusiveMin: &min},
			{Name: "C", Type: FieldInteger, ExclusiveMin: &min},
			{Name: "D", Type: FieldInteger, ExclusiveMin: &min},
		},
	}
}

func TestDerivePrototype(t *testing.T) {
	sample := Instance{"B": 88, "C": 67, "D": 28, "name": "x", "ok": true, "score": 1.5}

	proto, err := DerivePrototype("prototype", sample)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "C", "D", "name", "ok", "score"}, proto.FieldNames())
	byName := map[string]Field{}
	for _, f := range proto.Fields {
		byName[f.Name] = f
	}
	assert.Equal(t, FieldInteger, byName["B"].Type)
	assert.Equal(t, float64(88), byName["B"].Default)
	assert.Equal(t, FieldString, byName["name"].Type)
	assert.Equal(t, FieldBoolean, byName["ok"].Type)
	assert.Equal(t, FieldNumber, byName["score"].Type)
}

func TestDerivePrototype_Deterministic(t *testing.T) {
	sample := Instance{"z": 1, "a": 2, "m": 3}

	first, err := DerivePrototype("prototype", sample)
	require.NoError(t, err)
	second, err := DerivePrototype("prototype", sample)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"a", "m", "z"}, first.FieldNames())
}

func TestDerivePrototype_RejectsNullAndEmpty(t *testing.T) {
	_, err := DerivePrototype("prototype", Instance{})
	assert.Error(t, err)

	_, err = DerivePrototype("prototype", Instance{"x": nil})
	assert.Error(t, err)
}

func TestDescriptorRoundTrip(t *testing.T) {
	proto := boundedPrototype(t)

	got, err := PrototypeFromDescriptor(proto.Descriptor())
	require.NoError(t, err)
	assert.Equal(t, proto, got)
}

func TestDescriptorRoundTrip_ThroughJSON(t *testing.T) {
	sample := Instance{"B": 88, "C": 67, "D": 28}
	proto, err := DerivePrototype("prototype", sample)
	require.NoError(t, err)

	raw, err := json.Marshal(proto.Descriptor())
	require.NoError(t, err)

	var d Descriptor
	require.NoError(t, json.Unmarshal(raw, &d))

	got, err := PrototypeFromDescriptor(&d)
	require.NoError(t, err)
	assert.Equal(t, proto, got)
}

func TestDescriptorFieldOrderCarriedByRequired(t *testing.T) {
	min := 1.0
	proto := &Prototype{
		Title: "ordered",
		Fields: []Field{
			{Name: "z", Type: FieldNumber, ExclusiveMin: &min},
			{Name: "a", Type: FieldString},
		},
	}

	got, err := PrototypeFromDescriptor(proto.Descriptor())
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a"}, got.FieldNames())
}

func TestValidate_BoundViolationNamesField(t *testing.T) {
	proto := boundedPrototype(t)

	err := proto.Validate(Instance{"B": float64(10), "C": float64(50), "D": float64(50)})
	require.Error(t, err)

	var violation *SchemaViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "B", violation.Field)
	assert.Contains(t, violation.Constraint, "integer > 42")
}

func TestValidate_TypeMismatch(t *testing.T) {
	proto := boundedPrototype(t)

	err := proto.Validate(Instance{"B": "fifty", "C": float64(50), "D": float64(50)})
	var violation *SchemaViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "B", violation.Field)
}

func TestValidate_MissingAndUnknownFields(t *testing.T) {
	proto := boundedPrototype(t)

	err := proto.Validate(Instance{"B": float64(50), "C": float64(50)})
	var violation *SchemaViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "D", violation.Field)

	err = proto.Validate(Instance{"B": float64(50), "C": float64(50), "D": float64(50), "E": float64(1)})
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "E", violation.Field)
}

func TestValidateBatch_AssemblesColumnFrame(t *testing.T) {
	proto := boundedPrototype(t)

	frame, err := proto.ValidateBatch([]Instance{
		{"B": float64(50), "C": float64(50), "D": float64(50)},
		{"B": float64(43), "C": float64(43), "D": float64(43)},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "C", "D"}, frame.Columns)
	assert.Equal(t, 2, frame.Len())
	assert.Equal(t, []any{float64(50), float64(43)}, frame.Column("B"))
}

func TestValidateBatch_ViolationStopsBatch(t *testing.T) {
	proto := boundedPrototype(t)

	_, err := proto.ValidateBatch([]Instance{
		{"B": float64(10), "C": float64(50), "D": float64(50)},
	})
	var violation *SchemaViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "B", violation.Field)

	_, err = proto.ValidateBatch(nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}
