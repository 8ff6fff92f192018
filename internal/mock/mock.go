// Package mock provides a deterministic predictor and sample data for tests
// and examples.
package mock

import (
	"context"
	"fmt"

	"pinserve/internal/adapters/secondary/codec/gobcodec"
	"pinserve/internal/core/domain"
)

func init() {
	gobcodec.Register(&LinearModel{})
}

// LinearModel is a toy regression: the prediction for a row is the weighted
// sum of its numeric fields plus an intercept.
type LinearModel struct {
	Weight    float64
	Intercept float64
}

func NewLinearModel() *LinearModel {
	return &LinearModel{Weight: 1, Intercept: 0}
}

func (m *LinearModel) Predict(ctx context.Context, input *domain.Frame) ([]any, error) {
	if input == nil || input.Len() == 0 {
		return nil, fmt.Errorf("linear model: empty input")
	}
	out := make([]any, input.Len())
	for i := 0; i < input.Len(); i++ {
		sum := m.Intercept
		for c := range input.Columns {
			v := input.ColumnAt(c)[i]
			if n, ok := asFloat(v); ok {
				sum += m.Weight * n
			}
		}
		out[i] = sum
	}
	return out, nil
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

// SampleInstance is a representative row for deriving prototypes.
func SampleInstance() domain.Instance {
	return domain.Instance{"B": 88, "C": 67, "D": 28}
}

// SampleBatch is a small valid batch matching SampleInstance's shape.
func SampleBatch() []domain.Instance {
	return []domain.Instance{
		{"B": 50, "C": 50, "D": 50},
		{"B": 43, "C": 43, "D": 43},
	}
}
