package domain

import (
	"context"
	"fmt"
)

// Predictor is the single capability a trained model exposes: turn a column
// frame into an ordered sequence of scalar outputs.
type Predictor interface {
	Predict(ctx context.Context, input *Frame) ([]any, error)
}

// Model pairs exactly one trained predictor with its provenance metadata.
// It is immutable after construction and safe to share across concurrent
// requests without synchronization.
type Model struct {
	name        string
	description string
	predictor   Predictor
	metadata    Metadata
}

// ModelOption customizes NewModel.
type ModelOption func(*modelConfig)

type modelConfig struct {
	description  string
	user         map[string]any
	requiredPkgs []string
	prototype    *Prototype
	sample       Instance
}

// WithDescription sets the human description stored with the pin.
func WithDescription(desc string) ModelOption {
	return func(c *modelConfig) { c.description = desc }
}

// WithUserMetadata attaches caller-owned free-form annotations.
func WithUserMetadata(user map[string]any) ModelOption {
	return func(c *modelConfig) { c.user = user }
}

// WithRequiredPackages declares dependency identifiers needed to run the
// model, beyond those inferred from the board protocol.
func WithRequiredPackages(pkgs ...string) ModelOption {
	return func(c *modelConfig) { c.requiredPkgs = pkgs }
}

// WithPrototype supplies an explicit input prototype.
func WithPrototype(p *Prototype) ModelOption {
	return func(c *modelConfig) { c.prototype = p }
}

// WithPrototypeData derives the input prototype from a representative sample
// row at construction time.
func WithPrototypeData(sample Instance) ModelOption {
	return func(c *modelConfig) { c.sample = sample }
}

// NewModel constructs an immutable model handle. The prototype, when
// supplied or derived, and the runtime version are fixed here; required
// packages are completed with board-inferred identifiers at write time.
func NewModel(predictor Predictor, name string, opts ...ModelOption) (*Model, error) {
	if predictor == nil {
		return nil, fmt.Errorf("new model: predictor is required")
	}
	if name == "" {
		return nil, ErrInvalidPinName
	}

	var cfg modelConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	proto := cfg.prototype
	if proto == nil && cfg.sample != nil {
		derived, err := DerivePrototype("prototype", cfg.sample)
		if err != nil {
			return nil, err
		}
		proto = derived
	}

	user := cfg.user
	if user == nil {
		user = map[string]any{}
	}

	return &Model{
		name:        name,
		description: cfg.description,
		predictor:   predictor,
		metadata: Metadata{
			User:           user,
			RequiredPkgs:   MergeRequiredPackages(nil, cfg.requiredPkgs),
			Prototype:      proto,
			RuntimeVersion: RuntimeVersion(),
		},
	}, nil
}

// LoadedModel rebuilds a handle from a pin read; the metadata arrives already
// migrated and carries the board-assigned version and source address.
func LoadedModel(predictor Predictor, name, description string, meta Metadata) (*Model, error) {
	if predictor == nil {
		return nil, fmt.Errorf("loaded model: predictor is required")
	}
	if meta.User == nil {
		meta.User = map[string]any{}
	}
	return &Model{
		name:        name,
		description: description,
		predictor:   predictor,
		metadata:    meta,
	}, nil
}

func (m *Model) Name() string        { return m.name }
func (m *Model) Description() string { return m.description }
func (m *Model) Predictor() Predictor {
	return m.predictor
}

// Prototype returns the expected input shape, or nil when the model carries
// none (in which case validation is skipped).
func (m *Model) Prototype() *Prototype { return m.metadata.Prototype }

// Metadata returns a copy of the provenance record; the handle itself stays
// immutable.
func (m *Model) Metadata() Metadata { return m.metadata }

// Predict runs the model over an assembled frame.
func (m *Model) Predict(ctx context.Context, input *Frame) ([]any, error) {
	return m.predictor.Predict(ctx, input)
}
