package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

type FieldType string

const (
	FieldInteger FieldType = "integer"
	FieldNumber  FieldType = "number"
	FieldString  FieldType = "string"
	FieldBoolean FieldType = "boolean"
)

// Field is one named, typed slot of a prototype. Numeric fields may carry
// exclusive bounds.
type Field struct {
	Name         string
	Type         FieldType
	Default      any
	ExclusiveMin *float64
	ExclusiveMax *float64
}

// Prototype is a structural description of the input a model expects: an
// ordered set of uniquely named fields. The live Prototype is never persisted
// directly; its Descriptor is the only form written to a board.
type Prototype struct {
	Title  string
	Fields []Field
}

// FieldDescriptor is the portable per-field form, shaped like a JSON-schema
// property.
type FieldDescriptor struct {
	Type             string   `json:"type"`
	Default          any      `json:"default,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`
}

// Descriptor is the portable, serializable form of a Prototype. Field order
// is carried by Required, since JSON objects do not preserve key order.
type Descriptor struct {
	Title      string                     `json:"title"`
	Type       string                     `json:"type"`
	Properties map[string]FieldDescriptor `json:"properties"`
	Required   []string                   `json:"required"`
}

// DerivePrototype builds a Prototype by inspecting a representative sample
// row. Field names are sorted so derivation is deterministic for a given
// sample; every derived field is required and keeps the sample value as its
// default.
func DerivePrototype(title string, sample Instance) (*Prototype, error) {
	if len(sample) == 0 {
		return nil, fmt.Errorf("derive prototype: sample has no fields")
	}
	if title == "" {
		title = "prototype"
	}

	names := make([]string, 0, len(sample))
	for name := range sample {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		ft, def, err := inferField(sample[name])
		if err != nil {
			return nil, fmt.Errorf("derive prototype: field %q: %w", name, err)
		}
		fields = append(fields, Field{Name: name, Type: ft, Default: def})
	}

	return &Prototype{Title: title, Fields: fields}, nil
}

func inferField(v any) (FieldType, any, error) {
	switch x := v.(type) {
	case int:
		return FieldInteger, float64(x), nil
	case int32:
		return FieldInteger, float64(x), nil
	case int64:
		return FieldInteger, float64(x), nil
	case float32:
		return FieldNumber, float64(x), nil
	case float64:
		// JSON decoding yields float64 for every number; keep integral
		// values as integers so derived prototypes match their source.
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return FieldInteger, x, nil
		}
		return FieldNumber, x, nil
	case json.Number:
		if _, err := x.Int64(); err == nil {
			f, _ := x.Float64()
			return FieldInteger, f, nil
		}
		f, err := x.Float64()
		if err != nil {
			return "", nil, fmt.Errorf("unsupported numeric literal %q", x.String())
		}
		return FieldNumber, f, nil
	case string:
		return FieldString, x, nil
	case bool:
		return FieldBoolean, x, nil
	case nil:
		return "", nil, fmt.Errorf("cannot infer a type from a null sample value")
	default:
		return "", nil, fmt.Errorf("unsupported sample value of type %T", v)
	}
}

// Descriptor produces the portable form. Round-trip invariant:
// PrototypeFromDescriptor(p.Descriptor()) is structurally equal to p.
func (p *Prototype) Descriptor() *Descriptor {
	props := make(map[string]FieldDescriptor, len(p.Fields))
	required := make([]string, 0, len(p.Fields))
	for _, f := range p.Fields {
		props[f.Name] = FieldDescriptor{
			Type:             string(f.Type),
			Default:          f.Default,
			ExclusiveMinimum: f.ExclusiveMin,
			ExclusiveMaximum: f.ExclusiveMax,
		}
		required = append(required, f.Name)
	}
	return &Descriptor{
		Title:      p.Title,
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// PrototypeFromDescriptor reconstructs a live Prototype from its portable
// form. Field order follows Required; properties missing from Required are
// appended in name order.
func PrototypeFromDescriptor(d *Descriptor) (*Prototype, error) {
	if d == nil {
		return nil, nil
	}
	if d.Type != "" && d.Type != "object" {
		return nil, fmt.Errorf("prototype descriptor: unsupported type %q", d.Type)
	}

	order := make([]string, 0, len(d.Properties))
	seen := make(map[string]bool, len(d.Properties))
	for _, name := range d.Required {
		if _, ok := d.Properties[name]; !ok {
			return nil, fmt.Errorf("prototype descriptor: required field %q has no property", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("prototype descriptor: duplicate field %q", name)
		}
		seen[name] = true
		order = append(order, name)
	}
	var extras []string
	for name := range d.Properties {
		if !seen[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	order = append(order, extras...)

	fields := make([]Field, 0, len(order))
	for _, name := range order {
		prop := d.Properties[name]
		switch FieldType(prop.Type) {
		case FieldInteger, FieldNumber, FieldString, FieldBoolean:
		default:
			return nil, fmt.Errorf("prototype descriptor: field %q has unsupported type %q", name, prop.Type)
		}
		fields = append(fields, Field{
			Name:         name,
			Type:         FieldType(prop.Type),
			Default:      prop.Default,
			ExclusiveMin: prop.ExclusiveMinimum,
			ExclusiveMax: prop.ExclusiveMaximum,
		})
	}

	title := d.Title
	if title == "" {
		title = "prototype"
	}
	return &Prototype{Title: title, Fields: fields}, nil
}

// FieldNames returns the field names in prototype order.
func (p *Prototype) FieldNames() []string {
	names := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		names[i] = f.Name
	}
	return names
}

// Validate checks one instance against the prototype. The first offending
// field is reported as a *SchemaViolation; fields outside the prototype are
// rejected.
func (p *Prototype) Validate(instance Instance) error {
	for _, f := range p.Fields {
		v, ok := instance[f.Name]
		if !ok {
			return &SchemaViolation{Field: f.Name, Constraint: f.constraint()}
		}
		if err := f.check(v); err != nil {
			return err
		}
	}
	if len(instance) > len(p.Fields) {
		known := make(map[string]bool, len(p.Fields))
		for _, f := range p.Fields {
			known[f.Name] = true
		}
		extras := make([]string, 0, 1)
		for name := range instance {
			if !known[name] {
				extras = append(extras, name)
			}
		}
		sort.Strings(extras)
		return &SchemaViolation{Field: extras[0], Constraint: "no such prototype field", Got: instance[extras[0]]}
	}
	return nil
}

// ValidateBatch validates each instance independently and, on success,
// assembles a single column-oriented frame in prototype field order.
func (p *Prototype) ValidateBatch(instances []Instance) (*Frame, error) {
	if len(instances) == 0 {
		return nil, ErrEmptyBatch
	}
	frame := NewFrame(p.FieldNames())
	for _, inst := range instances {
		if err := p.Validate(inst); err != nil {
			return nil, err
		}
		frame.AppendRow(inst)
	}
	return frame, nil
}

func (f *Field) constraint() string {
	c := string(f.Type)
	if f.ExclusiveMin != nil {
		c = fmt.Sprintf("%s > %g", c, *f.ExclusiveMin)
	}
	if f.ExclusiveMax != nil {
		c = fmt.Sprintf("%s < %g", c, *f.ExclusiveMax)
	}
	return c
}

func (f *Field) check(v any) error {
	violation := func() error {
		return &SchemaViolation{Field: f.Name, Constraint: f.constraint(), Got: v}
	}

	switch f.Type {
	case FieldString:
		if _, ok := v.(string); !ok {
			return violation()
		}
	case FieldBoolean:
		if _, ok := v.(bool); !ok {
			return violation()
		}
	case FieldInteger:
		n, ok := asNumber(v)
		if !ok || n != math.Trunc(n) {
			return violation()
		}
		if !f.inBounds(n) {
			return violation()
		}
	case FieldNumber:
		n, ok := asNumber(v)
		if !ok {
			return violation()
		}
		if !f.inBounds(n) {
			return violation()
		}
	default:
		return violation()
	}
	return nil
}

func (f *Field) inBounds(n float64) bool {
	if f.ExclusiveMin != nil && n <= *f.ExclusiveMin {
		return false
	}
	if f.ExclusiveMax != nil && n >= *f.ExclusiveMax {
		return false
	}
	return true
}

func asNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
