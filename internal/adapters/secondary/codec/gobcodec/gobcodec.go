// Package gobcodec serializes model objects with encoding/gob. Decoding
// instantiates arbitrary registered Go types, so the format carries the
// "unsafe-serialization" capability and boards may refuse it.
package gobcodec

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Register makes a concrete predictor type known to the codec. Every type
// written through the codec must be registered by both writer and reader.
func Register(value any) {
	gob.Register(value)
}

type Codec struct{}

func New() *Codec { return &Codec{} }

func (*Codec) Capability() string { return "unsafe-serialization" }

func (*Codec) Type() string { return "gob" }

func (*Codec) Serialize(model any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&model); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (*Codec) Deserialize(blob []byte) (any, error) {
	var model any
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&model); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	return model, nil
}
