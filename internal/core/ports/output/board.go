package ports

import (
	"context"
)

// WritePin is the single atomic write a board accepts: an opaque blob plus
// the pin's descriptive envelope.
type WritePin struct {
	Name        string
	Description string
	Type        string
	Blob        []byte
	Metadata    map[string]any
	Versioned   bool
}

// Pin is what a board hands back for a (name, version) lookup.
type Pin struct {
	Name        string
	Description string
	Type        string
	Version     string
	URL         string
	Blob        []byte
	Metadata    map[string]any
}

// Board is the versioned key -> multi-version blob+metadata store ("pin
// board") the packager writes to. Implementations own durability and
// per-name/version visibility; unversioned writes overwrite a single slot
// but still mint an addressable version token.
type Board interface {
	// Supports reports whether the board can hold artifacts of the given
	// serialization capability (e.g. "unsafe-serialization").
	Supports(capability string) bool

	// Write persists a pin and returns the board-assigned version token.
	Write(ctx context.Context, pin WritePin) (string, error)

	// Read fetches a pin by name; an empty version selects the latest.
	Read(ctx context.Context, name, version string) (*Pin, error)

	// Protocol is the board's access-protocol tag, used to infer required
	// packages.
	Protocol() string
}

// Codec is the opaque serialize/deserialize collaborator for model objects.
type Codec interface {
	Serialize(model any) ([]byte, error)
	Deserialize(blob []byte) (any, error)

	// Capability tags the serialization format for board preconditions.
	Capability() string

	// Type is the pin type tag recorded with the blob (e.g. "gob").
	Type() string
}
