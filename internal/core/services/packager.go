package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"pinserve/internal/core/domain"
	ports "pinserve/internal/core/ports/output"
)

// Packager writes model artifacts to a versioned board and loads them back.
// The board and codec are external collaborators; the packager owns the
// metadata envelope and its migrations.
type Packager struct {
	board ports.Board
	codec ports.Codec
}

func NewPackager(board ports.Board, codec ports.Codec) *Packager {
	return &Packager{board: board, codec: codec}
}

// WriteResult reports where a write landed.
type WriteResult struct {
	Name    string
	Version string
}

// Write serializes the model and its metadata and issues one atomic board
// write. The board must support the codec's serialization capability; that
// precondition is checked before any bytes are produced and is never
// downgraded.
func (p *Packager) Write(ctx context.Context, model *domain.Model, versioned bool) (*WriteResult, error) {
	if !p.board.Supports(p.codec.Capability()) {
		return nil, fmt.Errorf("%w: board %q does not support %q",
			domain.ErrCapability, p.board.Protocol(), p.codec.Capability())
	}

	log.Info("model cards provide a framework for transparent, responsible reporting; " +
		"consider publishing one alongside this pin")

	meta := model.Metadata()
	meta.RequiredPkgs = domain.MergeRequiredPackages(
		domain.BoardPackages(p.board.Protocol()),
		meta.RequiredPkgs,
	)

	blob, err := p.codec.Serialize(model.Predictor())
	if err != nil {
		return nil, fmt.Errorf("serialize model: %w", err)
	}

	version, err := p.board.Write(ctx, ports.WritePin{
		Name:        model.Name(),
		Description: model.Description(),
		Type:        p.codec.Type(),
		Blob:        blob,
		Metadata:    meta.StoredMap(),
		Versioned:   versioned,
	})
	if err != nil {
		return nil, fmt.Errorf("write pin %q: %w", model.Name(), err)
	}

	log.WithFields(log.Fields{
		"name":    model.Name(),
		"version": version,
		"board":   p.board.Protocol(),
	}).Info("model pinned")

	return &WriteResult{Name: model.Name(), Version: version}, nil
}

// ReadPin loads a pin through a one-off packager.
//
// Deprecated: construct a Packager and call Read; this wrapper remains for
// callers of the original free-function API and warns on every use.
func ReadPin(ctx context.Context, board ports.Board, codec ports.Codec, name, version string) (*domain.Model, error) {
	log.Warn("ReadPin is deprecated; use Packager.Read instead")
	return NewPackager(board, codec).Read(ctx, name, version)
}

// Read loads the requested version (or the latest, when version is empty),
// deserializes the model, and upgrades legacy metadata shapes in memory. The
// persisted blob is never rewritten.
func (p *Packager) Read(ctx context.Context, name, version string) (*domain.Model, error) {
	pin, err := p.board.Read(ctx, name, version)
	if err != nil {
		return nil, err
	}

	obj, err := p.codec.Deserialize(pin.Blob)
	if err != nil {
		return nil, fmt.Errorf("deserialize pin %q: %w", name, err)
	}
	predictor, ok := obj.(domain.Predictor)
	if !ok {
		return nil, fmt.Errorf("deserialize pin %q: %T is not a predictor", name, obj)
	}

	meta, err := domain.MetadataFromLegacy(pin.Metadata)
	if err != nil {
		return nil, err
	}
	meta.Version = pin.Version
	meta.URL = pin.URL

	return domain.LoadedModel(predictor, pin.Name, pin.Description, meta)
}
