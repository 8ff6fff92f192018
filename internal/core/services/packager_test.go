package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pinserve/internal/adapters/secondary/board/folderboard"
	"pinserve/internal/adapters/secondary/codec/gobcodec"
	"pinserve/internal/core/domain"
	ports "pinserve/internal/core/ports/output"
	mockmodel "pinserve/internal/mock"
	"pinserve/internal/testutil"
)

func testModel(t *testing.T) *domain.Model {
	t.Helper()
	model, err := domain.NewModel(mockmodel.NewLinearModel(), "my_model",
		domain.WithDescription("a regression model for testing purposes"),
		domain.WithPrototypeData(mockmodel.SampleInstance()),
		domain.WithRequiredPackages("scikit-learn"),
	)
	require.NoError(t, err)
	return model
}

func TestPackagerWrite_CapabilityPrecondition(t *testing.T) {
	board := new(testutil.MockBoard)
	codec := new(testutil.MockCodec)
	p := NewPackager(board, codec)

	codec.On("Capability").Return("unsafe-serialization")
	board.On("Supports", "unsafe-serialization").Return(false)
	board.On("Protocol").Return("file")

	_, err := p.Write(context.Background(), testModel(t), true)
	assert.ErrorIs(t, err, domain.ErrCapability)

	// The precondition fails before any bytes are produced or written.
	board.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
	codec.AssertNotCalled(t, "Serialize", mock.Anything)
}

func TestPackagerWrite_MergesBoardPackages(t *testing.T) {
	board := new(testutil.MockBoard)
	codec := new(testutil.MockCodec)
	p := NewPackager(board, codec)

	codec.On("Capability").Return("unsafe-serialization")
	codec.On("Type").Return("gob")
	codec.On("Serialize", mock.Anything).Return([]byte("blob"), nil)
	board.On("Supports", "unsafe-serialization").Return(true)
	board.On("Protocol").Return("bolt")

	var written ports.WritePin
	board.On("Write", mock.Anything, mock.AnythingOfType("ports.WritePin")).
		Run(func(args mock.Arguments) { written = args.Get(1).(ports.WritePin) }).
		Return("20250101T000000Z-abcd1234", nil)

	res, err := p.Write(context.Background(), testModel(t), true)
	require.NoError(t, err)
	assert.Equal(t, "my_model", res.Name)
	assert.Equal(t, "20250101T000000Z-abcd1234", res.Version)

	assert.Equal(t, "my_model", written.Name)
	assert.Equal(t, "gob", written.Type)
	assert.True(t, written.Versioned)
	assert.Equal(t, []byte("blob"), written.Blob)

	wrapper := written.Metadata["model_meta"].(map[string]any)
	assert.Equal(t, []string{"go.etcd.io/bbolt", "scikit-learn"}, wrapper["required_pkgs"])
}

func TestPackagerRead_NotFoundSurfacesUnchanged(t *testing.T) {
	board := new(testutil.MockBoard)
	codec := new(testutil.MockCodec)
	p := NewPackager(board, codec)

	board.On("Read", mock.Anything, "ghost", "").Return(nil, domain.ErrPinNotFound)

	_, err := p.Read(context.Background(), "ghost", "")
	assert.ErrorIs(t, err, domain.ErrPinNotFound)
}

func TestPackagerRead_MigratesLegacyMetadata(t *testing.T) {
	board := new(testutil.MockBoard)
	codec := new(testutil.MockCodec)
	p := NewPackager(board, codec)

	pin := &ports.Pin{
		Name:        "my_model",
		Description: "legacy pin",
		Version:     "v7",
		URL:         "/pins/my_model/v7",
		Blob:        []byte("blob"),
		Metadata:    map[string]any{"owner": "ops"},
	}
	board.On("Read", mock.Anything, "my_model", "v7").Return(pin, nil)
	codec.On("Deserialize", []byte("blob")).Return(mockmodel.NewLinearModel(), nil)

	model, err := p.Read(context.Background(), "my_model", "v7")
	require.NoError(t, err)

	meta := model.Metadata()
	assert.Equal(t, map[string]any{"owner": "ops"}, meta.User)
	assert.Equal(t, "v7", meta.Version)
	assert.Equal(t, "/pins/my_model/v7", meta.URL)
	assert.Nil(t, meta.Prototype)
}

// Write-then-read fidelity against a real board and codec: the record comes
// back equal except for the board-assigned version and source address.
func TestPackagerWriteReadFidelity(t *testing.T) {
	board, err := folderboard.New(t.TempDir())
	require.NoError(t, err)
	p := NewPackager(board, gobcodec.New())

	model := testModel(t)
	res, err := p.Write(context.Background(), model, true)
	require.NoError(t, err)
	require.NotEmpty(t, res.Version)

	loaded, err := p.Read(context.Background(), "my_model", "")
	require.NoError(t, err)

	want := model.Metadata()
	got := loaded.Metadata()

	assert.Equal(t, want.User, got.User)
	assert.Equal(t, want.Prototype, got.Prototype)
	assert.Equal(t, want.RuntimeVersion, got.RuntimeVersion)
	// The folder board adds no packages of its own.
	assert.Equal(t, want.RequiredPkgs, got.RequiredPkgs)
	assert.Equal(t, res.Version, got.Version)
	assert.NotEmpty(t, got.URL)

	out, err := loaded.Predict(context.Background(), frameOf(t, loaded))
	require.NoError(t, err)
	assert.Len(t, out, 2)

	// Explicit version reads the same pin as latest.
	again, err := p.Read(context.Background(), "my_model", res.Version)
	require.NoError(t, err)
	assert.Equal(t, got.Version, again.Metadata().Version)
}

func frameOf(t *testing.T, model *domain.Model) *domain.Frame {
	t.Helper()
	frame, err := model.Prototype().ValidateBatch([]domain.Instance{
		{"B": float64(50), "C": float64(50), "D": float64(50)},
		{"B": float64(43), "C": float64(43), "D": float64(43)},
	})
	require.NoError(t, err)
	return frame
}
