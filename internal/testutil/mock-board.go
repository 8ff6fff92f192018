package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	ports "pinserve/internal/core/ports/output"
)

// MockBoard is a mock of ports.Board.
type MockBoard struct {
	mock.Mock
}

func (m *MockBoard) Supports(capability string) bool {
	args := m.Called(capability)
	return args.Bool(0)
}

func (m *MockBoard) Write(ctx context.Context, pin ports.WritePin) (string, error) {
	args := m.Called(ctx, pin)
	return args.String(0), args.Error(1)
}

func (m *MockBoard) Read(ctx context.Context, name, version string) (*ports.Pin, error) {
	args := m.Called(ctx, name, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Pin), args.Error(1)
}

func (m *MockBoard) Protocol() string {
	args := m.Called()
	return args.String(0)
}

// MockCodec is a mock of ports.Codec.
type MockCodec struct {
	mock.Mock
}

func (m *MockCodec) Serialize(model any) ([]byte, error) {
	args := m.Called(model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCodec) Deserialize(blob []byte) (any, error) {
	args := m.Called(blob)
	return args.Get(0), args.Error(1)
}

func (m *MockCodec) Capability() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockCodec) Type() string {
	args := m.Called()
	return args.String(0)
}
