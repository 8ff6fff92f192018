// Package folderboard is a filesystem pin board: one directory per pin name,
// one subdirectory per version holding the blob and a JSON metadata sidecar.
package folderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"pinserve/internal/adapters/secondary/board"
	"pinserve/internal/core/domain"
	ports "pinserve/internal/core/ports/output"
)

const (
	blobFile = "blob.bin"
	metaFile = "pin.json"
)

type record struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Type        string         `json:"type"`
	Version     string         `json:"version"`
	CreatedAt   time.Time      `json:"created_at"`
	Metadata    map[string]any `json:"metadata"`
}

type Board struct {
	root        string
	allowUnsafe bool
}

type Option func(*Board)

// WithUnsafeSerialization controls whether the board accepts
// arbitrary-code-bearing artifact formats. Boards that refuse them cause the
// packager to fail before any bytes are written.
func WithUnsafeSerialization(allow bool) Option {
	return func(b *Board) { b.allowUnsafe = allow }
}

func New(root string, opts ...Option) (*Board, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create board root: %w", err)
	}
	b := &Board{root: root, allowUnsafe: true}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Board) Protocol() string { return "file" }

func (b *Board) Supports(capability string) bool {
	if capability == "unsafe-serialization" {
		return b.allowUnsafe
	}
	return true
}

// safeSegment reports whether s can be used as a single path element under
// the board root. Separators and traversal tokens would escape the root.
func safeSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '/' || s[i] == '\\' || os.IsPathSeparator(s[i]) {
			return false
		}
	}
	return true
}

func (b *Board) Write(ctx context.Context, pin ports.WritePin) (string, error) {
	if !safeSegment(pin.Name) {
		return "", domain.ErrInvalidPinName
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pinDir := filepath.Join(b.root, pin.Name)
	if !pin.Versioned {
		// The unversioned slot holds exactly one version at a time.
		if err := os.RemoveAll(pinDir); err != nil {
			return "", fmt.Errorf("clear unversioned pin: %w", err)
		}
	}

	version := board.NewVersionToken()
	dir := filepath.Join(pinDir, version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create version dir: %w", err)
	}

	rec := record{
		Name:        pin.Name,
		Description: pin.Description,
		Type:        pin.Type,
		Version:     version,
		CreatedAt:   time.Now().UTC(),
		Metadata:    pin.Metadata,
	}
	metaBytes, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode pin metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metaFile), metaBytes, 0o644); err != nil {
		return "", fmt.Errorf("write pin metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, blobFile), pin.Blob, 0o644); err != nil {
		return "", fmt.Errorf("write pin blob: %w", err)
	}
	return version, nil
}

func (b *Board) Read(ctx context.Context, name, version string) (*ports.Pin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !safeSegment(name) {
		return nil, domain.ErrInvalidPinName
	}
	if version != "" && !safeSegment(version) {
		return nil, domain.ErrVersionNotFound
	}
	pinDir := filepath.Join(b.root, name)
	entries, err := os.ReadDir(pinDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrPinNotFound
		}
		return nil, fmt.Errorf("read pin dir: %w", err)
	}

	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	if len(versions) == 0 {
		return nil, domain.ErrPinNotFound
	}

	if version == "" {
		// Tokens are timestamp-prefixed, so lexical order is write order.
		sort.Strings(versions)
		version = versions[len(versions)-1]
	}

	dir := filepath.Join(pinDir, version)
	metaBytes, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrVersionNotFound
		}
		return nil, fmt.Errorf("read pin metadata: %w", err)
	}
	var rec record
	if err := json.Unmarshal(metaBytes, &rec); err != nil {
		return nil, fmt.Errorf("decode pin metadata: %w", err)
	}
	blob, err := os.ReadFile(filepath.Join(dir, blobFile))
	if err != nil {
		return nil, fmt.Errorf("read pin blob: %w", err)
	}

	return &ports.Pin{
		Name:        rec.Name,
		Description: rec.Description,
		Type:        rec.Type,
		Version:     rec.Version,
		URL:         dir,
		Blob:        blob,
		Metadata:    rec.Metadata,
	}, nil
}
