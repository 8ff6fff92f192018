// Package boltboard is an embedded pin board backed by a single bbolt file:
// one bucket per pin name, one version-keyed entry per write.
package boltboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"pinserve/internal/adapters/secondary/board"
	"pinserve/internal/core/domain"
	ports "pinserve/internal/core/ports/output"
)

var pinsBucket = []byte("pins")

type record struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Type        string         `json:"type"`
	Version     string         `json:"version"`
	CreatedAt   time.Time      `json:"created_at"`
	Metadata    map[string]any `json:"metadata"`
	Blob        []byte         `json:"blob"`
}

type Board struct {
	db          *bolt.DB
	path        string
	allowUnsafe bool
}

type Option func(*Board)

// WithUnsafeSerialization controls whether arbitrary-code-bearing artifact
// formats may be written.
func WithUnsafeSerialization(allow bool) Option {
	return func(b *Board) { b.allowUnsafe = allow }
}

func Open(path string, opts ...Option) (*Board, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt board: %w", err)
	}
	b := &Board{db: db, path: path, allowUnsafe: true}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Board) Close() error { return b.db.Close() }

func (b *Board) Protocol() string { return "bolt" }

func (b *Board) Supports(capability string) bool {
	if capability == "unsafe-serialization" {
		return b.allowUnsafe
	}
	return true
}

func (b *Board) Write(ctx context.Context, pin ports.WritePin) (string, error) {
	if pin.Name == "" {
		return "", domain.ErrInvalidPinName
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	version := board.NewVersionToken()
	rec := record{
		Name:        pin.Name,
		Description: pin.Description,
		Type:        pin.Type,
		Version:     version,
		CreatedAt:   time.Now().UTC(),
		Metadata:    pin.Metadata,
		Blob:        pin.Blob,
	}
	encoded, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode pin record: %w", err)
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists(pinsBucket)
		if err != nil {
			return err
		}
		if !pin.Versioned {
			// Unversioned pins keep a single slot: drop prior versions.
			if root.Bucket([]byte(pin.Name)) != nil {
				if err := root.DeleteBucket([]byte(pin.Name)); err != nil {
					return err
				}
			}
		}
		bk, err := root.CreateBucketIfNotExists([]byte(pin.Name))
		if err != nil {
			return err
		}
		return bk.Put([]byte(version), encoded)
	})
	if err != nil {
		return "", fmt.Errorf("write pin %q: %w", pin.Name, err)
	}
	return version, nil
}

func (b *Board) Read(ctx context.Context, name, version string) (*ports.Pin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec record
	err := b.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(pinsBucket)
		if root == nil {
			return domain.ErrPinNotFound
		}
		bk := root.Bucket([]byte(name))
		if bk == nil {
			return domain.ErrPinNotFound
		}

		var encoded []byte
		if version == "" {
			// Version tokens sort chronologically, so the last key is the
			// latest version.
			_, encoded = bk.Cursor().Last()
			if encoded == nil {
				return domain.ErrPinNotFound
			}
		} else {
			encoded = bk.Get([]byte(version))
			if encoded == nil {
				return domain.ErrVersionNotFound
			}
		}
		return json.Unmarshal(encoded, &rec)
	})
	if err != nil {
		return nil, err
	}

	return &ports.Pin{
		Name:        rec.Name,
		Description: rec.Description,
		Type:        rec.Type,
		Version:     rec.Version,
		URL:         b.path + "#" + rec.Name,
		Blob:        rec.Blob,
		Metadata:    rec.Metadata,
	}, nil
}
