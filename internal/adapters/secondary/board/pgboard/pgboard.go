// Package pgboard is a postgres-backed pin board holding every version of
// every pin in a single pin_version table.
package pgboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pinserve/internal/adapters/secondary/board"
	"pinserve/internal/core/domain"
	ports "pinserve/internal/core/ports/output"
)

// Schema expected by the adapter:
//
//	CREATE TABLE pin_version (
//	    name        TEXT        NOT NULL,
//	    version     TEXT        NOT NULL,
//	    description TEXT        NOT NULL DEFAULT '',
//	    pin_type    TEXT        NOT NULL DEFAULT '',
//	    blob        BYTEA       NOT NULL,
//	    metadata    JSONB       NOT NULL DEFAULT '{}',
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (name, version)
//	);

type Board struct {
	pool        *pgxpool.Pool
	allowUnsafe bool
}

type Option func(*Board)

// WithUnsafeSerialization controls whether arbitrary-code-bearing artifact
// formats may be written.
func WithUnsafeSerialization(allow bool) Option {
	return func(b *Board) { b.allowUnsafe = allow }
}

func New(pool *pgxpool.Pool, opts ...Option) *Board {
	b := &Board{pool: pool, allowUnsafe: true}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Board) Protocol() string { return "postgres" }

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

	metadataJSON, err := json.Marshal(pin.Metadata)
	if err != nil {
		return "", fmt.Errorf("marshal pin metadata: %w", err)
	}
	version := board.NewVersionToken()

	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin pin write: %w", err)
	}
	defer tx.Rollback(ctx)

	if !pin.Versioned {
		if _, err := tx.Exec(ctx, `DELETE FROM pin_version WHERE name = $1`, pin.Name); err != nil {
			return "", fmt.Errorf("clear unversioned pin: %w", err)
		}
	}

	query := `
		INSERT INTO pin_version (name, version, description, pin_type, blob, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.Exec(ctx, query,
		pin.Name, version, pin.Description, pin.Type, pin.Blob, metadataJSON, time.Now().UTC(),
	); err != nil {
		return "", fmt.Errorf("insert pin version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit pin write: %w", err)
	}
	return version, nil
}

func (b *Board) Read(ctx context.Context, name, version string) (*ports.Pin, error) {
	var (
		row pgx.Row
		p   ports.Pin
	)
	if version == "" {
		query := `
			SELECT name, version, description, pin_type, blob, metadata
			FROM pin_version
			WHERE name = $1
			ORDER BY created_at DESC, version DESC
			LIMIT 1
		`
		row = b.pool.QueryRow(ctx, query, name)
	} else {
		query := `
			SELECT name, version, description, pin_type, blob, metadata
			FROM pin_version
			WHERE name = $1 AND version = $2
		`
		row = b.pool.QueryRow(ctx, query, name, version)
	}

	var metadataJSON []byte
	err := row.Scan(&p.Name, &p.Version, &p.Description, &p.Type, &p.Blob, &metadataJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if version != "" {
				return nil, domain.ErrVersionNotFound
			}
			return nil, domain.ErrPinNotFound
		}
		return nil, fmt.Errorf("read pin %q: %w", name, err)
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &p.Metadata); err != nil {
			return nil, fmt.Errorf("decode pin metadata: %w", err)
		}
	}
	return &p, nil
}
