package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	domain "github.com/mohammadpnp/account-admin/internal/domain/account"
)

type pgxExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// AccountWriter appends accounts to Postgres one row per call.
type AccountWriter struct {
	pool pgxExecer
}

func NewAccountWriter(pool pgxExecer) *AccountWriter {
	return &AccountWriter{pool: pool}
}

func (w *AccountWriter) Append(ctx context.Context, payload domain.Payload) (string, error) {
	key, err := newAccountKey()
	if err != nil {
		return "", err
	}

	rareTypes := payload.RareTypes
	if rareTypes == nil {
		rareTypes = []string{}
	}
	rareTypesJSON, err := json.Marshal(rareTypes)
	if err != nil {
		return "", fmt.Errorf("encode rare types: %w", err)
	}

	if _, err := w.pool.Exec(ctx, `
INSERT INTO accounts (id, account_id, uid, password, rare_types, created_at, uploaded_at)
VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
`, key, payload.AccountID, payload.UID, payload.Password, string(rareTypesJSON), payload.CreatedAt, payload.UploadedAt); err != nil {
		return "", fmt.Errorf("insert account: %w", err)
	}

	return key, nil
}

func newAccountKey() (string, error) {
	key, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate account key: %w", err)
	}
	return key.String(), nil
}
