package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkaczor/bankapi/internal/model"
)

// PostgresRepository persists accounts as jsonb documents in a single table,
// keeping the same document shape and full-replace semantics as the Mongo
// backend.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a repository over the given connection pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the accounts table if it does not exist. Call on
// startup after the database connection is established.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			key TEXT PRIMARY KEY,
			doc JSONB NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure accounts table: %w", err)
	}
	return nil
}

// SaveAll clears the table and writes every account in one transaction.
func (r *PostgresRepository) SaveAll(ctx context.Context, accounts []model.Identifiable) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM accounts`); err != nil {
		return fmt.Errorf("failed to clear accounts table: %w", err)
	}

	query := `
		INSERT INTO accounts (key, doc)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc
	`

	for _, account := range accounts {
		doc, err := encodeAccount(account)
		if err != nil {
			return err
		}

		payload, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal account %s: %w", doc.key(), err)
		}

		if _, err := tx.Exec(ctx, query, doc.key(), payload); err != nil {
			return fmt.Errorf("failed to upsert account %s: %w", doc.key(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit accounts: %w", err)
	}

	return nil
}

// LoadAll reads every row and reconstructs the typed accounts.
func (r *PostgresRepository) LoadAll(ctx context.Context) ([]model.Identifiable, error) {
	rows, err := r.db.Query(ctx, `SELECT doc FROM accounts ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts table: %w", err)
	}
	defer rows.Close()

	var accounts []model.Identifiable
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}

		var doc accountDocument
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal account document: %w", err)
		}

		account, err := decodeAccount(doc)
		if err != nil {
			continue
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account rows: %w", err)
	}

	return accounts, nil
}
