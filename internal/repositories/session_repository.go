package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/openreel/gateway/internal/auth"
	"github.com/openreel/gateway/internal/db"
	"github.com/openreel/gateway/internal/models"
)

// PostgresSessionStore persists wallet sessions to PostgreSQL.
type PostgresSessionStore struct {
	pool db.Pool
}

// NewPostgresSessionStore constructs a session store backed by PostgreSQL.
func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Save stores or updates a session record.
func (s *PostgresSessionStore) Save(ctx context.Context, session models.WalletSession) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO wallet_sessions (id, wallet_address, chain_id, identity_address, credential, refresh_token, issued_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (id)
        DO UPDATE SET wallet_address = EXCLUDED.wallet_address,
                      chain_id = EXCLUDED.chain_id,
                      identity_address = EXCLUDED.identity_address,
                      credential = EXCLUDED.credential,
                      refresh_token = EXCLUDED.refresh_token,
                      expires_at = EXCLUDED.expires_at
    `, session.ID, session.WalletAddress, session.ChainID, session.IdentityAddress,
		session.Credential, session.RefreshToken, session.IssuedAt.UTC(), session.ExpiresAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("upsert wallet session: %w", err)
	}

	return nil
}

// Find loads a session by its refresh token.
func (s *PostgresSessionStore) Find(ctx context.Context, refreshToken string) (models.WalletSession, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return models.WalletSession{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, wallet_address, chain_id, identity_address, credential, refresh_token, issued_at, expires_at
        FROM wallet_sessions
        WHERE refresh_token = $1
    `, refreshToken)

	return scanWalletSession(row)
}

// FindByID loads a session by its identifier.
func (s *PostgresSessionStore) FindByID(ctx context.Context, id string) (models.WalletSession, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return models.WalletSession{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, wallet_address, chain_id, identity_address, credential, refresh_token, issued_at, expires_at
        FROM wallet_sessions
        WHERE id = $1
    `, id)

	return scanWalletSession(row)
}

// Delete removes a session by its refresh token.
func (s *PostgresSessionStore) Delete(ctx context.Context, refreshToken string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM wallet_sessions
        WHERE refresh_token = $1
    `, refreshToken)
	if err != nil {
		return fmt.Errorf("delete wallet session: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return auth.ErrSessionNotFound
	}

	return nil
}

// DeleteByID removes a session by its identifier.
func (s *PostgresSessionStore) DeleteByID(ctx context.Context, id string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM wallet_sessions
        WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("delete wallet session by id: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return auth.ErrSessionNotFound
	}

	return nil
}

func scanWalletSession(row pgx.Row) (models.WalletSession, error) {
	var session models.WalletSession
	if err := row.Scan(
		&session.ID,
		&session.WalletAddress,
		&session.ChainID,
		&session.IdentityAddress,
		&session.Credential,
		&session.RefreshToken,
		&session.IssuedAt,
		&session.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.WalletSession{}, auth.ErrSessionNotFound
		}
		return models.WalletSession{}, fmt.Errorf("select wallet session: %w", err)
	}

	session.IssuedAt = session.IssuedAt.UTC()
	session.ExpiresAt = session.ExpiresAt.UTC()
	return session, nil
}

var _ auth.SessionStore = (*PostgresSessionStore)(nil)
