package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/portfoliofuturo/portfolio-api/internal/database"
	"github.com/portfoliofuturo/portfolio-api/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionService persists sign-in sessions. Only the SHA-256 of the
// current refresh token is stored.
type SessionService struct {
	db *database.DB
}

func NewSessionService(db *database.DB) *SessionService {
	return &SessionService{db: db}
}

func (s *SessionService) Create(ctx context.Context, id, identityID uuid.UUID, refreshHash string, expiresAt time.Time) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO sessions (id, identity_id, refresh_token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
	`, id, identityID, refreshHash, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get returns a live session or ErrSessionNotFound.
func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var sess models.Session
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, identity_id, refresh_token_hash, expires_at, refreshed_at, created_at
		FROM sessions
		WHERE id = $1 AND expires_at > NOW()
	`, id).Scan(&sess.ID, &sess.IdentityID, &sess.RefreshTokenHash, &sess.ExpiresAt, &sess.RefreshedAt, &sess.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &sess, nil
}

// Rotate swaps the refresh hash. The old hash must still be current, so a
// replayed refresh token fails with ErrSessionNotFound.
func (s *SessionService) Rotate(ctx context.Context, id uuid.UUID, oldHash, newHash string, expiresAt time.Time) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE sessions
		SET refresh_token_hash = $3, expires_at = $4, refreshed_at = NOW()
		WHERE id = $1 AND refresh_token_hash = $2 AND expires_at > NOW()
	`, id, oldHash, newHash, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to rotate session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *SessionService) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *SessionService) DeleteAllForIdentity(ctx context.Context, identityID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM sessions WHERE identity_id = $1`, identityID)
	return err
}

func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
