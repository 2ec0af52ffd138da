package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/portfoliofuturo/portfolio-api/internal/database"
	"github.com/portfoliofuturo/portfolio-api/internal/models"
	"github.com/portfoliofuturo/portfolio-api/internal/oauth"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// Messages are returned to clients verbatim.
var (
	ErrEmailTaken               = errors.New("User already registered")
	ErrWeakPassword             = errors.New("Password should be at least 6 characters")
	ErrInvalidCredentials       = errors.New("Invalid login credentials")
	ErrEmailNotConfirmed        = errors.New("Email not confirmed")
	ErrIdentityNotFound         = errors.New("User not found")
	ErrInvalidRefreshToken      = errors.New("Invalid Refresh Token")
	ErrInvalidConfirmationToken = errors.New("Email link is invalid or has expired")
)

type EventPublisher interface {
	Publish(ev models.AuthEvent)
}

type ConfirmationMailer interface {
	SendConfirmation(to, name, confirmURL string) error
}

type IdentityOptions struct {
	RequireEmailConfirmation bool
	// BaseURL is this API's public origin, used to build confirmation links.
	BaseURL string
	// SiteURL is where a confirmed user is sent afterwards.
	SiteURL string
}

type IdentityService struct {
	db       *database.DB
	sessions *SessionService
	jwt      *JWTService
	events   EventPublisher
	mailer   ConfirmationMailer
	opts     IdentityOptions
}

func NewIdentityService(db *database.DB, sessions *SessionService, jwt *JWTService, events EventPublisher, mailer ConfirmationMailer, opts IdentityOptions) *IdentityService {
	return &IdentityService{
		db:       db,
		sessions: sessions,
		jwt:      jwt,
		events:   events,
		mailer:   mailer,
		opts:     opts,
	}
}

const identityColumns = `id, email, password_hash, raw_user_meta_data, email_confirmed_at, last_sign_in_at, created_at, updated_at`

func scanIdentity(row pgx.Row) (*models.Identity, error) {
	var ident models.Identity
	err := row.Scan(
		&ident.ID, &ident.Email, &ident.PasswordHash, &ident.Metadata,
		&ident.EmailConfirmedAt, &ident.LastSignInAt, &ident.CreatedAt, &ident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ident, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *IdentityService) CreateIdentity(ctx context.Context, email, password string, meta models.Metadata) (*models.Identity, error) {
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	confirmToken := uuid.NewString()

	ident, err := scanIdentity(s.db.Pool.QueryRow(ctx, `
		INSERT INTO identities (email, password_hash, raw_user_meta_data, confirmation_token_hash, confirmation_sent_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING `+identityColumns,
		normalizeEmail(email), string(hash), meta, HashToken(confirmToken)))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendConfirmation(ident.Email, meta.Name, s.confirmationURL(confirmToken)); err != nil {
			log.Printf("Failed to send confirmation email to %s: %v", ident.Email, err)
		}
	}

	return ident, nil
}

func (s *IdentityService) confirmationURL(token string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("redirect_to", s.opts.SiteURL)
	return strings.TrimRight(s.opts.BaseURL, "/") + "/api/v1/auth/confirm?" + q.Encode()
}

func (s *IdentityService) VerifyCredential(ctx context.Context, email, password string) (*models.Session, error) {
	ident, err := s.GetByEmail(ctx, email)
	if errors.Is(err, ErrIdentityNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if s.opts.RequireEmailConfirmation && !ident.EmailConfirmed() {
		return nil, ErrEmailNotConfirmed
	}

	return s.startSession(ctx, ident)
}

// SignInExternal opens a session for an already registered identity that
// authenticated through an OAuth provider.
func (s *IdentityService) SignInExternal(ctx context.Context, info *oauth.UserInfo) (*models.Session, error) {
	if info == nil || info.Email == "" {
		return nil, ErrIdentityNotFound
	}
	ident, err := s.GetByEmail(ctx, info.Email)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, ident)
}

func (s *IdentityService) startSession(ctx context.Context, ident *models.Identity) (*models.Session, error) {
	sessionID := uuid.New()
	pair, err := s.jwt.GenerateTokenPair(ident.ID, sessionID, ident.Email, ident.Metadata.Role)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.jwt.RefreshExpiry())
	if err := s.sessions.Create(ctx, sessionID, ident.ID, HashToken(pair.RefreshToken), expiresAt); err != nil {
		return nil, err
	}

	if err := s.db.Pool.QueryRow(ctx, `
		UPDATE identities SET last_sign_in_at = NOW() WHERE id = $1
		RETURNING last_sign_in_at
	`, ident.ID).Scan(&ident.LastSignInAt); err != nil {
		log.Printf("Failed to record sign-in for identity %s: %v", ident.ID, err)
	}

	sess := &models.Session{
		ID:           sessionID,
		IdentityID:   ident.ID,
		ExpiresAt:    expiresAt,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		User:         ident,
	}

	s.publish(models.AuthEvent{
		Type:       models.EventSignedIn,
		IdentityID: ident.ID,
		SessionID:  sessionID,
		Session:    sess,
		User:       ident,
	})

	return sess, nil
}

// SignOut ends one session. A session that is already gone counts as
// signed out.
func (s *IdentityService) SignOut(ctx context.Context, identityID, sessionID uuid.UUID) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}

	s.publish(models.AuthEvent{
		Type:       models.EventSignedOut,
		IdentityID: identityID,
		SessionID:  sessionID,
	})
	return nil
}

// GetSession returns (nil, nil) when there is no live session.
func (s *IdentityService) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ident, err := s.GetByID(ctx, sess.IdentityID)
	if errors.Is(err, ErrIdentityNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess.User = ident
	return sess, nil
}

func (s *IdentityService) RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	identityID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	ident, err := s.GetByID(ctx, identityID)
	if errors.Is(err, ErrIdentityNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}

	pair, err := s.jwt.GenerateTokenPair(ident.ID, claims.SessionID, ident.Email, ident.Metadata.Role)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.jwt.RefreshExpiry())
	err = s.sessions.Rotate(ctx, claims.SessionID, HashToken(refreshToken), HashToken(pair.RefreshToken), expiresAt)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}

	sess := &models.Session{
		ID:           claims.SessionID,
		IdentityID:   ident.ID,
		ExpiresAt:    expiresAt,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		User:         ident,
	}

	s.publish(models.AuthEvent{
		Type:       models.EventTokenRefreshed,
		IdentityID: ident.ID,
		SessionID:  sess.ID,
		Session:    sess,
		User:       ident,
	})

	return sess, nil
}

func (s *IdentityService) ConfirmEmail(ctx context.Context, token string) (*models.Identity, error) {
	ident, err := scanIdentity(s.db.Pool.QueryRow(ctx, `
		UPDATE identities
		SET email_confirmed_at = NOW(), confirmation_token_hash = NULL, updated_at = NOW()
		WHERE confirmation_token_hash = $1
		RETURNING `+identityColumns, HashToken(token)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidConfirmationToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to confirm email: %w", err)
	}

	s.publish(models.AuthEvent{Type: models.EventUserUpdated, IdentityID: ident.ID, User: ident})
	return ident, nil
}

// UpdateName rewrites the display name in the metadata bag.
func (s *IdentityService) UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.Identity, error) {
	ident, err := scanIdentity(s.db.Pool.QueryRow(ctx, `
		UPDATE identities
		SET raw_user_meta_data = jsonb_set(raw_user_meta_data, '{name}', to_jsonb($2::text)), updated_at = NOW()
		WHERE id = $1
		RETURNING `+identityColumns, id, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update identity: %w", err)
	}

	s.publish(models.AuthEvent{Type: models.EventUserUpdated, IdentityID: ident.ID, User: ident})
	return ident, nil
}

func (s *IdentityService) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrIdentityNotFound
	}
	return nil
}

func (s *IdentityService) GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	ident, err := scanIdentity(s.db.Pool.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	return ident, nil
}

func (s *IdentityService) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	ident, err := scanIdentity(s.db.Pool.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE LOWER(email) = $1`, normalizeEmail(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	return ident, nil
}

func (s *IdentityService) publish(ev models.AuthEvent) {
	if s.events != nil {
		s.events.Publish(ev)
	}
}
