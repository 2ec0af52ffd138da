package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/portfoliofuturo/portfolio-api/internal/database"
	"github.com/portfoliofuturo/portfolio-api/internal/models"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrAlreadyExists   = errors.New("record already exists")
)

// ProfileService owns the profile table and the role detail tables.
type ProfileService struct {
	db *database.DB
}

func NewProfileService(db *database.DB) *ProfileService {
	return &ProfileService{db: db}
}

func insertErr(what string, err error) error {
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w", what, ErrAlreadyExists)
	}
	return fmt.Errorf("failed to insert %s: %w", what, err)
}

func (s *ProfileService) InsertProfile(ctx context.Context, identityID uuid.UUID, name string, role models.Role) (*models.Profile, error) {
	var p models.Profile
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO profiles (user_id, name, role)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, name, role, created_at, updated_at
	`, identityID, name, string(role)).Scan(&p.ID, &p.IdentityID, &p.Name, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, insertErr("profile", err)
	}
	return &p, nil
}

func (s *ProfileService) InsertStudentDetail(ctx context.Context, identityID uuid.UUID, bio *string) (*models.StudentDetail, error) {
	var d models.StudentDetail
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO student_profiles (user_id, bio)
		VALUES ($1, $2)
		RETURNING id, user_id, bio, school_id, created_at, updated_at
	`, identityID, bio).Scan(&d.ID, &d.IdentityID, &d.Bio, &d.SchoolID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, insertErr("student profile", err)
	}
	return &d, nil
}

func (s *ProfileService) InsertCompanyDetail(ctx context.Context, in *models.CompanyDetail) (*models.CompanyDetail, error) {
	var d models.CompanyDetail
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO company_profiles (user_id, company_name, description, sector, city, state, website)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, company_name, description, sector, city, state, website, logo_url, created_at, updated_at
	`, in.IdentityID, in.CompanyName, in.Description, in.Sector, in.City, in.State, in.Website).Scan(
		&d.ID, &d.IdentityID, &d.CompanyName, &d.Description, &d.Sector,
		&d.City, &d.State, &d.Website, &d.LogoURL, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, insertErr("company profile", err)
	}
	return &d, nil
}

func (s *ProfileService) InsertSchoolDetail(ctx context.Context, in *models.SchoolDetail) (*models.SchoolDetail, error) {
	var d models.SchoolDetail
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO school_profiles (user_id, city, state, about, website)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, city, state, about, address, website, logo_url, created_at, updated_at
	`, in.IdentityID, in.City, in.State, in.About, in.Website).Scan(
		&d.ID, &d.IdentityID, &d.City, &d.State, &d.About,
		&d.Address, &d.Website, &d.LogoURL, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, insertErr("school profile", err)
	}
	return &d, nil
}

// DeleteByIdentity removes the profile and every detail row of an identity
// in one transaction. The identity itself is left alone.
func (s *ProfileService) DeleteByIdentity(ctx context.Context, identityID uuid.UUID) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, table := range []string{"teacher_profiles", "student_profiles", "company_profiles", "school_profiles", "profiles"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE user_id = $1`, identityID); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *ProfileService) GetByIdentity(ctx context.Context, identityID uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, user_id, name, role, created_at, updated_at
		FROM profiles WHERE user_id = $1
	`, identityID).Scan(&p.ID, &p.IdentityID, &p.Name, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProfileService) UpdateName(ctx context.Context, identityID uuid.UUID, name string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE profiles SET name = $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING id, user_id, name, role, created_at, updated_at
	`, identityID, name).Scan(&p.ID, &p.IdentityID, &p.Name, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAccount loads the profile and the detail row its role calls for. A
// missing detail row leaves the matching field nil.
func (s *ProfileService) GetAccount(ctx context.Context, identityID uuid.UUID) (*models.Account, error) {
	profile, err := s.GetByIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}

	acct := &models.Account{Profile: profile}
	switch profile.Role {
	case models.RoleStudent:
		acct.Student, err = s.getStudent(ctx, identityID)
	case models.RoleCompany:
		acct.Company, err = s.getCompany(ctx, identityID)
	case models.RoleSchoolAdmin:
		acct.School, err = s.getSchool(ctx, identityID)
	}
	if err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *ProfileService) getStudent(ctx context.Context, identityID uuid.UUID) (*models.StudentDetail, error) {
	var d models.StudentDetail
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, user_id, bio, school_id, created_at, updated_at
		FROM student_profiles WHERE user_id = $1
	`, identityID).Scan(&d.ID, &d.IdentityID, &d.Bio, &d.SchoolID, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *ProfileService) getCompany(ctx context.Context, identityID uuid.UUID) (*models.CompanyDetail, error) {
	var d models.CompanyDetail
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, user_id, company_name, description, sector, city, state, website, logo_url, created_at, updated_at
		FROM company_profiles WHERE user_id = $1
	`, identityID).Scan(
		&d.ID, &d.IdentityID, &d.CompanyName, &d.Description, &d.Sector,
		&d.City, &d.State, &d.Website, &d.LogoURL, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *ProfileService) getSchool(ctx context.Context, identityID uuid.UUID) (*models.SchoolDetail, error) {
	var d models.SchoolDetail
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, user_id, city, state, about, address, website, logo_url, created_at, updated_at
		FROM school_profiles WHERE user_id = $1
	`, identityID).Scan(
		&d.ID, &d.IdentityID, &d.City, &d.State, &d.About,
		&d.Address, &d.Website, &d.LogoURL, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

var detailTables = map[models.Role]string{
	models.RoleStudent:     "student_profiles",
	models.RoleCompany:     "company_profiles",
	models.RoleSchoolAdmin: "school_profiles",
}

// HasDetail reports whether the detail row for role exists. Roles without
// a detail record always report false.
func (s *ProfileService) HasDetail(ctx context.Context, identityID uuid.UUID, role models.Role) (bool, error) {
	table, ok := detailTables[role]
	if !ok {
		return false, nil
	}

	var exists bool
	err := s.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+table+` WHERE user_id = $1)`, identityID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ListIncomplete finds identities missing their profile, or missing the
// detail row their profile role requires.
func (s *ProfileService) ListIncomplete(ctx context.Context) ([]models.IncompleteAccount, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT i.id, i.email,
			COALESCE(p.role::text, i.raw_user_meta_data->>'role', '') AS role,
			p.id IS NOT NULL AS has_profile,
			(st.id IS NOT NULL OR co.id IS NOT NULL OR sc.id IS NOT NULL) AS has_detail,
			i.created_at
		FROM identities i
		LEFT JOIN profiles p ON p.user_id = i.id
		LEFT JOIN student_profiles st ON st.user_id = i.id
		LEFT JOIN company_profiles co ON co.user_id = i.id
		LEFT JOIN school_profiles sc ON sc.user_id = i.id
		WHERE p.id IS NULL
			OR (p.role IN ('STUDENT', 'COMPANY', 'SCHOOL_ADMIN')
				AND st.id IS NULL AND co.id IS NULL AND sc.id IS NULL)
		ORDER BY i.created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.IncompleteAccount
	for rows.Next() {
		var a models.IncompleteAccount
		if err := rows.Scan(&a.IdentityID, &a.Email, &a.Role, &a.HasProfile, &a.HasDetail, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
