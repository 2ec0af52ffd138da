package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/portfoliofuturo/portfolio-api/internal/config"
	"github.com/portfoliofuturo/portfolio-api/internal/models"
)

var (
	ErrProvisioningRolledBack = errors.New("account provisioning failed and was rolled back")
	ErrNeedsManualRepair      = errors.New("account provisioning failed and needs manual repair")
)

type Outcome string

const (
	OutcomeProvisioned Outcome = "provisioned"
	// OutcomePartial is only produced in legacy mode, where insert
	// failures after the identity step are logged and swallowed.
	OutcomePartial     Outcome = "partially_provisioned"
	OutcomeRolledBack  Outcome = "rolled_back"
	OutcomeNeedsRepair Outcome = "needs_manual_repair"
)

const (
	stepProfile = "profile"
	stepDetail  = "detail"
)

type IdentityProvider interface {
	CreateIdentity(ctx context.Context, email, password string, meta models.Metadata) (*models.Identity, error)
	DeleteIdentity(ctx context.Context, id uuid.UUID) error
}

type ProfileStore interface {
	InsertProfile(ctx context.Context, identityID uuid.UUID, name string, role models.Role) (*models.Profile, error)
	InsertStudentDetail(ctx context.Context, identityID uuid.UUID, bio *string) (*models.StudentDetail, error)
	InsertCompanyDetail(ctx context.Context, in *models.CompanyDetail) (*models.CompanyDetail, error)
	InsertSchoolDetail(ctx context.Context, in *models.SchoolDetail) (*models.SchoolDetail, error)
	DeleteByIdentity(ctx context.Context, identityID uuid.UUID) error
	GetByIdentity(ctx context.Context, identityID uuid.UUID) (*models.Profile, error)
	HasDetail(ctx context.Context, identityID uuid.UUID, role models.Role) (bool, error)
}

type SignUpInput struct {
	Email       string
	Password    string
	Name        string
	Role        models.Role
	CompanyName string
	Sector      string
	City        string
	State       string
	Description string
	SchoolName  string
	Website     string
	Bio         string
	SchoolCity  string
}

func (in SignUpInput) Metadata() models.Metadata {
	return models.Metadata{
		Name:        in.Name,
		Role:        in.Role,
		CompanyName: in.CompanyName,
		City:        in.City,
		State:       in.State,
		Sector:      in.Sector,
		Description: in.Description,
		SchoolName:  in.SchoolName,
		Website:     in.Website,
		Bio:         in.Bio,
		SchoolCity:  in.SchoolCity,
	}
}

func inputFromMetadata(email string, m models.Metadata) SignUpInput {
	return SignUpInput{
		Email:       email,
		Name:        m.Name,
		Role:        m.Role,
		CompanyName: m.CompanyName,
		Sector:      m.Sector,
		City:        m.City,
		State:       m.State,
		Description: m.Description,
		SchoolName:  m.SchoolName,
		Website:     m.Website,
		Bio:         m.Bio,
		SchoolCity:  m.SchoolCity,
	}
}

type Result struct {
	Identity *models.Identity
	Profile  *models.Profile
	Outcome  Outcome
	// FailedStep names the step that failed, if any.
	FailedStep string
}

type ProvisionerOptions struct {
	Mode          string
	MaxAttempts   int
	RetryInterval time.Duration
	DefaultState  string
}

type Provisioner struct {
	identities IdentityProvider
	profiles   ProfileStore
	opts       ProvisionerOptions
}

func NewProvisioner(identities IdentityProvider, profiles ProfileStore, opts ProvisionerOptions) *Provisioner {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Mode == "" {
		opts.Mode = config.ProvisioningModeSaga
	}
	return &Provisioner{identities: identities, profiles: profiles, opts: opts}
}

// Provision creates the identity, then the profile, then the role detail
// row, strictly in that order. An identity failure is always returned and
// nothing else is written. What happens after that depends on the mode.
func (p *Provisioner) Provision(ctx context.Context, in SignUpInput) (*Result, error) {
	if !in.Role.Valid() {
		return nil, fmt.Errorf("invalid role %q", in.Role)
	}

	ident, err := p.identities.CreateIdentity(ctx, in.Email, in.Password, in.Metadata())
	if err != nil {
		return nil, err
	}

	if p.opts.Mode == config.ProvisioningModeLegacy {
		return p.provisionLegacy(ctx, ident, in), nil
	}
	return p.provisionSaga(ctx, ident, in)
}

func (p *Provisioner) provisionLegacy(ctx context.Context, ident *models.Identity, in SignUpInput) *Result {
	res := &Result{Identity: ident, Outcome: OutcomeProvisioned}

	profile, err := p.profiles.InsertProfile(ctx, ident.ID, in.Name, in.Role)
	if err != nil {
		log.Printf("Profile creation failed for identity %s: %v", ident.ID, err)
		res.Outcome = OutcomePartial
		res.FailedStep = stepProfile
		return res
	}
	res.Profile = profile

	if err := p.insertDetail(ctx, ident.ID, in); err != nil {
		log.Printf("Detail creation failed for identity %s (%s): %v", ident.ID, in.Role, err)
		res.Outcome = OutcomePartial
		res.FailedStep = stepDetail
	}
	return res
}

func (p *Provisioner) provisionSaga(ctx context.Context, ident *models.Identity, in SignUpInput) (*Result, error) {
	res := &Result{Identity: ident}

	var profile *models.Profile
	err := p.retry(ctx, ident.ID, stepProfile, func() error {
		var err error
		profile, err = p.profiles.InsertProfile(ctx, ident.ID, in.Name, in.Role)
		return err
	})
	if err != nil {
		return p.compensate(ctx, res, stepProfile, err)
	}
	res.Profile = profile

	err = p.retry(ctx, ident.ID, stepDetail, func() error {
		return p.insertDetail(ctx, ident.ID, in)
	})
	if err != nil {
		return p.compensate(ctx, res, stepDetail, err)
	}

	res.Outcome = OutcomeProvisioned
	return res, nil
}

// compensate undoes completed steps in reverse: role rows and profile,
// then the identity.
func (p *Provisioner) compensate(ctx context.Context, res *Result, step string, cause error) (*Result, error) {
	res.FailedStep = step
	id := res.Identity.ID
	log.Printf("Provisioning step %s failed for identity %s, rolling back: %v", step, id, cause)

	// the caller may have gone away; compensation must still run
	cctx := context.WithoutCancel(ctx)

	if res.Profile != nil {
		if err := p.profiles.DeleteByIdentity(cctx, id); err != nil {
			log.Printf("Rollback of profile rows failed for identity %s: %v", id, err)
			res.Outcome = OutcomeNeedsRepair
			return res, fmt.Errorf("%w: %s: %w", ErrNeedsManualRepair, step, cause)
		}
		res.Profile = nil
	}

	if err := p.identities.DeleteIdentity(cctx, id); err != nil {
		log.Printf("Rollback of identity %s failed: %v", id, err)
		res.Outcome = OutcomeNeedsRepair
		return res, fmt.Errorf("%w: %s: %w", ErrNeedsManualRepair, step, cause)
	}

	res.Outcome = OutcomeRolledBack
	return res, fmt.Errorf("%w: %s: %w", ErrProvisioningRolledBack, step, cause)
}

// Resume completes an identity whose provisioning stopped early, using the
// metadata bag stored at sign-up. Rows that already exist are kept.
func (p *Provisioner) Resume(ctx context.Context, ident *models.Identity) (*Result, error) {
	in := inputFromMetadata(ident.Email, ident.Metadata)
	if !in.Role.Valid() {
		return nil, fmt.Errorf("identity %s has no valid role in its metadata", ident.ID)
	}

	res := &Result{Identity: ident}

	profile, err := p.profiles.GetByIdentity(ctx, ident.ID)
	if errors.Is(err, ErrProfileNotFound) {
		err = p.retry(ctx, ident.ID, stepProfile, func() error {
			var err error
			profile, err = p.profiles.InsertProfile(ctx, ident.ID, in.Name, in.Role)
			return err
		})
	}
	if err != nil {
		res.Outcome = OutcomeNeedsRepair
		res.FailedStep = stepProfile
		return res, fmt.Errorf("%w: %s: %w", ErrNeedsManualRepair, stepProfile, err)
	}
	res.Profile = profile

	// the stored profile role wins over metadata
	in.Role = profile.Role

	has, err := p.profiles.HasDetail(ctx, ident.ID, in.Role)
	if err == nil && !has && in.Role.HasDetail() {
		err = p.retry(ctx, ident.ID, stepDetail, func() error {
			return p.insertDetail(ctx, ident.ID, in)
		})
	}
	if err != nil {
		res.Outcome = OutcomeNeedsRepair
		res.FailedStep = stepDetail
		return res, fmt.Errorf("%w: %s: %w", ErrNeedsManualRepair, stepDetail, err)
	}

	res.Outcome = OutcomeProvisioned
	return res, nil
}

func (p *Provisioner) retry(ctx context.Context, identityID uuid.UUID, step string, op func() error) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.opts.RetryInterval), uint64(p.opts.MaxAttempts-1)),
		ctx,
	)
	return backoff.RetryNotify(func() error {
		err := op()
		if errors.Is(err, ErrAlreadyExists) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, next time.Duration) {
		log.Printf("Provisioning step %s for identity %s failed, retrying in %s: %v", step, identityID, next, err)
	})
}

// insertDetail writes the role-specific row. Teachers get none.
func (p *Provisioner) insertDetail(ctx context.Context, identityID uuid.UUID, in SignUpInput) error {
	var err error
	switch in.Role {
	case models.RoleStudent:
		_, err = p.profiles.InsertStudentDetail(ctx, identityID, optional(in.Bio))
	case models.RoleCompany:
		_, err = p.profiles.InsertCompanyDetail(ctx, p.companyDetail(identityID, in))
	case models.RoleSchoolAdmin:
		_, err = p.profiles.InsertSchoolDetail(ctx, p.schoolDetail(identityID, in))
	case models.RoleTeacher:
		// teacher_profiles needs a school, which sign-up does not collect
	}
	return err
}

func (p *Provisioner) companyDetail(identityID uuid.UUID, in SignUpInput) *models.CompanyDetail {
	return &models.CompanyDetail{
		IdentityID:  identityID,
		CompanyName: firstNonEmpty(in.CompanyName, in.Name),
		Description: optional(in.Description),
		Sector:      optional(in.Sector),
		City:        in.City,
		State:       firstNonEmpty(in.State, p.opts.DefaultState),
	}
}

func (p *Provisioner) schoolDetail(identityID uuid.UUID, in SignUpInput) *models.SchoolDetail {
	return &models.SchoolDetail{
		IdentityID: identityID,
		City:       firstNonEmpty(in.SchoolCity, in.City),
		State:      firstNonEmpty(in.State, p.opts.DefaultState),
		About:      optional(in.Description),
		Website:    optional(in.Website),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
