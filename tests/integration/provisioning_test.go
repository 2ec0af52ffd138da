package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/portfoliofuturo/portfolio-api/internal/config"
	"github.com/portfoliofuturo/portfolio-api/internal/models"
	"github.com/portfoliofuturo/portfolio-api/internal/services"
	"github.com/portfoliofuturo/portfolio-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected failure")

// flakyProfiles wraps the real store and fails selected steps.
type flakyProfiles struct {
	*services.ProfileService
	failProfile bool
	failDetail  bool
	failDelete  bool
}

func (f *flakyProfiles) InsertProfile(ctx context.Context, identityID uuid.UUID, name string, role models.Role) (*models.Profile, error) {
	if f.failProfile {
		return nil, errInjected
	}
	return f.ProfileService.InsertProfile(ctx, identityID, name, role)
}

func (f *flakyProfiles) InsertStudentDetail(ctx context.Context, identityID uuid.UUID, bio *string) (*models.StudentDetail, error) {
	if f.failDetail {
		return nil, errInjected
	}
	return f.ProfileService.InsertStudentDetail(ctx, identityID, bio)
}

func (f *flakyProfiles) InsertCompanyDetail(ctx context.Context, in *models.CompanyDetail) (*models.CompanyDetail, error) {
	if f.failDetail {
		return nil, errInjected
	}
	return f.ProfileService.InsertCompanyDetail(ctx, in)
}

func (f *flakyProfiles) InsertSchoolDetail(ctx context.Context, in *models.SchoolDetail) (*models.SchoolDetail, error) {
	if f.failDetail {
		return nil, errInjected
	}
	return f.ProfileService.InsertSchoolDetail(ctx, in)
}

func (f *flakyProfiles) DeleteByIdentity(ctx context.Context, identityID uuid.UUID) error {
	if f.failDelete {
		return errInjected
	}
	return f.ProfileService.DeleteByIdentity(ctx, identityID)
}

func flakyProvisioner(st *stack, mode string, profiles *flakyProfiles) *services.Provisioner {
	profiles.ProfileService = st.profiles
	return services.NewProvisioner(st.identities, profiles, services.ProvisionerOptions{
		Mode:          mode,
		MaxAttempts:   2,
		RetryInterval: 10 * time.Millisecond,
		DefaultState:  "SP",
	})
}

func countIdentities(t *testing.T, tdb *testutil.TestDB, email string) int {
	t.Helper()
	var n int
	require.NoError(t, tdb.DB.Pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM identities WHERE email = $1`, email).Scan(&n))
	return n
}

func countAll(t *testing.T, tdb *testutil.TestDB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, tdb.DB.Pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

var detailTables = map[models.Role]string{
	models.RoleStudent:     "student_profiles",
	models.RoleCompany:     "company_profiles",
	models.RoleSchoolAdmin: "school_profiles",
}

func TestProvision_Integration_EveryRoleWithDetail(t *testing.T) {
	tdb := setupTest(t)
	st := sagaStack(tdb)
	fixtures := testutil.NewFixtures(tdb.DB)
	ctx := context.Background()

	for _, role := range []models.Role{models.RoleStudent, models.RoleCompany, models.RoleSchoolAdmin} {
		t.Run(string(role), func(t *testing.T) {
			res, err := st.provisioner.Provision(ctx, fixtures.SignUp(role))

			require.NoError(t, err)
			assert.Equal(t, services.OutcomeProvisioned, res.Outcome)
			id := res.Identity.ID.String()
			assert.Equal(t, 1, tdb.CountRows(t, "profiles", id))
			for r, table := range detailTables {
				want := 0
				if r == role {
					want = 1
				}
				assert.Equal(t, want, tdb.CountRows(t, table, id), table)
			}

			profile, err := st.profiles.GetByIdentity(ctx, res.Identity.ID)
			require.NoError(t, err)
			assert.Equal(t, role, profile.Role)
		})
	}
}

func TestProvision_Integration_CompanyDefaults(t *testing.T) {
	tdb := setupTest(t)
	st := sagaStack(tdb)
	ctx := context.Background()

	res, err := st.provisioner.Provision(ctx, services.SignUpInput{
		Email:    "acme@example.com",
		Password: testutil.DefaultPassword,
		Name:     "Acme",
		Role:     models.RoleCompany,
		City:     "Campinas",
	})
	require.NoError(t, err)

	account, err := st.profiles.GetAccount(ctx, res.Identity.ID)
	require.NoError(t, err)
	require.NotNil(t, account.Company)
	assert.Equal(t, "Acme", account.Company.CompanyName)
	assert.Equal(t, "SP", account.Company.State)
	assert.Nil(t, account.Company.Sector)
}

func TestProvision_Integration_TeacherHasNoDetail(t *testing.T) {
	tdb := setupTest(t)
	st := sagaStack(tdb)
	fixtures := testutil.NewFixtures(tdb.DB)

	res, err := st.provisioner.Provision(context.Background(), fixtures.SignUp(models.RoleTeacher))

	require.NoError(t, err)
	assert.Equal(t, services.OutcomeProvisioned, res.Outcome)
	id := res.Identity.ID.String()
	assert.Equal(t, 1, tdb.CountRows(t, "profiles", id))
	assert.Equal(t, 0, tdb.CountRows(t, "teacher_profiles", id))
	for _, table := range detailTables {
		assert.Equal(t, 0, tdb.CountRows(t, table, id), table)
	}
}

func TestProvision_Integration_IdentityFailureWritesNothing(t *testing.T) {
	tdb := setupTest(t)
	st := sagaStack(tdb)
	fixtures := testutil.NewFixtures(tdb.DB)
	ctx := context.Background()

	in := fixtures.SignUp(models.RoleStudent)
	_, err := st.provisioner.Provision(ctx, in)
	require.NoError(t, err)
	profilesBefore := countAll(t, tdb, "profiles")

	dup := fixtures.SignUp(models.RoleCompany)
	dup.Email = in.Email
	res, err := st.provisioner.Provision(ctx, dup)

	assert.ErrorIs(t, err, services.ErrEmailTaken)
	assert.Nil(t, res)
	assert.Equal(t, 1, countIdentities(t, tdb, in.Email))
	assert.Equal(t, profilesBefore, countAll(t, tdb, "profiles"))
	assert.Equal(t, 0, countAll(t, tdb, "company_profiles"))

	weak := fixtures.SignUp(models.RoleStudent)
	weak.Password = "abc"
	_, err = st.provisioner.Provision(ctx, weak)

	assert.ErrorIs(t, err, services.ErrWeakPassword)
	assert.Equal(t, 0, countIdentities(t, tdb, weak.Email))
}

func TestProvision_Integration_LegacySwallowsProfileFailure(t *testing.T) {
	tdb := setupTest(t)
	st := sagaStack(tdb)
	fixtures := testutil.NewFixtures(tdb.DB)
	provisioner := flakyProvisioner(st, config.ProvisioningModeLegacy, &flakyProfiles{failProfile: true})

	in := fixtures.SignUp(models.RoleStudent)
	res, err := provisioner.Provision(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, services.OutcomePartial, res.Outcome)
	assert.Equal(t, "profile", res.FailedStep)
	assert.Equal(t, 1, countIdentities(t, tdb, in.Email))
	assert.Equal(t, 0, tdb.CountRows(t, "profiles", res.Identity.ID.String()))
}

func TestProvision_Integration_SagaRollsBack(t *testing.T) {
	tdb := setupTest(t)
	st := sagaStack(tdb)
	fixtures := testutil.NewFixtures(tdb.DB)
	provisioner := flakyProvisioner(st, config.ProvisioningModeSaga, &flakyProfiles{failDetail: true})

	in := fixtures.SignUp(models.RoleCompany)
	res, err := provisioner.Provision(context.Background(), in)

	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrProvisioningRolledBack)
	assert.ErrorIs(t, err, errInjected)
	assert.Equal(t, services.OutcomeRolledBack, res.Outcome)
	assert.Equal(t, "detail", res.FailedStep)
	assert.Equal(t, 0, countIdentities(t, tdb, in.Email))
	assert.Equal(t, 0, countAll(t, tdb, "profiles"))

	// the email is free again
	_, err = st.provisioner.Provision(context.Background(), in)
	assert.NoError(t, err)
}

func TestProvision_Integration_NeedsRepairThenResume(t *testing.T) {
	tdb := setupTest(t)
	st := sagaStack(tdb)
	fixtures := testutil.NewFixtures(tdb.DB)
	ctx := context.Background()
	provisioner := flakyProvisioner(st, config.ProvisioningModeSaga, &flakyProfiles{failDetail: true, failDelete: true})

	in := fixtures.SignUp(models.RoleSchoolAdmin)
	res, err := provisioner.Provision(ctx, in)

	require.ErrorIs(t, err, services.ErrNeedsManualRepair)
	assert.Equal(t, services.OutcomeNeedsRepair, res.Outcome)
	assert.Equal(t, 1, countIdentities(t, tdb, in.Email))

	incomplete, err := st.profiles.ListIncomplete(ctx)
	require.NoError(t, err)
	require.Len(t, incomplete, 1)
	assert.Equal(t, res.Identity.ID, incomplete[0].IdentityID)
	assert.True(t, incomplete[0].HasProfile)
	assert.False(t, incomplete[0].HasDetail)

	ident, err := st.identities.GetByEmail(ctx, in.Email)
	require.NoError(t, err)

	resumed, err := st.provisioner.Resume(ctx, ident)
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeProvisioned, resumed.Outcome)
	assert.Equal(t, 1, tdb.CountRows(t, "school_profiles", ident.ID.String()))

	// running it again changes nothing
	_, err = st.provisioner.Resume(ctx, ident)
	require.NoError(t, err)
	assert.Equal(t, 1, tdb.CountRows(t, "profiles", ident.ID.String()))
	assert.Equal(t, 1, tdb.CountRows(t, "school_profiles", ident.ID.String()))

	incomplete, err = st.profiles.ListIncomplete(ctx)
	require.NoError(t, err)
	assert.Empty(t, incomplete)
}

func TestProvision_Integration_ResumeWithoutProfile(t *testing.T) {
	tdb := setupTest(t)
	st := sagaStack(tdb)
	fixtures := testutil.NewFixtures(tdb.DB)
	ctx := context.Background()

	ident := fixtures.CreateIdentity(t, testutil.WithMetadata(models.Metadata{
		Name: "Bia",
		Role: models.RoleStudent,
		Bio:  "Aprendendo Go",
	}))

	res, err := st.provisioner.Resume(ctx, ident)

	require.NoError(t, err)
	assert.Equal(t, services.OutcomeProvisioned, res.Outcome)
	account, err := st.profiles.GetAccount(ctx, ident.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bia", account.Profile.Name)
	require.NotNil(t, account.Student)
	require.NotNil(t, account.Student.Bio)
	assert.Equal(t, "Aprendendo Go", *account.Student.Bio)
}
