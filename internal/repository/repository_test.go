package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/segyhp/parking-billing/internal/domain"
	"github.com/segyhp/parking-billing/internal/repository"
	"github.com/segyhp/parking-billing/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpaceRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := repository.NewSpaceRepository(db)
	ctx := context.Background()
	companyID := uuid.New()

	space := testutil.NewSpace(companyID, "PS-0001", 300)
	require.NoError(t, repo.Create(ctx, space))

	got, err := repo.GetByID(ctx, companyID, space.ID)
	require.NoError(t, err)
	assert.Equal(t, space.ID, got.ID)
	assert.Equal(t, "PS-0001", got.Code)
	assert.Equal(t, domain.SpaceStatusAvailable, got.Status)
	assert.True(t, decimal.NewFromInt(300).Equal(got.MonthlyRate))

	count, err := repo.Count(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSpaceRepository_TenantScoping(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := repository.NewSpaceRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	space := testutil.NewSpace(owner, "PS-0001", 300)
	require.NoError(t, repo.Create(ctx, space))

	_, err := repo.GetByID(ctx, uuid.New(), space.ID)
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	spaces, err := repo.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Len(t, spaces, 0)
}

func TestSpaceRepository_DuplicateCode(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := repository.NewSpaceRepository(db)
	ctx := context.Background()
	companyID := uuid.New()

	require.NoError(t, repo.Create(ctx, testutil.NewSpace(companyID, "PS-0001", 300)))

	err := repo.Create(ctx, testutil.NewSpace(companyID, "PS-0001", 300))
	require.Error(t, err)
	assert.True(t, repository.IsUniqueViolation(err))

	// Same code under another company is fine
	require.NoError(t, repo.Create(ctx, testutil.NewSpace(uuid.New(), "PS-0001", 300)))
}

func TestSpaceRepository_TransitionStatus(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := repository.NewSpaceRepository(db)
	ctx := context.Background()
	companyID := uuid.New()

	space := testutil.NewSpace(companyID, "PS-0001", 300)
	require.NoError(t, repo.Create(ctx, space))

	err := repo.TransitionStatus(ctx, companyID, space.ID, domain.SpaceStatusAvailable, domain.SpaceStatusOccupied)
	require.NoError(t, err)

	// A second occupy attempt finds the space already occupied
	err = repo.TransitionStatus(ctx, companyID, space.ID, domain.SpaceStatusAvailable, domain.SpaceStatusOccupied)
	assert.ErrorIs(t, err, repository.ErrStatusConflict)

	got, err := repo.GetByID(ctx, companyID, space.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SpaceStatusOccupied, got.Status)
}

func TestRentalRepository_CreateGetAndEnd(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	companyID := uuid.New()

	space := testutil.NewSpace(companyID, "PS-0001", 300)
	require.NoError(t, repository.NewSpaceRepository(db).Create(ctx, space))

	repo := repository.NewRentalRepository(db)
	rental := testutil.NewRental(space, "RN-0001", testutil.Date(2024, 1, 1))
	require.NoError(t, repo.Create(ctx, rental))

	got, err := repo.GetByID(ctx, companyID, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, "RN-0001", got.Code)
	assert.Nil(t, got.EndDate)
	assert.Nil(t, got.TotalDays)
	assert.False(t, got.TotalAmount.Valid)
	assert.True(t, testutil.Date(2024, 1, 1).Equal(got.StartDate))
	assert.Equal(t, domain.RentalStatusActive, got.Status)

	end := testutil.Date(2024, 1, 31)
	days := 30
	got.EndDate = &end
	got.TotalDays = &days
	got.TotalAmount = decimal.NewNullDecimal(decimal.NewFromInt(300))
	require.NoError(t, repo.End(ctx, got))

	ended, err := repo.GetByIDForUpdate(ctx, companyID, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusEnded, ended.Status)
	require.NotNil(t, ended.EndDate)
	assert.True(t, end.Equal(*ended.EndDate))
	require.NotNil(t, ended.TotalDays)
	assert.Equal(t, 30, *ended.TotalDays)
	assert.True(t, ended.TotalAmount.Valid)
	assert.True(t, decimal.NewFromInt(300).Equal(ended.TotalAmount.Decimal))

	// Ending twice is a conflict
	assert.ErrorIs(t, repo.End(ctx, ended), repository.ErrStatusConflict)
}

func TestRentalRepository_OneActiveRentalPerSpace(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	companyID := uuid.New()

	space := testutil.NewSpace(companyID, "PS-0001", 300)
	require.NoError(t, repository.NewSpaceRepository(db).Create(ctx, space))

	repo := repository.NewRentalRepository(db)
	require.NoError(t, repo.Create(ctx, testutil.NewRental(space, "RN-0001", testutil.Date(2024, 1, 1))))

	err := repo.Create(ctx, testutil.NewRental(space, "RN-0002", testutil.Date(2024, 1, 2)))
	require.Error(t, err)
	assert.True(t, repository.IsUniqueViolation(err))
}

func TestRentalRepository_ListAndCount(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	companyID := uuid.New()
	otherCompany := uuid.New()

	spaces := repository.NewSpaceRepository(db)
	repo := repository.NewRentalRepository(db)

	first := testutil.NewSpace(companyID, "PS-0001", 300)
	second := testutil.NewSpace(companyID, "PS-0002", 450)
	foreign := testutil.NewSpace(otherCompany, "PS-0001", 300)
	for _, s := range []*domain.Space{first, second, foreign} {
		require.NoError(t, spaces.Create(ctx, s))
	}

	active := testutil.NewRental(first, "RN-0001", testutil.Date(2024, 1, 1))
	require.NoError(t, repo.Create(ctx, active))

	ended := testutil.NewRental(second, "RN-0002", testutil.Date(2024, 2, 1))
	end := testutil.Date(2024, 2, 10)
	ended.EndDate = &end
	ended.Status = domain.RentalStatusEnded
	require.NoError(t, repo.Create(ctx, ended))

	require.NoError(t, repo.Create(ctx, testutil.NewRental(foreign, "RN-0001", testutil.Date(2024, 1, 1))))

	all, err := repo.List(ctx, companyID, domain.RentalFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "RN-0002", all[0].Code) // newest start first

	onlyActive, err := repo.List(ctx, companyID, domain.RentalFilter{Status: domain.RentalStatusActive})
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, active.ID, onlyActive[0].ID)

	allActive, err := repo.ListAllActive(ctx)
	require.NoError(t, err)
	assert.Len(t, allActive, 2)

	count, err := repo.Count(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPaymentRepository_CreateListAndTotal(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	companyID := uuid.New()

	space := testutil.NewSpace(companyID, "PS-0001", 300)
	require.NoError(t, repository.NewSpaceRepository(db).Create(ctx, space))
	rental := testutil.NewRental(space, "RN-0001", testutil.Date(2024, 1, 1))
	require.NoError(t, repository.NewRentalRepository(db).Create(ctx, rental))

	repo := repository.NewPaymentRepository(db)

	total, err := repo.GetTotalPaid(ctx, companyID, rental.ID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	later := testutil.NewPayment(rental, 25, testutil.Date(2024, 1, 20))
	earlier := testutil.NewPayment(rental, 60, testutil.Date(2024, 1, 5))
	require.NoError(t, repo.Create(ctx, later))
	require.NoError(t, repo.Create(ctx, earlier))

	payments, err := repo.GetByRentalID(ctx, companyID, rental.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, earlier.ID, payments[0].ID)
	assert.Equal(t, domain.PaymentMethodCash, payments[0].Method)
	assert.True(t, decimal.NewFromInt(60).Equal(payments[0].Amount))

	total, err = repo.GetTotalPaid(ctx, companyID, rental.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(85).Equal(total), "got %v", total)

	// Other tenants see nothing
	foreign, err := repo.GetByRentalID(ctx, uuid.New(), rental.ID)
	require.NoError(t, err)
	assert.Len(t, foreign, 0)
}

func TestStore_WithinTxRollsBack(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	store := repository.NewStore(db)
	ctx := context.Background()
	companyID := uuid.New()

	space := testutil.NewSpace(companyID, "PS-0001", 300)
	require.NoError(t, store.Repositories().Spaces.Create(ctx, space))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Spaces.TransitionStatus(ctx, companyID, space.ID, domain.SpaceStatusAvailable, domain.SpaceStatusOccupied); err != nil {
			return err
		}
		if err := repos.Rentals.Create(ctx, testutil.NewRental(space, "RN-0001", testutil.Date(2024, 1, 1))); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Repositories().Spaces.GetByID(ctx, companyID, space.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SpaceStatusAvailable, got.Status)

	count, err := store.Repositories().Rentals.Count(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStore_WithinTxCommits(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	store := repository.NewStore(db)
	ctx := context.Background()
	companyID := uuid.New()

	space := testutil.NewSpace(companyID, "PS-0001", 300)
	err := store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Spaces.Create(ctx, space)
	})
	require.NoError(t, err)

	spaces, err := store.Repositories().Spaces.List(ctx, companyID)
	require.NoError(t, err)
	assert.Len(t, spaces, 1)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	require.NoError(t, repository.Migrate(context.Background(), db))
}

func TestIsUniqueViolation_OtherErrors(t *testing.T) {
	assert.False(t, repository.IsUniqueViolation(nil))
	assert.False(t, repository.IsUniqueViolation(errors.New("unique")))
	assert.False(t, repository.IsUniqueViolation(sql.ErrNoRows))
}
