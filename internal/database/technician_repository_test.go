package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistriconnect/technician-backend/internal/models"
)

func setupMockDB(t *testing.T) (DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return &PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}, mock
}

var technicianTestColumns = []string{
	"id", "user_id", "full_name", "phone", "email", "address", "city",
	"category_id", "active_service_ids", "active_zone_id",
	"bank_holder_name", "bank_account_number", "bank_ifsc_code", "bank_name",
	"onboarding_step", "verification_status", "global_rejection_reason",
	"created_at", "updated_at",
}

func technicianRow(id uuid.UUID, step int, status models.VerificationStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(technicianTestColumns).AddRow(
		id, uuid.New(), "Asha Kumar", "+919812345678", nil, nil, nil,
		nil, []byte(`{}`), nil,
		nil, nil, nil, nil,
		step, status, nil,
		now, now,
	)
}

func TestCreateTechnician(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTechnicianRepository(db)

	t.Run("Success", func(t *testing.T) {
		userID := uuid.New()

		mock.ExpectExec(`INSERT INTO technicians`).
			WithArgs(sqlmock.AnyArg(), userID, "Asha Kumar", "+919812345678", sqlmock.AnyArg(),
				models.StepPersonalDetails, models.VerificationPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		tech, err := repo.Create(userID, "Asha Kumar", "+919812345678")
		require.NoError(t, err)
		assert.Equal(t, userID, tech.UserID)
		assert.Equal(t, models.StepPersonalDetails, tech.OnboardingStep)
		assert.Equal(t, models.VerificationPending, tech.VerificationStatus)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO technicians`).
			WillReturnError(fmt.Errorf("database error"))

		tech, err := repo.Create(uuid.New(), "Asha Kumar", "+919812345678")
		assert.Error(t, err)
		assert.Nil(t, tech)
	})
}

func TestGetTechnicianByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTechnicianRepository(db)

	t.Run("Success", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM technicians WHERE id`).
			WithArgs(id).
			WillReturnRows(technicianRow(id, models.StepCompleted, models.VerificationVerified))

		tech, err := repo.GetByID(id)
		require.NoError(t, err)
		assert.Equal(t, id, tech.ID)
		assert.Equal(t, models.VerificationVerified, tech.VerificationStatus)
	})

	t.Run("Not Found", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM technicians WHERE id`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(technicianTestColumns))

		tech, err := repo.GetByID(id)
		assert.Nil(t, tech)

		var notFound *models.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "technician", notFound.Resource)
	})
}

func TestGetForUpdate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTechnicianRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM technicians WHERE id = \$1 FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(technicianRow(id, models.StepBankDetails, models.VerificationPending))
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	tech, err := repo.GetForUpdate(tx, id)
	require.NoError(t, err)
	assert.Equal(t, id, tech.ID)
	assert.Equal(t, models.StepBankDetails, tech.OnboardingStep)
}

func TestUpdateProgress(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTechnicianRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE technicians SET`).
		WithArgs(id, models.StepCompleted, models.VerificationInReview, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)

	err = repo.UpdateProgress(tx, id, models.StepCompleted, models.VerificationInReview, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPendingReview(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTechnicianRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM technicians`).
		WithArgs(models.VerificationInReview).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "full_name", "phone", "city", "onboarding_step", "verification_status", "created_at",
		}).AddRow(
			uuid.New(), "Asha Kumar", "+919812345678", "Pune", models.StepCompleted, models.VerificationInReview, now,
		))

	rows, err := repo.ListPendingReview()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Asha Kumar", rows[0].FullName)
	assert.Equal(t, models.VerificationInReview, rows[0].VerificationStatus)
}
