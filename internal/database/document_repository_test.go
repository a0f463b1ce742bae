package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistriconnect/technician-backend/internal/models"
)

func TestUpsertDocument(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDocumentRepository(db)
	techID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO technician_documents`).
		WithArgs(sqlmock.AnyArg(), techID, models.DocumentAadhaar, "https://docs/a.pdf",
			models.DocumentPending, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)

	doc, err := repo.Upsert(tx, techID, models.DocumentAadhaar, "https://docs/a.pdf")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, models.DocumentAadhaar, doc.Type)
	assert.Equal(t, models.DocumentPending, doc.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideDocument(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDocumentRepository(db)
	techID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		reason := "photo is unreadable"

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE technician_documents SET`).
			WithArgs(techID, models.DocumentPAN, models.DocumentRejected, reason).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := db.Beginx()
		require.NoError(t, err)

		err = repo.Decide(tx, techID, models.DocumentPAN, models.DocumentRejected, &reason)
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
	})

	t.Run("No Such Slot", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE technician_documents SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		tx, err := db.Beginx()
		require.NoError(t, err)
		defer tx.Rollback()

		err = repo.Decide(tx, techID, models.DocumentPassbook, models.DocumentApproved, nil)

		var notFound *models.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestReplaceDocument_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDocumentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE technician_documents SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	err = repo.Replace(tx, uuid.New(), uuid.New(), "https://docs/new.pdf")

	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "document", notFound.Resource)
}

func TestCountOther(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDocumentRepository(db)
	techID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM technician_documents`).
		WithArgs(techID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	count, err := repo.CountOther(tx, techID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestListByTechnician(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDocumentRepository(db)
	techID := uuid.New()

	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM technician_documents`).
		WithArgs(techID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "technician_id", "doc_type", "file_url", "status", "rejection_reason", "uploaded_at", "decided_at",
		}).AddRow(
			uuid.New(), techID, models.DocumentAadhaar, "https://docs/a.pdf", models.DocumentApproved, nil, now, &now,
		).AddRow(
			uuid.New(), techID, models.DocumentOther, "https://docs/o.pdf", models.DocumentPending, nil, now, nil,
		))

	docs, err := repo.ListByTechnician(techID)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, models.DocumentAadhaar, docs[0].Type)
	assert.Equal(t, models.DocumentApproved, docs[0].Status)
}
