package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistriconnect/technician-backend/internal/database"
	"github.com/mistriconnect/technician-backend/internal/models"
	"github.com/mistriconnect/technician-backend/pkg/notify"
)

func newSubmissionService(db database.DB, gateway *fakeGateway, store *fakeStore) *SubmissionService {
	return NewSubmissionService(
		db,
		database.NewTechnicianRepository(db),
		database.NewDocumentRepository(db),
		database.NewCatalogRepository(db),
		store,
		gateway,
	)
}

func expectTechLock(mock sqlmock.Sqlmock, spec techRowSpec) {
	mock.ExpectQuery(`SELECT (.+) FROM technicians WHERE id = \$1 FOR UPDATE`).
		WithArgs(spec.id).
		WillReturnRows(technicianRow(spec))
}

func TestSubmitStep_StepNotReachable(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := newSubmissionService(db, newFakeGateway(), &fakeStore{})
	techID := uuid.New()

	mock.ExpectBegin()
	expectTechLock(mock, techRowSpec{id: techID, step: models.StepAddress, status: models.VerificationPending})
	mock.ExpectRollback()

	_, err := svc.SubmitStep(techID, models.StepZoneSelection, StepPayload{Zone: &ZonePayload{ZoneID: "z1"}})

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "step", validation.Field)
}

func TestSubmitStep_BlockedWhileInReview(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := newSubmissionService(db, newFakeGateway(), &fakeStore{})
	techID := uuid.New()

	mock.ExpectBegin()
	expectTechLock(mock, techRowSpec{id: techID, step: models.StepCompleted, status: models.VerificationInReview})
	mock.ExpectRollback()

	_, err := svc.SubmitStep(techID, models.StepPersonalDetails, StepPayload{
		Personal: &PersonalPayload{FullName: "Asha Kumar"},
	})

	var conflict *models.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, models.CodeInvalidTransition, conflict.Code)
}

func TestSubmitStep_StepOutOfRange(t *testing.T) {
	db, _ := setupMockDB(t)
	svc := newSubmissionService(db, newFakeGateway(), &fakeStore{})

	for _, step := range []int{0, models.StepCompleted, 9} {
		_, err := svc.SubmitStep(uuid.New(), step, StepPayload{})
		var validation *models.ValidationError
		require.ErrorAs(t, err, &validation, "step %d", step)
	}
}

func TestSubmitStep_PersonalAdvancesCounter(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := newSubmissionService(db, newFakeGateway(), &fakeStore{})
	techID := uuid.New()

	mock.ExpectBegin()
	expectTechLock(mock, techRowSpec{id: techID, step: models.StepPersonalDetails, status: models.VerificationPending})
	mock.ExpectExec(`UPDATE technicians SET full_name`).
		WithArgs(techID, "Asha Kumar", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE technicians SET`).
		WithArgs(techID, models.StepAddress, models.VerificationPending, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tech, err := svc.SubmitStep(techID, models.StepPersonalDetails, StepPayload{
		Personal: &PersonalPayload{FullName: "Asha Kumar"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StepAddress, tech.OnboardingStep)
	assert.Equal(t, models.VerificationPending, tech.VerificationStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitStep_RedoEarlierStepKeepsCounter(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := newSubmissionService(db, newFakeGateway(), &fakeStore{})
	techID := uuid.New()

	mock.ExpectBegin()
	expectTechLock(mock, techRowSpec{id: techID, step: models.StepBankDetails, status: models.VerificationPending})
	mock.ExpectExec(`UPDATE technicians SET address`).
		WithArgs(techID, "12 MG Road", "Pune").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE technicians SET`).
		WithArgs(techID, models.StepBankDetails, models.VerificationPending, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tech, err := svc.SubmitStep(techID, models.StepAddress, StepPayload{
		Address: &AddressPayload{Address: "12 MG Road", City: "Pune"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StepBankDetails, tech.OnboardingStep)
}

func TestSubmitStep_BankCompletesOnboarding(t *testing.T) {
	db, mock := setupMockDB(t)
	gateway := newFakeGateway()
	svc := newSubmissionService(db, gateway, &fakeStore{})
	techID := uuid.New()

	mock.ExpectBegin()
	expectTechLock(mock, techRowSpec{id: techID, step: models.StepBankDetails, status: models.VerificationPending})
	mock.ExpectExec(`UPDATE technicians SET`).
		WithArgs(techID, "Asha Kumar", "123456789012", "HDFC0001234", "HDFC").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE technicians SET`).
		WithArgs(techID, models.StepCompleted, models.VerificationInReview, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tech, err := svc.SubmitStep(techID, models.StepBankDetails, StepPayload{
		Bank: &BankPayload{
			HolderName:    "Asha Kumar",
			AccountNumber: "1234 5678 9012",
			IFSCCode:      "hdfc0001234",
			BankName:      "HDFC",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StepCompleted, tech.OnboardingStep)
	assert.Equal(t, models.VerificationInReview, tech.VerificationStatus)
	assert.Equal(t, notify.EventVerificationSubmitted, waitForEvent(t, gateway))
}

func TestSubmitStep_InvalidBankPayload(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := newSubmissionService(db, newFakeGateway(), &fakeStore{})
	techID := uuid.New()

	mock.ExpectBegin()
	expectTechLock(mock, techRowSpec{id: techID, step: models.StepBankDetails, status: models.VerificationPending})
	mock.ExpectRollback()

	_, err := svc.SubmitStep(techID, models.StepBankDetails, StepPayload{
		Bank: &BankPayload{HolderName: "Asha", AccountNumber: "123456789012", IFSCCode: "BAD"},
	})

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "ifsc_code", validation.Field)
}

func TestSubmitStep_DocumentsMissingMandatory(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := newSubmissionService(db, newFakeGateway(), &fakeStore{})
	techID := uuid.New()

	mock.ExpectBegin()
	expectTechLock(mock, techRowSpec{id: techID, step: models.StepDocuments, status: models.VerificationPending})
	mock.ExpectQuery(`SELECT (.+) FROM technician_documents`).
		WithArgs(techID).
		WillReturnRows(documentRows(techID, map[models.DocumentType]models.DocumentStatus{
			models.DocumentAadhaar: models.DocumentPending,
		}))
	mock.ExpectRollback()

	_, err := svc.SubmitStep(techID, models.StepDocuments, StepPayload{})

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "documents", validation.Field)
}

func TestSubmitStep_DocumentsAdvance(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := newSubmissionService(db, newFakeGateway(), &fakeStore{})
	techID := uuid.New()

	mock.ExpectBegin()
	expectTechLock(mock, techRowSpec{id: techID, step: models.StepDocuments, status: models.VerificationPending})
	mock.ExpectQuery(`SELECT (.+) FROM technician_documents`).
		WithArgs(techID).
		WillReturnRows(documentRows(techID, allMandatoryPending()))
	mock.ExpectExec(`UPDATE technicians SET`).
		WithArgs(techID, models.StepBankDetails, models.VerificationPending, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tech, err := svc.SubmitStep(techID, models.StepDocuments, StepPayload{})
	require.NoError(t, err)
	assert.Equal(t, models.StepBankDetails, tech.OnboardingStep)
}

func TestSubmitStep_DocumentsOnlyResubmissionShortcut(t *testing.T) {
	db, mock := setupMockDB(t)
	gateway := newFakeGateway()
	svc := newSubmissionService(db, gateway, &fakeStore{})
	techID := uuid.New()
	sentinel := models.RejectionDocumentsOnly

	mock.ExpectBegin()
	expectTechLock(mock, techRowSpec{
		id: techID, step: models.StepCompleted,
		status: models.VerificationRejected, reason: &sentinel, bank: true,
	})
	mock.ExpectQuery(`SELECT (.+) FROM technician_documents`).
		WithArgs(techID).
		WillReturnRows(documentRows(techID, allMandatoryPending()))
	mock.ExpectExec(`UPDATE technicians SET`).
		WithArgs(techID, models.StepCompleted, models.VerificationInReview, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tech, err := svc.SubmitStep(techID, models.StepDocuments, StepPayload{})
	require.NoError(t, err)
	assert.Equal(t, models.VerificationInReview, tech.VerificationStatus)
	assert.Nil(t, tech.GlobalRejectionReason)
	assert.Equal(t, notify.EventVerificationSubmitted, waitForEvent(t, gateway))
}

func TestSubmitStep_DocumentsShortcutRequiresBankDetails(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := newSubmissionService(db, newFakeGateway(), &fakeStore{})
	techID := uuid.New()
	sentinel := models.RejectionDocumentsOnly

	mock.ExpectBegin()
	expectTechLock(mock, techRowSpec{
		id: techID, step: models.StepCompleted,
		status: models.VerificationRejected, reason: &sentinel,
	})
	mock.ExpectQuery(`SELECT (.+) FROM technician_documents`).
		WithArgs(techID).
		WillReturnRows(documentRows(techID, allMandatoryPending()))
	mock.ExpectExec(`UPDATE technicians SET`).
		WithArgs(techID, models.StepCompleted, models.VerificationRejected, sentinel).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tech, err := svc.SubmitStep(techID, models.StepDocuments, StepPayload{})
	require.NoError(t, err)
	assert.Equal(t, models.VerificationRejected, tech.VerificationStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitStep_ResubmissionWithRejectedDocumentsBlocked(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := newSubmissionService(db, newFakeGateway(), &fakeStore{})
	techID := uuid.New()
	sentinel := models.RejectionDocumentsOnly

	docs := allMandatoryPending()
	docs[models.DocumentPAN] = models.DocumentRejected

	mock.ExpectBegin()
	expectTechLock(mock, techRowSpec{
		id: techID, step: models.StepCompleted,
		status: models.VerificationRejected, reason: &sentinel, bank: true,
	})
	mock.ExpectQuery(`SELECT (.+) FROM technician_documents`).
		WithArgs(techID).
		WillReturnRows(documentRows(techID, docs))
	mock.ExpectRollback()

	_, err := svc.SubmitStep(techID, models.StepDocuments, StepPayload{})

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "documents", validation.Field)
}

func TestSubmitStep_BankResubmissionWithRejectedDocumentsBlocked(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := newSubmissionService(db, newFakeGateway(), &fakeStore{})
	techID := uuid.New()
	reason := "address mismatch"

	docs := allMandatoryPending()
	docs[models.DocumentPAN] = models.DocumentRejected

	mock.ExpectBegin()
	expectTechLock(mock, techRowSpec{
		id: techID, step: models.StepCompleted,
		status: models.VerificationRejected, reason: &reason, bank: true,
	})
	mock.ExpectExec(`UPDATE technicians SET`).
		WithArgs(techID, "Asha Kumar", "123456789012", "HDFC0001234", "HDFC").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM technician_documents`).
		WithArgs(techID).
		WillReturnRows(documentRows(techID, docs))
	mock.ExpectRollback()

	_, err := svc.SubmitStep(techID, models.StepBankDetails, StepPayload{
		Bank: &BankPayload{
			HolderName:    "Asha Kumar",
			AccountNumber: "123456789012",
			IFSCCode:      "HDFC0001234",
			BankName:      "HDFC",
		},
	})

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "documents", validation.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitStep_BankResubmissionWithClearedDocuments(t *testing.T) {
	db, mock := setupMockDB(t)
	gateway := newFakeGateway()
	svc := newSubmissionService(db, gateway, &fakeStore{})
	techID := uuid.New()
	reason := "address mismatch"

	mock.ExpectBegin()
	expectTechLock(mock, techRowSpec{
		id: techID, step: models.StepCompleted,
		status: models.VerificationRejected, reason: &reason, bank: true,
	})
	mock.ExpectExec(`UPDATE technicians SET`).
		WithArgs(techID, "Asha Kumar", "123456789012", "HDFC0001234", "HDFC").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM technician_documents`).
		WithArgs(techID).
		WillReturnRows(documentRows(techID, allMandatoryPending()))
	mock.ExpectExec(`UPDATE technicians SET`).
		WithArgs(techID, models.StepCompleted, models.VerificationInReview, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tech, err := svc.SubmitStep(techID, models.StepBankDetails, StepPayload{
		Bank: &BankPayload{
			HolderName:    "Asha Kumar",
			AccountNumber: "123456789012",
			IFSCCode:      "HDFC0001234",
			BankName:      "HDFC",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.VerificationInReview, tech.VerificationStatus)
	assert.Equal(t, notify.EventVerificationSubmitted, waitForEvent(t, gateway))
}

func TestUploadDocument_StoreFailure(t *testing.T) {
	db, _ := setupMockDB(t)
	svc := newSubmissionService(db, newFakeGateway(), &fakeStore{fail: true})

	_, err := svc.UploadDocument(context.Background(), uuid.New(), models.DocumentAadhaar, nil,
		"aadhaar.pdf", "application/pdf", []byte("%PDF"))

	var upstream *models.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "document store", upstream.Service)
}

func TestUploadDocument_BlockedWhileInReview(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := newSubmissionService(db, newFakeGateway(), &fakeStore{})
	techID := uuid.New()

	mock.ExpectBegin()
	expectTechLock(mock, techRowSpec{id: techID, step: models.StepCompleted, status: models.VerificationInReview})
	mock.ExpectRollback()

	_, err := svc.UploadDocument(context.Background(), techID, models.DocumentAadhaar, nil,
		"aadhaar.pdf", "application/pdf", []byte("%PDF"))

	var conflict *models.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, models.CodeInvalidTransition, conflict.Code)
}

func TestUploadDocument_MandatorySlot(t *testing.T) {
	db, mock := setupMockDB(t)
	store := &fakeStore{}
	svc := newSubmissionService(db, newFakeGateway(), store)
	techID := uuid.New()

	mock.ExpectBegin()
	expectTechLock(mock, techRowSpec{id: techID, step: models.StepDocuments, status: models.VerificationPending})
	mock.ExpectQuery(`INSERT INTO technician_documents`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()

	doc, err := svc.UploadDocument(context.Background(), techID, models.DocumentAadhaar, nil,
		"aadhaar.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, models.DocumentAadhaar, doc.Type)
	assert.Equal(t, models.DocumentPending, doc.Status)
	assert.Len(t, store.saved, 1)
}

func TestUploadDocument_OtherCap(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := newSubmissionService(db, newFakeGateway(), &fakeStore{})
	techID := uuid.New()

	mock.ExpectBegin()
	expectTechLock(mock, techRowSpec{id: techID, step: models.StepDocuments, status: models.VerificationPending})
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM technician_documents`).
		WithArgs(techID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(models.MaxOtherDocuments))
	mock.ExpectRollback()

	_, err := svc.UploadDocument(context.Background(), techID, models.DocumentOther, nil,
		"extra.pdf", "application/pdf", []byte("%PDF"))

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestUploadDocument_RejectsBadInput(t *testing.T) {
	db, _ := setupMockDB(t)
	svc := newSubmissionService(db, newFakeGateway(), &fakeStore{})
	replaceID := uuid.New()

	cases := []struct {
		name        string
		docType     models.DocumentType
		replaceID   *uuid.UUID
		contentType string
	}{
		{"unknown type", "driving_license", nil, "application/pdf"},
		{"bad content type", models.DocumentAadhaar, nil, "application/zip"},
		{"replace id on mandatory slot", models.DocumentAadhaar, &replaceID, "application/pdf"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UploadDocument(context.Background(), uuid.New(), tc.docType, tc.replaceID,
				"file.pdf", tc.contentType, []byte("%PDF"))
			var validation *models.ValidationError
			require.ErrorAs(t, err, &validation)
		})
	}
}

// documentRows builds a ledger result set with one row per type/status pair
func documentRows(techID uuid.UUID, statuses map[models.DocumentType]models.DocumentStatus) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "technician_id", "doc_type", "file_url", "status", "rejection_reason", "uploaded_at", "decided_at",
	})
	now := time.Now()
	for docType, status := range statuses {
		rows.AddRow(uuid.New(), techID, docType, "https://docs/"+string(docType)+".pdf", status, nil, now, nil)
	}
	return rows
}

func allMandatoryPending() map[models.DocumentType]models.DocumentStatus {
	statuses := make(map[models.DocumentType]models.DocumentStatus, len(models.MandatoryDocumentTypes))
	for _, docType := range models.MandatoryDocumentTypes {
		statuses[docType] = models.DocumentPending
	}
	return statuses
}
