package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/mistriconnect/technician-backend/internal/database"
	"github.com/mistriconnect/technician-backend/internal/models"
)

func setupMockDB(t *testing.T) (database.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return &database.PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}, mock
}

var technicianTestColumns = []string{
	"id", "user_id", "full_name", "phone", "email", "address", "city",
	"category_id", "active_service_ids", "active_zone_id",
	"bank_holder_name", "bank_account_number", "bank_ifsc_code", "bank_name",
	"onboarding_step", "verification_status", "global_rejection_reason",
	"created_at", "updated_at",
}

// techRowSpec describes the technician row the mocked FOR UPDATE select returns
type techRowSpec struct {
	id       uuid.UUID
	step     int
	status   models.VerificationStatus
	services string // Postgres array literal, e.g. "{svc-wiring}"
	zoneID   *string
	reason   *string
	bank     bool // step 6 already saved
}

func technicianRow(spec techRowSpec) *sqlmock.Rows {
	now := time.Now()
	if spec.services == "" {
		spec.services = "{}"
	}
	var holder, account, ifsc, bankName interface{}
	if spec.bank {
		holder, account, ifsc, bankName = "Asha Kumar", "123456789012", "HDFC0001234", "HDFC"
	}
	return sqlmock.NewRows(technicianTestColumns).AddRow(
		spec.id, uuid.New(), "Asha Kumar", "+919812345678", nil, nil, nil,
		"cat-electrical", []byte(spec.services), spec.zoneID,
		holder, account, ifsc, bankName,
		spec.step, spec.status, spec.reason,
		now, now,
	)
}

// fakeStore is an in-memory docstore.Store
type fakeStore struct {
	fail  bool
	saved []string
}

func (f *fakeStore) Save(_ context.Context, objectName, _ string, _ []byte) (string, error) {
	if f.fail {
		return "", fmt.Errorf("bucket unavailable")
	}
	f.saved = append(f.saved, objectName)
	return "https://docs.example.com/" + objectName, nil
}

func (f *fakeStore) GetName() string { return "fake" }

// fakeGateway records notifications on a channel so tests can wait for the
// fire-and-forget goroutine
type fakeGateway struct {
	events chan string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{events: make(chan string, 8)}
}

func (f *fakeGateway) Notify(_, event string, _ map[string]interface{}) error {
	f.events <- event
	return nil
}

func (f *fakeGateway) GetName() string { return "fake" }

// waitForEvent blocks until the gateway sees an event or the test times out
func waitForEvent(t *testing.T, g *fakeGateway) string {
	t.Helper()
	select {
	case event := <-g.events:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return ""
	}
}
