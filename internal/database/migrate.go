package database

import "fmt"

// schema is executed at startup. Statements are idempotent so restarting the
// server against an existing database is safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS technicians (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL UNIQUE,
		full_name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL UNIQUE,
		email TEXT,
		address TEXT,
		city TEXT,
		category_id TEXT,
		active_service_ids TEXT[] NOT NULL DEFAULT '{}',
		active_zone_id TEXT,
		bank_holder_name TEXT,
		bank_account_number TEXT,
		bank_ifsc_code TEXT,
		bank_name TEXT,
		onboarding_step INT NOT NULL DEFAULT 1,
		verification_status TEXT NOT NULL DEFAULT 'pending',
		global_rejection_reason TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS technician_documents (
		id UUID PRIMARY KEY,
		technician_id UUID NOT NULL REFERENCES technicians(id),
		doc_type TEXT NOT NULL,
		file_url TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		rejection_reason TEXT,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		decided_at TIMESTAMPTZ
	)`,
	// One slot per mandatory document type; 'other' documents may repeat
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_slot
		ON technician_documents (technician_id, doc_type)
		WHERE doc_type <> 'other'`,

	`CREATE TABLE IF NOT EXISTS service_change_requests (
		id UUID PRIMARY KEY,
		technician_id UUID NOT NULL REFERENCES technicians(id),
		service_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		action TEXT NOT NULL,
		proof_url TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		admin_comments TEXT,
		requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		resolved_at TIMESTAMPTZ,
		dismissed BOOLEAN NOT NULL DEFAULT FALSE,
		archived BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	// At most one pending request per service per technician
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_service_requests_pending
		ON service_change_requests (technician_id, service_id)
		WHERE status = 'pending'`,

	`CREATE TABLE IF NOT EXISTS zone_transfer_requests (
		id UUID PRIMARY KEY,
		technician_id UUID NOT NULL REFERENCES technicians(id),
		current_zone_id TEXT NOT NULL,
		requested_zone_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		admin_comments TEXT,
		requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		resolved_at TIMESTAMPTZ,
		dismissed BOOLEAN NOT NULL DEFAULT FALSE,
		archived BOOLEAN NOT NULL DEFAULT FALSE
	)`,

	`CREATE TABLE IF NOT EXISTS bank_update_requests (
		id UUID PRIMARY KEY,
		technician_id UUID NOT NULL REFERENCES technicians(id),
		holder_name TEXT NOT NULL,
		account_number TEXT NOT NULL,
		ifsc_code TEXT NOT NULL,
		bank_name TEXT NOT NULL DEFAULT '',
		proof_url TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		admin_comments TEXT,
		requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		resolved_at TIMESTAMPTZ,
		dismissed BOOLEAN NOT NULL DEFAULT FALSE,
		archived BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	// At most one pending bank change per technician; payouts freeze on it
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_bank_requests_pending
		ON bank_update_requests (technician_id)
		WHERE status = 'pending'`,

	`CREATE TABLE IF NOT EXISTS zones (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		city TEXT NOT NULL,
		center_lat DOUBLE PRECISION NOT NULL DEFAULT 0,
		center_lng DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS service_catalog (
		id TEXT PRIMARY KEY,
		category_id TEXT NOT NULL,
		name TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS audit_logs (
		id UUID PRIMARY KEY,
		actor_id UUID,
		action TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT,
		ip_address TEXT,
		user_agent TEXT,
		details JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate applies the embedded schema
func Migrate(db DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
