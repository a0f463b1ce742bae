package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditLog is one recorded workflow event
type AuditLog struct {
	ID         uuid.UUID  `db:"id"`
	ActorID    *uuid.UUID `db:"actor_id"`
	Action     string     `db:"action"`
	EntityType string     `db:"entity_type"`
	EntityID   *string    `db:"entity_id"`
	IPAddress  string     `db:"ip_address"`
	UserAgent  string     `db:"user_agent"`
	Details    []byte     `db:"details"`
	CreatedAt  time.Time  `db:"created_at"`
}

// AuditLogRepository handles database operations for audit_logs
type AuditLogRepository struct {
	db DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Insert records one audit event
func (r *AuditLogRepository) Insert(actorID *uuid.UUID, action, entityType string, entityID *string, ipAddress, userAgent string, details map[string]interface{}) error {
	var detailsJSON []byte
	if details != nil {
		var err error
		detailsJSON, err = json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
	}

	query := `
		INSERT INTO audit_logs (id, actor_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(query, uuid.New(), actorID, action, entityType, entityID,
		ipAddress, userAgent, detailsJSON, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}
