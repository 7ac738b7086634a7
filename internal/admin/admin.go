// Package admin checks the operator key, records the audit trail and
// manages runtime config overrides.
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/playmatatu/tablephysics/internal/models"
)

// HashAdminKey returns the bcrypt hash to put in ADMIN_KEY_HASH.
func HashAdminKey(plainKey string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plainKey), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash key: %w", err)
	}
	return string(hashed), nil
}

// VerifyAdminKey checks a presented key against the stored hash. An empty
// hash rejects everything.
func VerifyAdminKey(hashedKey, plainKey string) bool {
	if hashedKey == "" || plainKey == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedKey), []byte(plainKey)) == nil
}

// LogAdminAction records an admin action in the audit log.
func LogAdminAction(ctx context.Context, db *sqlx.DB, ip, route, action string, details map[string]interface{}, success bool) error {
	if db == nil {
		return nil
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		log.Printf("[ADMIN] Failed to marshal audit details: %v", err)
		detailsJSON = []byte("{}")
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO admin_audit (ip, route, action, details, success, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, ip, route, action, detailsJSON, success)
	if err != nil {
		log.Printf("[ADMIN] Failed to log admin action: %v", err)
	}
	return err
}

// GetAdminAuditLogs returns recent audit entries, newest first.
func GetAdminAuditLogs(ctx context.Context, db *sqlx.DB, limit, offset int) ([]models.AdminAudit, error) {
	var logs []models.AdminAudit
	err := db.SelectContext(ctx, &logs, `
		SELECT id, ip, route, action, details, success, created_at
		FROM admin_audit
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return logs, err
}
