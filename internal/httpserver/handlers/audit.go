package handlers

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"labstock/internal/models"
)

// recordAudit appends an audit row for a mutating operation. Audit
// failures are logged, never surfaced to the caller.
func recordAudit(db *gorm.DB, lg *zap.SugaredLogger, userID uuid.UUID, action string, meta map[string]any) {
	b, err := json.Marshal(meta)
	if err != nil {
		b = []byte("{}")
	}
	entry := models.AuditLog{
		UserID:    &userID,
		Action:    action,
		Metadata:  models.JSONB(b),
		CreatedAt: time.Now(),
	}
	if err := db.Create(&entry).Error; err != nil {
		lg.Warnw("audit log write failed", "action", action, "error", err)
	}
}
