package handlers

import (
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"labstock/internal/auth"
	"labstock/internal/authz"
	"labstock/internal/models"
)

// Logs returns recent audit entries. Regular users see their own;
// user managers can pass ?all=1 to see everyone's.
func Logs(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.UserFrom(r.Context())
		all := r.URL.Query().Get("all") == "1"
		logs := []models.AuditLog{}
		if all && authz.Can(u, authz.LogsReadAll) {
			_ = db.Order("created_at desc").Limit(200).Find(&logs).Error
		} else {
			_ = db.Where("user_id = ?", u.UserID).Order("created_at desc").Limit(200).Find(&logs).Error
		}
		respondJSON(w, logs)
	}
}
