package auth

import (
	"net/http"
	"strings"

	"gorm.io/gorm"

	"labstock/internal/models"
)

// JWTAuth verifies the bearer token, loads the user it names and
// requires the account to be active. The loaded user rides on the
// request context so handlers can evaluate role flags without another
// store round trip.
func JWTAuth(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			sub, err := Verify(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			var u models.User
			if err := db.First(&u, "user_id = ?", sub).Error; err != nil {
				http.Error(w, "user not found", http.StatusUnauthorized)
				return
			}
			if !u.IsActive {
				http.Error(w, "inactive user", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), &u)))
		})
	}
}
