package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"labstock/internal/auth"
	"labstock/internal/models"
)

// userStoreError maps a failed user insert or save to a response:
// uniqueness violations on the email column are the caller's fault,
// anything else is a store failure.
func userStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		http.Error(w, "email already registered", http.StatusBadRequest)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

const (
	minPasswordLen = 8
	maxPasswordLen = 40
)

func badPassword(pw string) bool {
	return len(pw) < minPasswordLen || len(pw) > maxPasswordLen
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var u models.User
		if err := db.First(&u, "email = ?", strings.ToLower(strings.TrimSpace(req.Email))).Error; err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		if err := auth.CheckPassword(u.HashedPassword, req.Password); err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		if !u.IsActive {
			http.Error(w, "inactive user", http.StatusBadRequest)
			return
		}
		tok, err := auth.Sign(u.UserID.String())
		if err != nil {
			http.Error(w, "token error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{"access_token": tok, "token_type": "bearer"})
	}
}

type signupReq struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name"`
}

// Signup is open registration. New accounts carry no lab flags; an
// admin grants them afterwards.
func Signup(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" {
			http.Error(w, "email required", http.StatusBadRequest)
			return
		}
		if tooLong(req.Email) || tooLongPtr(req.FullName) {
			http.Error(w, "field exceeds 255 characters", http.StatusBadRequest)
			return
		}
		if badPassword(req.Password) {
			http.Error(w, "password must be 8-40 characters", http.StatusBadRequest)
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			http.Error(w, "hash error", http.StatusInternalServerError)
			return
		}
		u := models.User{Email: req.Email, FullName: req.FullName, HashedPassword: hash, IsActive: true}
		if err := db.Create(&u).Error; err != nil {
			userStoreError(w, err)
			return
		}
		lg.Infow("user registered", "user_id", u.UserID, "email", u.Email)
		respondJSON(w, u)
	}
}

func Me(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, auth.UserFrom(r.Context()))
	}
}

type updateMeReq struct {
	Email    *string                 `json:"email"`
	FullName models.Optional[string] `json:"full_name"`
}

func UpdateMe(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.UserFrom(r.Context())
		var req updateMeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Email != nil {
			email := strings.TrimSpace(strings.ToLower(*req.Email))
			if email == "" || tooLong(email) {
				http.Error(w, "invalid email", http.StatusBadRequest)
				return
			}
			u.Email = email
		}
		if req.FullName.Present() {
			if v, ok := req.FullName.Get(); ok && tooLong(v) {
				http.Error(w, "full_name exceeds 255 characters", http.StatusBadRequest)
				return
			}
			u.FullName = req.FullName.Ptr()
		}
		if err := db.Save(u).Error; err != nil {
			userStoreError(w, err)
			return
		}
		respondJSON(w, u)
	}
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func ChangePassword(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.UserFrom(r.Context())
		var req changePasswordReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := auth.CheckPassword(u.HashedPassword, req.CurrentPassword); err != nil {
			http.Error(w, "incorrect password", http.StatusBadRequest)
			return
		}
		if req.NewPassword == req.CurrentPassword {
			http.Error(w, "new password cannot match the current one", http.StatusBadRequest)
			return
		}
		if badPassword(req.NewPassword) {
			http.Error(w, "password must be 8-40 characters", http.StatusBadRequest)
			return
		}
		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			http.Error(w, "hash error", http.StatusInternalServerError)
			return
		}
		u.HashedPassword = hash
		if err := db.Save(u).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{"message": "Password updated successfully"})
	}
}
