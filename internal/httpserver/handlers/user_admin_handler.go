package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"labstock/internal/auth"
	"labstock/internal/models"
)

// Admin user surface. The router gates every route here behind the
// users:manage action.

type usersPage struct {
	Data  []models.User `json:"data"`
	Count int64         `json:"count"`
}

func ListUsers(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, limit := pageParams(r)
		var count int64
		if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		users := []models.User{}
		if err := db.Offset(skip).Limit(limit).Find(&users).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, usersPage{Data: users, Count: count})
	}
}

type userCreateReq struct {
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	FullName     *string `json:"full_name"`
	IsActive     *bool   `json:"is_active"`
	IsSuperuser  bool    `json:"is_superuser"`
	IsPartOfLab  bool    `json:"is_part_of_lab"`
	CanEditItems bool    `json:"can_edit_items"`
	CanEditLabs  bool    `json:"can_edit_labs"`
	CanEditUsers bool    `json:"can_edit_users"`
}

func CreateUser(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userCreateReq
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
		u := models.User{
			Email:          req.Email,
			FullName:       req.FullName,
			HashedPassword: hash,
			IsActive:       true,
			IsSuperuser:    req.IsSuperuser,
			IsPartOfLab:    req.IsPartOfLab,
			CanEditItems:   req.CanEditItems,
			CanEditLabs:    req.CanEditLabs,
			CanEditUsers:   req.CanEditUsers,
		}
		if req.IsActive != nil {
			u.IsActive = *req.IsActive
		}
		if err := db.Create(&u).Error; err != nil {
			userStoreError(w, err)
			return
		}
		respondJSON(w, u)
	}
}

func loadUser(db *gorm.DB, w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return nil, false
	}
	var u models.User
	if err := db.First(&u, "user_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return nil, false
	}
	return &u, true
}

type userUpdateReq struct {
	Email    *string                 `json:"email"`
	FullName models.Optional[string] `json:"full_name"`
	Password *string                 `json:"password"`
	IsActive *bool                   `json:"is_active"`
}

func UpdateUser(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := loadUser(db, w, r)
		if !ok {
			return
		}
		var req userUpdateReq
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
		if req.Password != nil {
			if badPassword(*req.Password) {
				http.Error(w, "password must be 8-40 characters", http.StatusBadRequest)
				return
			}
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				http.Error(w, "hash error", http.StatusInternalServerError)
				return
			}
			u.HashedPassword = hash
		}
		if req.IsActive != nil {
			u.IsActive = *req.IsActive
		}
		if err := db.Save(u).Error; err != nil {
			userStoreError(w, err)
			return
		}
		respondJSON(w, u)
	}
}

type permissionsUpdateReq struct {
	IsPartOfLab  *bool `json:"is_part_of_lab"`
	CanEditItems *bool `json:"can_edit_items"`
	CanEditLabs  *bool `json:"can_edit_labs"`
	CanEditUsers *bool `json:"can_edit_users"`
}

// UpdatePermissions flips individual lab flags. Flags absent from the
// payload are left alone.
func UpdatePermissions(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := loadUser(db, w, r)
		if !ok {
			return
		}
		var req permissionsUpdateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.IsPartOfLab != nil {
			u.IsPartOfLab = *req.IsPartOfLab
		}
		if req.CanEditItems != nil {
			u.CanEditItems = *req.CanEditItems
		}
		if req.CanEditLabs != nil {
			u.CanEditLabs = *req.CanEditLabs
		}
		if req.CanEditUsers != nil {
			u.CanEditUsers = *req.CanEditUsers
		}
		if err := db.Save(u).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		actor := auth.UserFrom(r.Context())
		recordAudit(db, lg, actor.UserID, "user.permissions", map[string]any{
			"user_id": u.UserID, "is_part_of_lab": u.IsPartOfLab, "can_edit_items": u.CanEditItems,
			"can_edit_labs": u.CanEditLabs, "can_edit_users": u.CanEditUsers,
		})
		respondJSON(w, u)
	}
}

func DeleteUser(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := loadUser(db, w, r)
		if !ok {
			return
		}
		actor := auth.UserFrom(r.Context())
		if actor.UserID == u.UserID {
			http.Error(w, "deleting your own account is not allowed", http.StatusForbidden)
			return
		}
		if err := db.Delete(u).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		recordAudit(db, lg, actor.UserID, "user.delete", map[string]any{"user_id": u.UserID})
		respondJSON(w, map[string]any{"message": "User deleted successfully"})
	}
}
