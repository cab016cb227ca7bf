package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"labstock/internal/auth"
	"labstock/internal/authz"
	"labstock/internal/models"
)

type itemsPage struct {
	Data  []models.Item `json:"data"`
	Count int64         `json:"count"`
}

// ListItems soft-denies callers outside the lab: they get an empty
// page, not a 403. Every other item route hard-denies.
func ListItems(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.UserFrom(r.Context())
		if !authz.Can(u, authz.ItemsRead) {
			respondJSON(w, itemsPage{Data: []models.Item{}, Count: 0})
			return
		}
		skip, limit := pageParams(r)
		var count int64
		if err := db.Model(&models.Item{}).Count(&count).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		items := []models.Item{}
		if err := db.Offset(skip).Limit(limit).Find(&items).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, itemsPage{Data: items, Count: count})
	}
}

// loadItem fetches the item named in the URL and writes the error
// response itself when the id is malformed or unknown. Existence is
// checked before permissions on item routes.
func loadItem(db *gorm.DB, w http.ResponseWriter, r *http.Request) (*models.Item, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return nil, false
	}
	var it models.Item
	if err := db.First(&it, "item_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "item not found", http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return nil, false
	}
	return &it, true
}

func GetItem(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it, ok := loadItem(db, w, r)
		if !ok {
			return
		}
		if !authz.Can(auth.UserFrom(r.Context()), authz.ItemsRead) {
			http.Error(w, "not enough permissions", http.StatusForbidden)
			return
		}
		respondJSON(w, it)
	}
}

type itemCreateReq struct {
	ItemName       string     `json:"item_name"`
	CurrentRoom    *string    `json:"current_room"`
	Table          *string    `json:"table_name"`
	SystemName     *string    `json:"system_name"`
	CurrentOwnerID *uuid.UUID `json:"current_owner_id"`
	TakenAt        *time.Time `json:"taken_at"`
	ItemImgURL     *string    `json:"item_img_url"`
	ItemVendor     *string    `json:"item_vendor"`
	ItemParams     *string    `json:"item_params"`
	IsAvailable    *bool      `json:"is_available"`
}

func CreateItem(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.UserFrom(r.Context())
		if !authz.Can(u, authz.ItemsEdit) {
			http.Error(w, "not enough permissions", http.StatusForbidden)
			return
		}
		var req itemCreateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.ItemName == "" {
			http.Error(w, "item_name required", http.StatusBadRequest)
			return
		}
		if tooLong(req.ItemName) || tooLongPtr(req.CurrentRoom) || tooLongPtr(req.Table) ||
			tooLongPtr(req.SystemName) || tooLongPtr(req.ItemImgURL) ||
			tooLongPtr(req.ItemVendor) || tooLongPtr(req.ItemParams) {
			http.Error(w, "field exceeds 255 characters", http.StatusBadRequest)
			return
		}
		it := models.Item{
			ItemName:    req.ItemName,
			CurrentRoom: req.CurrentRoom,
			Table:       req.Table,
			SystemName:  req.SystemName,
			// A freshly registered item is held by nobody, whatever the
			// payload claims.
			CurrentOwnerID: nil,
			TakenAt:        req.TakenAt,
			ItemImgURL:     req.ItemImgURL,
			ItemVendor:     req.ItemVendor,
			ItemParams:     req.ItemParams,
			IsAvailable:    true,
		}
		if req.IsAvailable != nil {
			it.IsAvailable = *req.IsAvailable
		}
		if err := db.Create(&it).Error; err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		recordAudit(db, lg, u.UserID, "item.create", map[string]any{"item_id": it.ItemID, "item_name": it.ItemName})
		respondJSON(w, it)
	}
}

type itemUpdateReq struct {
	ItemName   models.Optional[string] `json:"item_name"`
	ItemImgURL models.Optional[string] `json:"item_img_url"`
	ItemVendor models.Optional[string] `json:"item_vendor"`
	ItemParams models.Optional[string] `json:"item_params"`
}

func UpdateItem(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it, ok := loadItem(db, w, r)
		if !ok {
			return
		}
		u := auth.UserFrom(r.Context())
		if !authz.Can(u, authz.ItemsEdit) {
			http.Error(w, "not enough permissions", http.StatusForbidden)
			return
		}
		var req itemUpdateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.ItemName.Present() {
			name, ok := req.ItemName.Get()
			if !ok || name == "" {
				http.Error(w, "item_name cannot be empty", http.StatusBadRequest)
				return
			}
			if tooLong(name) {
				http.Error(w, "item_name exceeds 255 characters", http.StatusBadRequest)
				return
			}
			it.ItemName = name
		}
		for _, f := range []struct {
			in  models.Optional[string]
			out **string
		}{
			{req.ItemImgURL, &it.ItemImgURL},
			{req.ItemVendor, &it.ItemVendor},
			{req.ItemParams, &it.ItemParams},
		} {
			if !f.in.Present() {
				continue
			}
			if v, ok := f.in.Get(); ok && tooLong(v) {
				http.Error(w, "field exceeds 255 characters", http.StatusBadRequest)
				return
			}
			*f.out = f.in.Ptr()
		}
		if err := db.Save(it).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		recordAudit(db, lg, u.UserID, "item.update", map[string]any{"item_id": it.ItemID})
		respondJSON(w, it)
	}
}

type itemTakeReq struct {
	Table          models.Optional[string]    `json:"table_name"`
	CurrentRoom    models.Optional[string]    `json:"current_room"`
	SystemName     models.Optional[string]    `json:"system_name"`
	CurrentOwnerID models.Optional[uuid.UUID] `json:"current_owner_id"`
	TakenAt        models.Optional[time.Time] `json:"taken_at"`
	IsAvailable    models.Optional[bool]      `json:"is_available"`
}

// TakeItem is the take-or-return transition. Fields present in the
// payload are applied verbatim; for each of owner, taken_at and
// availability the default (caller, now, unavailable) fires only when
// the field was omitted. Returning an item is therefore an explicit
// payload: owner null, is_available true.
func TakeItem(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it, ok := loadItem(db, w, r)
		if !ok {
			return
		}
		u := auth.UserFrom(r.Context())
		if !authz.Can(u, authz.ItemsTake) {
			http.Error(w, "not enough permissions", http.StatusForbidden)
			return
		}
		var req itemTakeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, f := range []struct {
			in  models.Optional[string]
			out **string
		}{
			{req.Table, &it.Table},
			{req.CurrentRoom, &it.CurrentRoom},
			{req.SystemName, &it.SystemName},
		} {
			if !f.in.Present() {
				continue
			}
			if v, ok := f.in.Get(); ok && tooLong(v) {
				http.Error(w, "field exceeds 255 characters", http.StatusBadRequest)
				return
			}
			*f.out = f.in.Ptr()
		}
		if req.CurrentOwnerID.Present() {
			it.CurrentOwnerID = req.CurrentOwnerID.Ptr()
		} else {
			owner := u.UserID
			it.CurrentOwnerID = &owner
		}
		if req.TakenAt.Present() {
			it.TakenAt = req.TakenAt.Ptr()
		} else {
			now := time.Now().UTC()
			it.TakenAt = &now
		}
		if req.IsAvailable.Present() {
			v, ok := req.IsAvailable.Get()
			if !ok {
				http.Error(w, "is_available cannot be null", http.StatusBadRequest)
				return
			}
			it.IsAvailable = v
		} else {
			it.IsAvailable = false
		}
		if err := db.Save(it).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		recordAudit(db, lg, u.UserID, "item.take", map[string]any{
			"item_id": it.ItemID, "current_owner_id": it.CurrentOwnerID, "is_available": it.IsAvailable,
		})
		respondJSON(w, it)
	}
}

func DeleteItem(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it, ok := loadItem(db, w, r)
		if !ok {
			return
		}
		u := auth.UserFrom(r.Context())
		if !authz.Can(u, authz.ItemsEdit) {
			http.Error(w, "not enough permissions", http.StatusForbidden)
			return
		}
		if err := db.Delete(it).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		recordAudit(db, lg, u.UserID, "item.delete", map[string]any{"item_id": it.ItemID})
		respondJSON(w, map[string]any{"message": "Item deleted successfully"})
	}
}
