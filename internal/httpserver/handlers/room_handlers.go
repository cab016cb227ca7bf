package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"labstock/internal/auth"
	"labstock/internal/authz"
	"labstock/internal/models"
)

type roomsPage struct {
	Data  []models.Room `json:"data"`
	Count int64         `json:"count"`
}

// Room routes check permissions before existence, unlike item routes.

type roomCreateReq struct {
	RoomNumber  string     `json:"room_number"`
	RoomPlace   string     `json:"room_place"`
	RoomOwnerID *uuid.UUID `json:"room_owner_id"`
}

func CreateRoom(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.UserFrom(r.Context())
		if !authz.Can(u, authz.RoomsEdit) {
			http.Error(w, "not enough permissions", http.StatusForbidden)
			return
		}
		var req roomCreateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.RoomNumber == "" || req.RoomPlace == "" {
			http.Error(w, "room_number and room_place required", http.StatusBadRequest)
			return
		}
		if tooLong(req.RoomNumber) || tooLong(req.RoomPlace) {
			http.Error(w, "field exceeds 255 characters", http.StatusBadRequest)
			return
		}
		owner := req.RoomOwnerID
		if owner == nil {
			id := u.UserID
			owner = &id
		}
		room := models.Room{RoomNumber: req.RoomNumber, RoomPlace: req.RoomPlace, RoomOwnerID: owner}
		if err := db.Create(&room).Error; err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		recordAudit(db, lg, u.UserID, "room.create", map[string]any{"room_id": room.RoomID, "room_number": room.RoomNumber})
		respondJSON(w, room)
	}
}

func ListRooms(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authz.Can(auth.UserFrom(r.Context()), authz.RoomsRead) {
			http.Error(w, "not enough permissions", http.StatusForbidden)
			return
		}
		skip, limit := pageParams(r)
		var count int64
		if err := db.Model(&models.Room{}).Count(&count).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		rooms := []models.Room{}
		if err := db.Offset(skip).Limit(limit).Find(&rooms).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, roomsPage{Data: rooms, Count: count})
	}
}

func loadRoom(db *gorm.DB, w http.ResponseWriter, r *http.Request) (*models.Room, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return nil, false
	}
	var room models.Room
	if err := db.First(&room, "room_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return nil, false
	}
	return &room, true
}

func GetRoom(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authz.Can(auth.UserFrom(r.Context()), authz.RoomsRead) {
			http.Error(w, "not enough permissions", http.StatusForbidden)
			return
		}
		room, ok := loadRoom(db, w, r)
		if !ok {
			return
		}
		respondJSON(w, room)
	}
}

type roomUpdateReq struct {
	RoomNumber  models.Optional[string]    `json:"room_number"`
	RoomPlace   models.Optional[string]    `json:"room_place"`
	RoomOwnerID models.Optional[uuid.UUID] `json:"room_owner_id"`
}

func UpdateRoom(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.UserFrom(r.Context())
		if !authz.Can(u, authz.RoomsEdit) {
			http.Error(w, "not enough permissions", http.StatusForbidden)
			return
		}
		room, ok := loadRoom(db, w, r)
		if !ok {
			return
		}
		var req roomUpdateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.RoomNumber.Present() {
			v, ok := req.RoomNumber.Get()
			if !ok || v == "" {
				http.Error(w, "room_number cannot be empty", http.StatusBadRequest)
				return
			}
			if tooLong(v) {
				http.Error(w, "room_number exceeds 255 characters", http.StatusBadRequest)
				return
			}
			room.RoomNumber = v
		}
		if req.RoomPlace.Present() {
			v, ok := req.RoomPlace.Get()
			if !ok || v == "" {
				http.Error(w, "room_place cannot be empty", http.StatusBadRequest)
				return
			}
			if tooLong(v) {
				http.Error(w, "room_place exceeds 255 characters", http.StatusBadRequest)
				return
			}
			room.RoomPlace = v
		}
		if req.RoomOwnerID.Present() {
			room.RoomOwnerID = req.RoomOwnerID.Ptr()
		}
		if err := db.Save(room).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		recordAudit(db, lg, u.UserID, "room.update", map[string]any{"room_id": room.RoomID})
		respondJSON(w, room)
	}
}

func DeleteRoom(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.UserFrom(r.Context())
		if !authz.Can(u, authz.RoomsEdit) {
			http.Error(w, "not enough permissions", http.StatusForbidden)
			return
		}
		room, ok := loadRoom(db, w, r)
		if !ok {
			return
		}
		if err := db.Delete(room).Error; err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		recordAudit(db, lg, u.UserID, "room.delete", map[string]any{"room_id": room.RoomID})
		respondJSON(w, map[string]any{"message": "Room deleted successfully"})
	}
}
